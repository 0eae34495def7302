package repository

import (
    "context"
    "database/sql"

    "github.com/Ioioiog/dashboardly/internal/model"
)

// DocumentRepo persists metadata for private documents attached to a
// request.  Blob bytes live in the maintenance-documents namespace; the
// row only carries the object path.  There is no transaction spanning
// blob and row, so callers surface (and live with) the gap between the
// two steps.
type DocumentRepo struct {
    db *sql.DB
}

// NewDocumentRepo returns a DocumentRepo bound to the given database.
func NewDocumentRepo(db *sql.DB) *DocumentRepo { return &DocumentRepo{db: db} }

// Insert records a stored blob's metadata.
func (r *DocumentRepo) Insert(ctx context.Context, d *model.Document) error {
    const q = `INSERT INTO maintenance_documents (request_id, object_path, filename, uploaded_by) VALUES (?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, d.RequestID, d.ObjectPath, d.Filename, d.UploadedBy)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    d.ID = uint64(id)
    const sel = `SELECT created_at FROM maintenance_documents WHERE id = ?`
    return r.db.QueryRowContext(ctx, sel, d.ID).Scan(&d.CreatedAt)
}

// GetByID returns one document or ErrNotFound.
func (r *DocumentRepo) GetByID(ctx context.Context, id uint64) (*model.Document, error) {
    const q = `SELECT id, request_id, object_path, filename, uploaded_by, created_at FROM maintenance_documents WHERE id = ?`
    var d model.Document
    err := r.db.QueryRowContext(ctx, q, id).Scan(&d.ID, &d.RequestID, &d.ObjectPath, &d.Filename, &d.UploadedBy, &d.CreatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    return &d, nil
}

// ListByRequest returns a request's documents in upload order.
func (r *DocumentRepo) ListByRequest(ctx context.Context, requestID uint64) ([]model.Document, error) {
    const q = `SELECT id, request_id, object_path, filename, uploaded_by, created_at FROM maintenance_documents WHERE request_id = ? ORDER BY id ASC`
    rows, err := r.db.QueryContext(ctx, q, requestID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Document, 0)
    for rows.Next() {
        var d model.Document
        if err := rows.Scan(&d.ID, &d.RequestID, &d.ObjectPath, &d.Filename, &d.UploadedBy, &d.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, d)
    }
    return out, rows.Err()
}

// Delete removes the metadata row.  Removing the blob afterwards is the
// caller's second step; its failure leaves a dangling reference by
// design of the two-step protocol.
func (r *DocumentRepo) Delete(ctx context.Context, id uint64) error {
    const q = `DELETE FROM maintenance_documents WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrNotFound
    }
    return nil
}
