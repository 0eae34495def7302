package repository

import (
    "context"
    "database/sql"

    "github.com/Ioioiog/dashboardly/internal/model"
)

// MessageRepo persists the per-request chat log.  The log is append-only
// and strictly ordered by insertion; sender identity is resolved by join
// at read time rather than stored on the row.
type MessageRepo struct {
    db *sql.DB
}

// NewMessageRepo returns a MessageRepo bound to the given database.
func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

// Insert appends a message and populates its ID and timestamp.
func (r *MessageRepo) Insert(ctx context.Context, m *model.ChatMessage) error {
    const q = `INSERT INTO maintenance_messages (request_id, sender_id, message) VALUES (?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, m.RequestID, m.SenderID, m.Message)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    m.ID = uint64(id)
    const sel = `SELECT created_at FROM maintenance_messages WHERE id = ?`
    return r.db.QueryRowContext(ctx, sel, m.ID).Scan(&m.CreatedAt)
}

const messageDetailQuery = `SELECT msg.id, msg.request_id, msg.sender_id, u.name, u.role, msg.message, msg.created_at
 FROM maintenance_messages msg
 JOIN users u ON u.id = msg.sender_id`

// ListByRequest returns the full log for one request in append order.
func (r *MessageRepo) ListByRequest(ctx context.Context, requestID uint64) ([]model.ChatMessageDetail, error) {
    q := messageDetailQuery + ` WHERE msg.request_id = ? ORDER BY msg.id ASC`
    rows, err := r.db.QueryContext(ctx, q, requestID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.ChatMessageDetail, 0)
    for rows.Next() {
        var d model.ChatMessageDetail
        if err := rows.Scan(&d.ID, &d.RequestID, &d.SenderID, &d.SenderName, &d.SenderRole, &d.Message, &d.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, d)
    }
    return out, rows.Err()
}

// GetDetail returns one message with its sender resolved, or ErrNotFound.
func (r *MessageRepo) GetDetail(ctx context.Context, id uint64) (*model.ChatMessageDetail, error) {
    q := messageDetailQuery + ` WHERE msg.id = ?`
    var d model.ChatMessageDetail
    err := r.db.QueryRowContext(ctx, q, id).Scan(&d.ID, &d.RequestID, &d.SenderID, &d.SenderName, &d.SenderRole, &d.Message, &d.CreatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    return &d, nil
}
