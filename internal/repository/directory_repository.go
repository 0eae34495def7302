package repository

import (
    "context"
    "database/sql"

    "github.com/Ioioiog/dashboardly/internal/model"
)

// DirectoryRepo is the engine's read-only view of tables owned by the
// property/tenant CRUD surface: which landlord owns a property, which
// property a tenant occupies, and user display identity for chat.
type DirectoryRepo struct {
    db *sql.DB
}

// NewDirectoryRepo returns a DirectoryRepo bound to the given database.
func NewDirectoryRepo(db *sql.DB) *DirectoryRepo { return &DirectoryRepo{db: db} }

// PropertyOwner resolves a property to its owning landlord.
func (r *DirectoryRepo) PropertyOwner(ctx context.Context, propertyID uint64) (uint64, error) {
    const q = `SELECT owner_id FROM properties WHERE id = ?`
    var ownerID uint64
    err := r.db.QueryRowContext(ctx, q, propertyID).Scan(&ownerID)
    if err == sql.ErrNoRows {
        return 0, ErrNotFound
    }
    return ownerID, err
}

// TenantProperty resolves a tenant to the property they actively occupy.
func (r *DirectoryRepo) TenantProperty(ctx context.Context, tenantID uint64) (uint64, error) {
    const q = `SELECT property_id FROM tenancies WHERE tenant_id = ? AND active = TRUE`
    var propertyID uint64
    err := r.db.QueryRowContext(ctx, q, tenantID).Scan(&propertyID)
    if err == sql.ErrNoRows {
        return 0, ErrNotFound
    }
    return propertyID, err
}

// User returns display identity for one user, or ErrNotFound.
func (r *DirectoryRepo) User(ctx context.Context, id uint64) (*model.UserInfo, error) {
    const q = `SELECT id, name, role FROM users WHERE id = ?`
    var u model.UserInfo
    err := r.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &u.Name, &u.Role)
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    return &u, nil
}
