package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/Ioioiog/dashboardly/internal/model"
)

// NotificationRepo computes unread counts and performs the bulk
// mark-as-read flips for the notification aggregator.  The maintenance
// category derives from the entity read flags; messages and payments
// derive from a per-user, per-category read marker row.
type NotificationRepo struct {
    db *sql.DB
}

// NewNotificationRepo returns a NotificationRepo bound to the given database.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// MaintenanceUnread counts pending requests the user has not seen:
// requests on owned properties with read_by_landlord unset for a
// landlord, the tenant's own requests with read_by_tenant unset for a
// tenant.  Contractors carry no read flag and always count zero.
func (r *NotificationRepo) MaintenanceUnread(ctx context.Context, userID uint64, role string) (int, error) {
    switch role {
    case model.RoleLandlord:
        const q = `SELECT COUNT(*) FROM maintenance_requests m
 JOIN properties p ON p.id = m.property_id
 WHERE p.owner_id = ? AND m.status = ? AND m.read_by_landlord = FALSE`
        return r.count(ctx, q, userID, model.StatusPending)
    case model.RoleTenant:
        const q = `SELECT COUNT(*) FROM maintenance_requests WHERE tenant_id = ? AND status = ? AND read_by_tenant = FALSE`
        return r.count(ctx, q, userID, model.StatusPending)
    }
    return 0, nil
}

// MessagesUnread counts chat messages from other senders on requests in
// the user's scope, created after the user's read marker.
func (r *NotificationRepo) MessagesUnread(ctx context.Context, userID uint64, role string, since time.Time) (int, error) {
    switch role {
    case model.RoleLandlord:
        const q = `SELECT COUNT(*) FROM maintenance_messages msg
 JOIN maintenance_requests m ON m.id = msg.request_id
 JOIN properties p ON p.id = m.property_id
 WHERE p.owner_id = ? AND msg.sender_id <> ? AND msg.created_at > ?`
        return r.count(ctx, q, userID, userID, since)
    case model.RoleTenant:
        const q = `SELECT COUNT(*) FROM maintenance_messages msg
 JOIN maintenance_requests m ON m.id = msg.request_id
 WHERE m.tenant_id = ? AND msg.sender_id <> ? AND msg.created_at > ?`
        return r.count(ctx, q, userID, userID, since)
    case model.RoleContractor:
        const q = `SELECT COUNT(*) FROM maintenance_messages msg
 JOIN maintenance_requests m ON m.id = msg.request_id
 WHERE m.assigned_to = ? AND msg.sender_id <> ? AND msg.created_at > ?`
        return r.count(ctx, q, userID, userID, since)
    }
    return 0, nil
}

// PaymentsUnread counts requests in the user's scope whose payment is
// still pending and that changed after the user's read marker.
func (r *NotificationRepo) PaymentsUnread(ctx context.Context, userID uint64, role string, since time.Time) (int, error) {
    switch role {
    case model.RoleLandlord:
        const q = `SELECT COUNT(*) FROM maintenance_requests m
 JOIN properties p ON p.id = m.property_id
 WHERE p.owner_id = ? AND m.payment_status = 'pending' AND m.updated_at > ?`
        return r.count(ctx, q, userID, since)
    case model.RoleTenant:
        const q = `SELECT COUNT(*) FROM maintenance_requests WHERE tenant_id = ? AND payment_status = 'pending' AND updated_at > ?`
        return r.count(ctx, q, userID, since)
    }
    return 0, nil
}

// ReadMarker returns when the user last marked the category read; the
// zero time when they never have.
func (r *NotificationRepo) ReadMarker(ctx context.Context, userID uint64, category string) (time.Time, error) {
    const q = `SELECT read_at FROM notification_reads WHERE user_id = ? AND category = ?`
    var at time.Time
    err := r.db.QueryRowContext(ctx, q, userID, category).Scan(&at)
    if err == sql.ErrNoRows {
        return time.Time{}, nil
    }
    return at, err
}

// SetReadMarker upserts the user's read marker for a category.
func (r *NotificationRepo) SetReadMarker(ctx context.Context, userID uint64, category string, at time.Time) error {
    const q = `INSERT INTO notification_reads (user_id, category, read_at) VALUES (?, ?, ?)
 ON DUPLICATE KEY UPDATE read_at = VALUES(read_at)`
    _, err := r.db.ExecContext(ctx, q, userID, category, at)
    return err
}

// MarkMaintenanceRead bulk-flips the caller's read flag across their
// scope.  Only the caller's own flag moves; the counterpart's stays.
func (r *NotificationRepo) MarkMaintenanceRead(ctx context.Context, userID uint64, role string) error {
    switch role {
    case model.RoleLandlord:
        const q = `UPDATE maintenance_requests m
 JOIN properties p ON p.id = m.property_id
 SET m.read_by_landlord = TRUE
 WHERE p.owner_id = ? AND m.read_by_landlord = FALSE`
        _, err := r.db.ExecContext(ctx, q, userID)
        return err
    case model.RoleTenant:
        const q = `UPDATE maintenance_requests SET read_by_tenant = TRUE WHERE tenant_id = ? AND read_by_tenant = FALSE`
        _, err := r.db.ExecContext(ctx, q, userID)
        return err
    }
    return nil
}

func (r *NotificationRepo) count(ctx context.Context, q string, args ...any) (int, error) {
    var n int
    err := r.db.QueryRowContext(ctx, q, args...).Scan(&n)
    return n, err
}
