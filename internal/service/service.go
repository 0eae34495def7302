// Package service orchestrates the engine: every mutation passes the
// role authorizer and the lifecycle controller before it reaches the
// store, and every accepted mutation is broadcast on the change
// notification bus afterwards.  Stores are consumed through the small
// interfaces below so the services are testable against in-memory
// fakes.
package service

import (
    "context"
    "errors"
    "fmt"
    "io"
    "time"

    "github.com/Ioioiog/dashboardly/internal/model"
    "github.com/Ioioiog/dashboardly/internal/queue"
)

// Actor is the authenticated caller as supplied by the identity
// provider.  The engine trusts these values; it does not re-verify the
// role beyond what the authorizer checks.
type Actor struct {
    ID   uint64
    Role string
}

// ErrAccessDenied rejects operations on requests outside the caller's
// scope: not the owning landlord, not the originating tenant, not the
// assigned contractor.
var ErrAccessDenied = errors.New("access denied")

// ValidationError reports a malformed input, naming the offending field
// so the rejection surfaces verbatim.
type ValidationError struct {
    Field  string
    Reason string
}

func (e *ValidationError) Error() string {
    return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RequestStore is the persistence contract for maintenance requests.
type RequestStore interface {
    Create(ctx context.Context, req *model.MaintenanceRequest) error
    GetByID(ctx context.Context, id uint64) (*model.MaintenanceRequest, error)
    ListForOwner(ctx context.Context, ownerID uint64, status string) ([]*model.MaintenanceRequest, error)
    ListForTenant(ctx context.Context, tenantID uint64, status string) ([]*model.MaintenanceRequest, error)
    ListForContractor(ctx context.Context, contractorID uint64, status string) ([]*model.MaintenanceRequest, error)
    Update(ctx context.Context, id uint64, set map[string]any) error
}

// MessageStore persists the per-request chat log.
type MessageStore interface {
    Insert(ctx context.Context, m *model.ChatMessage) error
    ListByRequest(ctx context.Context, requestID uint64) ([]model.ChatMessageDetail, error)
    GetDetail(ctx context.Context, id uint64) (*model.ChatMessageDetail, error)
}

// DocumentStore persists private document metadata.
type DocumentStore interface {
    Insert(ctx context.Context, d *model.Document) error
    GetByID(ctx context.Context, id uint64) (*model.Document, error)
    ListByRequest(ctx context.Context, requestID uint64) ([]model.Document, error)
    Delete(ctx context.Context, id uint64) error
}

// Directory is the read-only property/tenant/user lookup consumed for
// visibility scoping and chat denormalization.
type Directory interface {
    PropertyOwner(ctx context.Context, propertyID uint64) (uint64, error)
    TenantProperty(ctx context.Context, tenantID uint64) (uint64, error)
    User(ctx context.Context, id uint64) (*model.UserInfo, error)
}

// NotificationStore computes unread counts and applies the bulk
// mark-as-read flips.
type NotificationStore interface {
    MaintenanceUnread(ctx context.Context, userID uint64, role string) (int, error)
    MessagesUnread(ctx context.Context, userID uint64, role string, since time.Time) (int, error)
    PaymentsUnread(ctx context.Context, userID uint64, role string, since time.Time) (int, error)
    ReadMarker(ctx context.Context, userID uint64, category string) (time.Time, error)
    SetReadMarker(ctx context.Context, userID uint64, category string, at time.Time) error
    MarkMaintenanceRead(ctx context.Context, userID uint64, role string) error
}

// BlobStore is the two-namespace blob backend.
type BlobStore interface {
    SaveImage(data []byte, ext string) (string, error)
    SaveDocument(requestID uint64, data []byte, ext string) (string, error)
    SignedURL(object string) (string, error)
    Open(object string) (io.ReadCloser, error)
    Remove(object string) error
}

// AuditPublisher pushes one durable audit event to the broker.  A nil
// publisher disables the audit trail.
type AuditPublisher func(ctx context.Context, event queue.MaintenanceEvent) error

// scope reports whether the actor may see the request at all.
func inScope(ctx context.Context, dir Directory, actor Actor, req *model.MaintenanceRequest) (bool, error) {
    switch actor.Role {
    case model.RoleLandlord:
        ownerID, err := dir.PropertyOwner(ctx, req.PropertyID)
        if err != nil {
            return false, err
        }
        return ownerID == actor.ID, nil
    case model.RoleTenant:
        return req.TenantID == actor.ID, nil
    case model.RoleContractor:
        return req.AssignedTo != nil && *req.AssignedTo == actor.ID, nil
    }
    return false, nil
}
