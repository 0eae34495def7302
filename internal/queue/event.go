// Package queue carries the durable audit trail of the request
// lifecycle over the message broker.  Unlike the Redis fan-out, these
// messages are persistent and survive broker restarts.
package queue

// MaintenanceEvent is published whenever a request is created or its
// status changes.  It is denormalized enough for downstream consumers
// to log or notify without querying the primary database.
type MaintenanceEvent struct {
    RequestID  uint64 `json:"request_id"`
    PropertyID uint64 `json:"property_id"`
    TenantID   uint64 `json:"tenant_id"`
    Title      string `json:"title"`
    Action     string `json:"action"` // created | status_changed
    FromStatus string `json:"from_status,omitempty"`
    ToStatus   string `json:"to_status"`
    ActorID    uint64 `json:"actor_id"`
    ActorRole  string `json:"actor_role"`
    OccurredAt string `json:"occurred_at"`
}
