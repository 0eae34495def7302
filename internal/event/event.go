// Package event is the change-notification mechanism: one mechanism,
// three consumers (open request views, the chat stream, the
// notification aggregator).  Delivery is eventual and at-most-once; a
// dropped connection leaves subscribers stale until they resubscribe.
package event

import (
    "context"
    "encoding/json"
    "fmt"
    "sync"
    "time"
)

// Event types published on the bus.
const (
    TypeRequestCreated = "request.created"
    TypeRequestUpdated = "request.updated"
    TypeStatusChanged  = "request.status_changed"
    TypeChatMessage    = "chat.message"
    TypeCountsChanged  = "notification.counts"
)

// Event is the envelope broadcast on a channel.  Payload carries the
// type-specific body (a denormalized chat message, recomputed counts)
// already marshalled, so subscribers forward it without re-deriving it.
type Event struct {
    Type       string          `json:"type"`
    RequestID  uint64          `json:"request_id,omitempty"`
    PropertyID uint64          `json:"property_id,omitempty"`
    ActorID    uint64          `json:"actor_id,omitempty"`
    ActorRole  string          `json:"actor_role,omitempty"`
    Payload    json.RawMessage `json:"payload,omitempty"`
    OccurredAt time.Time       `json:"occurred_at"`
}

// RequestChannel scopes events to one maintenance request.
func RequestChannel(requestID uint64) string {
    return fmt.Sprintf("maintenance:req:%d", requestID)
}

// UserChannel scopes events to one user (unread counts).
func UserChannel(userID uint64) string {
    return fmt.Sprintf("maintenance:user:%d", userID)
}

// Firehose carries every mutation; the notification aggregator consumes
// it to decide whose counts to recompute.
const Firehose = "maintenance:events"

// Bus fans one published event out to all current subscribers of the
// channel.  Publishing to a channel with no subscribers is not an error.
type Bus interface {
    Publish(ctx context.Context, channel string, ev Event) error
    Subscribe(ctx context.Context, channels ...string) (*Subscription, error)
}

// Subscription is an explicit handle owned by whoever created it.  Close
// must be called on scope exit; a leaked subscription keeps receiving
// and discarding events but does not corrupt state.
type Subscription struct {
    C <-chan Event

    once    sync.Once
    closeFn func() error
}

func newSubscription(c <-chan Event, closeFn func() error) *Subscription {
    return &Subscription{C: c, closeFn: closeFn}
}

// Close tears the subscription down and releases its channel.  Safe to
// call more than once.
func (s *Subscription) Close() error {
    var err error
    s.once.Do(func() {
        if s.closeFn != nil {
            err = s.closeFn()
        }
    })
    return err
}

// NopBus is the degraded mode used when Redis is unavailable at startup:
// publishes vanish and subscriptions never yield.  Matches the rest of
// the service, which keeps working with stale counts.
type NopBus struct{}

func (NopBus) Publish(context.Context, string, Event) error { return nil }

func (NopBus) Subscribe(context.Context, ...string) (*Subscription, error) {
    ch := make(chan Event)
    return newSubscription(ch, func() error { close(ch); return nil }), nil
}
