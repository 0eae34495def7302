package service

import (
    "context"
    "encoding/json"
    "log"
    "time"

    "github.com/Ioioiog/dashboardly/internal/event"
    "github.com/Ioioiog/dashboardly/internal/model"
)

// Notification categories.
const (
    CategoryMessages    = "messages"
    CategoryMaintenance = "maintenance"
    CategoryPayments    = "payments"
)

// Counts is the per-user unread summary across categories.
type Counts struct {
    Messages    int `json:"messages"`
    Maintenance int `json:"maintenance"`
    Payments    int `json:"payments"`
}

// NotificationService is the aggregator: it recomputes counts from the
// store on demand and on every relevant bus event — it never polls.  A
// missed event leaves counts stale until the next recount or reconnect;
// no reconciliation pass corrects that here.
type NotificationService struct {
    store     NotificationStore
    requests  RequestStore
    directory Directory
    bus       event.Bus
    now       func() time.Time
}

// NewNotificationService wires the aggregator.
func NewNotificationService(store NotificationStore, requests RequestStore, directory Directory, bus event.Bus) *NotificationService {
    return &NotificationService{
        store:     store,
        requests:  requests,
        directory: directory,
        bus:       bus,
        now:       time.Now,
    }
}

// Counts recomputes the user's unread counts from the store.
func (s *NotificationService) Counts(ctx context.Context, actor Actor) (Counts, error) {
    var c Counts
    var err error
    if c.Maintenance, err = s.store.MaintenanceUnread(ctx, actor.ID, actor.Role); err != nil {
        return Counts{}, err
    }
    msgSince, err := s.store.ReadMarker(ctx, actor.ID, CategoryMessages)
    if err != nil {
        return Counts{}, err
    }
    if c.Messages, err = s.store.MessagesUnread(ctx, actor.ID, actor.Role, msgSince); err != nil {
        return Counts{}, err
    }
    paySince, err := s.store.ReadMarker(ctx, actor.ID, CategoryPayments)
    if err != nil {
        return Counts{}, err
    }
    if c.Payments, err = s.store.PaymentsUnread(ctx, actor.ID, actor.Role, paySince); err != nil {
        return Counts{}, err
    }
    return c, nil
}

// MarkRead bulk-clears one category for the caller and republishes the
// recomputed counts.  The maintenance category flips the caller's
// entity read flags; the other two advance the caller's read marker.
func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, category string) (Counts, error) {
    switch category {
    case CategoryMaintenance:
        if err := s.store.MarkMaintenanceRead(ctx, actor.ID, actor.Role); err != nil {
            return Counts{}, err
        }
    case CategoryMessages, CategoryPayments:
        if err := s.store.SetReadMarker(ctx, actor.ID, category, s.now().UTC()); err != nil {
            return Counts{}, err
        }
    default:
        return Counts{}, &ValidationError{Field: "category", Reason: "unknown category"}
    }
    counts, err := s.Counts(ctx, actor)
    if err != nil {
        return Counts{}, err
    }
    s.publishCounts(ctx, actor, counts)
    return counts, nil
}

// Subscribe opens the caller's user-scoped count stream.
func (s *NotificationService) Subscribe(ctx context.Context, actor Actor) (*event.Subscription, error) {
    return s.bus.Subscribe(ctx, event.UserChannel(actor.ID))
}

// Run consumes the firehose until ctx is cancelled, recomputing and
// republishing counts for every party of an affected request.  Run owns
// its subscription and releases it on exit.
func (s *NotificationService) Run(ctx context.Context) error {
    sub, err := s.bus.Subscribe(ctx, event.Firehose)
    if err != nil {
        return err
    }
    defer sub.Close()

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case ev, ok := <-sub.C:
            if !ok {
                return nil
            }
            if ev.Type == event.TypeCountsChanged {
                continue
            }
            s.recomputeForEvent(ctx, ev)
        }
    }
}

// recomputeForEvent pushes fresh counts to every party of the affected
// request.  Failures are logged and skipped; the next event or an
// explicit recount catches the party up.
func (s *NotificationService) recomputeForEvent(ctx context.Context, ev event.Event) {
    if ev.RequestID == 0 {
        return
    }
    req, err := s.requests.GetByID(ctx, ev.RequestID)
    if err != nil {
        log.Printf("notifier: cannot load request %d for recount: %v", ev.RequestID, err)
        return
    }

    parties := make([]Actor, 0, 3)
    if ownerID, err := s.directory.PropertyOwner(ctx, req.PropertyID); err == nil {
        parties = append(parties, Actor{ID: ownerID, Role: model.RoleLandlord})
    }
    parties = append(parties, Actor{ID: req.TenantID, Role: model.RoleTenant})
    if req.AssignedTo != nil {
        parties = append(parties, Actor{ID: *req.AssignedTo, Role: model.RoleContractor})
    }

    for _, p := range parties {
        counts, err := s.Counts(ctx, p)
        if err != nil {
            log.Printf("notifier: recount for user %d failed: %v", p.ID, err)
            continue
        }
        s.publishCounts(ctx, p, counts)
    }
}

func (s *NotificationService) publishCounts(ctx context.Context, actor Actor, counts Counts) {
    payload, err := json.Marshal(counts)
    if err != nil {
        return
    }
    ev := event.Event{
        Type:       event.TypeCountsChanged,
        ActorID:    actor.ID,
        ActorRole:  actor.Role,
        Payload:    payload,
        OccurredAt: s.now().UTC(),
    }
    if err := s.bus.Publish(ctx, event.UserChannel(actor.ID), ev); err != nil {
        log.Printf("notifier: publish counts for user %d failed: %v", actor.ID, err)
    }
}
