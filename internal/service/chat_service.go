package service

import (
    "context"
    "encoding/json"
    "log"
    "strings"
    "time"

    "github.com/Ioioiog/dashboardly/internal/event"
    "github.com/Ioioiog/dashboardly/internal/model"
)

// ChatService is the per-request message channel: an append-only log
// with real-time fan-out.  Subscribers receive the full denormalized
// message; delivery to any one subscriber follows append order.
type ChatService struct {
    requests  RequestStore
    messages  MessageStore
    directory Directory
    bus       event.Bus
    now       func() time.Time
}

// NewChatService wires the chat channel.
func NewChatService(requests RequestStore, messages MessageStore, directory Directory, bus event.Bus) *ChatService {
    return &ChatService{
        requests:  requests,
        messages:  messages,
        directory: directory,
        bus:       bus,
        now:       time.Now,
    }
}

// Send appends a message to the request's log and publishes the
// denormalized form on the request channel.  The append is durable even
// when the publish fails; subscribers then catch up from History.
func (s *ChatService) Send(ctx context.Context, actor Actor, requestID uint64, text string) (*model.ChatMessageDetail, error) {
    text = strings.TrimSpace(text)
    if text == "" {
        return nil, &ValidationError{Field: "message", Reason: "required"}
    }
    if len(text) > 4000 {
        return nil, &ValidationError{Field: "message", Reason: "too long"}
    }
    req, err := s.requests.GetByID(ctx, requestID)
    if err != nil {
        return nil, err
    }
    ok, err := inScope(ctx, s.directory, actor, req)
    if err != nil {
        return nil, err
    }
    if !ok {
        return nil, ErrAccessDenied
    }

    msg := &model.ChatMessage{RequestID: requestID, SenderID: actor.ID, Message: text}
    if err := s.messages.Insert(ctx, msg); err != nil {
        return nil, err
    }
    detail, err := s.messages.GetDetail(ctx, msg.ID)
    if err != nil {
        return nil, err
    }

    payload, err := json.Marshal(detail)
    if err != nil {
        return detail, nil
    }
    ev := event.Event{
        Type:       event.TypeChatMessage,
        RequestID:  requestID,
        PropertyID: req.PropertyID,
        ActorID:    actor.ID,
        ActorRole:  actor.Role,
        Payload:    payload,
        OccurredAt: s.now().UTC(),
    }
    if err := s.bus.Publish(ctx, event.RequestChannel(requestID), ev); err != nil {
        log.Printf("chat-service: publish to request channel failed: %v", err)
    }
    if err := s.bus.Publish(ctx, event.Firehose, ev); err != nil {
        log.Printf("chat-service: publish to firehose failed: %v", err)
    }
    return detail, nil
}

// History returns the full log in append order, so a fresh subscriber
// sees messages exactly as they were sent.
func (s *ChatService) History(ctx context.Context, actor Actor, requestID uint64) ([]model.ChatMessageDetail, error) {
    req, err := s.requests.GetByID(ctx, requestID)
    if err != nil {
        return nil, err
    }
    ok, err := inScope(ctx, s.directory, actor, req)
    if err != nil {
        return nil, err
    }
    if !ok {
        return nil, ErrAccessDenied
    }
    return s.messages.ListByRequest(ctx, requestID)
}

// Subscribe opens a request-scoped subscription for a caller already
// verified to be in scope.  The returned handle must be closed when the
// view goes away.
func (s *ChatService) Subscribe(ctx context.Context, actor Actor, requestID uint64) (*event.Subscription, error) {
    req, err := s.requests.GetByID(ctx, requestID)
    if err != nil {
        return nil, err
    }
    ok, err := inScope(ctx, s.directory, actor, req)
    if err != nil {
        return nil, err
    }
    if !ok {
        return nil, ErrAccessDenied
    }
    return s.bus.Subscribe(ctx, event.RequestChannel(requestID))
}
