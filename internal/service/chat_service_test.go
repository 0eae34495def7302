package service

import (
    "context"
    "encoding/json"
    "strings"
    "testing"
    "time"

    "github.com/stretchr/testify/require"

    "github.com/Ioioiog/dashboardly/internal/event"
    "github.com/Ioioiog/dashboardly/internal/model"
)

func newChatHarness(t *testing.T) (*harness, *ChatService, *model.MaintenanceRequest) {
    t.Helper()
    h := newHarness(t)
    req := h.create(t)
    msgs := newFakeMessageStore(h.dir)
    chat := NewChatService(h.store, msgs, h.dir, h.bus)
    chat.now = func() time.Time { return testNow }
    return h, chat, req
}

func TestChatAppendOrderSurvivesResubscribe(t *testing.T) {
    _, chat, req := newChatHarness(t)
    ctx := context.Background()

    first, err := chat.Send(ctx, tenant, req.ID, "Hello")
    require.NoError(t, err)
    require.Equal(t, "Tudor Pop", first.SenderName)
    require.Equal(t, model.RoleTenant, first.SenderRole)

    _, err = chat.Send(ctx, landlord, req.ID, "Any update?")
    require.NoError(t, err)

    // A fresh subscriber replays history in append order.
    history, err := chat.History(ctx, landlord, req.ID)
    require.NoError(t, err)
    require.Len(t, history, 2)
    require.Equal(t, "Hello", history[0].Message)
    require.Equal(t, "Any update?", history[1].Message)
    require.True(t, history[0].CreatedAt.Before(history[1].CreatedAt))
}

func TestChatLiveDelivery(t *testing.T) {
    _, chat, req := newChatHarness(t)
    ctx := context.Background()

    sub, err := chat.Subscribe(ctx, tenant, req.ID)
    require.NoError(t, err)
    defer sub.Close()

    sent, err := chat.Send(ctx, landlord, req.ID, "Plumber booked for Thursday")
    require.NoError(t, err)

    ev := <-sub.C
    require.Equal(t, event.TypeChatMessage, ev.Type)
    require.Equal(t, req.ID, ev.RequestID)

    var detail model.ChatMessageDetail
    require.NoError(t, json.Unmarshal(ev.Payload, &detail))
    require.Equal(t, sent.ID, detail.ID)
    require.Equal(t, "Lena Marin", detail.SenderName)
    require.Equal(t, model.RoleLandlord, detail.SenderRole)
}

func TestChatValidation(t *testing.T) {
    _, chat, req := newChatHarness(t)
    ctx := context.Background()

    _, err := chat.Send(ctx, tenant, req.ID, "   ")
    var verr *ValidationError
    require.ErrorAs(t, err, &verr)
    require.Equal(t, "message", verr.Field)

    _, err = chat.Send(ctx, tenant, req.ID, strings.Repeat("a", 4001))
    require.ErrorAs(t, err, &verr)
}

func TestChatScope(t *testing.T) {
    _, chat, req := newChatHarness(t)
    ctx := context.Background()

    _, err := chat.Send(ctx, stranger, req.ID, "let me in")
    require.ErrorIs(t, err, ErrAccessDenied)
    _, err = chat.History(ctx, stranger, req.ID)
    require.ErrorIs(t, err, ErrAccessDenied)
    _, err = chat.Subscribe(ctx, stranger, req.ID)
    require.ErrorIs(t, err, ErrAccessDenied)

    // Unassigned contractors are out of scope too.
    _, err = chat.Send(ctx, contractor, req.ID, "on my way")
    require.ErrorIs(t, err, ErrAccessDenied)
}
