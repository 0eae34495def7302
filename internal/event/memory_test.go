package event

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func collect(t *testing.T, sub *Subscription, n int) []Event {
    t.Helper()
    out := make([]Event, 0, n)
    for len(out) < n {
        select {
        case ev, ok := <-sub.C:
            require.True(t, ok, "subscription closed early")
            out = append(out, ev)
        case <-time.After(time.Second):
            t.Fatalf("timed out waiting for event %d of %d", len(out)+1, n)
        }
    }
    return out
}

func TestMemoryBusDeliversInPublishOrder(t *testing.T) {
    bus := NewMemoryBus()
    ctx := context.Background()

    sub, err := bus.Subscribe(ctx, RequestChannel(1))
    require.NoError(t, err)
    defer sub.Close()

    require.NoError(t, bus.Publish(ctx, RequestChannel(1), Event{Type: TypeChatMessage, RequestID: 1, ActorID: 10}))
    require.NoError(t, bus.Publish(ctx, RequestChannel(1), Event{Type: TypeChatMessage, RequestID: 1, ActorID: 20}))

    got := collect(t, sub, 2)
    assert.Equal(t, uint64(10), got[0].ActorID)
    assert.Equal(t, uint64(20), got[1].ActorID)
}

func TestMemoryBusChannelScoping(t *testing.T) {
    bus := NewMemoryBus()
    ctx := context.Background()

    subA, err := bus.Subscribe(ctx, RequestChannel(1))
    require.NoError(t, err)
    defer subA.Close()
    subB, err := bus.Subscribe(ctx, RequestChannel(2))
    require.NoError(t, err)
    defer subB.Close()

    require.NoError(t, bus.Publish(ctx, RequestChannel(1), Event{Type: TypeRequestUpdated, RequestID: 1}))

    got := collect(t, subA, 1)
    assert.Equal(t, uint64(1), got[0].RequestID)
    select {
    case ev := <-subB.C:
        t.Fatalf("subscriber on another channel received %+v", ev)
    case <-time.After(50 * time.Millisecond):
    }
}

func TestSubscriptionCloseStopsDelivery(t *testing.T) {
    bus := NewMemoryBus()
    ctx := context.Background()

    sub, err := bus.Subscribe(ctx, Firehose)
    require.NoError(t, err)
    require.NoError(t, sub.Close())
    require.NoError(t, sub.Close(), "double close must be safe")

    // Publishing after close must not panic or block.
    require.NoError(t, bus.Publish(ctx, Firehose, Event{Type: TypeRequestCreated}))

    _, ok := <-sub.C
    assert.False(t, ok, "channel should be closed")
}
