package event

import (
    "context"
    "encoding/json"
    "log"

    "github.com/redis/go-redis/v9"
)

// RedisBus implements Bus over Redis pub/sub.  Per-subscriber delivery
// order follows publish order on a channel; there is no ordering
// guarantee across distinct subscribers.
type RedisBus struct {
    client *redis.Client
}

// NewRedisBus wraps an already-connected client.
func NewRedisBus(client *redis.Client) *RedisBus {
    return &RedisBus{client: client}
}

func (b *RedisBus) Publish(ctx context.Context, channel string, ev Event) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }
    return b.client.Publish(ctx, channel, body).Err()
}

// Subscribe opens a pub/sub connection for the given channels and decodes
// incoming messages into Events.  Messages that fail to decode are logged
// and dropped; the subscription stays alive.  The returned handle must be
// closed by the caller.
func (b *RedisBus) Subscribe(ctx context.Context, channels ...string) (*Subscription, error) {
    ps := b.client.Subscribe(ctx, channels...)
    // Force the subscription to be established before returning so a
    // publish immediately after Subscribe is not missed.
    if _, err := ps.Receive(ctx); err != nil {
        _ = ps.Close()
        return nil, err
    }
    out := make(chan Event, 32)
    go func() {
        defer close(out)
        for msg := range ps.Channel() {
            var ev Event
            if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
                log.Printf("event: dropping undecodable message on %s: %v", msg.Channel, err)
                continue
            }
            select {
            case out <- ev:
            case <-ctx.Done():
                return
            }
        }
    }()
    return newSubscription(out, ps.Close), nil
}
