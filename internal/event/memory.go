package event

import (
    "context"
    "sync"
)

// MemoryBus is an in-process Bus with the same delivery semantics as the
// Redis implementation: per-subscriber append order, no cross-subscriber
// guarantee, events dropped when a subscriber's buffer is full.  Used in
// tests and available for single-process deployments.
type MemoryBus struct {
    mu   sync.Mutex
    subs map[string][]*memorySub
}

type memorySub struct {
    mu       sync.Mutex
    closed   bool
    ch       chan Event
    channels []string
}

func (s *memorySub) deliver(ev Event) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.closed {
        return
    }
    select {
    case s.ch <- ev:
    default: // slow subscriber: drop rather than block the publisher
    }
}

func NewMemoryBus() *MemoryBus {
    return &MemoryBus{subs: make(map[string][]*memorySub)}
}

func (b *MemoryBus) Publish(_ context.Context, channel string, ev Event) error {
    b.mu.Lock()
    targets := make([]*memorySub, len(b.subs[channel]))
    copy(targets, b.subs[channel])
    b.mu.Unlock()
    for _, s := range targets {
        s.deliver(ev)
    }
    return nil
}

func (b *MemoryBus) Subscribe(_ context.Context, channels ...string) (*Subscription, error) {
    s := &memorySub{ch: make(chan Event, 64), channels: channels}
    b.mu.Lock()
    for _, c := range channels {
        b.subs[c] = append(b.subs[c], s)
    }
    b.mu.Unlock()
    return newSubscription(s.ch, func() error {
        b.mu.Lock()
        for _, c := range s.channels {
            list := b.subs[c]
            for i, cand := range list {
                if cand == s {
                    b.subs[c] = append(list[:i], list[i+1:]...)
                    break
                }
            }
        }
        b.mu.Unlock()
        s.mu.Lock()
        s.closed = true
        close(s.ch)
        s.mu.Unlock()
        return nil
    }), nil
}
