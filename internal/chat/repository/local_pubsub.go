package repository

import (
	"context"
	"sync"

	"studio_marketplace/internal/chat/domain"
)

// LocalPubSub in-process event bus, used by the memory driver
type LocalPubSub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]chan domain.ChangeEvent
}

// NewLocalPubSub create LocalPubSub
func NewLocalPubSub() *LocalPubSub {
	return &LocalPubSub{subs: map[string]map[int]chan domain.ChangeEvent{}}
}

const localSubscriberBuffer = 64

// Publish never blocks; a full subscriber buffer drops the event, which
// is fine because subscribers re-read state on the next event anyway
func (l *LocalPubSub) Publish(ctx context.Context, channel string, event domain.ChangeEvent) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, ch := range l.subs[channel] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe handler is called from a single goroutine until ctx is done
func (l *LocalPubSub) Subscribe(ctx context.Context, channel string, handler func(domain.ChangeEvent)) error {
	ch := make(chan domain.ChangeEvent, localSubscriberBuffer)

	l.mu.Lock()
	id := l.nextID
	l.nextID++
	if l.subs[channel] == nil {
		l.subs[channel] = map[int]chan domain.ChangeEvent{}
	}
	l.subs[channel][id] = ch
	l.mu.Unlock()

	go func() {
		defer func() {
			l.mu.Lock()
			delete(l.subs[channel], id)
			if len(l.subs[channel]) == 0 {
				delete(l.subs, channel)
			}
			l.mu.Unlock()
		}()
		for {
			select {
			case evt := <-ch:
				handler(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Subscribers number of active subscriptions on channel
func (l *LocalPubSub) Subscribers(channel string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subs[channel])
}
