package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"studio_marketplace/internal/chat/domain"
	"studio_marketplace/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Publisher fan out change events after commit
type Publisher interface {
	Publish(ctx context.Context, channel string, event domain.ChangeEvent) error
}

// Subscriber receive change events of a channel until ctx is done.
// Subscribe returns once the subscription is active.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler func(domain.ChangeEvent)) error
}

// PubSub definition change event bus
type PubSub interface {
	Publisher
	Subscriber
}

// RedisPubSub definition redis pub/sub
type RedisPubSub struct {
	client redis.UniversalClient
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client redis.UniversalClient) *RedisPubSub {
	return &RedisPubSub{client: client}
}

// Publish serialize the event and publish it to channel
func (r *RedisPubSub) Publish(ctx context.Context, channel string, event domain.ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, channel, data).Err()
}

// Subscribe handler is called from a single goroutine, in publish order
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string, handler func(domain.ChangeEvent)) error {
	sub := r.client.Subscribe(ctx, channel)
	// wait for the subscription confirmation, events published after
	// this point are delivered
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("%w: subscribe %s: %w", domain.ErrStoreUnavailable, channel, err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()

		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}

				var evt domain.ChangeEvent
				if err := json.Unmarshal([]byte(m.Payload), &evt); err != nil {
					logger.Log.Error("pubsub decode err", zap.String("channel", channel), zap.Error(err))
					continue
				}
				handler(evt)
			case <-ctx.Done():
				logger.Log.Debug(fmt.Sprintf("%s , sub close", channel))
				return
			}
		}
	}()
	return nil
}
