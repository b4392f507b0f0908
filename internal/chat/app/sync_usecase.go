package app

import (
	"context"
	"sync"
	"time"

	"studio_marketplace/internal/chat/domain"
	"studio_marketplace/internal/chat/repository"
	"studio_marketplace/pkg/logger"

	"go.uber.org/zap"
)

// Unsubscribe stops a subscription; safe to call more than once
type Unsubscribe func()

// SyncUseCase live views over conversations and message logs
type SyncUseCase struct {
	store repository.Store
	sub   repository.Subscriber
}

// NewSyncUseCase create SyncUseCase
func NewSyncUseCase(store repository.Store, sub repository.Subscriber) *SyncUseCase {
	return &SyncUseCase{store: store, sub: sub}
}

// SubscribeConversations onChange gets the full list now and after every
// committed change touching userID's conversations
func (uc *SyncUseCase) SubscribeConversations(ctx context.Context, userID string, onChange func([]domain.Conversation)) (Unsubscribe, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return nil, err
	}
	fetch := func(ctx context.Context) ([]domain.Conversation, error) {
		return uc.store.Conversations.FindByParticipant(ctx, userID)
	}
	return watch(ctx, uc.sub, domain.UserChannel(userID), fetch, onChange)
}

// SubscribeMessages onChange gets the full ordered log now and after
// every append or payload status change
func (uc *SyncUseCase) SubscribeMessages(ctx context.Context, session domain.Session, conversationID string, onChange func([]domain.Message)) (Unsubscribe, error) {
	conv, err := uc.store.Conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(session.UserID) {
		return nil, domain.ErrForbidden
	}
	fetch := func(ctx context.Context) ([]domain.Message, error) {
		return uc.store.Messages.List(ctx, conversationID)
	}
	return watch(ctx, uc.sub, domain.ConversationChannel(conversationID), fetch, onChange)
}

// watch subscribe first, then read, so no committed change is missed.
// Events only signal; every delivery is a fresh read, and bursts are
// coalesced. onChange runs on one goroutine, never concurrently.
func watch[T any](ctx context.Context, sub repository.Subscriber, channel string, fetch func(context.Context) (T, error), onChange func(T)) (Unsubscribe, error) {
	ctx, cancel := context.WithCancel(ctx)
	signal := make(chan struct{}, 1)
	notify := func() {
		select {
		case signal <- struct{}{}:
		default:
		}
	}

	err := sub.Subscribe(ctx, channel, func(domain.ChangeEvent) { notify() })
	if err != nil {
		cancel()
		return nil, err
	}

	initial, err := fetch(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		onChange(initial)
		for {
			select {
			case <-ctx.Done():
				return
			case <-signal:
			}
			state, err := fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Log.Warn("sync refetch failed", zap.String("channel", channel), zap.Error(err))
				// retry on the next signal, or shortly after
				time.AfterFunc(time.Second, notify)
				continue
			}
			if ctx.Err() != nil {
				return
			}
			onChange(state)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}
