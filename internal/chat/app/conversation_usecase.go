package app

import (
	"context"
	"time"

	"studio_marketplace/internal/chat/domain"
	"studio_marketplace/internal/chat/repository"
)

// ConversationUseCase conversation lookups and read marking
type ConversationUseCase struct {
	w *chatWriter
}

// NewConversationUseCase create ConversationUseCase
func NewConversationUseCase(store repository.Store, pub repository.Publisher, now func() time.Time) *ConversationUseCase {
	return &ConversationUseCase{w: newChatWriter(store, pub, now)}
}

// GetOrCreate idempotent per unordered pair; refreshes both participants' details
func (uc *ConversationUseCase) GetOrCreate(ctx context.Context, a, b domain.Participant) (*domain.Conversation, error) {
	if _, err := domain.SortedPair(a.UserID, b.UserID); err != nil {
		return nil, err
	}
	details := map[string]domain.ParticipantDetails{
		a.UserID: a.Details(),
		b.UserID: b.Details(),
	}
	conv, err := uc.w.store.Conversations.GetOrCreate(ctx, a.UserID, b.UserID, details, uc.w.nowMillis())
	if err != nil {
		return nil, err
	}
	uc.w.publish(ctx, conv.Participants, domain.ChangeEvent{
		Kind:           domain.ChangeConversation,
		ConversationID: conv.ID,
	})
	return conv, nil
}

// Get participant only
func (uc *ConversationUseCase) Get(ctx context.Context, session domain.Session, conversationID string) (*domain.Conversation, error) {
	conv, err := uc.w.store.Conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(session.UserID) {
		return nil, domain.ErrForbidden
	}
	return conv, nil
}

// ListForUser most recent activity first
func (uc *ConversationUseCase) ListForUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return nil, err
	}
	return uc.w.store.Conversations.FindByParticipant(ctx, userID)
}

// UnreadSummary unread badge of userID
func (uc *ConversationUseCase) UnreadSummary(ctx context.Context, userID string) (*domain.UnreadSummary, error) {
	convs, err := uc.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := &domain.UnreadSummary{Conversations: []domain.ConversationUnread{}}
	for _, c := range convs {
		n := c.UnreadCount[userID]
		if n == 0 {
			continue
		}
		summary.Total += n
		summary.Conversations = append(summary.Conversations, domain.ConversationUnread{
			ConversationID: c.ID,
			UnreadCount:    n,
			LastActivityAt: c.ActivityAt(),
		})
	}
	return summary, nil
}

// MarkRead reset the caller's unread counter, idempotent
func (uc *ConversationUseCase) MarkRead(ctx context.Context, session domain.Session, conversationID string) error {
	conv, err := uc.Get(ctx, session, conversationID)
	if err != nil {
		return err
	}
	if conv.UnreadCount[session.UserID] == 0 {
		return nil
	}
	if err := uc.w.store.Conversations.MarkRead(ctx, conversationID, session.UserID); err != nil {
		return err
	}
	uc.w.publish(ctx, []string{session.UserID}, domain.ChangeEvent{
		Kind:           domain.ChangeConversation,
		ConversationID: conversationID,
	})
	return nil
}
