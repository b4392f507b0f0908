package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"studio_marketplace/internal/chat/domain"
	"studio_marketplace/internal/chat/repository"
)

// MessageUseCase 負責處理聊天訊息
type MessageUseCase struct {
	w *chatWriter
}

// NewMessageUseCase create MessageUseCase
func NewMessageUseCase(store repository.Store, pub repository.Publisher, now func() time.Time) *MessageUseCase {
	return &MessageUseCase{w: newChatWriter(store, pub, now)}
}

// SendText append a text message and update the conversation summary
func (uc *MessageUseCase) SendText(ctx context.Context, session domain.Session, conversationID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: message content is required", domain.ErrInvalidArgument)
	}
	conv, err := uc.w.store.Conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(session.UserID) {
		return nil, domain.ErrForbidden
	}

	msg, err := uc.w.appendMessage(ctx, domain.Message{
		ConversationID: conversationID,
		SenderID:       session.UserID,
		SenderName:     senderName(session, conv),
		Type:           domain.MessageTypeText,
		Content:        content,
	})
	if err != nil {
		return nil, err
	}
	uc.w.publish(ctx, conv.Participants, domain.ChangeEvent{
		Kind:           domain.ChangeMessageAppended,
		ConversationID: conversationID,
		MessageID:      msg.ID,
	})
	return msg, nil
}

// ListMessages whole log ordered by (timestamp, id)
func (uc *MessageUseCase) ListMessages(ctx context.Context, session domain.Session, conversationID string) ([]domain.Message, error) {
	conv, err := uc.w.store.Conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(session.UserID) {
		return nil, domain.ErrForbidden
	}
	return uc.w.store.Messages.List(ctx, conversationID)
}

// ListMessagesByDay log grouped by calendar day in loc
func (uc *MessageUseCase) ListMessagesByDay(ctx context.Context, session domain.Session, conversationID string, loc *time.Location) ([]domain.MessageDay, error) {
	msgs, err := uc.ListMessages(ctx, session, conversationID)
	if err != nil {
		return nil, err
	}
	return domain.GroupByDay(msgs, uc.w.now(), loc), nil
}
