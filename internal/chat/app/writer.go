package app

import (
	"context"
	"time"

	"studio_marketplace/internal/chat/domain"
	"studio_marketplace/internal/chat/repository"
	"studio_marketplace/pkg/logger"

	"go.uber.org/zap"
)

// chatWriter the single write path for messages: append + touch in one
// transaction, change events after commit
type chatWriter struct {
	store repository.Store
	pub   repository.Publisher
	now   func() time.Time
}

func newChatWriter(store repository.Store, pub repository.Publisher, now func() time.Time) *chatWriter {
	if now == nil {
		now = time.Now
	}
	return &chatWriter{store: store, pub: pub, now: now}
}

func (w *chatWriter) nowMillis() int64 {
	return w.now().UnixMilli()
}

// appendInTx must run inside a transaction. The conversation read takes
// the row lock (postgres) or joins the write conflict set (mongo), so
// timestamps are assigned in commit order.
func (w *chatWriter) appendInTx(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	conv, err := w.store.Conversations.FindByID(ctx, msg.ConversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(msg.SenderID) {
		return nil, domain.ErrForbidden
	}
	msg.Timestamp = domain.NextTimestamp(w.nowMillis(), conv.LastMessage)

	stored, err := w.store.Messages.Append(ctx, msg)
	if err != nil {
		return nil, err
	}
	if err := w.store.Conversations.TouchOnMessage(ctx, msg.ConversationID, stored); err != nil {
		return nil, err
	}
	return stored, nil
}

// appendMessage append + touch, atomically
func (w *chatWriter) appendMessage(ctx context.Context, msg domain.Message) (*domain.Message, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	var stored *domain.Message
	err := w.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		m := msg
		var err error
		stored, err = w.appendInTx(ctx, &m)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// publish best effort, the write is already committed
func (w *chatWriter) publish(ctx context.Context, participants []string, evt domain.ChangeEvent) {
	if w.pub == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if evt.At == 0 {
		evt.At = w.nowMillis()
	}

	channels := make([]string, 0, len(participants)+1)
	for _, p := range participants {
		channels = append(channels, domain.UserChannel(p))
	}
	if evt.Kind != domain.ChangeConversation {
		channels = append(channels, domain.ConversationChannel(evt.ConversationID))
	}

	for _, ch := range channels {
		if err := w.pub.Publish(ctx, ch, evt); err != nil {
			logger.Log.Error("publish change failed",
				zap.String("channel", ch),
				zap.String("conversation_id", evt.ConversationID),
				zap.Error(err),
			)
		}
	}
}

// senderName display name snapshot; falls back to the stored details
func senderName(session domain.Session, conv *domain.Conversation) string {
	if session.DisplayName != "" {
		return session.DisplayName
	}
	if conv != nil {
		return conv.ParticipantDetails[session.UserID].DisplayName
	}
	return ""
}
