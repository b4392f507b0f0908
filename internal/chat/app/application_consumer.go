package app

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"studio_marketplace/internal/chat/domain"
	"studio_marketplace/pkg/database"
	"studio_marketplace/pkg/logger"

	"go.uber.org/zap"
)

// ApplicationPoster posts an application_update message
type ApplicationPoster interface {
	PostApplicationUpdate(ctx context.Context, sender domain.Session, recipient domain.Participant, content string) (*domain.Conversation, *domain.Message, error)
}

// ApplicationUpdateConsumer 消費 job board 送來的應徵狀態更新
type ApplicationUpdateConsumer struct {
	rabbit     database.RabbitRepo
	poster     ApplicationPoster
	queueName  string
	retryDelay time.Duration
}

// NewApplicationUpdateConsumer create ApplicationUpdateConsumer
func NewApplicationUpdateConsumer(rabbit database.RabbitRepo, poster ApplicationPoster, queueName string, retryDelay time.Duration) *ApplicationUpdateConsumer {
	return &ApplicationUpdateConsumer{
		rabbit:     rabbit,
		poster:     poster,
		queueName:  queueName,
		retryDelay: retryDelay,
	}
}

// StartConsumer blocks until ctx is done or the delivery channel closes
func (c *ApplicationUpdateConsumer) StartConsumer(ctx context.Context) error {
	msgs, err := c.rabbit.Consume(c.queueName, "")
	if err != nil {
		return err
	}
	logger.Log.Info("application update consumer started", zap.String("queue", c.queueName))

	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				logger.Log.Warn("application update channel closed", zap.String("queue", c.queueName))
				return nil
			}

			ack, requeue := c.handleDelivery(ctx, d.Body)
			if ack {
				if err := d.Ack(false); err != nil {
					logger.Log.Error("ack failed", zap.Error(err))
				}
				continue
			}
			if requeue {
				// 避免失敗訊息立即重送
				select {
				case <-time.After(c.retryDelay):
				case <-ctx.Done():
				}
			}
			if err := d.Nack(false, requeue); err != nil {
				logger.Log.Error("nack failed", zap.Error(err))
			}
		case <-ctx.Done():
			logger.Log.Info("application update consumer stopped")
			return nil
		}
	}
}

// handleDelivery malformed payloads are dropped, store failures requeued
func (c *ApplicationUpdateConsumer) handleDelivery(ctx context.Context, body []byte) (ack, requeue bool) {
	var upd domain.ApplicationUpdate
	if err := json.Unmarshal(body, &upd); err != nil {
		logger.Log.Warn("invalid application update", zap.Error(err))
		return false, false
	}

	sender := domain.Session{
		UserID:      upd.StudioID,
		DisplayName: upd.StudioName,
		AvatarURL:   upd.StudioAvatar,
	}
	recipient := domain.Participant{
		UserID:      upd.InstructorID,
		DisplayName: upd.InstructorName,
		AvatarURL:   upd.InstructorAvatar,
	}
	_, msg, err := c.poster.PostApplicationUpdate(ctx, sender, recipient, upd.Content)
	switch {
	case err == nil:
		logger.Log.Debug("application update posted",
			zap.String("conversation_id", msg.ConversationID),
			zap.String("message_id", msg.ID),
		)
		return true, false
	case errors.Is(err, domain.ErrInvalidArgument):
		logger.Log.Warn("application update rejected", zap.String("studio_id", upd.StudioID), zap.Error(err))
		return false, false
	default:
		logger.Log.Error("post application update failed", zap.String("studio_id", upd.StudioID), zap.Error(err))
		return false, true
	}
}
