package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studio_marketplace/internal/chat/domain"
	"studio_marketplace/internal/chat/repository"
	"studio_marketplace/pkg/logger"

	"go.uber.org/zap"
)

// NegotiationUseCase accept / decline of offer payloads
type NegotiationUseCase struct {
	w      *chatWriter
	events repository.BookingEventPublisher
}

// NewNegotiationUseCase events may be nil
func NewNegotiationUseCase(store repository.Store, pub repository.Publisher, events repository.BookingEventPublisher, now func() time.Time) *NegotiationUseCase {
	if events == nil {
		events = repository.NewNoopBookingEventPublisher()
	}
	return &NegotiationUseCase{w: newChatWriter(store, pub, now), events: events}
}

// Respond pending -> decision exactly once. The status change, the
// follow-up text and the summary update commit together. A lost race
// returns domain.ErrStaleState and changes nothing.
func (uc *NegotiationUseCase) Respond(ctx context.Context, session domain.Session, conversationID, messageID string, decision domain.OfferStatus) (*domain.Message, error) {
	if !decision.IsDecision() {
		return nil, fmt.Errorf("%w: decision %q", domain.ErrInvalidArgument, decision)
	}

	conv, err := uc.w.store.Conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(session.UserID) {
		return nil, domain.ErrForbidden
	}

	offer, err := uc.w.store.Messages.FindByID(ctx, conversationID, messageID)
	if err != nil {
		return nil, err
	}
	if !offer.Type.IsOffer() || offer.Payload == nil {
		return nil, domain.ErrWrongType
	}
	if offer.SenderID == session.UserID {
		return nil, fmt.Errorf("%w: the sender cannot answer their own %s", domain.ErrForbidden, offer.Type.Noun())
	}
	if offer.Payload.Status != domain.OfferPending {
		return nil, domain.ErrStaleState
	}

	var followUp *domain.Message
	at := uc.w.nowMillis()
	err = uc.w.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := uc.w.store.Messages.UpdatePayloadStatus(ctx, conversationID, messageID, domain.OfferPending, decision, session.UserID, at); err != nil {
			return err
		}
		var err error
		followUp, err = uc.w.appendInTx(ctx, &domain.Message{
			ConversationID: conversationID,
			SenderID:       session.UserID,
			SenderName:     senderName(session, conv),
			Type:           domain.MessageTypeText,
			Content:        domain.FollowUpText(offer.Type, decision),
		})
		return err
	})
	if errors.Is(err, domain.ErrStaleState) {
		logger.Log.Info("offer already answered",
			zap.String("conversation_id", conversationID),
			zap.String("message_id", messageID),
			zap.String("responder", session.UserID),
		)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	uc.w.publish(ctx, conv.Participants, domain.ChangeEvent{
		Kind:           domain.ChangePayloadStatus,
		ConversationID: conversationID,
		MessageID:      messageID,
	})
	uc.w.publish(ctx, conv.Participants, domain.ChangeEvent{
		Kind:           domain.ChangeMessageAppended,
		ConversationID: conversationID,
		MessageID:      followUp.ID,
	})

	resolved := offer.Clone()
	resolved.Payload.Status = decision
	resolved.Payload.RespondedBy = session.UserID
	resolved.Payload.RespondedAt = at

	uc.emitResolved(ctx, &resolved)
	return &resolved, nil
}

// emitResolved the transition is committed; a failed publish is logged only
func (uc *NegotiationUseCase) emitResolved(ctx context.Context, offer *domain.Message) {
	evt := domain.BookingEvent{
		Type:           domain.OfferResolved,
		ConversationID: offer.ConversationID,
		MessageID:      offer.ID,
		Kind:           offer.Type,
		ReferenceID:    offer.Payload.ReferenceID,
		StudioID:       offer.Payload.StudioID,
		OfferedBy:      offer.SenderID,
		RespondedBy:    offer.Payload.RespondedBy,
		Status:         offer.Payload.Status,
		ResolvedAt:     offer.Payload.RespondedAt,
	}
	if err := uc.events.PublishOfferResolved(context.WithoutCancel(ctx), evt); err != nil {
		logger.Log.Error("publish booking event failed",
			zap.String("conversation_id", evt.ConversationID),
			zap.String("message_id", evt.MessageID),
			zap.String("status", string(evt.Status)),
			zap.Error(err),
		)
	}
}
