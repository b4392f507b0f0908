package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"studio_marketplace/internal/chat/domain"
	"studio_marketplace/internal/chat/repository"
)

// DispatchUseCase start or reuse a conversation with a first message
type DispatchUseCase struct {
	conversations *ConversationUseCase
	w             *chatWriter
	catalog       repository.CatalogRepository
}

// NewDispatchUseCase catalog may be nil when only DispatchOffer is used
func NewDispatchUseCase(store repository.Store, pub repository.Publisher, catalog repository.CatalogRepository, now func() time.Time) *DispatchUseCase {
	w := newChatWriter(store, pub, now)
	return &DispatchUseCase{
		conversations: &ConversationUseCase{w: w},
		w:             w,
		catalog:       catalog,
	}
}

// DispatchOffer get-or-create the conversation, then append the offer
// with its summary update in one transaction
func (uc *DispatchUseCase) DispatchOffer(ctx context.Context, sender domain.Session, recipient domain.Participant, offer domain.OfferDetails, note string) (*domain.Conversation, *domain.Message, error) {
	offer.Status = domain.OfferPending
	offer.RespondedBy = ""
	offer.RespondedAt = 0
	if err := offer.Validate(); err != nil {
		return nil, nil, err
	}

	content := strings.TrimSpace(note)
	if content == "" {
		content = domain.DefaultCaption(offer)
	}
	return uc.dispatch(ctx, sender, recipient, domain.Message{
		Type:    offer.Kind,
		Content: content,
		Payload: &offer,
	})
}

// DispatchCatalogOffer snapshot the job / gig from the catalog into the offer
func (uc *DispatchUseCase) DispatchCatalogOffer(ctx context.Context, sender domain.Session, recipient domain.Participant, kind domain.MessageType, referenceID, note string) (*domain.Conversation, *domain.Message, error) {
	if uc.catalog == nil {
		return nil, nil, fmt.Errorf("%w: catalog is not configured", domain.ErrStoreUnavailable)
	}
	if !kind.IsOffer() {
		return nil, nil, fmt.Errorf("%w: offer kind %q", domain.ErrInvalidArgument, kind)
	}
	summary, err := uc.catalog.FindSummary(ctx, kind, referenceID)
	if err != nil {
		return nil, nil, err
	}
	return uc.DispatchOffer(ctx, sender, recipient, summary.ToOffer(), note)
}

// PostApplicationUpdate application status notice from sender to recipient
func (uc *DispatchUseCase) PostApplicationUpdate(ctx context.Context, sender domain.Session, recipient domain.Participant, content string) (*domain.Conversation, *domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil, fmt.Errorf("%w: application update content is required", domain.ErrInvalidArgument)
	}
	return uc.dispatch(ctx, sender, recipient, domain.Message{
		Type:    domain.MessageTypeApplicationUpdate,
		Content: content,
	})
}

func (uc *DispatchUseCase) dispatch(ctx context.Context, sender domain.Session, recipient domain.Participant, msg domain.Message) (*domain.Conversation, *domain.Message, error) {
	if err := msg.Validate(); err != nil {
		return nil, nil, err
	}
	conv, err := uc.conversations.GetOrCreate(ctx, sender.Participant(), recipient)
	if err != nil {
		return nil, nil, err
	}

	msg.ConversationID = conv.ID
	msg.SenderID = sender.UserID
	msg.SenderName = senderName(sender, conv)

	stored, err := uc.w.appendMessage(ctx, msg)
	if err != nil {
		return nil, nil, err
	}
	uc.w.publish(ctx, conv.Participants, domain.ChangeEvent{
		Kind:           domain.ChangeMessageAppended,
		ConversationID: conv.ID,
		MessageID:      stored.ID,
	})

	latest, err := uc.w.store.Conversations.FindByID(ctx, conv.ID)
	if err != nil {
		// the message is committed, the stale snapshot is still a valid answer
		return conv, stored, nil
	}
	return latest, stored, nil
}
