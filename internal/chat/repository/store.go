package repository

import (
	"context"
	"errors"
	"fmt"

	"studio_marketplace/internal/chat/domain"
)

// ConversationRepository definition conversation store
type ConversationRepository interface {
	// GetOrCreate idempotent, only refreshes participant details when the thread exists
	GetOrCreate(ctx context.Context, a, b string, details map[string]domain.ParticipantDetails, now int64) (*domain.Conversation, error)
	FindByID(ctx context.Context, conversationID string) (*domain.Conversation, error)
	// TouchOnMessage sets last_message and bumps unread_count of everyone but the sender
	TouchOnMessage(ctx context.Context, conversationID string, msg *domain.Message) error
	MarkRead(ctx context.Context, conversationID, userID string) error
	FindByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error)
}

// MessageRepository definition message log
type MessageRepository interface {
	// Append assigns an id / timestamp when they are empty
	Append(ctx context.Context, msg *domain.Message) (*domain.Message, error)
	FindByID(ctx context.Context, conversationID, messageID string) (*domain.Message, error)
	// UpdatePayloadStatus compare-and-set on payload.status
	UpdatePayloadStatus(ctx context.Context, conversationID, messageID string, expected, next domain.OfferStatus, responderID string, at int64) error
	List(ctx context.Context, conversationID string) ([]domain.Message, error)
}

// Transactor runs fn so that every repository call made with the ctx
// handed to fn commits or rolls back together.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store chat persistence bundle
type Store struct {
	Conversations ConversationRepository
	Messages      MessageRepository
	Tx            Transactor
}

var domainErrors = []error{
	domain.ErrNotFound,
	domain.ErrForbidden,
	domain.ErrWrongType,
	domain.ErrStaleState,
	domain.ErrStoreUnavailable,
	domain.ErrInvalidArgument,
}

func isDomainError(err error) bool {
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return true
		}
	}
	return false
}

// unavailable wraps a driver error; the driver error stays in the chain
// so retry helpers can still read its labels
func unavailable(err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}
