package app

import (
	"context"

	"studio_marketplace/internal/chat/domain"
	"studio_marketplace/internal/chat/repository"

	"github.com/stretchr/testify/mock"
)

// MockConversationRepository Mock ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

// GetOrCreate mock get or create conversation
func (m *MockConversationRepository) GetOrCreate(ctx context.Context, a, b string, details map[string]domain.ParticipantDetails, now int64) (*domain.Conversation, error) {
	args := m.Called(ctx, a, b, details, now)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByID mock find conversation by id
func (m *MockConversationRepository) FindByID(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// TouchOnMessage mock update last message
func (m *MockConversationRepository) TouchOnMessage(ctx context.Context, conversationID string, msg *domain.Message) error {
	args := m.Called(ctx, conversationID, msg)
	return args.Error(0)
}

// MarkRead mock reset unread counter
func (m *MockConversationRepository) MarkRead(ctx context.Context, conversationID, userID string) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

// FindByParticipant mock list conversations of a user
func (m *MockConversationRepository) FindByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Append mock append message, echoes msg with an id
func (m *MockMessageRepository) Append(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByID mock find message
func (m *MockMessageRepository) FindByID(ctx context.Context, conversationID, messageID string) (*domain.Message, error) {
	args := m.Called(ctx, conversationID, messageID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// UpdatePayloadStatus mock compare-and-set
func (m *MockMessageRepository) UpdatePayloadStatus(ctx context.Context, conversationID, messageID string, expected, next domain.OfferStatus, responderID string, at int64) error {
	args := m.Called(ctx, conversationID, messageID, expected, next, responderID, at)
	return args.Error(0)
}

// List mock list messages
func (m *MockMessageRepository) List(ctx context.Context, conversationID string) ([]domain.Message, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// passthroughTransactor runs fn directly
type passthroughTransactor struct{}

func (passthroughTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// MockPublisher Mock Publisher
type MockPublisher struct {
	mock.Mock
}

// Publish mock publish change event
func (m *MockPublisher) Publish(ctx context.Context, channel string, event domain.ChangeEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

// MockBookingEventPublisher Mock BookingEventPublisher
type MockBookingEventPublisher struct {
	mock.Mock
}

// PublishOfferResolved mock publish booking event
func (m *MockBookingEventPublisher) PublishOfferResolved(ctx context.Context, evt domain.BookingEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

// Close mock close
func (m *MockBookingEventPublisher) Close() error {
	return nil
}

// MockCatalogRepository Mock CatalogRepository
type MockCatalogRepository struct {
	mock.Mock
}

// FindSummary mock catalog lookup
func (m *MockCatalogRepository) FindSummary(ctx context.Context, kind domain.MessageType, referenceID string) (*domain.CatalogSummary, error) {
	args := m.Called(ctx, kind, referenceID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.CatalogSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockApplicationPoster Mock ApplicationPoster
type MockApplicationPoster struct {
	mock.Mock
}

// PostApplicationUpdate mock post application update
func (m *MockApplicationPoster) PostApplicationUpdate(ctx context.Context, sender domain.Session, recipient domain.Participant, content string) (*domain.Conversation, *domain.Message, error) {
	args := m.Called(ctx, sender, recipient, content)
	var conv *domain.Conversation
	var msg *domain.Message
	if args.Get(0) != nil {
		conv = args.Get(0).(*domain.Conversation)
	}
	if args.Get(1) != nil {
		msg = args.Get(1).(*domain.Message)
	}
	return conv, msg, args.Error(2)
}

func newMockStore() (repository.Store, *MockConversationRepository, *MockMessageRepository) {
	convRepo := new(MockConversationRepository)
	msgRepo := new(MockMessageRepository)
	return repository.Store{
		Conversations: convRepo,
		Messages:      msgRepo,
		Tx:            passthroughTransactor{},
	}, convRepo, msgRepo
}
