package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"studio_marketplace/internal/chat/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clock = func() time.Time { return time.Date(2026, 3, 12, 9, 30, 0, 0, time.UTC) }

func seedConversation(t *testing.T, store Store) *domain.Conversation {
	t.Helper()
	conv, err := store.Conversations.GetOrCreate(context.Background(), "studio-1", "instructor-1", map[string]domain.ParticipantDetails{
		"studio-1":     {DisplayName: "Sunrise Studio"},
		"instructor-1": {DisplayName: "Ivy"},
		"stranger":     {DisplayName: "ignored"},
	}, clock().UnixMilli())
	require.NoError(t, err)
	return conv
}

func offerMessage(convID string) *domain.Message {
	return &domain.Message{
		ConversationID: convID,
		SenderID:       "studio-1",
		Type:           domain.MessageTypeJobOffer,
		Content:        "Sent you a job offer: Yoga Class",
		Payload: &domain.OfferDetails{
			Kind:        domain.MessageTypeJobOffer,
			ReferenceID: "job-42",
			Title:       "Yoga Class",
			Status:      domain.OfferPending,
		},
	}
}

func TestMemoryStore_GetOrCreate(t *testing.T) {
	store := NewMemoryStore(clock)
	conv := seedConversation(t, store)

	assert.Equal(t, []string{"instructor-1", "studio-1"}, conv.Participants)
	assert.NotContains(t, conv.ParticipantDetails, "stranger")
	assert.Equal(t, map[string]int{"instructor-1": 0, "studio-1": 0}, conv.UnreadCount)

	again, err := store.Conversations.GetOrCreate(context.Background(), "instructor-1", "studio-1", map[string]domain.ParticipantDetails{
		"instructor-1": {DisplayName: "Ivy R."},
	}, clock().Add(time.Hour).UnixMilli())
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)
	assert.Equal(t, conv.CreatedAt, again.CreatedAt)
	assert.Equal(t, "Ivy R.", again.ParticipantDetails["instructor-1"].DisplayName)
	assert.Equal(t, "Sunrise Studio", again.ParticipantDetails["studio-1"].DisplayName)

	_, err = store.Conversations.GetOrCreate(context.Background(), "studio-1", "studio-1", nil, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestMemoryStore_AppendAndTouch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(clock)
	conv := seedConversation(t, store)

	msg, err := store.Messages.Append(ctx, offerMessage(conv.ID))
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, clock().UnixMilli(), msg.Timestamp)

	require.NoError(t, store.Conversations.TouchOnMessage(ctx, conv.ID, msg))
	got, err := store.Conversations.FindByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UnreadCount["instructor-1"])
	assert.Equal(t, 0, got.UnreadCount["studio-1"])
	assert.Equal(t, msg.Content, got.LastMessage.Content)

	// returned copies do not alias stored state
	got.UnreadCount["instructor-1"] = 99
	again, err := store.Conversations.FindByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.UnreadCount["instructor-1"])

	_, err = store.Messages.Append(ctx, &domain.Message{ConversationID: "missing", Type: domain.MessageTypeText, Content: "hi"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Messages.Append(ctx, &domain.Message{Type: domain.MessageTypeText, Content: "hi"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestMemoryStore_UpdatePayloadStatus(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(clock)
	conv := seedConversation(t, store)

	offer, err := store.Messages.Append(ctx, offerMessage(conv.ID))
	require.NoError(t, err)
	text, err := store.Messages.Append(ctx, &domain.Message{ConversationID: conv.ID, SenderID: "studio-1", Type: domain.MessageTypeText, Content: "hi"})
	require.NoError(t, err)

	at := clock().UnixMilli()
	require.NoError(t, store.Messages.UpdatePayloadStatus(ctx, conv.ID, offer.ID, domain.OfferPending, domain.OfferAccepted, "instructor-1", at))

	err = store.Messages.UpdatePayloadStatus(ctx, conv.ID, offer.ID, domain.OfferPending, domain.OfferDeclined, "instructor-1", at)
	assert.ErrorIs(t, err, domain.ErrStaleState)
	err = store.Messages.UpdatePayloadStatus(ctx, conv.ID, text.ID, domain.OfferPending, domain.OfferDeclined, "instructor-1", at)
	assert.ErrorIs(t, err, domain.ErrWrongType)
	err = store.Messages.UpdatePayloadStatus(ctx, conv.ID, "missing", domain.OfferPending, domain.OfferDeclined, "instructor-1", at)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := store.Messages.FindByID(ctx, conv.ID, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OfferAccepted, got.Payload.Status)
	assert.Equal(t, "instructor-1", got.Payload.RespondedBy)
	assert.Equal(t, at, got.Payload.RespondedAt)
}

func TestMemoryStore_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(clock)
	conv := seedConversation(t, store)
	offer, err := store.Messages.Append(ctx, offerMessage(conv.ID))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := store.Messages.UpdatePayloadStatus(ctx, conv.ID, offer.ID, domain.OfferPending, domain.OfferAccepted, "instructor-1", 1); err != nil {
			return err
		}
		msg, err := store.Messages.Append(ctx, &domain.Message{ConversationID: conv.ID, SenderID: "instructor-1", Type: domain.MessageTypeText, Content: "I've accepted the job offer!"})
		if err != nil {
			return err
		}
		if err := store.Conversations.TouchOnMessage(ctx, conv.ID, msg); err != nil {
			return err
		}
		if err := store.Conversations.MarkRead(ctx, conv.ID, "studio-1"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	msgs, err := store.Messages.List(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.OfferPending, msgs[0].Payload.Status)
	assert.Empty(t, msgs[0].Payload.RespondedBy)

	got, err := store.Conversations.FindByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LastMessage)
	assert.Equal(t, 0, got.UnreadCount["studio-1"])
	assert.Equal(t, 0, got.UnreadCount["instructor-1"])
}

func TestMemoryStore_TransactionOnCanceledContext(t *testing.T) {
	store := NewMemoryStore(clock)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.Tx.WithinTransaction(ctx, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.False(t, called)
}

func TestMemoryStore_MarkReadAndList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(clock)
	conv := seedConversation(t, store)

	other, err := store.Conversations.GetOrCreate(ctx, "studio-2", "instructor-1", nil, clock().UnixMilli())
	require.NoError(t, err)

	first := &domain.Message{ConversationID: conv.ID, SenderID: "studio-1", Type: domain.MessageTypeText, Content: "older", Timestamp: 100}
	second := &domain.Message{ConversationID: other.ID, SenderID: "studio-2", Type: domain.MessageTypeText, Content: "newer", Timestamp: 200}
	for _, m := range []*domain.Message{first, second} {
		stored, err := store.Messages.Append(ctx, m)
		require.NoError(t, err)
		require.NoError(t, store.Conversations.TouchOnMessage(ctx, m.ConversationID, stored))
	}

	convs, err := store.Conversations.FindByParticipant(ctx, "instructor-1")
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, other.ID, convs[0].ID)
	assert.Equal(t, conv.ID, convs[1].ID)

	require.NoError(t, store.Conversations.MarkRead(ctx, conv.ID, "instructor-1"))
	got, err := store.Conversations.FindByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.UnreadCount["instructor-1"])

	assert.ErrorIs(t, store.Conversations.MarkRead(ctx, conv.ID, "stranger"), domain.ErrForbidden)
	assert.ErrorIs(t, store.Conversations.MarkRead(ctx, "missing", "instructor-1"), domain.ErrNotFound)

	none, err := store.Conversations.FindByParticipant(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}
