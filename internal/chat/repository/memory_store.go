package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"studio_marketplace/internal/chat/domain"
)

// memoryDB single process store for tests and local runs. One mutex
// serializes every transaction, so commit order is total.
type memoryDB struct {
	mu            sync.Mutex
	now           func() time.Time
	conversations map[string]*domain.Conversation
	messages      map[string][]*domain.Message // conversation id -> log
}

type memTxKey struct{}

// memTx undo log of the running transaction
type memTx struct {
	undo []func()
}

func currentMemTx(ctx context.Context) *memTx {
	tx, _ := ctx.Value(memTxKey{}).(*memTx)
	return tx
}

// lock takes the mutex unless ctx already runs inside a transaction
func (db *memoryDB) lock(ctx context.Context) (*memTx, func()) {
	if tx := currentMemTx(ctx); tx != nil {
		return tx, func() {}
	}
	db.mu.Lock()
	return nil, db.mu.Unlock
}

func (tx *memTx) record(fn func()) {
	if tx != nil {
		tx.undo = append(tx.undo, fn)
	}
}

// WithinTransaction undo log replayed in reverse when fn fails
func (db *memoryDB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if currentMemTx(ctx) != nil {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	tx := &memTx{}
	if err := fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		return err
	}
	return nil
}

// NewMemoryStore in-process store
func NewMemoryStore(now func() time.Time) Store {
	if now == nil {
		now = time.Now
	}
	db := &memoryDB{
		now:           now,
		conversations: map[string]*domain.Conversation{},
		messages:      map[string][]*domain.Message{},
	}
	return Store{
		Conversations: &memConversationRepository{db: db},
		Messages:      &memMessageRepository{db: db},
		Tx:            db,
	}
}

type memConversationRepository struct {
	db *memoryDB
}

func (r *memConversationRepository) GetOrCreate(ctx context.Context, a, b string, details map[string]domain.ParticipantDetails, now int64) (*domain.Conversation, error) {
	pair, err := domain.SortedPair(a, b)
	if err != nil {
		return nil, err
	}
	id, _ := domain.ConversationIDFor(pair[0], pair[1])

	tx, unlock := r.db.lock(ctx)
	defer unlock()

	conv, ok := r.db.conversations[id]
	if !ok {
		conv = &domain.Conversation{
			ID:                 id,
			Participants:       []string{pair[0], pair[1]},
			ParticipantDetails: map[string]domain.ParticipantDetails{},
			UnreadCount:        map[string]int{pair[0]: 0, pair[1]: 0},
			CreatedAt:          now,
		}
		r.db.conversations[id] = conv
		tx.record(func() { delete(r.db.conversations, id) })
	} else {
		before := conv.Clone()
		tx.record(func() { r.db.conversations[id] = &before })
	}
	for uid, d := range details {
		if uid == pair[0] || uid == pair[1] {
			conv.ParticipantDetails[uid] = d
		}
	}

	out := conv.Clone()
	return &out, nil
}

func (r *memConversationRepository) FindByID(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	_, unlock := r.db.lock(ctx)
	defer unlock()

	conv, ok := r.db.conversations[conversationID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := conv.Clone()
	return &out, nil
}

func (r *memConversationRepository) TouchOnMessage(ctx context.Context, conversationID string, msg *domain.Message) error {
	tx, unlock := r.db.lock(ctx)
	defer unlock()

	conv, ok := r.db.conversations[conversationID]
	if !ok {
		return domain.ErrNotFound
	}
	before := conv.Clone()
	tx.record(func() { r.db.conversations[conversationID] = &before })

	last := msg.Summary()
	conv.LastMessage = &last
	for _, p := range conv.Participants {
		if p != msg.SenderID {
			conv.UnreadCount[p]++
		}
	}
	return nil
}

func (r *memConversationRepository) MarkRead(ctx context.Context, conversationID, userID string) error {
	tx, unlock := r.db.lock(ctx)
	defer unlock()

	conv, ok := r.db.conversations[conversationID]
	if !ok {
		return domain.ErrNotFound
	}
	if !conv.HasParticipant(userID) {
		return fmt.Errorf("%w: %s is not a participant", domain.ErrForbidden, userID)
	}
	prev := conv.UnreadCount[userID]
	tx.record(func() { conv.UnreadCount[userID] = prev })
	conv.UnreadCount[userID] = 0
	return nil
}

func (r *memConversationRepository) FindByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error) {
	_, unlock := r.db.lock(ctx)
	defer unlock()

	convs := []domain.Conversation{}
	for _, c := range r.db.conversations {
		if c.HasParticipant(userID) {
			convs = append(convs, c.Clone())
		}
	}
	domain.SortConversations(convs)
	return convs, nil
}

type memMessageRepository struct {
	db *memoryDB
}

func (r *memMessageRepository) Append(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	if msg.ConversationID == "" {
		return nil, fmt.Errorf("%w: message without conversation", domain.ErrInvalidArgument)
	}
	tx, unlock := r.db.lock(ctx)
	defer unlock()

	if _, ok := r.db.conversations[msg.ConversationID]; !ok {
		return nil, domain.ErrNotFound
	}
	prepareMessage(msg, r.db.now)

	stored := msg.Clone()
	convID := msg.ConversationID
	prevLen := len(r.db.messages[convID])
	r.db.messages[convID] = append(r.db.messages[convID], &stored)
	tx.record(func() { r.db.messages[convID] = r.db.messages[convID][:prevLen] })

	out := stored.Clone()
	return &out, nil
}

func (r *memMessageRepository) find(conversationID, messageID string) *domain.Message {
	for _, m := range r.db.messages[conversationID] {
		if m.ID == messageID {
			return m
		}
	}
	return nil
}

func (r *memMessageRepository) FindByID(ctx context.Context, conversationID, messageID string) (*domain.Message, error) {
	_, unlock := r.db.lock(ctx)
	defer unlock()

	m := r.find(conversationID, messageID)
	if m == nil {
		return nil, domain.ErrNotFound
	}
	out := m.Clone()
	return &out, nil
}

func (r *memMessageRepository) UpdatePayloadStatus(ctx context.Context, conversationID, messageID string, expected, next domain.OfferStatus, responderID string, at int64) error {
	tx, unlock := r.db.lock(ctx)
	defer unlock()

	m := r.find(conversationID, messageID)
	if m == nil {
		return domain.ErrNotFound
	}
	if m.Payload == nil {
		return domain.ErrWrongType
	}
	if m.Payload.Status != expected {
		return domain.ErrStaleState
	}
	before := *m.Payload
	tx.record(func() { *m.Payload = before })

	m.Payload.Status = next
	m.Payload.RespondedBy = responderID
	m.Payload.RespondedAt = at
	return nil
}

func (r *memMessageRepository) List(ctx context.Context, conversationID string) ([]domain.Message, error) {
	_, unlock := r.db.lock(ctx)
	defer unlock()

	msgs := make([]domain.Message, 0, len(r.db.messages[conversationID]))
	for _, m := range r.db.messages[conversationID] {
		msgs = append(msgs, m.Clone())
	}
	domain.SortMessages(msgs)
	return msgs, nil
}
