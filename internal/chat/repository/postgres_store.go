package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"studio_marketplace/internal/chat/domain"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// PostgresSchema tables used by the postgres store
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS conversations (
	id                  TEXT PRIMARY KEY,
	participant_a       TEXT NOT NULL,
	participant_b       TEXT NOT NULL,
	participant_details JSONB NOT NULL DEFAULT '{}'::jsonb,
	last_message        JSONB,
	unread_count        JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at          BIGINT NOT NULL,
	CHECK (participant_a < participant_b)
);
CREATE INDEX IF NOT EXISTS conversations_participant_a_idx ON conversations (participant_a);
CREATE INDEX IF NOT EXISTS conversations_participant_b_idx ON conversations (participant_b);

CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations (id),
	sender_id       TEXT NOT NULL,
	sender_name     TEXT NOT NULL DEFAULT '',
	timestamp       BIGINT NOT NULL,
	type            TEXT NOT NULL,
	content         TEXT NOT NULL,
	payload         JSONB,
	payload_status  TEXT
);
CREATE INDEX IF NOT EXISTS messages_conversation_order_idx ON messages (conversation_id, timestamp, id);
`

// querier pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type pgTxKey struct{}

func pgQuerier(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx, ok := ctx.Value(pgTxKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

func inPgTx(ctx context.Context) bool {
	_, ok := ctx.Value(pgTxKey{}).(pgx.Tx)
	return ok
}

func translatePgErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return unavailable(err)
}

type pgTransactor struct {
	pool *pgxpool.Pool
}

// WithinTransaction commit when fn returns nil, rollback otherwise
func (t *pgTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inPgTx(ctx) {
		return fn(ctx)
	}

	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return unavailable(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(context.WithValue(ctx, pgTxKey{}, tx)); err != nil {
		return err
	}
	return unavailable(tx.Commit(ctx))
}

// EnsurePostgresSchema create tables when missing
func EnsurePostgresSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, PostgresSchema)
	return err
}

// NewPostgresStore conversations + messages on postgres
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return Store{
		Conversations: &pgConversationRepository{pool: pool},
		Messages:      &pgMessageRepository{pool: pool, now: time.Now},
		Tx:            &pgTransactor{pool: pool},
	}
}

type pgConversationRepository struct {
	pool *pgxpool.Pool
}

const conversationColumns = `id, participant_a, participant_b, participant_details, last_message, unread_count, created_at`

func scanConversation(row pgx.Row) (*domain.Conversation, error) {
	var (
		conv                     domain.Conversation
		a, b                     string
		details, last, unreadRaw []byte
	)
	if err := row.Scan(&conv.ID, &a, &b, &details, &last, &unreadRaw, &conv.CreatedAt); err != nil {
		return nil, err
	}
	conv.Participants = []string{a, b}
	conv.ParticipantDetails = map[string]domain.ParticipantDetails{}
	conv.UnreadCount = map[string]int{}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &conv.ParticipantDetails); err != nil {
			return nil, err
		}
	}
	if len(unreadRaw) > 0 {
		if err := json.Unmarshal(unreadRaw, &conv.UnreadCount); err != nil {
			return nil, err
		}
	}
	if len(last) > 0 && string(last) != "null" {
		conv.LastMessage = &domain.LastMessage{}
		if err := json.Unmarshal(last, conv.LastMessage); err != nil {
			return nil, err
		}
	}
	return &conv, nil
}

// GetOrCreate insert or merge the participant details
func (r *pgConversationRepository) GetOrCreate(ctx context.Context, a, b string, details map[string]domain.ParticipantDetails, now int64) (*domain.Conversation, error) {
	pair, err := domain.SortedPair(a, b)
	if err != nil {
		return nil, err
	}
	id, _ := domain.ConversationIDFor(pair[0], pair[1])

	own := map[string]domain.ParticipantDetails{}
	for uid, d := range details {
		if uid == pair[0] || uid == pair[1] {
			own[uid] = d
		}
	}
	detailsJSON, err := json.Marshal(own)
	if err != nil {
		return nil, err
	}
	unreadJSON, _ := json.Marshal(map[string]int{pair[0]: 0, pair[1]: 0})

	row := pgQuerier(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO conversations (id, participant_a, participant_b, participant_details, unread_count, created_at)
		VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6)
		ON CONFLICT (id) DO UPDATE
			SET participant_details = conversations.participant_details || EXCLUDED.participant_details
		RETURNING `+conversationColumns,
		id, pair[0], pair[1], string(detailsJSON), string(unreadJSON), now)

	conv, err := scanConversation(row)
	if err != nil {
		return nil, translatePgErr(err)
	}
	return conv, nil
}

// FindByID locks the row when called inside a transaction
func (r *pgConversationRepository) FindByID(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	q := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`
	if inPgTx(ctx) {
		q += ` FOR UPDATE`
	}
	conv, err := scanConversation(pgQuerier(ctx, r.pool).QueryRow(ctx, q, conversationID))
	if err != nil {
		return nil, translatePgErr(err)
	}
	return conv, nil
}

// TouchOnMessage last_message + unread increments in one statement
func (r *pgConversationRepository) TouchOnMessage(ctx context.Context, conversationID string, msg *domain.Message) error {
	last, err := json.Marshal(msg.Summary())
	if err != nil {
		return err
	}
	tag, err := pgQuerier(ctx, r.pool).Exec(ctx, `
		UPDATE conversations SET
			last_message = $2::jsonb,
			unread_count = unread_count
				|| CASE WHEN participant_a <> $3 THEN jsonb_build_object(participant_a, COALESCE((unread_count->>participant_a)::int, 0) + 1) ELSE '{}'::jsonb END
				|| CASE WHEN participant_b <> $3 THEN jsonb_build_object(participant_b, COALESCE((unread_count->>participant_b)::int, 0) + 1) ELSE '{}'::jsonb END
		WHERE id = $1`,
		conversationID, string(last), msg.SenderID)
	if err != nil {
		return translatePgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkRead reset unread counter of userID
func (r *pgConversationRepository) MarkRead(ctx context.Context, conversationID, userID string) error {
	tag, err := pgQuerier(ctx, r.pool).Exec(ctx, `
		UPDATE conversations SET unread_count = unread_count || jsonb_build_object($2::text, 0)
		WHERE id = $1 AND (participant_a = $2 OR participant_b = $2)`,
		conversationID, userID)
	if err != nil {
		return translatePgErr(err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.FindByID(ctx, conversationID); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s is not a participant", domain.ErrForbidden, userID)
	}
	return nil
}

// FindByParticipant conversations of userID, most recent activity first
func (r *pgConversationRepository) FindByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error) {
	rows, err := pgQuerier(ctx, r.pool).Query(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE participant_a = $1 OR participant_b = $1`, userID)
	if err != nil {
		return nil, translatePgErr(err)
	}
	defer rows.Close()

	convs := []domain.Conversation{}
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, translatePgErr(err)
		}
		convs = append(convs, *conv)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePgErr(err)
	}
	domain.SortConversations(convs)
	return convs, nil
}

type pgMessageRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

const messageColumns = `id, conversation_id, sender_id, sender_name, timestamp, type, content, payload`

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var (
		msg     domain.Message
		msgType string
		payload []byte
	)
	if err := row.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.SenderName, &msg.Timestamp, &msgType, &msg.Content, &payload); err != nil {
		return nil, err
	}
	msg.Type = domain.MessageType(msgType)
	if len(payload) > 0 && string(payload) != "null" {
		msg.Payload = &domain.OfferDetails{}
		if err := json.Unmarshal(payload, msg.Payload); err != nil {
			return nil, err
		}
	}
	return &msg, nil
}

// Append insert one message
func (r *pgMessageRepository) Append(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	if msg.ConversationID == "" {
		return nil, fmt.Errorf("%w: message without conversation", domain.ErrInvalidArgument)
	}
	prepareMessage(msg, r.now)

	var (
		payload []byte
		status  *string
	)
	if msg.Payload != nil {
		b, err := json.Marshal(msg.Payload)
		if err != nil {
			return nil, err
		}
		payload = b
		s := string(msg.Payload.Status)
		status = &s
	}

	_, err := pgQuerier(ctx, r.pool).Exec(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, sender_name, timestamp, type, content, payload, payload_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9)`,
		msg.ID, msg.ConversationID, msg.SenderID, msg.SenderName, msg.Timestamp, string(msg.Type), msg.Content, nullableJSON(payload), status)
	if err != nil {
		return nil, translatePgErr(err)
	}
	return msg, nil
}

func nullableJSON(b []byte) *string {
	if b == nil {
		return nil
	}
	s := string(b)
	return &s
}

// FindByID find message inside a conversation
func (r *pgMessageRepository) FindByID(ctx context.Context, conversationID, messageID string) (*domain.Message, error) {
	msg, err := scanMessage(pgQuerier(ctx, r.pool).QueryRow(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = $1 AND conversation_id = $2`, messageID, conversationID))
	if err != nil {
		return nil, translatePgErr(err)
	}
	return msg, nil
}

// UpdatePayloadStatus conditional update on payload_status
func (r *pgMessageRepository) UpdatePayloadStatus(ctx context.Context, conversationID, messageID string, expected, next domain.OfferStatus, responderID string, at int64) error {
	tag, err := pgQuerier(ctx, r.pool).Exec(ctx, `
		UPDATE messages SET
			payload_status = $4,
			payload = payload || jsonb_build_object('status', $4::text, 'responded_by', $5::text, 'responded_at', $6::bigint)
		WHERE id = $1 AND conversation_id = $2 AND payload_status = $3`,
		messageID, conversationID, string(expected), string(next), responderID, at)
	if err != nil {
		return translatePgErr(err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	msg, err := r.FindByID(ctx, conversationID, messageID)
	if err != nil {
		return err
	}
	if msg.Payload == nil {
		return domain.ErrWrongType
	}
	return domain.ErrStaleState
}

// List whole log of a conversation ordered by (timestamp, id)
func (r *pgMessageRepository) List(ctx context.Context, conversationID string) ([]domain.Message, error) {
	rows, err := pgQuerier(ctx, r.pool).Query(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE conversation_id = $1 ORDER BY timestamp, id`, conversationID)
	if err != nil {
		return nil, translatePgErr(err)
	}
	defer rows.Close()

	msgs := []domain.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, translatePgErr(err)
		}
		msgs = append(msgs, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePgErr(err)
	}
	return msgs, nil
}
