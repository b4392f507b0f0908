package repository

import (
	"context"
	"fmt"
	"time"

	"studio_marketplace/internal/chat/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoMessageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &mongoMessageRepository{
		coll: db.Collection(string(domain.Messages)),
	}
}

// EnsureMongoIndexes indexes used by List and FindByParticipant
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(string(domain.Messages)).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "conversation_id", Value: 1},
			{Key: "timestamp", Value: 1},
			{Key: "_id", Value: 1},
		},
	})
	if err != nil {
		return err
	}
	_, err = db.Collection(string(domain.Conversations)).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "participants", Value: 1}},
	})
	return err
}

func prepareMessage(msg *domain.Message, now func() time.Time) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = now().UnixMilli()
	}
}

// Append insert one message
func (r *mongoMessageRepository) Append(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	if msg.ConversationID == "" {
		return nil, fmt.Errorf("%w: message without conversation", domain.ErrInvalidArgument)
	}
	prepareMessage(msg, time.Now)
	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		return nil, translateMongoErr(err)
	}
	return msg, nil
}

// FindByID find message inside a conversation
func (r *mongoMessageRepository) FindByID(ctx context.Context, conversationID, messageID string) (*domain.Message, error) {
	var msg domain.Message
	err := r.coll.FindOne(ctx, bson.M{"_id": messageID, "conversation_id": conversationID}).Decode(&msg)
	if err != nil {
		return nil, translateMongoErr(err)
	}
	return &msg, nil
}

// UpdatePayloadStatus conditional update; zero matches means missing or already answered
func (r *mongoMessageRepository) UpdatePayloadStatus(ctx context.Context, conversationID, messageID string, expected, next domain.OfferStatus, responderID string, at int64) error {
	filter := bson.M{
		"_id":             messageID,
		"conversation_id": conversationID,
		"payload.status":  expected,
	}
	update := bson.M{"$set": bson.M{
		"payload.status":       next,
		"payload.responded_by": responderID,
		"payload.responded_at": at,
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return translateMongoErr(err)
	}
	if res.MatchedCount == 1 {
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
func (r *mongoMessageRepository) List(ctx context.Context, conversationID string) ([]domain.Message, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "timestamp", Value: 1},
		{Key: "_id", Value: 1},
	})
	cur, err := r.coll.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, translateMongoErr(err)
	}
	defer cur.Close(ctx)

	msgs := []domain.Message{}
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, translateMongoErr(err)
	}
	return msgs, nil
}
