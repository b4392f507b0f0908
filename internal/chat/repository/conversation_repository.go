package repository

import (
	"context"
	"errors"
	"fmt"

	"studio_marketplace/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoConversationRepository struct {
	coll *mongo.Collection
}

// NewMongoConversationRepository create new mongo conversation repository
func NewMongoConversationRepository(db *mongo.Database) ConversationRepository {
	return &mongoConversationRepository{
		coll: db.Collection(string(domain.Conversations)),
	}
}

func translateMongoErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	return unavailable(err)
}

// GetOrCreate upsert keyed by the deterministic conversation id
func (r *mongoConversationRepository) GetOrCreate(ctx context.Context, a, b string, details map[string]domain.ParticipantDetails, now int64) (*domain.Conversation, error) {
	pair, err := domain.SortedPair(a, b)
	if err != nil {
		return nil, err
	}
	id, _ := domain.ConversationIDFor(pair[0], pair[1])

	set := bson.M{}
	for uid, d := range details {
		if uid != pair[0] && uid != pair[1] {
			continue
		}
		set["participant_details."+uid] = d
	}
	update := bson.M{
		"$setOnInsert": bson.M{
			"participants": []string{pair[0], pair[1]},
			"unread_count": bson.M{pair[0]: 0, pair[1]: 0},
			"created_at":   now,
		},
	}
	if len(set) > 0 {
		update["$set"] = set
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var conv domain.Conversation
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&conv)
	if mongo.IsDuplicateKeyError(err) {
		// two concurrent upserts, the loser retries as a plain update
		err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&conv)
	}
	if err != nil {
		return nil, translateMongoErr(err)
	}
	if conv.ParticipantDetails == nil {
		conv.ParticipantDetails = map[string]domain.ParticipantDetails{}
	}
	return &conv, nil
}

// FindByID find conversation by id
func (r *mongoConversationRepository) FindByID(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	var conv domain.Conversation
	if err := r.coll.FindOne(ctx, bson.M{"_id": conversationID}).Decode(&conv); err != nil {
		return nil, translateMongoErr(err)
	}
	return &conv, nil
}

// TouchOnMessage update last_message and unread counters in one write
func (r *mongoConversationRepository) TouchOnMessage(ctx context.Context, conversationID string, msg *domain.Message) error {
	conv, err := r.FindByID(ctx, conversationID)
	if err != nil {
		return err
	}

	inc := bson.M{}
	for _, p := range conv.Participants {
		if p != msg.SenderID {
			inc["unread_count."+p] = 1
		}
	}
	update := bson.M{"$set": bson.M{"last_message": msg.Summary()}}
	if len(inc) > 0 {
		update["$inc"] = inc
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": conversationID}, update)
	if err != nil {
		return translateMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkRead reset unread counter of userID
func (r *mongoConversationRepository) MarkRead(ctx context.Context, conversationID, userID string) error {
	if err := domain.ValidateUserID(userID); err != nil {
		return err
	}
	filter := bson.M{"_id": conversationID, "participants": userID}
	update := bson.M{"$set": bson.M{"unread_count." + userID: 0}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return translateMongoErr(err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.FindByID(ctx, conversationID); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s is not a participant", domain.ErrForbidden, userID)
	}
	return nil
}

// FindByParticipant conversations of userID, most recent activity first
func (r *mongoConversationRepository) FindByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error) {
	cur, err := r.coll.Find(ctx, bson.M{"participants": userID})
	if err != nil {
		return nil, translateMongoErr(err)
	}
	defer cur.Close(ctx)

	convs := []domain.Conversation{}
	if err := cur.All(ctx, &convs); err != nil {
		return nil, translateMongoErr(err)
	}
	// empty threads have no last_message, so the ordering is done here
	domain.SortConversations(convs)
	return convs, nil
}
