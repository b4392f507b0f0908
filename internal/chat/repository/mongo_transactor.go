package repository

import (
	"context"

	"studio_marketplace/pkg/database"

	"go.mongodb.org/mongo-driver/mongo"
)

type mongoTransactor struct {
	client *mongo.Client
}

// NewMongoTransactor multi document transactions, needs a replica set
func NewMongoTransactor(client *mongo.Client) Transactor {
	return &mongoTransactor{client: client}
}

// WithinTransaction WithTransaction retries fn on transient errors and
// on unknown commit results
func (t *mongoTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if sess := mongo.SessionFromContext(ctx); sess != nil {
		return fn(ctx)
	}

	session, err := t.client.StartSession()
	if err != nil {
		return unavailable(err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return unavailable(err)
}

// NewMongoStore conversations + messages on one mongo database
func NewMongoStore(m *database.MongoDB) Store {
	return Store{
		Conversations: NewMongoConversationRepository(m.Database),
		Messages:      NewMongoMessageRepository(m.Database),
		Tx:            NewMongoTransactor(m.Client),
	}
}
