//go:build integration

package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"studio_marketplace/internal/chat/domain"
	"studio_marketplace/internal/chat/repository"
	"studio_marketplace/pkg/database"
	"studio_marketplace/pkg/logger"
	testtool "studio_marketplace/pkg/test_tool"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// **測試用的容器**
var (
	mongoDB     *database.MongoDB
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
)

// **TestMain 初始化測試環境**
func TestMain(m *testing.M) {
	ctx := context.Background()
	logger.SetNewNop()

	// **啟動 MongoDB** single node replica set, transactions need one
	mongoContainer, mongoHost, mongoPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		Cmd:          []string{"--replSet", "rs0", "--bind_ip_all"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start MongoDB container: %v", err)
	}
	mongoURL := fmt.Sprintf("mongodb://%s:%s/?directConnection=true", mongoHost, mongoPort)
	if err := initiateReplicaSet(ctx, mongoURL); err != nil {
		log.Fatalf("❌ Failed to initiate replica set: %v", err)
	}
	fmt.Printf("✅ MongoDB running at %s\n", mongoURL)

	// **啟動 Redis**
	redisContainer, redisHost, redisPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "redis:7",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start Redis container: %v", err)
	}
	fmt.Printf("✅ Redis running at %s:%s\n", redisHost, redisPort)

	// **啟動 PostgreSQL**
	pgContainer, pgHost, pgPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "postgres:16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "chat",
			"POSTGRES_PASSWORD": "chat",
			"POSTGRES_DB":       "chat",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start PostgreSQL container: %v", err)
	}
	fmt.Printf("✅ PostgreSQL running at %s:%s\n", pgHost, pgPort)

	mongoDB, err = database.NewMongoDB(ctx, database.Connection{
		ConnectStr:    mongoURL,
		RetryCount:    5,
		RetryInterval: 1,
	}, "test_chat_db")
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	if err := repository.EnsureMongoIndexes(ctx, mongoDB.Database); err != nil {
		log.Fatalf("❌ Failed to create indexes: %v", err)
	}

	pgPool, err = database.NewDatabaseConnection(database.Connection{
		ConnectStr:    fmt.Sprintf("postgres://chat:chat@%s:%s/chat?sslmode=disable", pgHost, pgPort),
		RetryCount:    5,
		RetryInterval: 1,
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to PostgreSQL: %v", err)
	}
	if err := repository.EnsurePostgresSchema(ctx, pgPool); err != nil {
		log.Fatalf("❌ Failed to create schema: %v", err)
	}

	redisClient, err = database.NewRedisStandaloneClient(fmt.Sprintf("%s:%s", redisHost, redisPort), 0)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}

	code := m.Run()

	_ = redisClient.Close()
	pgPool.Close()
	_ = mongoDB.Close(ctx)
	for _, c := range []testcontainers.Container{mongoContainer, redisContainer, pgContainer} {
		_ = c.Terminate(ctx)
	}
	os.Exit(code)
}

func initiateReplicaSet(ctx context.Context, url string) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	admin := client.Database("admin")
	err = admin.RunCommand(ctx, bson.D{{Key: "replSetInitiate", Value: bson.D{
		{Key: "_id", Value: "rs0"},
		{Key: "members", Value: bson.A{bson.D{{Key: "_id", Value: 0}, {Key: "host", Value: "localhost:27017"}}}},
	}}}).Err()
	if err != nil {
		return err
	}

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		var hello struct {
			IsWritablePrimary bool `bson:"isWritablePrimary"`
		}
		if err := admin.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err == nil && hello.IsWritablePrimary {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("replica set has no primary")
}

type backend struct {
	name  string
	store repository.Store
}

func backends() []backend {
	return []backend{
		{name: "mongo", store: repository.NewMongoStore(mongoDB)},
		{name: "postgres", store: repository.NewPostgresStore(pgPool)},
	}
}

// each test uses its own pair so backends can share one database
func uniquePair(t *testing.T, name string) (domain.Session, domain.Participant) {
	suffix := fmt.Sprintf("%s-%s-%d", name, t.Name(), time.Now().UnixNano())
	return domain.Session{UserID: "studio-" + suffix, DisplayName: "Sunrise Studio"},
		domain.Participant{UserID: "instructor-" + suffix, DisplayName: "Ivy"}
}

func TestIntegration_ConcurrentRespond(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			bus := repository.NewRedisPubSub(redisClient)
			dispatch := NewDispatchUseCase(b.store, bus, nil, time.Now)
			negotiation := NewNegotiationUseCase(b.store, bus, nil, time.Now)
			messages := NewMessageUseCase(b.store, bus, time.Now)

			sender, recipient := uniquePair(t, b.name)
			conv, offer, err := dispatch.DispatchOffer(ctx, sender, recipient, yogaJobOffer, "")
			require.NoError(t, err)

			const n = 8
			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				success int
				stale   int
			)
			responder := domain.Session{UserID: recipient.UserID, DisplayName: recipient.DisplayName}
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					decision := domain.OfferAccepted
					if i%2 == 1 {
						decision = domain.OfferDeclined
					}
					_, err := negotiation.Respond(ctx, responder, conv.ID, offer.ID, decision)
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						success++
					case assert.ErrorIs(t, err, domain.ErrStaleState):
						stale++
					}
				}(i)
			}
			wg.Wait()

			assert.Equal(t, 1, success)
			assert.Equal(t, n-1, stale)

			msgs, err := messages.ListMessages(ctx, sender, conv.ID)
			require.NoError(t, err)
			require.Len(t, msgs, 2)
			assert.True(t, msgs[0].Payload.Status.IsTerminal())
			assert.Equal(t, domain.FollowUpText(msgs[0].Type, msgs[0].Payload.Status), msgs[1].Content)

			got, err := b.store.Conversations.FindByID(ctx, conv.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, got.UnreadCount[sender.UserID])
			assert.Equal(t, 1, got.UnreadCount[recipient.UserID])
		})
	}
}

func TestIntegration_RollbackOnFailedSummary(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			sender, recipient := uniquePair(t, b.name)

			conversations := NewConversationUseCase(b.store, nil, time.Now)
			conv, err := conversations.GetOrCreate(ctx, sender.Participant(), recipient)
			require.NoError(t, err)

			broken := b.store
			broken.Conversations = failingTouch{b.store.Conversations}
			_, err = NewMessageUseCase(broken, nil, time.Now).SendText(ctx, sender, conv.ID, "lost")
			require.Error(t, err)

			msgs, err := b.store.Messages.List(ctx, conv.ID)
			require.NoError(t, err)
			assert.Empty(t, msgs)
		})
	}
}

func TestIntegration_SubscribeOverRedis(t *testing.T) {
	ctx := context.Background()
	b := backends()[0]
	bus := repository.NewRedisPubSub(redisClient)
	dispatch := NewDispatchUseCase(b.store, bus, nil, time.Now)
	negotiation := NewNegotiationUseCase(b.store, bus, nil, time.Now)
	syncUC := NewSyncUseCase(b.store, bus)

	sender, recipient := uniquePair(t, b.name)
	conv, offer, err := dispatch.DispatchOffer(ctx, sender, recipient, yogaJobOffer, "")
	require.NoError(t, err)

	updates := make(chan []domain.Message, 16)
	unsub, err := syncUC.SubscribeMessages(ctx, sender, conv.ID, func(msgs []domain.Message) {
		updates <- msgs
	})
	require.NoError(t, err)
	defer unsub()

	_, err = negotiation.Respond(ctx, domain.Session{UserID: recipient.UserID}, conv.ID, offer.ID, domain.OfferAccepted)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		for {
			select {
			case msgs := <-updates:
				if len(msgs) == 2 && msgs[0].Payload.Status == domain.OfferAccepted {
					return true
				}
			default:
				return false
			}
		}
	}, 5*time.Second, 20*time.Millisecond)
}
