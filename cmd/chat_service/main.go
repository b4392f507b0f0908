package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "studio_marketplace/cmd/chat_service/docs" // swagger 文件
	"studio_marketplace/internal/chat/app"
	"studio_marketplace/internal/chat/domain"
	"studio_marketplace/internal/chat/repository"
	"studio_marketplace/internal/chat/router"
	"studio_marketplace/pkg/config"
	"studio_marketplace/pkg/database"
	"studio_marketplace/pkg/logger"
	testtool "studio_marketplace/pkg/test_tool"
	"studio_marketplace/pkg/token"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

const serviceName = "chat"

// configureJWT only local runs may fall back to the built-in secret
func configureJWT(secret string, local bool) error {
	err := token.SetSecret(secret)
	if errors.Is(err, token.ErrEmptySecret) && local {
		logger.Log.Warn("jwt_secret is empty, using the built-in local secret")
		return nil
	}
	return err
}

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	defer logger.Log.Sync()
	logger.Log.SetDebugMode(config.IsLocal())

	cfg, err := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)
	if err != nil {
		logger.Log.Fatal("load config failed", zap.Error(err))
	}
	cfg.ApplyDefaults()
	if err := configureJWT(cfg.JWTSecret, config.IsLocal()); err != nil {
		logger.Log.Fatal("jwt secret", zap.Error(err))
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Log.Fatal("invalid timezone", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. health server, NOT_SERVING until every dependency is ready
	health, err := database.NewHealthServer(":" + cfg.GRPCPort)
	if err != nil {
		logger.Log.Fatal("grpc health listen failed", zap.Error(err))
	}
	health.SetServing(serviceName, false)
	go func() {
		if err := health.Serve(); err != nil {
			logger.Log.Error("grpc health server stopped", zap.Error(err))
		}
	}()
	defer health.Stop()

	testtool.StartPprof()

	// 2. 建立 store
	store, closeStore := newStore(ctx, cfg)
	defer closeStore()

	// 3. 建立 Redis 連線 (Pub/Sub + catalog cache)
	var redisClient redis.UniversalClient
	if cfg.PubSub == "redis" || cfg.Catalog.Driver == "postgres" {
		redisClient = newRedisClient(cfg)
		defer redisClient.Close()
	}

	var pubsub repository.PubSub
	switch cfg.PubSub {
	case "redis":
		pubsub = repository.NewRedisPubSub(redisClient)
	case "local":
		pubsub = repository.NewLocalPubSub()
	default:
		logger.Log.Fatal("unknown pubsub", zap.String("pubsub", cfg.PubSub))
	}

	// 4. catalog read model
	catalog := newCatalog(cfg, redisClient)

	// 5. booking events + application update consumer
	events, consumerRabbit, closeEvents := newEvents(cfg)
	defer closeEvents()

	// 6. 初始化 UseCases
	conversationUC := app.NewConversationUseCase(store, pubsub, time.Now)
	messageUC := app.NewMessageUseCase(store, pubsub, time.Now)
	negotiationUC := app.NewNegotiationUseCase(store, pubsub, events, time.Now)
	dispatchUC := app.NewDispatchUseCase(store, pubsub, catalog, time.Now)
	syncUC := app.NewSyncUseCase(store, pubsub)

	if consumerRabbit != nil {
		consumer := app.NewApplicationUpdateConsumer(consumerRabbit, dispatchUC, cfg.Events.ApplicationQ, cfg.Events.RetryInterval)
		go func() {
			if err := consumer.StartConsumer(ctx); err != nil {
				logger.Log.Error("application update consumer failed", zap.Error(err))
			}
		}()
	}

	// 7. 啟動 Fiber
	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(r,
		app.NewChatHTTPHandler(conversationUC, messageUC, negotiationUC, dispatchUC, loc),
		app.NewChatWebsocketHandler(conversationUC, messageUC, negotiationUC, dispatchUC, syncUC, cfg.PingInterval, loc),
	)

	go func() {
		<-ctx.Done()
		logger.Log.Info("shutting down chat service")
		health.SetServing(serviceName, false)
		if err := r.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Log.Error("fiber shutdown", zap.Error(err))
		}
	}()

	health.SetServing(serviceName, true)
	port := ":" + cfg.Port
	logger.Log.Info("Chat Service listening", zap.String("port", port), zap.String("store", cfg.Store))
	if err := r.Listen(port); err != nil {
		logger.Log.Fatal("Failed to start Fiber", zap.Error(err))
	}
}

func newStore(ctx context.Context, cfg config.Chat) (repository.Store, func()) {
	switch cfg.Store {
	case "mongo":
		uri := fmt.Sprintf("mongodb://%s:%s@%s:%d/?%s",
			url.QueryEscape(cfg.MongoSQL.User), url.QueryEscape(cfg.MongoSQL.Password),
			cfg.MongoSQL.Host, cfg.MongoSQL.Port, cfg.MongoSQL.Options)
		mongo, err := database.NewMongoDB(ctx,
			database.Connection{
				ConnectStr:    uri,
				RetryCount:    cfg.MongoSQL.RetryCount,
				RetryInterval: time.Duration(cfg.MongoSQL.RetryInterval),
			},
			cfg.MongoSQL.Database)
		if err != nil {
			logger.Log.Fatal("Unable to connect to mongoDB database after retries",
				zap.String("host", cfg.MongoSQL.Host),
				zap.Error(err),
			)
		}
		if err := repository.EnsureMongoIndexes(ctx, mongo.Database); err != nil {
			logger.Log.Fatal("create mongo indexes", zap.Error(err))
		}
		return repository.NewMongoStore(mongo), func() { mongo.Close(context.Background()) }

	case "postgres":
		pool, err := database.NewDatabaseConnection(database.Connection{
			ConnectStr:    postgresDSN(cfg.PostgreSQL),
			RetryCount:    cfg.PostgreSQL.RetryCount,
			RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
		})
		if err != nil {
			logger.Log.Fatal("Unable to connect to postgreSQL after retries", zap.String("host", cfg.PostgreSQL.Host), zap.Error(err))
		}
		if err := repository.EnsurePostgresSchema(ctx, pool); err != nil {
			logger.Log.Fatal("create postgres schema", zap.Error(err))
		}
		return repository.NewPostgresStore(pool), pool.Close

	case "memory":
		logger.Log.Warn("memory store selected, data is lost on restart")
		return repository.NewMemoryStore(time.Now), func() {}
	}

	logger.Log.Fatal("unknown store", zap.String("store", cfg.Store))
	return repository.Store{}, nil
}

func postgresDSN(d config.DatabaseConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		url.QueryEscape(d.User), url.QueryEscape(d.Password), d.Host, d.Port, d.Database)
}

func newRedisClient(cfg config.Chat) redis.UniversalClient {
	if cfg.Redis.Addr != "" {
		client, err := database.NewRedisStandaloneClient(cfg.Redis.Addr, cfg.Redis.RedisDB)
		if err != nil {
			logger.Log.Fatal("connect redis err", zap.Error(err))
		}
		return client
	}
	masterName, sentinel := config.RedisSentinel()
	client, err := database.NewRedisClient(masterName, sentinel, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal("connect redis sentinel err", zap.Error(err))
	}
	return client
}

func newCatalog(cfg config.Chat, redisClient redis.UniversalClient) repository.CatalogRepository {
	if cfg.Catalog.Driver != "postgres" {
		logger.Log.Warn("memory catalog selected, catalog offers resolve nothing until seeded")
		return repository.NewMemoryCatalog()
	}
	db, err := database.NewGormConnection(database.Connection{
		ConnectStr:    postgresDSN(cfg.PostgreSQL),
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("catalog connect failed", zap.Error(err))
	}
	cache := database.NewRedisRepositoryFromClient[domain.CatalogSummary](redisClient)
	return repository.NewCachedCatalogRepository(repository.NewGormCatalogRepository(db), cache, cfg.Catalog.CacheTTL)
}

// newEvents booking event publisher; the rabbit repo is returned when the
// application update queue should be consumed
func newEvents(cfg config.Chat) (repository.BookingEventPublisher, database.RabbitRepo, func()) {
	switch cfg.Events.Driver {
	case "kafka":
		writer, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
			Brokers:       cfg.Events.Brokers,
			Topic:         cfg.Events.Topic,
			RetryCount:    cfg.Events.RetryCount,
			RetryInterval: cfg.Events.RetryInterval,
		})
		if err != nil {
			logger.Log.Fatal("kafka writer failed", zap.Error(err))
		}
		events := repository.NewKafkaBookingEventPublisher(writer)
		return events, nil, func() { events.Close() }

	case "rabbitmq":
		conn, err := database.ConnectRabbitMQWithRetry(database.Connection{
			ConnectStr:    cfg.Events.AMQPURL,
			RetryCount:    cfg.Events.RetryCount,
			RetryInterval: cfg.Events.RetryInterval / time.Second,
		})
		if err != nil {
			logger.Log.Fatal("rabbitmq connect failed", zap.Error(err))
		}
		pubCh, err := database.GetRabbitMQChannelWithRetry(conn, cfg.Events.RetryCount, cfg.Events.RetryInterval/time.Second)
		if err != nil {
			logger.Log.Fatal("rabbitmq channel failed", zap.Error(err))
		}
		subCh, err := database.GetRabbitMQChannelWithRetry(conn, cfg.Events.RetryCount, cfg.Events.RetryInterval/time.Second)
		if err != nil {
			logger.Log.Fatal("rabbitmq channel failed", zap.Error(err))
		}
		consumerRabbit := database.NewRabbitRepository(subCh)
		events := repository.NewAMQPBookingEventPublisher(database.NewRabbitRepository(pubCh), cfg.Events.Exchange, cfg.Events.RoutingKey)
		return events, consumerRabbit, func() {
			events.Close()
			consumerRabbit.Close()
			conn.Close()
		}
	}

	return repository.NewNoopBookingEventPublisher(), nil, func() {}
}
