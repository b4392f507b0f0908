package database

import (
	"context"
	"fmt"
	"time"

	"studio_marketplace/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// NewKafkaWriterWithRetry dial the first reachable broker before building the writer.
// Messages with the same key go to the same partition.
func NewKafkaWriterWithRetry(k KafkaConnection) (*kafka.Writer, error) {
	var err error

	for attempt := 1; attempt <= k.RetryCount; attempt++ {
		for _, broker := range k.Brokers {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			var conn *kafka.Conn
			conn, err = kafka.DialContext(ctx, "tcp", broker)
			cancel()
			if err != nil {
				continue
			}
			conn.Close()

			logger.Log.Info("Kafka writer ready", zap.String("broker", broker), zap.Int("attempt", attempt))
			return &kafka.Writer{
				Addr:                   kafka.TCP(k.Brokers...),
				Topic:                  k.Topic,
				Balancer:               &kafka.Hash{},
				RequiredAcks:           kafka.RequireAll,
				AllowAutoTopicCreation: true,
			}, nil
		}

		logger.Log.Warn("Kafka dial failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(k.RetryInterval)
	}

	return nil, fmt.Errorf("kafka brokers %v unreachable after %d attempts: %v", k.Brokers, k.RetryCount, err)
}
