package repository

import (
	"context"
	"encoding/json"
	"time"

	"studio_marketplace/internal/chat/domain"
	"studio_marketplace/pkg/database"

	"github.com/segmentio/kafka-go"
	"github.com/streadway/amqp"
)

// BookingEventPublisher outbound negotiation results
type BookingEventPublisher interface {
	PublishOfferResolved(ctx context.Context, evt domain.BookingEvent) error
	Close() error
}

// KafkaWriter subset of *kafka.Writer
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaBookingEventPublisher struct {
	writer KafkaWriter
}

// NewKafkaBookingEventPublisher keyed by conversation id so events of one
// conversation keep their order
func NewKafkaBookingEventPublisher(writer KafkaWriter) BookingEventPublisher {
	return &kafkaBookingEventPublisher{writer: writer}
}

func (p *kafkaBookingEventPublisher) PublishOfferResolved(ctx context.Context, evt domain.BookingEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.ConversationID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(evt.Type)},
		},
	})
}

func (p *kafkaBookingEventPublisher) Close() error {
	return p.writer.Close()
}

type amqpBookingEventPublisher struct {
	rabbit     database.RabbitRepo
	exchange   string
	routingKey string
}

// NewAMQPBookingEventPublisher persistent messages on exchange / routingKey
func NewAMQPBookingEventPublisher(rabbit database.RabbitRepo, exchange, routingKey string) BookingEventPublisher {
	return &amqpBookingEventPublisher{rabbit: rabbit, exchange: exchange, routingKey: routingKey}
}

func (p *amqpBookingEventPublisher) PublishOfferResolved(ctx context.Context, evt domain.BookingEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.rabbit.Publish(p.exchange, p.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         string(evt.Type),
		MessageId:    evt.MessageID,
		Timestamp:    time.UnixMilli(evt.ResolvedAt),
		Body:         data,
	})
}

func (p *amqpBookingEventPublisher) Close() error {
	return nil
}

type noopBookingEventPublisher struct{}

// NewNoopBookingEventPublisher drops every event
func NewNoopBookingEventPublisher() BookingEventPublisher {
	return noopBookingEventPublisher{}
}

func (noopBookingEventPublisher) PublishOfferResolved(context.Context, domain.BookingEvent) error {
	return nil
}

func (noopBookingEventPublisher) Close() error { return nil }
