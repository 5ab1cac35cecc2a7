package events

import (
	"context"
	"fmt"
	"io"

	"salonhub/internal/config"
	"salonhub/internal/worker"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const mimeApplicationJSON = "application/json"

// amqpChannel is the subset of *amqp091.Channel the forwarder uses.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// AMQPForwarder publishes bus events to a RabbitMQ topic exchange.
// Routing keys are "<routing_key>.<event type>".
type AMQPForwarder struct {
	channel    amqpChannel
	conn       io.Closer
	exchange   string
	routingKey string
	logger     *zerolog.Logger
}

// DialAMQP connects to the broker and declares the durable topic exchange.
func DialAMQP(cfg config.AMQPConfig, logger *zerolog.Logger) (*AMQPForwarder, error) {
	conn, err := amqp091.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}
	if err := channel.ExchangeDeclare(cfg.Exchange, amqp091.ExchangeTopic, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	logger.Info().Str("exchange", cfg.Exchange).Msg("Successfully connected to rabbitMQ")
	return NewAMQPForwarder(channel, conn, cfg.Exchange, cfg.RoutingKey, logger), nil
}

func NewAMQPForwarder(channel amqpChannel, conn io.Closer, exchange, routingKey string, logger *zerolog.Logger) *AMQPForwarder {
	return &AMQPForwarder{
		channel:    channel,
		conn:       conn,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}
}

// Deliver implements worker.Sink.
func (f *AMQPForwarder) Deliver(ctx context.Context, job worker.Job) error {
	message := amqp091.Publishing{
		ContentType:  mimeApplicationJSON,
		DeliveryMode: amqp091.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    job.CreatedAt,
		Type:         job.Type,
		Body:         job.Payload,
		Headers: amqp091.Table{
			"event_type": job.Type,
		},
	}

	key := f.routingKey + "." + job.Type
	if err := f.channel.PublishWithContext(ctx, f.exchange, key, false, false, message); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	f.logger.Debug().Str("routing_key", key).Msg("Event forwarded")
	return nil
}

func (f *AMQPForwarder) Close() error {
	if err := f.channel.Close(); err != nil {
		f.logger.Warn().Err(err).Msg("Failed to close rabbitmq channel")
	}
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}

// Forward subscribes to eventTypes on the bus and hands each event to enqueue.
// An enqueue failure is returned to the publisher.
func Forward(bus *EventBus, eventTypes []string, enqueue func(worker.Job) error) {
	bus.SubscribeAll(eventTypes, func(event *Event) error {
		job := worker.Job{Type: event.Type, Payload: event.Payload, CreatedAt: event.CreatedAt}
		if err := enqueue(job); err != nil {
			return fmt.Errorf("forward %s: %w", event.Type, err)
		}
		return nil
	})
}
