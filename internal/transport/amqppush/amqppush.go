// Package amqppush is the push transport between the server and the worker.
// Each subscribed device owns one durable queue on the broker, named by the
// last path segment of its subscription endpoint.
package amqppush

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/colonyops/ordernotify/internal/core/degrade"
	"github.com/colonyops/ordernotify/internal/core/logging"
	"github.com/colonyops/ordernotify/internal/core/push"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// ErrNoQueue is returned when a descriptor does not name a broker queue.
var ErrNoQueue = errors.New("endpoint does not name a broker queue")

// Handler processes one push payload.
type Handler func(ctx context.Context, body []byte) error

// Dial connects to the broker with a heartbeat.
func Dial(brokerURL string) (*amqp.Connection, error) {
	conn, err := amqp.DialConfig(brokerURL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
	})
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	return conn, nil
}

// DeclareQueue declares the durable device queue.
func DeclareQueue(ch *amqp.Channel, queue string) error {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return nil
}

// ConsumerConfig configures a Consumer.
type ConsumerConfig struct {
	BrokerURL string
	// Queue is the device queue. Use QueueFor to derive it from a descriptor.
	Queue    string
	Prefetch int
	// RetryDelay is the pause before reconnecting after the connection drops.
	RetryDelay time.Duration
	Reporter   *degrade.Reporter
}

// QueueFor returns the queue named by d's endpoint.
func QueueFor(d push.Descriptor) (string, error) {
	q, ok := push.EndpointQueue(d.Endpoint)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoQueue, d.Endpoint)
	}
	return q, nil
}

// Consumer reads push payloads from the device queue and hands them to a
// Handler.
type Consumer struct {
	cfg ConsumerConfig
	log zerolog.Logger
}

// NewConsumer creates a consumer.
func NewConsumer(cfg ConsumerConfig) *Consumer {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	return &Consumer{cfg: cfg, log: logging.Component("amqppush").With().Str("queue", cfg.Queue).Logger()}
}

// Run consumes until ctx is done, reconnecting after connection loss.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	for {
		err := c.consume(ctx, handle)
		if ctx.Err() != nil {
			return nil
		}
		c.cfg.Reporter.Handle("amqppush.consume", degrade.RetryNextCycle, err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.cfg.RetryDelay):
		}
	}
}

func (c *Consumer) consume(ctx context.Context, handle Handler) error {
	conn, err := Dial(c.cfg.BrokerURL)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := DeclareQueue(ch, c.cfg.Queue); err != nil {
		return err
	}
	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(c.cfg.Queue, "ordernotify-worker", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.cfg.Queue, err)
	}
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))

	c.log.Info().Msg("consuming pushes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case amqpErr := <-closed:
			if amqpErr == nil {
				return errors.New("broker connection closed")
			}
			return amqpErr
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.deliver(ctx, d, handle)
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, d amqp.Delivery, handle Handler) {
	if err := handle(ctx, d.Body); err != nil {
		c.log.Error().Err(err).Msg("push handler failed")
		// The payload is dropped: redelivering would show it twice once the
		// handler recovers.
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}
