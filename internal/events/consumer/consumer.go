// Package consumer runs the Kafka consume loop for account events.
package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"dinehub/backend/internal/events/domain"
)

// Handler applies one decoded event. A returned error triggers a retry; an
// event that keeps failing is parked on the dead letter topic.
type Handler func(ctx context.Context, e *domain.Envelope) error

// dlqWriter is the slice of kafka.Writer the consumer needs.
type dlqWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Config configures a Consumer.
type Config struct {
	Brokers  []string
	Topic    string
	GroupID  string
	DLQTopic string
}

// Consumer reads account events from Kafka and hands them to a Handler.
type Consumer struct {
	reader      *kafka.Reader
	dlq         dlqWriter
	handle      Handler
	log         *zap.Logger
	maxAttempts int
	retryDelay  time.Duration
}

// New returns a Consumer for the given group. Close the consumer when done.
func New(cfg Config, handle Handler, log *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})
	var dlq dlqWriter
	if cfg.DLQTopic != "" {
		dlq = &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    cfg.DLQTopic,
			Balancer: &kafka.LeastBytes{},
		}
	}
	return &Consumer{
		reader:      reader,
		dlq:         dlq,
		handle:      handle,
		log:         log,
		maxAttempts: 3,
		retryDelay:  time.Second,
	}
}

// Run consumes until ctx is cancelled. Read errors are logged and retried;
// only context cancellation ends the loop.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn("kafka read error", zap.Error(err))
			continue
		}
		c.process(ctx, msg)
	}
}

// process decodes and applies one message. Undecodable messages go straight
// to the dead letter topic; handler failures are retried with a fixed delay
// before parking. The message is always consumed so the partition keeps moving.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	var event domain.Envelope
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.log.Warn("undecodable event", zap.Error(err))
		c.park(ctx, msg)
		return
	}

	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		handleCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = c.handle(handleCtx, &event)
		cancel()
		if err == nil {
			return
		}
		c.log.Warn("event handling failed",
			zap.String("event_id", event.EventID),
			zap.String("event_type", event.EventType),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt < c.maxAttempts {
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return
			}
		}
	}
	c.park(ctx, msg)
}

// park writes the raw message to the dead letter topic.
func (c *Consumer) park(ctx context.Context, msg kafka.Message) {
	if c.dlq == nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.dlq.WriteMessages(writeCtx, kafka.Message{Key: msg.Key, Value: msg.Value}); err != nil {
		c.log.Error("dead letter write failed", zap.Error(err))
	}
}

// Close closes the Kafka reader and dead letter writer.
func (c *Consumer) Close() error {
	if w, ok := c.dlq.(*kafka.Writer); ok {
		_ = w.Close()
	}
	return c.reader.Close()
}
