package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logging"
)

const DefaultGroupID = "order-history"

type Recorder interface {
	Record(ctx context.Context, event *domain.OrderEvent) error
}

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	recorder   Recorder
	reader     MessageReader
	retryDelay time.Duration
	logger     *zap.Logger
}

func NewConsumer(recorder Recorder, topic string, logger *zap.Logger, brokers ...string) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     DefaultGroupID,
		MaxBytes:    10e6,
		ErrorLogger: kafka.LoggerFunc(logging.Errorf(logger.Named("kafka"))),
	})
	return newConsumer(recorder, reader, logger)
}

func newConsumer(recorder Recorder, reader MessageReader, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{recorder: recorder, reader: reader, retryDelay: time.Second, logger: logger}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.processMessage(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Error("failed to process order event", zap.Error(err))
		}
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Warn("error closing kafka reader", zap.Error(err))
	}
}

// processMessage commits the offset only after the event is stored, so a
// crash in between replays the message. Malformed messages are committed and
// skipped.
func (c *Consumer) processMessage(ctx context.Context) error {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return fmt.Errorf("read message: %w", err)
	}

	var event domain.OrderEvent
	if err := json.Unmarshal(m.Value, &event); err != nil || event.ID == "" {
		c.logger.Warn("skipping malformed order event",
			zap.Int64("offset", m.Offset),
			zap.ByteString("key", m.Key),
			zap.Error(err))
		return c.commit(ctx, m)
	}

	if err := c.record(ctx, &event); err != nil {
		return err
	}

	c.logger.Debug("order event recorded",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.Int64("order_id", event.OrderID))
	return c.commit(ctx, m)
}

// record retries until the event is stored or ctx ends. The reader hands out
// the next message on every fetch, so giving up here would lose the event.
func (c *Consumer) record(ctx context.Context, event *domain.OrderEvent) error {
	for {
		err := c.recorder.Record(ctx, event)
		if err == nil {
			return nil
		}
		c.logger.Warn("failed to record order event, retrying",
			zap.String("event_id", event.ID),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
}

func (c *Consumer) commit(ctx context.Context, m kafka.Message) error {
	if err := c.reader.CommitMessages(ctx, m); err != nil {
		return fmt.Errorf("commit message: %w", err)
	}
	return nil
}
