// Package kafka publishes order events and consumes account events over franz-go.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"storefront/internal/events"
	"storefront/internal/orders"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	// deliveryTimeout caps how long a produced record may wait for the broker,
	// retries included.
	deliveryTimeout       = 10 * time.Second
	produceRequestTimeout = 5 * time.Second
)

type Conf struct {
	client *kgo.Client
}

// NewConf creates a client for brokers. When topics are given the client also
// joins group and consumes them.
func NewConf(brokers []string, group string, topics ...string) (*Conf, error) {
	if len(brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}
	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.RecordDeliveryTimeout(deliveryTimeout),
		kgo.ProduceRequestTimeout(produceRequestTimeout),
	}
	if len(topics) > 0 {
		opts = append(opts, kgo.ConsumerGroup(group), kgo.ConsumeTopics(topics...))
	}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return &Conf{client: client}, nil
}

// ProduceMessage writes one record and waits for the broker acknowledgement.
func (c *Conf) ProduceMessage(ctx context.Context, topic string, key, value []byte) error {
	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	if err := c.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce to %s: %w", topic, err)
	}
	return nil
}

// Consume polls until ctx is done or the client is closed, handing every record
// value to handle. A failed record is logged and skipped.
func (c *Conf) Consume(ctx context.Context, handle func(ctx context.Context, value []byte) error) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			slog.Error("kafka fetch failed", slog.String("Topic", topic),
				slog.Int("Partition", int(partition)), slog.String(logkey.ERROR, err.Error()))
		})
		fetches.EachRecord(func(r *kgo.Record) {
			recordCtx := ctxmanage.WithTraceId(ctx, uuid.NewString())
			if err := handle(recordCtx, r.Value); err != nil {
				slog.Error("kafka record rejected", slog.String(logkey.TraceID, ctxmanage.GetTraceId(recordCtx)),
					slog.String("Topic", r.Topic), slog.Int64("Offset", r.Offset), slog.String(logkey.ERROR, err.Error()))
			}
		})
	}
}

func (c *Conf) Close() {
	c.client.Close()
}

type Producer interface {
	ProduceMessage(ctx context.Context, topic string, key, value []byte) error
}

// OrderCreatedListener forwards every placed order to topic, keyed by order id.
func OrderCreatedListener(p Producer, topic string) events.Handler[orders.OrderCreated] {
	return func(ctx context.Context, e orders.OrderCreated) error {
		msg := NewOrderCreated(e)
		value, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to encode order created event: %w", err)
		}
		return p.ProduceMessage(ctx, topic, msg.Key(), value)
	}
}

// AccountCreatedHandler provisions the customer of every new account.
func AccountCreatedHandler(ensure func(ctx context.Context, userID string) error) func(context.Context, []byte) error {
	return func(ctx context.Context, value []byte) error {
		e, err := DecodeAccountCreated(value)
		if err != nil {
			return err
		}
		if err := ensure(ctx, e.ID); err != nil {
			return fmt.Errorf("failed to provision customer for %s: %w", e.ID, err)
		}
		slog.Info("account event handled", slog.String(logkey.TraceID, ctxmanage.GetTraceId(ctx)),
			slog.String(logkey.UserID, e.ID))
		return nil
	}
}
