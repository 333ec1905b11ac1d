// Package kafka carries the change feed over a Kafka topic via franz-go.
// Records are keyed by document path so one partition sees all writes to a
// document in order. Offsets are committed only after the handler returns.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"ludendorff/internal/changefeed"
	"ludendorff/internal/docstore"
)

const DefaultTopic = "ludendorff.changes"

// Publisher produces changes to the topic.
type Publisher struct {
	client *kgo.Client
	topic  string
}

func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	if topic == "" {
		topic = DefaultTopic
	}
	client, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, fmt.Errorf("kafka publisher client: %w", err)
	}
	return &Publisher{client: client, topic: topic}, nil
}

func (p *Publisher) Publish(ctx context.Context, change docstore.Change) error {
	payload, err := changefeed.Encode(change)
	if err != nil {
		return err
	}
	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(change.Path),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce change for %s: %w", change.Path, err)
	}
	return nil
}

func (p *Publisher) Close() { p.client.Close() }

// Consumer reads changes as part of a consumer group.
type Consumer struct {
	client *kgo.Client
	logger *slog.Logger
}

func NewConsumer(brokers []string, topic, group string, logger *slog.Logger) (*Consumer, error) {
	if topic == "" {
		topic = DefaultTopic
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumerGroup(group),
		kgo.AutoCommitMarks(),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer client: %w", err)
	}
	return &Consumer{client: client, logger: logger}, nil
}

func (c *Consumer) Consume(ctx context.Context, handle changefeed.HandlerFunc) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "kafka fetch error",
				"topic", topic, "partition", partition, "error", err)
		})
		fetches.EachRecord(func(rec *kgo.Record) {
			change, err := changefeed.Decode(rec.Value)
			if err != nil {
				c.logger.WarnContext(ctx, "dropping undecodable change record",
					"topic", rec.Topic, "offset", rec.Offset, "error", err)
				c.client.MarkCommitRecords(rec)
				return
			}
			if err := handle(ctx, change); err != nil {
				// Not marked; redelivered after the next rebalance/restart.
				return
			}
			c.client.MarkCommitRecords(rec)
		})
	}
}

func (c *Consumer) Close() { c.client.Close() }

// EnsureTopic creates the feed topic when it does not exist yet.
func EnsureTopic(ctx context.Context, brokers []string, topic string, partitions int32) error {
	if topic == "" {
		topic = DefaultTopic
	}
	client, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return fmt.Errorf("kafka admin client: %w", err)
	}
	defer client.Close()

	adm := kadm.NewClient(client)
	_, err = adm.CreateTopic(ctx, partitions, 1, nil, topic)
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	return nil
}
