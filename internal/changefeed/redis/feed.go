// Package redis carries the change feed over a Redis Stream. A consumer
// group gives at-least-once delivery: entries are acknowledged only after
// the handler returns.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"ludendorff/internal/changefeed"
	"ludendorff/internal/docstore"
)

const (
	DefaultStream = "ludendorff.changes"
	DefaultGroup  = "audit-triggers"
)

type Feed struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	block    time.Duration
}

type Option func(*Feed)

func WithStream(stream string) Option {
	return func(f *Feed) { f.stream = stream }
}

func WithGroup(group string) Option {
	return func(f *Feed) { f.group = group }
}

func WithConsumerName(name string) Option {
	return func(f *Feed) { f.consumer = name }
}

func New(client *redis.Client, opts ...Option) *Feed {
	f := &Feed{
		client:   client,
		stream:   DefaultStream,
		group:    DefaultGroup,
		consumer: "normalizer-1",
		block:    5 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Feed) Publish(ctx context.Context, change docstore.Change) error {
	payload, err := changefeed.Encode(change)
	if err != nil {
		return err
	}
	err = f.client.XAdd(ctx, &redis.XAddArgs{
		Stream: f.stream,
		Values: map[string]any{"change": payload},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd change: %w", err)
	}
	return nil
}

func (f *Feed) Consume(ctx context.Context, handle changefeed.HandlerFunc) error {
	if err := f.ensureGroup(ctx); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		res, err := f.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    f.group,
			Consumer: f.consumer,
			Streams:  []string{f.stream, ">"},
			Count:    64,
			Block:    f.block,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("xreadgroup: %w", err)
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				payload, ok := msg.Values["change"].(string)
				if !ok {
					// Malformed entry; ack so it never blocks the group.
					_ = f.client.XAck(ctx, f.stream, f.group, msg.ID).Err()
					continue
				}
				change, err := changefeed.Decode([]byte(payload))
				if err != nil {
					_ = f.client.XAck(ctx, f.stream, f.group, msg.ID).Err()
					continue
				}
				if err := handle(ctx, change); err != nil {
					// Left pending for redelivery via the group's PEL.
					continue
				}
				if err := f.client.XAck(ctx, f.stream, f.group, msg.ID).Err(); err != nil {
					return fmt.Errorf("xack %s: %w", msg.ID, err)
				}
			}
		}
	}
}

func (f *Feed) ensureGroup(ctx context.Context) error {
	err := f.client.XGroupCreateMkStream(ctx, f.stream, f.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}
