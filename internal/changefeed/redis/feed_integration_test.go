//go:build integration

package redis_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	feedredis "ludendorff/internal/changefeed/redis"
	"ludendorff/internal/docstore"
	"ludendorff/pkg/testutil/containers"
)

type RedisFeedSuite struct {
	suite.Suite
	client *goredis.Client
	seq    int
}

func TestRedisFeedSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisFeedSuite))
}

func (s *RedisFeedSuite) SetupSuite() {
	s.client = containers.GetManager().GetRedis(s.T()).Client
}

// newFeed builds a feed on a stream unique to this test, so suites sharing
// the container never cross-read.
func (s *RedisFeedSuite) newFeed() (*feedredis.Feed, string) {
	s.seq++
	stream := fmt.Sprintf("test.changes.%d.%d", time.Now().UnixNano(), s.seq)
	return feedredis.New(s.client, feedredis.WithStream(stream)), stream
}

// collector gathers handled changes, failing the configured paths once.
type collector struct {
	mu       sync.Mutex
	changes  []docstore.Change
	failOnce map[string]bool
}

func (c *collector) handle(_ context.Context, change docstore.Change) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failOnce[change.Path] {
		delete(c.failOnce, change.Path)
		return errors.New("transient handler failure")
	}
	c.changes = append(c.changes, change)
	return nil
}

func (c *collector) paths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.changes))
	for i, change := range c.changes {
		out[i] = change.Path
	}
	return out
}

func (s *RedisFeedSuite) consume(ctx context.Context, feed *feedredis.Feed, handle func(context.Context, docstore.Change) error) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = feed.Consume(ctx, handle)
	}()
	return done
}

func (s *RedisFeedSuite) TestPublishConsume() {
	feed, _ := s.newFeed()
	ctx, cancel := context.WithCancel(context.Background())

	want := docstore.Change{
		Pattern: "assets/{id}",
		Path:    "assets/ABC123",
		Params:  map[string]string{"id": "ABC123"},
		After:   docstore.Document{"unitValue": float64(5)},
		At:      time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}
	s.Require().NoError(feed.Publish(ctx, want))

	c := &collector{}
	done := s.consume(ctx, feed, c.handle)

	s.Require().Eventually(func() bool {
		return len(c.paths()) == 1
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	<-done

	c.mu.Lock()
	got := c.changes[0]
	c.mu.Unlock()
	s.Equal(want.Path, got.Path)
	s.Equal(want.Params, got.Params)
	s.Equal(want.After, got.After)
	s.Nil(got.Before)
	s.True(got.At.Equal(want.At))
}

func (s *RedisFeedSuite) TestAcknowledgedEntriesLeaveThePEL() {
	feed, stream := s.newFeed()
	ctx, cancel := context.WithCancel(context.Background())

	for i := 0; i < 3; i++ {
		s.Require().NoError(feed.Publish(ctx, docstore.Change{
			Path:  fmt.Sprintf("assets/A%d", i),
			After: docstore.Document{"n": float64(i)},
		}))
	}

	c := &collector{}
	done := s.consume(ctx, feed, c.handle)
	s.Require().Eventually(func() bool {
		return len(c.paths()) == 3
	}, 5*time.Second, 20*time.Millisecond)

	s.Require().Eventually(func() bool {
		pending, err := s.client.XPending(ctx, stream, feedredis.DefaultGroup).Result()
		return err == nil && pending.Count == 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	<-done
}

func (s *RedisFeedSuite) TestFailedHandlerLeavesEntryPending() {
	feed, stream := s.newFeed()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Require().NoError(feed.Publish(ctx, docstore.Change{Path: "assets/FAIL"}))
	s.Require().NoError(feed.Publish(ctx, docstore.Change{Path: "assets/OK"}))

	c := &collector{failOnce: map[string]bool{"assets/FAIL": true}}
	done := s.consume(ctx, feed, c.handle)

	// The failed entry stays in the pending list; the healthy one is acked
	// and processed.
	s.Require().Eventually(func() bool {
		return len(c.paths()) == 1
	}, 5*time.Second, 20*time.Millisecond)
	s.Equal([]string{"assets/OK"}, c.paths())

	pending, err := s.client.XPending(ctx, stream, feedredis.DefaultGroup).Result()
	s.Require().NoError(err)
	s.Equal(int64(1), pending.Count)

	cancel()
	<-done
}

func (s *RedisFeedSuite) TestMalformedEntriesAreAcked() {
	feed, stream := s.newFeed()
	ctx, cancel := context.WithCancel(context.Background())

	s.Require().NoError(s.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: stream,
		Values: map[string]any{"unexpected": "shape"},
	}).Err())
	s.Require().NoError(s.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: stream,
		Values: map[string]any{"change": "not json"},
	}).Err())
	s.Require().NoError(feed.Publish(ctx, docstore.Change{Path: "assets/OK"}))

	c := &collector{}
	done := s.consume(ctx, feed, c.handle)

	s.Require().Eventually(func() bool {
		return len(c.paths()) == 1
	}, 5*time.Second, 20*time.Millisecond)
	s.Equal([]string{"assets/OK"}, c.paths())

	s.Require().Eventually(func() bool {
		pending, err := s.client.XPending(ctx, stream, feedredis.DefaultGroup).Result()
		return err == nil && pending.Count == 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	<-done
}
