package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ludendorff/internal/docstore"
)

type MemoryFeedSuite struct {
	suite.Suite
}

func TestMemoryFeedSuite(t *testing.T) {
	suite.Run(t, new(MemoryFeedSuite))
}

func (s *MemoryFeedSuite) TestPublishConsume() {
	feed := New(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	want := docstore.Change{
		Pattern: "assets/{id}",
		Path:    "assets/ABC123",
		Params:  map[string]string{"id": "ABC123"},
		After:   docstore.Document{"unitValue": 5},
	}
	s.Require().NoError(feed.Publish(ctx, want))
	s.Equal(1, feed.Pending())

	got := make(chan docstore.Change, 1)
	go func() {
		_ = feed.Consume(ctx, func(_ context.Context, change docstore.Change) error {
			got <- change
			return nil
		})
	}()

	select {
	case change := <-got:
		s.Equal(want.Path, change.Path)
		s.Equal(want.Params, change.Params)
	case <-time.After(time.Second):
		s.FailNow("change never delivered")
	}
	s.Equal(0, feed.Pending())
}

func (s *MemoryFeedSuite) TestOrderPreserved() {
	feed := New(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, path := range []string{"assets/A", "assets/B", "assets/C"} {
		s.Require().NoError(feed.Publish(ctx, docstore.Change{Path: path}))
	}

	var paths []string
	done := make(chan struct{})
	go func() {
		_ = feed.Consume(ctx, func(_ context.Context, change docstore.Change) error {
			paths = append(paths, change.Path)
			if len(paths) == 3 {
				close(done)
			}
			return nil
		})
	}()

	select {
	case <-done:
		s.Equal([]string{"assets/A", "assets/B", "assets/C"}, paths)
	case <-time.After(time.Second):
		s.FailNow("changes never delivered")
	}
}

func (s *MemoryFeedSuite) TestPublishBlockedByFullBuffer() {
	feed := New(1)
	s.Require().NoError(feed.Publish(context.Background(), docstore.Change{Path: "assets/A"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := feed.Publish(ctx, docstore.Change{Path: "assets/B"})
	s.ErrorIs(err, context.DeadlineExceeded)
}

func (s *MemoryFeedSuite) TestConsumeStopsOnCancel() {
	feed := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := feed.Consume(ctx, func(context.Context, docstore.Change) error { return nil })
	s.ErrorIs(err, context.Canceled)
}
