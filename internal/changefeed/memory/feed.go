// Package memory is the in-process change feed for tests and single-node
// deployments: a buffered channel between store and dispatcher.
package memory

import (
	"context"

	"ludendorff/internal/changefeed"
	"ludendorff/internal/docstore"
)

type Feed struct {
	ch chan docstore.Change
}

func New(buffer int) *Feed {
	if buffer <= 0 {
		buffer = 256
	}
	return &Feed{ch: make(chan docstore.Change, buffer)}
}

func (f *Feed) Publish(ctx context.Context, change docstore.Change) error {
	select {
	case f.ch <- change:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume delivers changes until ctx is cancelled. Handler errors are not
// redelivered; the in-process feed has no persistence to retry from.
func (f *Feed) Consume(ctx context.Context, handle changefeed.HandlerFunc) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change := <-f.ch:
			_ = handle(ctx, change)
		}
	}
}

// Pending reports buffered change count. Test helper.
func (f *Feed) Pending() int { return len(f.ch) }
