// Package trigger routes change notifications to the handler registered
// for each watched collection pattern.
package trigger

import (
	"context"
	"log/slog"

	"ludendorff/internal/changefeed"
	"ludendorff/internal/docstore"
)

// Handler processes one change for a watched collection.
type Handler interface {
	Handle(ctx context.Context, change docstore.Change) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, change docstore.Change) error

func (f HandlerFunc) Handle(ctx context.Context, change docstore.Change) error {
	return f(ctx, change)
}

// Dispatcher consumes the change feed and invokes per-collection handlers.
// Change-triggered work is fail-open: a handler failure is logged and the
// change acknowledged, never surfaced or redelivered by this layer.
type Dispatcher struct {
	consumer changefeed.Consumer
	handlers map[string]Handler
	logger   *slog.Logger
}

func New(consumer changefeed.Consumer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		consumer: consumer,
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// Register binds a handler to a collection pattern. Last registration wins.
func (d *Dispatcher) Register(pattern string, h Handler) {
	d.handlers[pattern] = h
}

// Patterns lists the registered collection patterns, for wiring the store's
// watch list from one place.
func (d *Dispatcher) Patterns() []string {
	patterns := make([]string, 0, len(d.handlers))
	for pattern := range d.handlers {
		patterns = append(patterns, pattern)
	}
	return patterns
}

// Run blocks consuming the feed until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	return d.consumer.Consume(ctx, d.dispatch)
}

func (d *Dispatcher) dispatch(ctx context.Context, change docstore.Change) error {
	h, ok := d.handlers[change.Pattern]
	if !ok {
		d.logger.WarnContext(ctx, "no handler for collection, skipping change",
			"pattern", change.Pattern,
			"path", change.Path,
		)
		return nil
	}
	if err := h.Handle(ctx, change); err != nil {
		d.logger.ErrorContext(ctx, "change handler failed",
			"pattern", change.Pattern,
			"path", change.Path,
			"error", err,
		)
	}
	return nil
}
