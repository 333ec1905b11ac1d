package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ludendorff/internal/docstore"
)

// Relay drains unpublished outbox rows to the change feed in insert order
// and marks them published. A crash between publish and mark redelivers the
// row on restart; consumers are expected to tolerate duplicates.
type Relay struct {
	db       *sql.DB
	pub      docstore.ChangePublisher
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

type RelayOption func(*Relay)

func WithInterval(d time.Duration) RelayOption {
	return func(r *Relay) { r.interval = d }
}

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) { r.batch = n }
}

func NewRelay(db *sql.DB, pub docstore.ChangePublisher, logger *slog.Logger, opts ...RelayOption) *Relay {
	r := &Relay{
		db:       db,
		pub:      pub,
		logger:   logger,
		interval: 200 * time.Millisecond,
		batch:    100,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Drain(ctx); err != nil && ctx.Err() == nil {
				r.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

// Drain publishes one batch of unpublished rows. It stops at the first
// publish failure so per-document order is preserved across retries.
func (r *Relay) Drain(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, pattern, path, before, after, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY seq
		LIMIT $1`, r.batch)
	if err != nil {
		return fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	type pending struct {
		id     uuid.UUID
		change docstore.Change
	}
	var batch []pending

	for rows.Next() {
		var (
			p         pending
			beforeRaw []byte
			afterRaw  []byte
		)
		if err := rows.Scan(&p.id, &p.change.Pattern, &p.change.Path, &beforeRaw, &afterRaw, &p.change.At); err != nil {
			return fmt.Errorf("scan outbox row: %w", err)
		}
		if beforeRaw != nil {
			if err := json.Unmarshal(beforeRaw, &p.change.Before); err != nil {
				return fmt.Errorf("decode outbox before: %w", err)
			}
		}
		if afterRaw != nil {
			if err := json.Unmarshal(afterRaw, &p.change.After); err != nil {
				return fmt.Errorf("decode outbox after: %w", err)
			}
		}
		params, ok := docstore.MatchPattern(p.change.Pattern, p.change.Path)
		if !ok {
			// Pattern set changed since the row was written; nothing can
			// consume it, so mark it published and move on.
			r.logger.WarnContext(ctx, "outbox row no longer matches its pattern",
				"pattern", p.change.Pattern, "path", p.change.Path)
		}
		p.change.Params = params
		batch = append(batch, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate outbox: %w", err)
	}

	for _, p := range batch {
		if err := r.pub.Publish(ctx, p.change); err != nil {
			return fmt.Errorf("publish change for %s: %w", p.change.Path, err)
		}
		if _, err := r.db.ExecContext(ctx,
			`UPDATE outbox SET published_at = now() WHERE id = $1`, p.id); err != nil {
			return fmt.Errorf("mark outbox row published: %w", err)
		}
	}
	return nil
}
