// Package postgres stores documents as JSONB rows and records every write
// to a watched path in a transactional outbox. The outbox relay publishes
// those rows to the change feed, giving triggers at-least-once delivery in
// document write order.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ludendorff/internal/docstore"
	"ludendorff/pkg/platform/sentinel"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	path       TEXT PRIMARY KEY,
	body       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS outbox (
	id           UUID PRIMARY KEY,
	seq          BIGSERIAL,
	pattern      TEXT NOT NULL,
	path         TEXT NOT NULL,
	before       JSONB,
	after        JSONB,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	published_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_outbox_unpublished ON outbox (seq) WHERE published_at IS NULL;
`

type Store struct {
	db       *sql.DB
	patterns []string
}

// New builds a store watching the given collection patterns.
func New(db *sql.DB, patterns ...string) *Store {
	return &Store{db: db, patterns: patterns}
}

// EnsureSchema creates the documents and outbox tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure docstore schema: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, path string) (docstore.Document, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE path = $1`, path).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", path, err)
	}

	var doc docstore.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", path, err)
	}
	return doc, nil
}

func (s *Store) Set(ctx context.Context, path string, doc docstore.Document) error {
	return s.mutate(ctx, path, func(docstore.Document, bool) (docstore.Document, error) {
		return doc.Clone(), nil
	})
}

func (s *Store) Update(ctx context.Context, path string, fields docstore.Document) error {
	return s.mutate(ctx, path, func(current docstore.Document, exists bool) (docstore.Document, error) {
		if !exists {
			return nil, sentinel.ErrNotFound
		}
		for k, v := range fields.Clone() {
			current[k] = v
		}
		return current, nil
	})
}

func (s *Store) DeleteField(ctx context.Context, path string, field string) error {
	return s.mutate(ctx, path, func(current docstore.Document, exists bool) (docstore.Document, error) {
		if !exists {
			return nil, sentinel.ErrNotFound
		}
		delete(current, field)
		return current, nil
	})
}

func (s *Store) Delete(ctx context.Context, path string) error {
	return s.mutate(ctx, path, func(_ docstore.Document, exists bool) (docstore.Document, error) {
		if !exists {
			return nil, errSkipWrite
		}
		return nil, nil
	})
}

// errSkipWrite aborts a mutation without error (delete of an absent doc).
var errSkipWrite = errors.New("skip write")

// mutate runs one document write and its outbox row in a single
// transaction. apply receives the current document (nil, false when absent)
// and returns the new document; nil means delete.
func (s *Store) mutate(ctx context.Context, path string, apply func(docstore.Document, bool) (docstore.Document, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin document write: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var beforeRaw []byte
	exists := true
	err = tx.QueryRowContext(ctx, `SELECT body FROM documents WHERE path = $1 FOR UPDATE`, path).Scan(&beforeRaw)
	if errors.Is(err, sql.ErrNoRows) {
		exists = false
	} else if err != nil {
		return fmt.Errorf("lock document %s: %w", path, err)
	}

	var before docstore.Document
	if exists {
		if err := json.Unmarshal(beforeRaw, &before); err != nil {
			return fmt.Errorf("decode document %s: %w", path, err)
		}
	}

	after, err := apply(before.Clone(), exists)
	if errors.Is(err, errSkipWrite) {
		return nil
	}
	if err != nil {
		return err
	}

	if after == nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE path = $1`, path); err != nil {
			return fmt.Errorf("delete document %s: %w", path, err)
		}
	} else {
		body, err := json.Marshal(after)
		if err != nil {
			return fmt.Errorf("encode document %s: %w", path, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (path, body, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (path) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`,
			path, body)
		if err != nil {
			return fmt.Errorf("upsert document %s: %w", path, err)
		}
	}

	if err := s.appendOutbox(ctx, tx, path, before, after, exists); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit document write: %w", err)
	}
	return nil
}

func (s *Store) appendOutbox(ctx context.Context, tx *sql.Tx, path string, before, after docstore.Document, hadBefore bool) error {
	pattern, _, ok := docstore.Resolve(s.patterns, path)
	if !ok {
		return nil
	}

	var beforeRaw, afterRaw any
	if hadBefore {
		raw, err := json.Marshal(before)
		if err != nil {
			return fmt.Errorf("encode outbox before: %w", err)
		}
		beforeRaw = raw
	}
	if after != nil {
		raw, err := json.Marshal(after)
		if err != nil {
			return fmt.Errorf("encode outbox after: %w", err)
		}
		afterRaw = raw
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO outbox (id, pattern, path, before, after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), pattern, path, beforeRaw, afterRaw, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert outbox row: %w", err)
	}
	return nil
}
