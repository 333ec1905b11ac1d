package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"ludendorff/internal/audit"
)

const schema = `
CREATE TABLE IF NOT EXISTS log_entries (
	id          TEXT PRIMARY KEY,
	actor       JSONB NOT NULL,
	record_type TEXT NOT NULL,
	identifier  TEXT NOT NULL,
	operation   TEXT NOT NULL,
	data_before JSONB,
	data_after  JSONB,
	ts          TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_log_entries_identifier ON log_entries (identifier, ts);
`

// Store persists log entries in Postgres. Inserts are idempotent on the
// entry id so a redelivered change that reuses an id cannot double-write.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure log schema: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, entry audit.LogEntry) error {
	actor, err := json.Marshal(entry.User)
	if err != nil {
		return fmt.Errorf("encode actor: %w", err)
	}

	var before, after any
	if entry.Data.Before != nil {
		raw, err := json.Marshal(entry.Data.Before)
		if err != nil {
			return fmt.Errorf("encode before snapshot: %w", err)
		}
		before = raw
	}
	if entry.Data.After != nil {
		raw, err := json.Marshal(entry.Data.After)
		if err != nil {
			return fmt.Errorf("encode after snapshot: %w", err)
		}
		after = raw
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO log_entries (id, actor, record_type, identifier, operation, data_before, data_after, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		entry.ID, actor, string(entry.RecordType), entry.Identifier,
		string(entry.Operation), before, after, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	return nil
}

// ListByIdentifier returns the audit trail for one record, oldest first.
func (s *Store) ListByIdentifier(ctx context.Context, identifier string) ([]audit.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor, record_type, identifier, operation, data_before, data_after, ts
		FROM log_entries
		WHERE identifier = $1
		ORDER BY ts`, identifier)
	if err != nil {
		return nil, fmt.Errorf("query log entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListRecent returns the newest N entries across all records.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor, record_type, identifier, operation, data_before, data_after, ts
		FROM log_entries
		ORDER BY ts DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query log entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]audit.LogEntry, error) {
	var entries []audit.LogEntry
	for rows.Next() {
		var (
			entry      audit.LogEntry
			actor      []byte
			recordType string
			operation  string
			before     []byte
			after      []byte
		)
		if err := rows.Scan(&entry.ID, &actor, &recordType, &entry.Identifier,
			&operation, &before, &after, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		if err := json.Unmarshal(actor, &entry.User); err != nil {
			return nil, fmt.Errorf("decode actor: %w", err)
		}
		if before != nil {
			if err := json.Unmarshal(before, &entry.Data.Before); err != nil {
				return nil, fmt.Errorf("decode before snapshot: %w", err)
			}
		}
		if after != nil {
			if err := json.Unmarshal(after, &entry.Data.After); err != nil {
				return nil, fmt.Errorf("decode after snapshot: %w", err)
			}
		}
		entry.RecordType = audit.RecordType(recordType)
		entry.Operation = audit.Operation(operation)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log entries: %w", err)
	}
	return entries, nil
}
