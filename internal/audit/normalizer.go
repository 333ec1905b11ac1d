package audit

import (
	"context"
	"log/slog"
	"time"

	"ludendorff/internal/audit/metrics"
	"ludendorff/internal/docstore"
	"ludendorff/pkg/randid"
)

// FieldDeleter is the slice of the record store the normalizer needs for
// the strip write: remove one field, leave the rest untouched.
type FieldDeleter interface {
	DeleteField(ctx context.Context, path string, field string) error
}

// Normalizer turns one change notification into one log entry and strips
// the actor field back out of the written record. One instance per watched
// collection, all sharing the same generic logic.
//
// Handle never returns an error: change-triggered work has no caller to
// answer, and failing loudly would make the platform redeliver and
// duplicate log entries. Failures are logged and counted instead.
type Normalizer struct {
	desc    Descriptor
	logs    LogStore
	records FieldDeleter
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
}

type Option func(*Normalizer)

func WithMetrics(m *metrics.Metrics) Option {
	return func(n *Normalizer) { n.metrics = m }
}

// WithClock pins the entry timestamp source. Tests only.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// WithIDFunc overrides log entry id generation. Tests only.
func WithIDFunc(newID func() string) Option {
	return func(n *Normalizer) { n.newID = newID }
}

func New(desc Descriptor, logs LogStore, records FieldDeleter, logger *slog.Logger, opts ...Option) *Normalizer {
	n := &Normalizer{
		desc:    desc,
		logs:    logs,
		records: records,
		logger:  logger,
		now:     time.Now,
		newID:   randid.NewEntryID,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Normalizer) Handle(ctx context.Context, change docstore.Change) error {
	op, ok := Classify(change.Before, change.After)
	if !ok {
		n.logger.WarnContext(ctx, "change with no snapshots, skipping",
			"recordType", n.desc.RecordType, "path", change.Path)
		return nil
	}

	// The snapshot that carries the authoritative actor: the new state for
	// create/update, the last known state for remove.
	authoritative := change.After
	if op == OpRemove {
		authoritative = change.Before
	}

	actor, ok := actorFrom(authoritative)
	if !ok {
		// Fail-open: legacy and administrative writes carry no actor and
		// are deliberately left out of the audit trail.
		n.logger.WarnContext(ctx, "change without actor metadata, skipping",
			"recordType", n.desc.RecordType,
			"operation", op,
			"path", change.Path,
		)
		n.metrics.SkippedMissingActor(string(n.desc.RecordType))
		return nil
	}

	entry := LogEntry{
		ID:         n.newID(),
		User:       actor,
		RecordType: n.desc.RecordType,
		Identifier: change.Params[n.desc.IdentifierParam],
		Operation:  op,
		Timestamp:  n.now().UTC(),
	}
	switch op {
	case OpCreate:
		// Creates log the full new document in the before slot; the after
		// slot stays empty.
		entry.Data.Before = scrub(change.After)
	case OpUpdate:
		entry.Data.Before = scrub(change.Before)
		entry.Data.After = scrub(change.After)
	case OpRemove:
		entry.Data.Before = scrub(change.Before)
	}

	if err := n.logs.Append(ctx, entry); err != nil {
		n.logger.ErrorContext(ctx, "failed to write log entry",
			"recordType", n.desc.RecordType,
			"operation", op,
			"path", change.Path,
			"error", err,
		)
		n.metrics.Failed(string(n.desc.RecordType))
		return nil
	}
	n.metrics.Written(string(n.desc.RecordType), string(op))

	// Strip the actor field out of the stored record. The log write comes
	// strictly first; there is nothing left to strip after a remove.
	if op != OpRemove {
		if err := n.records.DeleteField(ctx, change.Path, ActorField); err != nil {
			n.logger.ErrorContext(ctx, "failed to strip actor metadata",
				"recordType", n.desc.RecordType,
				"path", change.Path,
				"error", err,
			)
			n.metrics.Failed(string(n.desc.RecordType))
		}
	}
	return nil
}
