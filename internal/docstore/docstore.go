// Package docstore models the record store: named collections (and nested
// sub-collections) of JSON documents addressed by a slash-separated path,
// with a change notification emitted for every write to a watched path.
package docstore

import (
	"context"
	"time"
)

// Document is a single record. Values are what encoding/json produces for
// object fields: scalars, []any, and nested map[string]any.
type Document map[string]any

// Clone returns a deep copy so snapshots survive later mutation of the
// stored document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = cloneValue(inner)
		}
		return out
	case Document:
		return map[string]any(val.Clone())
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return val
	}
}

// Change is the before/after notification for one write to a watched
// document. Before is nil for creates, After is nil for deletes.
type Change struct {
	Pattern string            `json:"pattern"`
	Path    string            `json:"path"`
	Params  map[string]string `json:"params"`
	Before  Document          `json:"before,omitempty"`
	After   Document          `json:"after,omitempty"`
	At      time.Time         `json:"at"`
}

// Store is the per-collection CRUD surface. Partial updates and single
// field deletion are first-class mutations.
type Store interface {
	// Get returns the document at path, or sentinel.ErrNotFound.
	Get(ctx context.Context, path string) (Document, error)
	// Set creates or replaces the document at path.
	Set(ctx context.Context, path string, doc Document) error
	// Update merges fields into an existing document. Missing documents
	// yield sentinel.ErrNotFound.
	Update(ctx context.Context, path string, fields Document) error
	// DeleteField removes a single field, leaving the rest untouched.
	DeleteField(ctx context.Context, path string, field string) error
	// Delete removes the document. Deleting an absent document is a no-op.
	Delete(ctx context.Context, path string) error
}

// ChangePublisher receives a notification for every write to a watched
// path. Implementations live in internal/changefeed.
type ChangePublisher interface {
	Publish(ctx context.Context, change Change) error
}
