// Package search is the external search index collaborator. The backend
// only ever issues partial updates: attach a batch of entries to an index
// object keyed by the record id.
package search

import "context"

// Index performs partial updates against a named external index.
type Index interface {
	PartialUpdate(ctx context.Context, index, objectID, field string, entries []any) error
}
