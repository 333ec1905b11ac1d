// Package memory records partial updates for tests.
package memory

import (
	"context"
	"sync"
)

type Update struct {
	Index    string
	ObjectID string
	Field    string
	Entries  []any
}

type Index struct {
	mu      sync.Mutex
	updates []Update
	// Err, when set, is returned from every call.
	Err error
}

func New() *Index {
	return &Index{}
}

func (i *Index) PartialUpdate(_ context.Context, index, objectID, field string, entries []any) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.Err != nil {
		return i.Err
	}
	i.updates = append(i.updates, Update{Index: index, ObjectID: objectID, Field: field, Entries: entries})
	return nil
}

func (i *Index) Updates() []Update {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]Update{}, i.updates...)
}
