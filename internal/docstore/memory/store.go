// Package memory is the in-memory record store used by unit tests and
// single-process deployments. Writes to watched paths publish their change
// notification synchronously.
package memory

import (
	"context"
	"sync"
	"time"

	"ludendorff/internal/docstore"
	"ludendorff/pkg/platform/sentinel"
)

type Store struct {
	mu       sync.Mutex
	docs     map[string]docstore.Document
	patterns []string
	pub      docstore.ChangePublisher
}

// New builds a store watching the given collection patterns. pub may be nil
// when no change consumer is wired (pure CRUD tests).
func New(pub docstore.ChangePublisher, patterns ...string) *Store {
	return &Store{
		docs:     make(map[string]docstore.Document),
		patterns: patterns,
		pub:      pub,
	}
}

func (s *Store) Get(_ context.Context, path string) (docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[path]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return doc.Clone(), nil
}

func (s *Store) Set(ctx context.Context, path string, doc docstore.Document) error {
	s.mu.Lock()
	before := s.docs[path].Clone()
	s.docs[path] = doc.Clone()
	after := s.docs[path].Clone()
	s.mu.Unlock()

	return s.notify(ctx, path, before, after)
}

func (s *Store) Update(ctx context.Context, path string, fields docstore.Document) error {
	s.mu.Lock()
	doc, ok := s.docs[path]
	if !ok {
		s.mu.Unlock()
		return sentinel.ErrNotFound
	}
	before := doc.Clone()
	for k, v := range fields.Clone() {
		doc[k] = v
	}
	after := doc.Clone()
	s.mu.Unlock()

	return s.notify(ctx, path, before, after)
}

func (s *Store) DeleteField(ctx context.Context, path string, field string) error {
	s.mu.Lock()
	doc, ok := s.docs[path]
	if !ok {
		s.mu.Unlock()
		return sentinel.ErrNotFound
	}
	before := doc.Clone()
	delete(doc, field)
	after := doc.Clone()
	s.mu.Unlock()

	return s.notify(ctx, path, before, after)
}

func (s *Store) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	doc, ok := s.docs[path]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	before := doc.Clone()
	delete(s.docs, path)
	s.mu.Unlock()

	return s.notify(ctx, path, before, nil)
}

// Len reports the number of stored documents. Test helper.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

func (s *Store) notify(ctx context.Context, path string, before, after docstore.Document) error {
	if s.pub == nil {
		return nil
	}
	pattern, params, ok := docstore.Resolve(s.patterns, path)
	if !ok {
		return nil
	}
	return s.pub.Publish(ctx, docstore.Change{
		Pattern: pattern,
		Path:    path,
		Params:  params,
		Before:  before,
		After:   after,
		At:      time.Now().UTC(),
	})
}
