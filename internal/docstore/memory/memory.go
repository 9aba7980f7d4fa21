// Package memory provides an in-memory docstore.Store for tests and local
// development. Not suitable for anything that needs to survive a restart.
package memory

import (
	"context"
	"sync"

	"github.com/korelearn/tutor-management/internal/docstore"
)

type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

func New() *Store {
	return &Store{
		collections: make(map[string]map[string]map[string]any),
	}
}

func (s *Store) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, ok := s.collections[collection]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	doc, ok := docs[id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return copyFields(doc), nil
}

func (s *Store) Put(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]map[string]any)
		s.collections[collection] = docs
	}

	if merge {
		if existing, ok := docs[id]; ok {
			merged := copyFields(existing)
			for k, v := range fields {
				merged[k] = v
			}
			docs[id] = merged
			return nil
		}
	}

	docs[id] = copyFields(fields)
	return nil
}

func (s *Store) Create(ctx context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]map[string]any)
		s.collections[collection] = docs
	}

	if _, exists := docs[id]; exists {
		return docstore.ErrConflict
	}

	docs[id] = copyFields(fields)
	return nil
}

func (s *Store) FindByField(ctx context.Context, collection, field string, value any) (string, map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, doc := range s.collections[collection] {
		if doc[field] == value {
			return id, copyFields(doc), nil
		}
	}
	return "", nil, docstore.ErrNotFound
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
