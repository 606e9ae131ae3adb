// Package memstore implements the DocumentStore port in memory. It backs the
// engine tests and dry runs; its matching semantics mirror the Mongo adapter.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/githarvest/githarvest/internal/domain/model"
	"github.com/githarvest/githarvest/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DocumentStore = (*Store)(nil)

type key struct {
	id         string
	objectType model.ObjectType
}

// Store holds documents keyed by (id, object_type), guarded by one mutex.
type Store struct {
	mu   sync.RWMutex
	docs map[key]*model.Document
}

// New creates an empty store.
func New() *Store {
	return &Store{docs: make(map[key]*model.Document)}
}

func matches(d *model.Document, f driven.Filter) bool {
	if f.ID != "" && d.ID != f.ID {
		return false
	}
	if f.ObjectType != "" && d.ObjectType != f.ObjectType {
		return false
	}
	if f.RepositoryID != "" && d.RepositoryID != f.RepositoryID {
		return false
	}
	if f.Owner != "" && d.Owner != f.Owner {
		return false
	}
	if f.Name != "" && d.Name != f.Name {
		return false
	}
	return true
}

// FindOne returns a copy of the first matching document, or ErrNotFound.
func (s *Store) FindOne(_ context.Context, f driven.Filter) (*model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.docs {
		if matches(d, f) {
			copied := *d
			return &copied, nil
		}
	}
	return nil, driven.ErrNotFound
}

// Find returns copies of all matching documents.
func (s *Store) Find(_ context.Context, f driven.Filter) ([]model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Document
	for _, d := range s.docs {
		if matches(d, f) {
			out = append(out, *d)
		}
	}
	return out, nil
}

// InsertOne stores a copy of the document; duplicate (id, object_type) keys
// are rejected like the unique index in the Mongo adapter.
func (s *Store) InsertOne(_ context.Context, doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{id: doc.ID, objectType: doc.ObjectType}
	if _, exists := s.docs[k]; exists {
		return fmt.Errorf("duplicate document %s %s", doc.ObjectType, doc.ID)
	}
	copied := *doc
	s.docs[k] = &copied
	return nil
}

// UpdateOne applies the typed update to the first matching document.
func (s *Store) UpdateOne(_ context.Context, f driven.Filter, u model.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.docs {
		if matches(d, f) {
			d.Apply(u)
			return nil
		}
	}
	return driven.ErrNotFound
}

// Count returns the number of matching documents.
func (s *Store) Count(_ context.Context, f driven.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, d := range s.docs {
		if matches(d, f) {
			n++
		}
	}
	return n, nil
}

// Len reports the total number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
