// Package memory is an in-process document store. It backs the development profile and the tests
// of everything that sits on top of a document store.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"gitlab.com/dirk.krummacker/contacts-app/internal/docstore"
)

// Store keeps all collections in memory. The zero value is not usable, use New.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	order []string
	docs  map[string]docstore.Fields
}

// New returns an empty store.
func New() *Store {
	return &Store{collections: make(map[string]*collection)}
}

// Insert stores a copy of fields under a fresh random id.
func (s *Store) Insert(ctx context.Context, name string, fields docstore.Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		c = &collection{docs: make(map[string]docstore.Fields)}
		s.collections[name] = c
	}
	id := uuid.NewString()
	doc := make(docstore.Fields, len(fields))
	maps.Copy(doc, fields)
	c.docs[id] = doc
	c.order = append(c.order, id)
	return id, nil
}

// MergeUpdate copies fields over the stored document.
func (s *Store) MergeUpdate(ctx context.Context, name string, id string, fields docstore.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return docstore.ErrNotFound
	}
	doc, ok := c.docs[id]
	if !ok {
		return docstore.ErrNotFound
	}
	maps.Copy(doc, fields)
	return nil
}

// FetchAllOrdered returns copies of all documents in the collection. Documents with equal sort
// keys are returned in insertion order.
func (s *Store) FetchAllOrdered(ctx context.Context, name string, sortField string, ascending bool) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return []docstore.Document{}, nil
	}
	docs := make([]docstore.Document, 0, len(c.order))
	for _, id := range c.order {
		docs = append(docs, docstore.Document{Id: id, Fields: maps.Clone(c.docs[id])})
	}
	docstore.SortDocuments(docs, sortField, ascending)
	return docs, nil
}

// Get returns a copy of a single document.
func (s *Store) Get(ctx context.Context, name string, id string) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	doc, ok := c.docs[id]
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	return docstore.Document{Id: id, Fields: maps.Clone(doc)}, nil
}
