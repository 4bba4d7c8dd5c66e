// Package docstore defines the document store the contacts are kept in. A document store is a set
// of named collections holding schemaless records that are addressed by a generated id.
//
// Backends live in the sub packages: memory, mysql, mongo and redis.
package docstore

import (
	"context"
	"errors"
	"sort"
)

// ErrNotFound is returned when a document with the requested id does not exist.
var ErrNotFound = errors.New("docstore: document not found")

// ErrUnknownField is returned when a backend with a fixed schema is asked to store, or sort by,
// a field it has no column for.
var ErrUnknownField = errors.New("docstore: unknown field")

// Fields are the fields of a document, keyed by field name.
type Fields map[string]any

// Document is a stored record together with its id.
type Document struct {
	Id     string
	Fields Fields
}

// Store is the client of a document store.
type Store interface {
	// Insert stores a new document and returns the id the store generated for it.
	Insert(ctx context.Context, collection string, fields Fields) (string, error)

	// MergeUpdate overwrites the given fields of an existing document and leaves all other fields
	// untouched. It returns ErrNotFound if there is no document with that id.
	MergeUpdate(ctx context.Context, collection string, id string, fields Fields) error

	// FetchAllOrdered returns every document of the collection, sorted by sortField.
	FetchAllOrdered(ctx context.Context, collection string, sortField string, ascending bool) ([]Document, error)

	// Get returns a single document. It returns ErrNotFound if there is no document with that id.
	Get(ctx context.Context, collection string, id string) (Document, error)
}

// SortDocuments sorts documents by the string form of sortField. Documents with equal keys keep
// their relative order. It is used by backends that cannot sort on the server side.
func SortDocuments(docs []Document, sortField string, ascending bool) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := sortKey(docs[i], sortField), sortKey(docs[j], sortField)
		if ascending {
			return a < b
		}
		return a > b
	})
}

func sortKey(doc Document, field string) string {
	switch v := doc.Fields[field].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}
