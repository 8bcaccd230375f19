// Package docstore abstracts the document store behind a small set of
// collection-scoped primitives. Repositories never see a store-specific query
// DSL; they express filters through Query and receive raw JSON documents.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when a referenced document does not exist.
var ErrNotFound = errors.New("document not found")

// Query is the store-agnostic filter model. Terms are exact field matches,
// ANDed together. Search, when set, matches case-insensitively against the
// title and description fields and exactly against tags entries.
type Query struct {
	Terms  map[string]string
	Search string
}

// Sort orders results by a single document field.
type Sort struct {
	Field string
	Desc  bool
}

// Store is the document-store collaborator consumed by the repositories.
// Implementations must treat each collection as an independent namespace and
// guarantee read-after-write visibility within a single Store instance.
type Store interface {
	// Index creates or fully replaces the document with the given id.
	Index(ctx context.Context, collection, id string, doc interface{}) error

	// Get returns the raw document, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)

	// Search returns matching documents plus the total match count.
	Search(ctx context.Context, collection string, q Query, sort Sort, from, size int) ([]json.RawMessage, int, error)

	// Update merges the partial document into an existing one. Nil values in
	// partial clear the corresponding field. Returns ErrNotFound when the
	// document is absent.
	Update(ctx context.Context, collection, id string, partial map[string]interface{}) error

	// Delete removes a document, returning ErrNotFound when absent.
	Delete(ctx context.Context, collection, id string) error

	// Count returns the number of documents matching q.
	Count(ctx context.Context, collection string, q Query) (int, error)

	// DeleteByQuery removes all matching documents and returns how many were
	// deleted. A zero count is not an error.
	DeleteByQuery(ctx context.Context, collection string, q Query) (int, error)

	// Close releases any held connections.
	Close() error
}

// Collection names used by the repositories.
const (
	CollectionCases    = "cases"
	CollectionComments = "comments"
	CollectionFiles    = "files"
	CollectionFileData = "file_data"
	CollectionAlerts   = "alerts"
	CollectionUsers    = "users"
)

// Collections lists every collection a backend must be able to serve, in the
// order indices/tables are provisioned.
func Collections() []string {
	return []string{
		CollectionCases,
		CollectionComments,
		CollectionFiles,
		CollectionFileData,
		CollectionAlerts,
		CollectionUsers,
	}
}
