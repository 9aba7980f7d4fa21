// Package docstore defines the document-store collaborator boundary. Records
// live in named collections as flat field maps; cross-store transactions are
// never assumed.
package docstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("docstore: document not found")
	ErrConflict = errors.New("docstore: document already exists")
)

// Store is implemented by the firestore, postgres and memory backends.
type Store interface {
	// Get returns the fields of collection/id, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (map[string]any, error)

	// Put writes fields at collection/id. With merge set, existing fields not
	// present in the new map are preserved; otherwise the document is replaced
	// (or created). A Put that trips a backend uniqueness constraint returns
	// ErrConflict.
	Put(ctx context.Context, collection, id string, fields map[string]any, merge bool) error

	// Create writes collection/id only if it does not exist yet, returning
	// ErrConflict otherwise. The check and the write are atomic in every
	// backend, which makes Create the arbiter for concurrent claims on the
	// same id.
	Create(ctx context.Context, collection, id string, fields map[string]any) error

	// FindByField returns the first document whose field equals value, or
	// ErrNotFound.
	FindByField(ctx context.Context, collection, field string, value any) (string, map[string]any, error)
}
