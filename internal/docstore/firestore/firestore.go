// Package firestore implements docstore.Store on Google Cloud Firestore.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/korelearn/tutor-management/internal/docstore"
)

type Store struct {
	client *firestore.Client
	prefix string
}

// Config holds Firestore store configuration.
type Config struct {
	// CollectionPrefix is prepended to every collection name, letting several
	// environments share one Firestore project. Default: none.
	CollectionPrefix string
}

func New(client *firestore.Client, config Config) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("firestore client is required")
	}
	return &Store{
		client: client,
		prefix: config.CollectionPrefix,
	}, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	snap, err := s.client.Collection(s.prefix + collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, docstore.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	if !snap.Exists() {
		return nil, docstore.ErrNotFound
	}
	return snap.Data(), nil
}

func (s *Store) Put(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	doc := s.client.Collection(s.prefix + collection).Doc(id)

	var err error
	if merge {
		_, err = doc.Set(ctx, fields, firestore.MergeAll)
	} else {
		_, err = doc.Set(ctx, fields)
	}
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, collection, id string, fields map[string]any) error {
	// Firestore's Create carries an exists precondition, so the losing side
	// of a concurrent claim always sees AlreadyExists.
	_, err := s.client.Collection(s.prefix+collection).Doc(id).Create(ctx, fields)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return docstore.ErrConflict
		}
		return fmt.Errorf("failed to create %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) FindByField(ctx context.Context, collection, field string, value any) (string, map[string]any, error) {
	iter := s.client.Collection(s.prefix+collection).
		Where(field, "==", value).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return "", nil, docstore.ErrNotFound
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to query %s by %s: %w", collection, field, err)
	}
	return snap.Ref.ID, snap.Data(), nil
}
