// Package postgres implements docstore.Store on a single jsonb documents
// table. It is the self-hosted alternative to the firestore backend.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/korelearn/tutor-management/internal/docstore"
)

type Document struct {
	Collection string          `gorm:"column:collection;primaryKey"`
	DocID      string          `gorm:"column:doc_id;primaryKey"`
	Data       json.RawMessage `gorm:"column:data;type:jsonb"`
	CreatedAt  time.Time       `gorm:"column:created_at"`
	UpdatedAt  time.Time       `gorm:"column:updated_at"`
}

func (Document) TableName() string {
	return "documents"
}

type Store struct {
	db *gorm.DB
}

// NewStore wraps an open gorm handle. The handle must be opened with
// TranslateError so unique violations arrive as gorm.ErrDuplicatedKey.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	return getFields(s.db.WithContext(ctx), collection, id)
}

func getFields(tx *gorm.DB, collection, id string) (map[string]any, error) {
	var doc Document
	err := tx.
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, docstore.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}

	fields := make(map[string]any)
	if err := json.Unmarshal(doc.Data, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
	}
	return fields, nil
}

func (s *Store) Put(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	if !merge {
		return upsert(s.db.WithContext(ctx), collection, id, fields)
	}

	// Read-merge-write has to be atomic, otherwise two concurrent merges on
	// the same document can drop each other's fields.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := getFields(tx, collection, id)
		if err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return err
		}
		write := fields
		if existing != nil {
			for k, v := range fields {
				existing[k] = v
			}
			write = existing
		}
		return upsert(tx, collection, id, write)
	})
}

// upsert writes the document, keeping created_at from the first write. The
// unique index on account payment_reference from the migration is the arbiter
// for concurrent duplicate deliveries; losing that race surfaces as
// ErrConflict.
func upsert(tx *gorm.DB, collection, id string, fields map[string]any) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", collection, id, err)
	}

	now := time.Now().UTC()
	doc := Document{
		Collection: collection,
		DocID:      id,
		Data:       data,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = tx.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return docstore.ErrConflict
		}
		return fmt.Errorf("failed to put %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, collection, id string, fields map[string]any) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", collection, id, err)
	}

	now := time.Now().UTC()
	doc := Document{
		Collection: collection,
		DocID:      id,
		Data:       data,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
			DoNothing: true,
		}).
		Create(&doc)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return docstore.ErrConflict
		}
		return fmt.Errorf("failed to create %s/%s: %w", collection, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return docstore.ErrConflict
	}
	return nil
}

func (s *Store) FindByField(ctx context.Context, collection, field string, value any) (string, map[string]any, error) {
	var doc Document

	query := s.db.WithContext(ctx).Where("collection = ?", collection)
	if s.db.Dialector.Name() == "sqlite" {
		query = query.Where("json_extract(data, '$.'||?) = ?", field, fmt.Sprint(value))
	} else {
		query = query.Where("data ->> ? = ?", field, fmt.Sprint(value))
	}

	err := query.First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, docstore.ErrNotFound
		}
		return "", nil, fmt.Errorf("failed to query %s by %s: %w", collection, field, err)
	}

	fields := make(map[string]any)
	if err := json.Unmarshal(doc.Data, &fields); err != nil {
		return "", nil, fmt.Errorf("failed to decode %s/%s: %w", collection, doc.DocID, err)
	}
	return doc.DocID, fields, nil
}
