// Package local implements identity.Provider on top of the document store
// with bcrypt credential hashes. Used for development, tests and the
// self-hosted deployment.
package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/korelearn/tutor-management/internal/docstore"
	"github.com/korelearn/tutor-management/internal/identity"
)

const Collection = "identities"

// EmailIndexCollection holds one document per claimed email, keyed by the
// email itself. The fail-if-exists create on it is the uniqueness arbiter
// for CreateUser; a read-then-write check would race across the bcrypt
// hashing window.
const EmailIndexCollection = "identity_emails"

type Provider struct {
	store      docstore.Store
	bcryptCost int
	logger     *slog.Logger
}

func NewProvider(store docstore.Store, bcryptCost int, logger *slog.Logger) *Provider {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Provider{
		store:      store,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (p *Provider) CreateUser(ctx context.Context, email, credential string) (string, error) {
	err := p.store.Create(ctx, EmailIndexCollection, email, map[string]any{
		"email":      email,
		"created_at": time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, docstore.ErrConflict) {
			return "", identity.ErrAlreadyExists
		}
		return "", fmt.Errorf("failed to reserve email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(credential), p.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash credential: %w", err)
	}

	userID := uuid.New().String()
	fields := map[string]any{
		"email":         email,
		"password_hash": string(hash),
		"created_at":    time.Now().UTC(),
	}

	if err := p.store.Put(ctx, Collection, userID, fields, false); err != nil {
		return "", fmt.Errorf("failed to create identity: %w", err)
	}

	// Back-link for operators; uniqueness is already held by the reservation.
	if err := p.store.Put(ctx, EmailIndexCollection, email, map[string]any{"user_id": userID}, true); err != nil {
		p.logger.Warn("failed to link email reservation to identity",
			"user_id", userID,
			"error", err)
	}

	p.logger.Info("identity created", "user_id", userID, "email", email)
	return userID, nil
}

func (p *Provider) SetDisplayName(ctx context.Context, userID, name string) error {
	err := p.store.Put(ctx, Collection, userID, map[string]any{"display_name": name}, true)
	if err != nil {
		return fmt.Errorf("failed to set display name: %w", err)
	}
	return nil
}

func (p *Provider) VerifyPassword(ctx context.Context, email, credential string) (string, error) {
	userID, fields, err := p.store.FindByField(ctx, Collection, "email", email)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return "", identity.ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to look up identity: %w", err)
	}

	hash := docstore.String(fields, "password_hash")
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(credential)); err != nil {
		return "", identity.ErrInvalidCredentials
	}
	return userID, nil
}
