// Package identity defines the identity-provider collaborator boundary.
package identity

import (
	"context"
	"errors"
)

// ErrAlreadyExists is the distinguishable "identity exists" condition the
// provisioning orchestrator relies on to treat duplicate deliveries as
// already processed.
var ErrAlreadyExists = errors.New("identity: user already exists")

var ErrInvalidCredentials = errors.New("identity: invalid credentials")

type Provider interface {
	// CreateUser registers email with the given credential and returns the
	// new identity id. Returns ErrAlreadyExists for a known email.
	CreateUser(ctx context.Context, email, credential string) (string, error)

	// SetDisplayName attaches a human-readable name to an identity.
	SetDisplayName(ctx context.Context, userID, name string) error

	// VerifyPassword checks a credential and returns the identity id, or
	// ErrInvalidCredentials.
	VerifyPassword(ctx context.Context, email, credential string) (string, error)
}
