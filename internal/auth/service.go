package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/korelearn/tutor-management/internal"
	"github.com/korelearn/tutor-management/internal/core/datamodel/account"
	"github.com/korelearn/tutor-management/internal/docstore"
	"github.com/korelearn/tutor-management/internal/identity"
	"github.com/korelearn/tutor-management/internal/routing"
)

// LoginResult carries the issued token pair plus the destination the client
// should navigate to after login.
type LoginResult struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	Destination  routing.Destination `json:"destination"`
}

type Service struct {
	identities identity.Provider
	store      docstore.Store
	tokens     TokenGenerator
	logger     *slog.Logger
}

func NewService(identities identity.Provider, store docstore.Store, tokens TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		identities: identities,
		store:      store,
		tokens:     tokens,
		logger:     logger,
	}
}

// Authenticate verifies the credential against the identity provider, then
// resolves the post-login destination from the account record. An identity
// without an account record still logs in and lands on the student dashboard.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (*LoginResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	userID, err := s.identities.VerifyPassword(ctx, dto.Email, dto.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return nil, internal.ErrInvalidCredentials
		}
		s.logger.Error("identity verification failed", "email", dto.Email, "error", err)
		return nil, internal.NewInternalError("authentication failed", err)
	}

	destination := routing.DestStudentDashboard
	if acc, accErr := s.GetAccount(ctx, userID); accErr == nil {
		destination = routing.Resolve(acc.Role, acc.Status)
	} else if !errors.Is(accErr, docstore.ErrNotFound) {
		s.logger.Warn("account lookup failed during login, using default destination",
			"user_id", userID, "error", accErr)
	}

	accessToken, err := s.tokens.GenerateAccessToken(userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to generate access token", err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to generate refresh token", err)
	}

	s.logger.Info("user authenticated", "user_id", userID, "destination", destination)

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Destination:  destination,
	}, nil
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *Service) Refresh(ctx context.Context, dto RefreshTokenDTO) (*LoginResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	claims, err := s.tokens.ValidateToken(dto.RefreshToken)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			return nil, appErr
		}
		return nil, internal.ErrInvalidToken
	}

	destination := routing.DestStudentDashboard
	if acc, accErr := s.GetAccount(ctx, claims.UserID); accErr == nil {
		destination = routing.Resolve(acc.Role, acc.Status)
	}

	accessToken, err := s.tokens.GenerateAccessToken(claims.UserID)
	if err != nil {
		return nil, internal.NewInternalError("failed to generate access token", err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(claims.UserID)
	if err != nil {
		return nil, internal.NewInternalError("failed to generate refresh token", err)
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Destination:  destination,
	}, nil
}

// GetAccount fetches the account record for an identity id.
func (s *Service) GetAccount(ctx context.Context, userID string) (*account.Account, error) {
	fields, err := s.store.Get(ctx, account.Collection, userID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, err
		}
		return nil, internal.NewInternalError("account lookup failed", err)
	}
	return account.FromFields(userID, fields), nil
}

// ValidateToken exposes token validation for the auth middleware.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateToken(tokenString)
}
