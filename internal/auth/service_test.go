package auth_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/korelearn/tutor-management/internal"
	"github.com/korelearn/tutor-management/internal/auth"
	"github.com/korelearn/tutor-management/internal/core/datamodel/account"
	"github.com/korelearn/tutor-management/internal/docstore/memory"
	"github.com/korelearn/tutor-management/internal/identity"
	"github.com/korelearn/tutor-management/internal/routing"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Suite")
}

// Mock identity provider for testing
type mockIdentityProvider struct {
	users       map[string]string // email -> userID
	credentials map[string]string // email -> credential
	verifyError error
}

func newMockIdentityProvider() *mockIdentityProvider {
	return &mockIdentityProvider{
		users:       make(map[string]string),
		credentials: make(map[string]string),
	}
}

func (m *mockIdentityProvider) CreateUser(ctx context.Context, email, credential string) (string, error) {
	if _, exists := m.users[email]; exists {
		return "", identity.ErrAlreadyExists
	}
	userID := "user-" + email
	m.users[email] = userID
	m.credentials[email] = credential
	return userID, nil
}

func (m *mockIdentityProvider) SetDisplayName(ctx context.Context, userID, name string) error {
	return nil
}

func (m *mockIdentityProvider) VerifyPassword(ctx context.Context, email, credential string) (string, error) {
	if m.verifyError != nil {
		return "", m.verifyError
	}
	userID, exists := m.users[email]
	if !exists || m.credentials[email] != credential {
		return "", identity.ErrInvalidCredentials
	}
	return userID, nil
}

var _ = Describe("Auth Service", func() {
	const (
		accessSecret  = "test-access-secret-at-least-32-chars!!"
		refreshSecret = "test-refresh-secret-at-least-32-chars!"
	)

	var (
		service    *auth.Service
		identities *mockIdentityProvider
		store      *memory.Store
		tokens     *auth.JWTTokenGenerator
		ctx        context.Context
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		identities = newMockIdentityProvider()
		store = memory.New()
		tokens = auth.NewJWTTokenGenerator(accessSecret, refreshSecret, 15*time.Minute, 7*24*time.Hour)
		service = auth.NewService(identities, store, tokens, logger)
		ctx = context.Background()

		userID, err := identities.CreateUser(ctx, "tutor@mail.com", "s3cret-pass")
		Expect(err).NotTo(HaveOccurred())

		acc := &account.Account{
			ID:     userID,
			Email:  "tutor@mail.com",
			Role:   account.RoleTutor,
			Status: account.StatusPendingReview,
		}
		Expect(store.Put(ctx, account.Collection, userID, acc.Fields(), false)).To(Succeed())
	})

	Describe("Authenticate", func() {
		Context("when credentials are valid", func() {
			It("should return tokens and the routed destination", func() {
				result, err := service.Authenticate(ctx, auth.LoginDTO{
					Email:    "tutor@mail.com",
					Password: "s3cret-pass",
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(result.AccessToken).NotTo(BeEmpty())
				Expect(result.RefreshToken).NotTo(BeEmpty())
				Expect(result.Destination).To(Equal(routing.DestTutorPendingReview))
			})

			It("should issue an access token that validates back to the user", func() {
				result, err := service.Authenticate(ctx, auth.LoginDTO{
					Email:    "tutor@mail.com",
					Password: "s3cret-pass",
				})
				Expect(err).NotTo(HaveOccurred())

				claims, err := service.ValidateToken(result.AccessToken)
				Expect(err).NotTo(HaveOccurred())
				Expect(claims.UserID).To(Equal("user-tutor@mail.com"))
			})
		})

		Context("when the identity has no account record", func() {
			It("should default to the student dashboard", func() {
				_, err := identities.CreateUser(ctx, "orphan@mail.com", "s3cret-pass")
				Expect(err).NotTo(HaveOccurred())

				result, err := service.Authenticate(ctx, auth.LoginDTO{
					Email:    "orphan@mail.com",
					Password: "s3cret-pass",
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(result.Destination).To(Equal(routing.DestStudentDashboard))
			})
		})

		Context("when the password is wrong", func() {
			It("should return the invalid credentials error", func() {
				_, err := service.Authenticate(ctx, auth.LoginDTO{
					Email:    "tutor@mail.com",
					Password: "wrong",
				})

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidCredentials))
			})
		})

		Context("when required fields are missing", func() {
			It("should return a validation error", func() {
				_, err := service.Authenticate(ctx, auth.LoginDTO{Email: "tutor@mail.com"})

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			})
		})
	})

	Describe("Refresh", func() {
		It("should exchange a refresh token for a new pair", func() {
			login, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "tutor@mail.com",
				Password: "s3cret-pass",
			})
			Expect(err).NotTo(HaveOccurred())

			refreshed, err := service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: login.RefreshToken})
			Expect(err).NotTo(HaveOccurred())
			Expect(refreshed.AccessToken).NotTo(BeEmpty())
			Expect(refreshed.Destination).To(Equal(routing.DestTutorPendingReview))
		})

		It("should reject garbage tokens", func() {
			_, err := service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: "not-a-jwt"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidToken))
		})
	})

	Describe("ValidateToken", func() {
		It("should reject an expired access token", func() {
			expiredGen := &auth.JWTTokenGenerator{
				AccessTokenSecret:  []byte(accessSecret),
				RefreshTokenSecret: []byte(refreshSecret),
				AccessTokenTTL:     -time.Minute,
				RefreshTokenTTL:    7 * 24 * time.Hour,
			}
			token, err := expiredGen.GenerateAccessToken("user-1")
			Expect(err).NotTo(HaveOccurred())

			_, err = tokens.ValidateToken(token)
			Expect(errors.Is(err, internal.ErrTokenExpired)).To(BeTrue())
		})

		It("should reject a token signed with another secret", func() {
			otherGen := auth.NewJWTTokenGenerator(
				"another-secret-that-is-32-characters!!",
				refreshSecret, 15*time.Minute, 7*24*time.Hour,
			)
			token, err := otherGen.GenerateAccessToken("user-1")
			Expect(err).NotTo(HaveOccurred())

			_, err = tokens.ValidateToken(token)
			Expect(errors.Is(err, internal.ErrInvalidToken)).To(BeTrue())
		})
	})
})
