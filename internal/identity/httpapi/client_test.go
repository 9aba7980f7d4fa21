package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/korelearn/tutor-management/internal/identity"
	"github.com/korelearn/tutor-management/internal/identity/httpapi"
)

func TestHTTPAPIIdentity(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "HTTP Identity Client Suite")
}

var _ = Describe("Client", func() {
	var (
		client     *httpapi.Client
		mockServer *httptest.Server
		handler    http.HandlerFunc
		ctx        context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))

		client = httpapi.NewClient(httpapi.Config{
			BaseURL: mockServer.URL,
			APIKey:  "test-api-key",
		}, logger)
	})

	AfterEach(func() {
		mockServer.Close()
	})

	Describe("CreateUser", func() {
		Context("when the identity service accepts the user", func() {
			It("should return the new identity id", func() {
				handler = func(w http.ResponseWriter, r *http.Request) {
					Expect(r.Method).To(Equal(http.MethodPost))
					Expect(r.URL.Path).To(Equal("/v1/users"))
					Expect(r.Header.Get("Authorization")).To(Equal("Bearer test-api-key"))

					var req map[string]string
					Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
					Expect(req["email"]).To(Equal("amara@mail.com"))

					w.WriteHeader(http.StatusCreated)
					json.NewEncoder(w).Encode(map[string]string{"id": "user-123", "email": req["email"]})
				}

				userID, err := client.CreateUser(ctx, "amara@mail.com", "s3cret")
				Expect(err).NotTo(HaveOccurred())
				Expect(userID).To(Equal("user-123"))
			})
		})

		Context("when the email is already registered", func() {
			It("should map 409 to ErrAlreadyExists", func() {
				handler = func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusConflict)
				}

				_, err := client.CreateUser(ctx, "amara@mail.com", "s3cret")
				Expect(errors.Is(err, identity.ErrAlreadyExists)).To(BeTrue())
			})
		})

		Context("when the service fails", func() {
			It("should surface an error", func() {
				handler = func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusInternalServerError)
				}

				_, err := client.CreateUser(ctx, "amara@mail.com", "s3cret")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("status 500"))
			})
		})
	})

	Describe("SetDisplayName", func() {
		It("should PATCH the user resource", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodPatch))
				Expect(r.URL.Path).To(Equal("/v1/users/user-123"))
				w.WriteHeader(http.StatusNoContent)
			}

			Expect(client.SetDisplayName(ctx, "user-123", "Amara Obi")).To(Succeed())
		})
	})

	Describe("VerifyPassword", func() {
		It("should return the id for valid credentials", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/v1/sessions"))
				json.NewEncoder(w).Encode(map[string]string{"id": "user-123"})
			}

			userID, err := client.VerifyPassword(ctx, "amara@mail.com", "s3cret")
			Expect(err).NotTo(HaveOccurred())
			Expect(userID).To(Equal("user-123"))
		})

		It("should map 401 to ErrInvalidCredentials", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}

			_, err := client.VerifyPassword(ctx, "amara@mail.com", "wrong")
			Expect(errors.Is(err, identity.ErrInvalidCredentials)).To(BeTrue())
		})
	})
})
