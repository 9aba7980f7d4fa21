package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/korelearn/tutor-management/internal"
	"github.com/korelearn/tutor-management/internal/docstore"
	"github.com/korelearn/tutor-management/internal/routing"
	"github.com/korelearn/tutor-management/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	service *Service
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		service:     service,
	}
}

// Login godoc
// @Summary Authenticate a user
// @Description Verifies email and password, returns a token pair and the post-login destination
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginDTO true "Login credentials"
// @Success 200 {object} LoginResult
// @Failure 400 {object} internal.Response
// @Failure 401 {object} internal.Response
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteAppError(w, internal.ErrMalformedBody)
		return
	}

	result, err := h.service.Authenticate(r.Context(), dto)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

// RefreshToken godoc
// @Summary Refresh an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshTokenDTO true "Refresh token"
// @Success 200 {object} LoginResult
// @Failure 401 {object} internal.Response
// @Router /auth/refresh [post]
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteAppError(w, internal.ErrMalformedBody)
		return
	}

	result, err := h.service.Refresh(r.Context(), dto)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

type meResponse struct {
	ID          string              `json:"id"`
	Email       string              `json:"email"`
	Role        string              `json:"role"`
	Status      string              `json:"status"`
	FirstName   string              `json:"first_name"`
	LastName    string              `json:"last_name"`
	Destination routing.Destination `json:"destination"`
}

// Me godoc
// @Summary Current account
// @Description Returns the authenticated user's account and landing destination
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} meResponse
// @Failure 401 {object} internal.Response
// @Failure 404 {object} internal.Response
// @Router /users/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteAppError(w, internal.ErrInvalidToken)
		return
	}

	acc, err := h.service.GetAccount(r.Context(), userID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			h.WriteAppError(w, internal.ErrAccountNotFound)
			return
		}
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, meResponse{
		ID:          acc.ID,
		Email:       acc.Email,
		Role:        acc.Role,
		Status:      acc.Status,
		FirstName:   acc.FirstName,
		LastName:    acc.LastName,
		Destination: routing.Resolve(acc.Role, acc.Status),
	})
}

// AuthMiddleware validates the bearer token and puts the user id on the
// request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := h.ExtractTokenFromHeader(r)
		if tokenString == "" {
			h.WriteAppError(w, internal.ErrInvalidToken)
			return
		}

		claims, err := h.service.ValidateToken(tokenString)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}

		ctx := internal.ContextWithUserID(r.Context(), claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		h.WriteAppError(w, appErr)
		return
	}
	h.WriteError(w, http.StatusInternalServerError, "internal server error")
}
