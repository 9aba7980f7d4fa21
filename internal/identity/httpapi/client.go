// Package httpapi implements identity.Provider against a REST identity
// service (the managed identity provider fronting the hosted deployment).
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/korelearn/tutor-management/internal/identity"
)

type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func NewClient(config Config, logger *slog.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		logger:  logger,
	}
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) CreateUser(ctx context.Context, email, credential string) (string, error) {
	body, status, err := c.do(ctx, http.MethodPost, "/v1/users", createUserRequest{
		Email:    email,
		Password: credential,
	})
	if err != nil {
		return "", err
	}

	switch status {
	case http.StatusCreated, http.StatusOK:
		var resp userResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to decode identity response: %w", err)
		}
		return resp.ID, nil
	case http.StatusConflict:
		return "", identity.ErrAlreadyExists
	default:
		return "", fmt.Errorf("identity API error: status %d, response: %s", status, string(body))
	}
}

func (c *Client) SetDisplayName(ctx context.Context, userID, name string) error {
	body, status, err := c.do(ctx, http.MethodPatch, "/v1/users/"+userID, map[string]string{
		"display_name": name,
	})
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return fmt.Errorf("identity API error: status %d, response: %s", status, string(body))
	}
	return nil
}

func (c *Client) VerifyPassword(ctx context.Context, email, credential string) (string, error) {
	body, status, err := c.do(ctx, http.MethodPost, "/v1/sessions", createUserRequest{
		Email:    email,
		Password: credential,
	})
	if err != nil {
		return "", err
	}

	switch status {
	case http.StatusOK, http.StatusCreated:
		var resp userResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to decode identity response: %w", err)
		}
		return resp.ID, nil
	case http.StatusUnauthorized, http.StatusNotFound:
		return "", identity.ErrInvalidCredentials
	default:
		return "", fmt.Errorf("identity API error: status %d, response: %s", status, string(body))
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal error: %w", err)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, 0, fmt.Errorf("request creation error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.Debug("calling identity API", "method", method, "url", url)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("identity API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("response read error: %w", err)
	}
	return respBody, resp.StatusCode, nil
}
