// internal/core/catalog-client/auth.go
package catalogclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	commonerrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/models"
)

// Login posts credentials and stores the returned token and profile.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	return c.authenticate(ctx, "login", "/auth/login", models.LoginRequest{Email: email, Password: password})
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	return c.authenticate(ctx, "register", "/auth/register", req)
}

func (c *Client) authenticate(ctx context.Context, op, path string, body interface{}) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.getJSON(ctx, request{op: op, method: http.MethodPost, path: path, body: body}, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, commonerrors.NewDecodeFailedError(op, fmt.Errorf("response carries no token"))
	}

	if c.creds != nil {
		var user interface{}
		if resp.User != nil {
			user = resp.User
		}
		if err := c.creds.Establish(ctx, resp.Token, user); err != nil {
			return nil, commonerrors.NewStorageFailedError("token", err)
		}
	}

	c.logger.Info("session established", map[string]interface{}{
		"op":       op,
		"withUser": resp.User != nil,
	})
	return &resp, nil
}

// CurrentUser fetches GET /auth/me and refreshes the cached profile. The
// reply may be the bare user or {"user": {...}}.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	payload, err := c.send(ctx, request{op: "current_user", method: http.MethodGet, path: "/auth/me"})
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		User *models.User `json:"user"`
	}
	if err := json.Unmarshal(payload, &wrapped); err != nil {
		return nil, commonerrors.NewDecodeFailedError("current_user", err)
	}
	user := wrapped.User
	if user == nil {
		user = &models.User{}
		if err := json.Unmarshal(payload, user); err != nil {
			return nil, commonerrors.NewDecodeFailedError("current_user", err)
		}
	}

	if c.creds != nil {
		if err := c.creds.SaveUser(ctx, user); err != nil {
			c.logger.Warn("failed to cache user profile", map[string]interface{}{
				"error": err,
			})
		}
	}
	return user, nil
}

// Logout discards the local credential. The API has no logout endpoint.
func (c *Client) Logout(ctx context.Context) error {
	if c.creds == nil {
		return nil
	}
	if err := c.creds.Evict(ctx); err != nil {
		return commonerrors.NewStorageFailedError("token", err)
	}
	return nil
}
