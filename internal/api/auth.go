package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string   `json:"message"`
	User    userJSON `json:"user"`
}

type statusResponse struct {
	IsLoggedIn bool      `json:"is_logged_in"`
	User       *userJSON `json:"user"`
}

// Login authenticates with email and password. The session cookie lands in
// the client's jar.
func (c *Client) Login(ctx context.Context, email, password string) (session.User, error) {
	var resp loginResponse
	if err := c.postJSON(ctx, "/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return session.User{}, fmt.Errorf("login: %w", err)
	}
	if resp.User.ID == 0 {
		return session.User{}, fmt.Errorf("login: response carried no user")
	}
	return userFromWire(resp.User), nil
}

// Status returns the logged-in user, or the zero User when the session is
// not authenticated.
func (c *Client) Status(ctx context.Context) (session.User, error) {
	var resp statusResponse
	err := c.getJSON(ctx, "/auth/status", &resp)
	var serr *StatusError
	if errors.As(err, &serr) && serr.Code == http.StatusUnauthorized {
		return session.User{}, nil
	}
	if err != nil {
		return session.User{}, fmt.Errorf("auth status: %w", err)
	}
	if !resp.IsLoggedIn || resp.User == nil {
		return session.User{}, nil
	}
	return userFromWire(*resp.User), nil
}

// Logout ends the server session and drops the local cookies.
func (c *Client) Logout(ctx context.Context) error {
	err := c.postJSON(ctx, "/auth/logout", nil, nil)
	c.ClearCookies()
	var serr *StatusError
	if errors.As(err, &serr) && serr.Code == http.StatusUnauthorized {
		return nil
	}
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
