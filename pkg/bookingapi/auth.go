package bookingapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// Login exchanges credentials for a bearer token. The returned user carries
// only id/email/name; call Me for the full profile including role.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var resp LoginResponse
	if _, err := c.doJSON(ctx, http.MethodPost, "/login", body, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("login returned empty access_token")
	}
	return &resp, nil
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`

	// Facilitator-only profile fields.
	Bio            string `json:"bio,omitempty"`
	Specialization string `json:"specialization,omitempty"`
}

func (r RegisterRequest) validate() error {
	if strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Name) == "" || r.Password == "" {
		return fmt.Errorf("email, name and password are required")
	}
	return nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	if err := req.validate(); err != nil {
		return err
	}
	_, err := c.doJSON(ctx, http.MethodPost, "/register", req, nil)
	return err
}

func (c *Client) RegisterFacilitator(ctx context.Context, req RegisterRequest) error {
	if err := req.validate(); err != nil {
		return err
	}
	_, err := c.doJSON(ctx, http.MethodPost, "/register_facilitator", req, nil)
	return err
}

// Me returns the authenticated user's profile, role included.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if _, err := c.doJSON(ctx, http.MethodGet, "/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ChooseRole completes signup for accounts with no role yet. The server
// returns the updated profile fields.
func (c *Client) ChooseRole(ctx context.Context, role string) (*User, error) {
	var u User
	if _, err := c.doJSON(ctx, http.MethodPut, "/choose-role", map[string]string{"role": role}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
