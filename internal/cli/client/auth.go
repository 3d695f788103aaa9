package client

import (
	"context"
	"net/http"
	"time"
)

// User is the identity record returned by the API
type User struct {
	ID        string     `json:"id,omitempty"`
	Email     string     `json:"email"`
	Name      string     `json:"name,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// CredentialsRequest is the body of the login and signup requests
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and signup
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Login exchanges credentials for a bearer token
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	return c.authenticate(ctx, "/api/auth/login", email, password)
}

// Signup creates an account and returns its bearer token
func (c *Client) Signup(ctx context.Context, email, password string) (*AuthResponse, error) {
	return c.authenticate(ctx, "/api/auth/signup", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*AuthResponse, error) {
	req := c.public.R().
		SetHeader("Content-Type", "application/json").
		SetBody(CredentialsRequest{Email: email, Password: password})

	var authResp AuthResponse
	if err := c.do(ctx, req, http.MethodPost, path, &authResp); err != nil {
		return nil, err
	}
	return &authResp, nil
}

// Profile returns the user the current token belongs to
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, "/api/user/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
