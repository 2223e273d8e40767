package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// AuthService handles the /auth endpoints.
type AuthService service

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for a bearer token. The API expects an OAuth2
// password form, not JSON.
func (s *AuthService) Login(ctx context.Context, identifier, secret string) (string, error) {
	form := url.Values{}
	form.Set("username", identifier)
	form.Set("password", secret)

	req, err := s.client.newFormRequest(ctx, "/auth/login", form)
	if err != nil {
		return "", err
	}

	var out tokenResponse
	if err := s.client.do(req, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("%w: login response without access_token", ErrMalformedResponse)
	}
	return out.AccessToken, nil
}

// Register creates a regular user account.
func (s *AuthService) Register(ctx context.Context, in RegisterRequest) error {
	return s.client.send(ctx, http.MethodPost, "/auth/register", in, nil)
}

// Me returns the profile of the token holder.
func (s *AuthService) Me(ctx context.Context) (*User, error) {
	var u User
	if err := s.client.get(ctx, "/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
