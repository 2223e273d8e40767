package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// TokenSource supplies the persisted bearer token and drops it when the API
// rejects it.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
	Invalidate(ctx context.Context)
}

// bearerTransport attaches the bearer token to every outgoing request and
// invalidates it when a response comes back 401. It never retries and never
// swallows the response.
type bearerTransport struct {
	base   http.RoundTripper
	tokens TokenSource
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	out := req.Clone(ctx)
	if out.Header.Get("X-Request-ID") == "" {
		out.Header.Set("X-Request-ID", uuid.New().String())
	}
	if t.tokens != nil {
		if tok, ok := t.tokens.Token(ctx); ok {
			out.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := t.transport().RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && t.tokens != nil {
		t.tokens.Invalidate(ctx)
	}
	return resp, nil
}

func (t *bearerTransport) transport() http.RoundTripper {
	if t.base != nil {
		return t.base
	}
	return http.DefaultTransport
}
