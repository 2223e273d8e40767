// Package api is the HTTP client of the library loan API. Every request
// goes through a transport that attaches the caller's bearer token and
// drops it when the API answers 401; failures are classified once here into
// NetworkError, APIError, ProgrammingError or ErrMalformedResponse.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const maxErrorBody = 1 << 20

// Client talks to the library loan API on behalf of one session.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *slog.Logger

	common service

	Auth      *AuthService
	Materials *MaterialService
	Requests  *RequestService
	Loans     *LoanService
	Users     *UserService
}

type service struct {
	client *Client
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
}

// WithHTTPClient sets the underlying HTTP client. Its transport is wrapped,
// its timeout is kept as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = hc
	}
}

// WithTokenSource sets where bearer tokens are read from and dropped.
func WithTokenSource(ts TokenSource) Option {
	return func(o *clientOptions) {
		o.tokens = ts
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// NewClient creates a client rooted at baseURL (e.g. http://host:8000/api).
func NewClient(baseURL *url.URL, opts ...Option) *Client {
	o := clientOptions{
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	hc := *o.httpClient
	hc.Transport = &bearerTransport{
		base:   o.httpClient.Transport,
		tokens: o.tokens,
	}

	base := *baseURL
	base.Path = strings.TrimRight(base.Path, "/")

	c := &Client{
		baseURL: &base,
		http:    &hc,
		logger:  o.logger,
	}
	c.common.client = c
	c.Auth = (*AuthService)(&c.common)
	c.Materials = (*MaterialService)(&c.common)
	c.Requests = (*RequestService)(&c.common)
	c.Loans = (*LoanService)(&c.common)
	c.Users = (*UserService)(&c.common)
	return c
}

// BaseURL returns the address requests are resolved against.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// endpoint joins the base address with path, which must already be escaped.
func (c *Client) endpoint(path string, query url.Values) *url.URL {
	u := *c.baseURL
	raw := c.baseURL.EscapedPath() + path
	if unescaped, err := url.PathUnescape(raw); err == nil {
		u.Path, u.RawPath = unescaped, raw
	} else {
		u.Path, u.RawPath = raw, ""
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return &u
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, &ProgrammingError{Err: fmt.Errorf("encode %T: %w", body, err)}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query).String(), reader)
	if err != nil {
		return nil, &ProgrammingError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) newFormRequest(ctx context.Context, path string, form url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil).String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &ProgrammingError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}

// do sends req and decodes a 2xx JSON body into out, when out is not nil.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("API request failed",
			"method", req.Method,
			"url", req.URL.String(),
			"error", err.Error(),
		)
		return &NetworkError{Op: req.Method, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("API request completed",
		"method", req.Method,
		"url", req.URL.String(),
		"status", resp.StatusCode,
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Status: resp.StatusCode, Detail: detailFrom(body)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: req.Method, URL: req.URL.String(), Err: err}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if err := json.Unmarshal(body, out); err != nil {
		if errors.Is(err, ErrMalformedResponse) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, nil, body)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// detailFrom extracts a human readable message from an error body. The API
// reports {"detail": "..."} or a list of validation errors.
func detailFrom(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Detail) > 0 {
			var msg string
			if err := json.Unmarshal(envelope.Detail, &msg); err == nil {
				return msg
			}
			var items []struct {
				Msg string `json:"msg"`
			}
			if err := json.Unmarshal(envelope.Detail, &items); err == nil {
				msgs := make([]string, 0, len(items))
				for _, it := range items {
					if it.Msg != "" {
						msgs = append(msgs, it.Msg)
					}
				}
				return strings.Join(msgs, "; ")
			}
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}

	text := string(body)
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
