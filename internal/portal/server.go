// Package portal serves the library loan portal: server-rendered pages gated
// by role, a per-browser session, and a same-origin /api proxy to the
// library API.
package portal

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"biblio/internal/config"
	"biblio/internal/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Option configures a Server.
type Option func(*Server)

// WithHTTPClient sets the client used to reach the library API.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Server) {
		s.http = hc
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Server holds the dependencies shared by every request.
type Server struct {
	cfg       *config.Config
	upstream  *url.URL
	storage   session.Storage
	http      *http.Client
	logger    *slog.Logger
	templates *template.Template
}

// New creates a portal server. Tokens of every browser are kept in storage.
func New(cfg *config.Config, storage session.Storage, opts ...Option) (*Server, error) {
	upstream, err := url.Parse(cfg.APIUpstream)
	if err != nil || upstream.Scheme == "" || upstream.Host == "" {
		return nil, fmt.Errorf("invalid API upstream %q", cfg.APIUpstream)
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		upstream:  upstream,
		storage:   storage,
		http:      &http.Client{},
		logger:    slog.Default(),
		templates: tmpl,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}
