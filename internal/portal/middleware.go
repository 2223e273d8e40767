package portal

import (
	"log/slog"
	"net/http"
	"time"

	"biblio/internal/api"
	"biblio/internal/gate"
	"biblio/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// ClientCookie identifies a browser across requests.
	ClientCookie = "client_id"

	clientCookieMaxAge = 30 * 24 * time.Hour
	apiClientKey       = "api_client"
)

// RequestIDMiddleware tags each request with an id, reusing the caller's
// X-Request-ID when present
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
			c.Request.Header.Set("X-Request-ID", requestID)
		}

		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()
	}
}

// LoggingMiddleware logs every request with structured attributes
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		attrs := []any{
			"request_id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", float64(latency.Milliseconds()),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
			"response_size", max(c.Writer.Size(), 0),
		}

		if query := c.Request.URL.RawQuery; query != "" {
			attrs = append(attrs, "query", query)
		}

		if email, exists := c.Get("email"); exists {
			attrs = append(attrs, "email", email)
		}
		if rol, exists := c.Get("rol"); exists {
			attrs = append(attrs, "rol", rol)
		}

		if upstream, exists := c.Get("upstream"); exists {
			attrs = append(attrs, "upstream", upstream)
		}

		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			slog.Error("Request failed - server error", attrs...)
		case status >= 400:
			slog.Warn("Request failed - client error", attrs...)
		default:
			slog.Info("Request completed", attrs...)
		}
	}
}

// SessionMiddleware loads the session of the calling browser and an API
// client bound to it. A browser without a valid client cookie gets a new one.
func (s *Server) SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID, err := c.Cookie(ClientCookie)
		if _, perr := uuid.Parse(clientID); err != nil || perr != nil {
			clientID = uuid.New().String()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(ClientCookie, clientID, int(clientCookieMaxAge.Seconds()), "/", "", s.cfg.CookieSecure, true)
		}

		logger := s.logger.With("request_id", c.GetString("request_id"))
		store := session.New(s.storage, session.KeyFor(clientID), session.WithLogger(logger))
		store.Init(c.Request.Context())

		base, err := api.ResolveBaseURL(api.BaseOptions{
			BackendHost: s.cfg.BackendHost,
			Development: s.cfg.Development(),
			PageHost:    c.Request.Host,
			Upstream:    s.cfg.APIUpstream,
		})
		if err != nil {
			slog.Error("Failed to resolve API base address", "error", err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		client := api.NewClient(base,
			api.WithHTTPClient(s.http),
			api.WithTokenSource(store),
			api.WithLogger(logger),
		)

		c.Set(gate.StoreKey, store)
		c.Set(apiClientKey, client)
		if u := store.User(); u != nil {
			c.Set("email", u.Email)
			c.Set("rol", string(u.Role))
		}

		c.Next()
	}
}

func storeFrom(c *gin.Context) *session.Store {
	if v, ok := c.Get(gate.StoreKey); ok {
		if s, ok := v.(*session.Store); ok {
			return s
		}
	}
	return nil
}

func clientFrom(c *gin.Context) *api.Client {
	if v, ok := c.Get(apiClientKey); ok {
		if cl, ok := v.(*api.Client); ok {
			return cl
		}
	}
	return nil
}
