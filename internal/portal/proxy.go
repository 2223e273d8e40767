package portal

import (
	"log/slog"
	"net/http"
	"net/http/httputil"

	"biblio/internal/session"

	"github.com/gin-gonic/gin"
)

// APIProxy forwards same-origin /api traffic to the library API untouched.
func (s *Server) APIProxy() gin.HandlerFunc {
	target := s.upstream
	proxy := httputil.NewSingleHostReverseProxy(target)

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		slog.Error("Proxy error",
			"upstream", target.Host,
			"path", r.URL.Path,
			"request_id", r.Header.Get("X-Request-ID"),
			"error", err,
		)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"detail":"bad gateway"}`))
	}

	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		originalDirector(req)
		req.Host = target.Host
		slog.Debug("Proxying request", "method", req.Method, "target", req.URL.String())
	}

	return func(c *gin.Context) {
		c.Set("upstream", target.Host)
		proxy.ServeHTTP(c.Writer, c.Request)
	}
}

// Health reports the portal status and whether token storage is reachable.
func (s *Server) Health(c *gin.Context) {
	status := http.StatusOK
	storage := "memory"

	if p, ok := s.storage.(session.Pinger); ok {
		storage = "up"
		if err := p.Ping(c.Request.Context()); err != nil {
			slog.Warn("Token storage unreachable", "error", err)
			storage = "down"
			status = http.StatusServiceUnavailable
		}
	}

	healthy := "healthy"
	if status != http.StatusOK {
		healthy = "degraded"
	}
	c.JSON(status, gin.H{
		"status":   healthy,
		"service":  "biblio-portal",
		"storage":  storage,
		"upstream": s.upstream.String(),
	})
}
