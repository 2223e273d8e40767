// Package gate decides whether a page may render for the current session.
package gate

import (
	"log/slog"
	"net/http"
	"slices"

	"biblio/internal/session"
	"biblio/internal/token"

	"github.com/gin-gonic/gin"
)

// Paths the gate redirects to.
const (
	LoginPath        = "/login"
	UnauthorizedPath = "/unauthorized"
)

// StoreKey is the gin context key the request's session store lives under.
const StoreKey = "session_store"

// Decision is the outcome of a gate check.
type Decision int

const (
	Render Decision = iota
	RedirectLogin
	RedirectUnauthorized
)

func (d Decision) String() string {
	switch d {
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	default:
		return "unknown"
	}
}

// Decide is pure. An empty allowed list admits any authenticated role.
// Missing authentication takes precedence over a role mismatch.
func Decide(isAuthenticated bool, role token.Role, allowed []token.Role) Decision {
	if !isAuthenticated {
		return RedirectLogin
	}
	if len(allowed) > 0 && !slices.Contains(allowed, role) {
		return RedirectUnauthorized
	}
	return Render
}

// Require guards a route. It expects the session store of the request
// under StoreKey; a request without one is treated as anonymous.
func Require(allowed ...token.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticated, role := false, token.Role("")
		if store, ok := c.Get(StoreKey); ok {
			if s, ok := store.(*session.Store); ok {
				authenticated, role = s.IsAuthenticated(), s.Role()
			}
		}

		switch d := Decide(authenticated, role, allowed); d {
		case RedirectLogin:
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
		case RedirectUnauthorized:
			slog.Warn("Role not allowed on route",
				"path", c.Request.URL.Path,
				"rol", role,
				"request_id", c.GetString("request_id"),
			)
			c.Redirect(http.StatusFound, UnauthorizedPath)
			c.Abort()
		default:
			c.Next()
		}
	}
}
