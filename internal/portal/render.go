package portal

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"biblio/internal/api"
	"biblio/internal/gate"
	"biblio/internal/token"

	"github.com/gin-gonic/gin"
)

const defaultPageSize = 10

var templateFuncs = template.FuncMap{
	"date": func(t api.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("02/01/2006")
	},
	"upper": strings.ToUpper,
	"estadoClass": func(estado string) string {
		switch estado {
		case api.EstadoPendiente:
			return "bg-warning"
		case api.EstadoAprobada:
			return "bg-success"
		case api.EstadoRechazada:
			return "bg-danger"
		case api.EstadoCancelada:
			return "bg-secondary"
		default:
			return "bg-info"
		}
	},
}

// render executes a page template with the identity of the caller added.
func (s *Server) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if store := storeFrom(c); store != nil {
		if u := store.User(); u != nil {
			data["User"] = u
			data["IsAdmin"] = u.Role == token.RoleAdmin
		}
	}
	c.HTML(status, name, data)
}

// fail renders a page with an error banner. When the API rejected the token
// the session is already gone and the browser goes back to the login page.
func (s *Server) fail(c *gin.Context, name string, data gin.H, err error) {
	if api.IsUnauthorized(err) {
		c.Redirect(http.StatusFound, gate.LoginPath)
		return
	}

	c.Error(err)
	slog.Error("API call failed",
		"path", c.Request.URL.Path,
		"request_id", c.GetString("request_id"),
		"error", err,
	)

	if data == nil {
		data = gin.H{}
	}
	data["Error"] = errorMessage(err)
	s.render(c, statusFor(err), name, data)
}

// errorMessage turns an error into the banner shown to the user.
func errorMessage(err error) string {
	var (
		apiErr  *api.APIError
		netErr  *api.NetworkError
		progErr *api.ProgrammingError
	)
	switch {
	case errors.As(err, &progErr):
		return "Datos inválidos: " + progErr.Err.Error()
	case errors.As(err, &netErr):
		return "No se pudo conectar con el servidor. Intente nuevamente."
	case errors.Is(err, api.ErrMalformedResponse):
		return "El servidor devolvió una respuesta inesperada."
	case errors.As(err, &apiErr):
		switch {
		case apiErr.Status == http.StatusForbidden:
			return "No tiene permisos para realizar esta acción."
		case apiErr.Status == http.StatusNotFound:
			return "El recurso solicitado no existe."
		case apiErr.Detail != "":
			return apiErr.Detail
		}
	}
	return "Ocurrió un error inesperado. Intente nuevamente."
}

func statusFor(err error) int {
	var (
		apiErr  *api.APIError
		progErr *api.ProgrammingError
	)
	switch {
	case errors.As(err, &progErr):
		return http.StatusBadRequest
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		return apiErr.Status
	default:
		return http.StatusBadGateway
	}
}

// dashboardFor is where a freshly logged in user lands.
func dashboardFor(role token.Role) string {
	if role == token.RoleAdmin {
		return "/admin-dashboard"
	}
	return "/user-dashboard"
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func paramID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		c.String(http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
