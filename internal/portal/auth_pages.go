package portal

import (
	"errors"
	"net/http"
	"strings"

	"biblio/internal/api"
	"biblio/internal/gate"
	"biblio/internal/session"

	"github.com/gin-gonic/gin"
)

func (s *Server) loginPage(c *gin.Context) {
	if store := storeFrom(c); store != nil && store.IsAuthenticated() {
		c.Redirect(http.StatusFound, dashboardFor(store.Role()))
		return
	}
	s.render(c, http.StatusOK, "login.html", gin.H{
		"Registered": c.Query("registered") != "",
	})
}

func (s *Server) loginSubmit(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	data := gin.H{"Email": email}

	if email == "" || password == "" {
		data["FormError"] = "Ingrese su correo y contraseña."
		s.render(c, http.StatusBadRequest, "login.html", data)
		return
	}

	store, client := storeFrom(c), clientFrom(c)
	user, err := store.Login(c.Request.Context(), client.Auth, email, password)
	switch {
	case err == nil:
		c.Set("email", user.Email)
		c.Set("rol", string(user.Role))
		c.Redirect(http.StatusFound, dashboardFor(user.Role))
	case errors.Is(err, session.ErrCredentialsRejected):
		data["FormError"] = "Correo o contraseña incorrectos."
		s.render(c, http.StatusUnauthorized, "login.html", data)
	case errors.Is(err, session.ErrSessionExpired):
		data["FormError"] = "La sesión recibida ya expiró. Intente nuevamente."
		s.render(c, http.StatusUnauthorized, "login.html", data)
	default:
		s.fail(c, "login.html", data, err)
	}
}

func (s *Server) registerPage(c *gin.Context) {
	s.render(c, http.StatusOK, "register.html", nil)
}

func (s *Server) registerSubmit(c *gin.Context) {
	in := api.RegisterRequest{
		Nombre:         strings.TrimSpace(c.PostForm("nombre")),
		CarneIdentidad: strings.TrimSpace(c.PostForm("carne_identidad")),
		Direccion:      strings.TrimSpace(c.PostForm("direccion")),
		Email:          strings.TrimSpace(c.PostForm("email")),
		Password:       c.PostForm("password"),
	}
	data := gin.H{"Form": in}

	switch {
	case in.Nombre == "" || in.Email == "" || in.Password == "" || in.CarneIdentidad == "":
		data["FormError"] = "Complete todos los campos obligatorios."
	case in.Password != c.PostForm("confirm_password"):
		data["FormError"] = "Las contraseñas no coinciden."
	case len(in.Password) < 6:
		data["FormError"] = "La contraseña debe tener al menos 6 caracteres."
	}
	if data["FormError"] != nil {
		s.render(c, http.StatusBadRequest, "register.html", data)
		return
	}

	if err := clientFrom(c).Auth.Register(c.Request.Context(), in); err != nil {
		s.fail(c, "register.html", data, err)
		return
	}

	s.logger.Info("User registered", "email", in.Email, "request_id", c.GetString("request_id"))
	c.Redirect(http.StatusFound, gate.LoginPath+"?registered=1")
}

func (s *Server) unauthorizedPage(c *gin.Context) {
	s.render(c, http.StatusForbidden, "unauthorized.html", nil)
}

func (s *Server) logout(c *gin.Context) {
	storeFrom(c).Logout(c.Request.Context())
	c.Redirect(http.StatusFound, gate.LoginPath)
}
