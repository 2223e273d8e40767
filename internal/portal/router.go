package portal

import (
	"net/http"

	"biblio/internal/gate"
	"biblio/internal/token"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Router returns the portal router
func (s *Server) Router() *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware())

	r.SetHTMLTemplate(s.templates)

	r.GET("/health", s.Health)

	// Same-origin API proxy, no session involved
	apiGroup := r.Group("/api")
	apiGroup.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
	}))
	apiGroup.Any("/*path", s.APIProxy())

	pages := r.Group("/")
	pages.Use(s.SessionMiddleware())

	admin := gate.Require(token.RoleAdmin)
	user := gate.Require(token.RoleUser)
	staff := gate.Require(token.RoleAdmin, token.RoleUser)
	anyRole := gate.Require()

	// Public
	pages.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, gate.LoginPath)
	})
	pages.GET("/login", s.loginPage)
	pages.POST("/login", s.loginSubmit)
	pages.GET("/register", s.registerPage)
	pages.POST("/register", s.registerSubmit)
	pages.GET("/unauthorized", s.unauthorizedPage)
	pages.POST("/logout", s.logout)

	// usuario
	pages.GET("/user-dashboard", user, s.userDashboard)
	pages.GET("/client-loans", user, s.clientLoans)
	pages.GET("/create-request", user, s.createRequestPage)
	pages.POST("/create-request", user, s.createRequestSubmit)
	pages.GET("/my-requests", user, s.myRequests)
	pages.POST("/my-requests/:id/cancel", user, s.cancelRequest)

	// Any authenticated role
	pages.GET("/available-materials", anyRole, s.availableMaterials)

	// admin and usuario; mutations are admin only
	pages.GET("/materials-management", staff, s.materialsManagement)
	pages.POST("/materials-management", admin, s.createMaterial)
	pages.GET("/materials-management/:id/edit", admin, s.editMaterialPage)
	pages.POST("/materials-management/:id", admin, s.updateMaterial)
	pages.POST("/materials-management/:id/delete", admin, s.deleteMaterial)

	// admin
	pages.GET("/admin-dashboard", admin, s.adminDashboard)
	pages.GET("/admin-tools", admin, s.adminTools)
	pages.POST("/admin-tools/credentials", admin, s.generateCredentials)
	pages.GET("/material-requests", admin, s.materialRequests)
	pages.POST("/material-requests/:id/approve", admin, s.approveRequest)
	pages.POST("/material-requests/:id/reject", admin, s.rejectRequest)
	pages.POST("/material-requests/:id/delete", admin, s.deleteRequest)
	pages.POST("/loans/:id/return", admin, s.returnLoan)
	pages.GET("/ordered-materials", admin, s.orderedMaterials)
	pages.GET("/loaned-materials", admin, s.loanedMaterials)
	pages.GET("/revista-requests", admin, s.revistaRequests)

	return r
}
