package portal

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"biblio/internal/api"
	"biblio/internal/gate"

	"github.com/gin-gonic/gin"
)

const cancelledByUser = "Cancelada por el usuario"

func (s *Server) userDashboard(c *gin.Context) {
	s.render(c, http.StatusOK, "user_dashboard.html", nil)
}

func (s *Server) clientLoans(c *gin.Context) {
	carne := strings.TrimSpace(c.Query("carne"))
	data := gin.H{"Carne": carne}
	if carne == "" {
		s.render(c, http.StatusOK, "client_loans.html", data)
		return
	}

	loans, err := clientFrom(c).Loans.ByClient(c.Request.Context(), carne)
	if err != nil {
		s.fail(c, "client_loans.html", data, err)
		return
	}

	now := time.Now()
	overdue := make(map[int]bool, len(loans))
	for _, l := range loans {
		overdue[l.ID] = l.Overdue(now)
	}
	data["Loans"] = loans
	data["Overdue"] = overdue
	data["Searched"] = true
	s.render(c, http.StatusOK, "client_loans.html", data)
}

func (s *Server) createRequestPage(c *gin.Context) {
	s.renderCreateRequest(c, http.StatusOK, gin.H{"Selected": 0})
}

func (s *Server) renderCreateRequest(c *gin.Context, status int, data gin.H) {
	materials, err := clientFrom(c).Materials.Available(c.Request.Context(), api.PageRequest{Page: 1, Size: 100})
	if err != nil {
		s.fail(c, "create_request.html", data, err)
		return
	}
	data["Materials"] = materials.Data
	s.render(c, status, "create_request.html", data)
}

func (s *Server) createRequestSubmit(c *gin.Context) {
	ctx := c.Request.Context()
	client := clientFrom(c)
	materialID, _ := strconv.Atoi(c.PostForm("material_id"))
	observaciones := strings.TrimSpace(c.PostForm("observaciones"))

	data := gin.H{"Observaciones": observaciones, "Selected": materialID}
	if materialID < 1 {
		data["FormError"] = "Por favor, seleccione un material."
		s.renderCreateRequest(c, http.StatusBadRequest, data)
		return
	}

	me, err := client.Auth.Me(ctx)
	if err != nil {
		s.fail(c, "create_request.html", data, err)
		return
	}

	_, err = client.Requests.Create(ctx, api.LoanRequestInput{
		UsuarioID:        me.ID,
		MaterialID:       materialID,
		NombreUsuario:    me.Nombre,
		CarneIdentidad:   me.CarneIdentidad,
		DireccionUsuario: me.Direccion,
		Observaciones:    observaciones,
	})
	if err != nil {
		s.fail(c, "create_request.html", data, err)
		return
	}

	c.Redirect(http.StatusFound, "/my-requests?created=1")
}

func (s *Server) myRequests(c *gin.Context) {
	ctx := c.Request.Context()
	client := clientFrom(c)
	data := gin.H{"Created": c.Query("created") != ""}

	user := storeFrom(c).User()
	if user == nil {
		c.Redirect(http.StatusFound, gate.LoginPath)
		return
	}

	page, err := client.Requests.ByEmail(ctx, user.Email, api.PageRequest{
		Page: queryInt(c, "page", 1),
		Size: defaultPageSize,
	})
	if err != nil {
		s.fail(c, "my_requests.html", data, err)
		return
	}

	data["Requests"] = page.Data
	data["Titles"] = s.materialTitles(c, client, requestedMaterials(page.Data))
	data["Pager"] = newPager(c.Request.URL.Path, nil, page.Pagination)
	s.render(c, http.StatusOK, "my_requests.html", data)
}

func (s *Server) cancelRequest(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if _, err := clientFrom(c).Requests.UpdateStatus(c.Request.Context(), id, api.EstadoCancelada, cancelledByUser); err != nil {
		s.fail(c, "my_requests.html", nil, err)
		return
	}
	c.Redirect(http.StatusFound, "/my-requests")
}

func (s *Server) availableMaterials(c *gin.Context) {
	page, err := clientFrom(c).Materials.Available(c.Request.Context(), api.PageRequest{
		Page: queryInt(c, "page", 1),
		Size: defaultPageSize,
	})
	if err != nil {
		s.fail(c, "available_materials.html", nil, err)
		return
	}
	s.render(c, http.StatusOK, "available_materials.html", gin.H{
		"Materials": page.Data,
		"Pager":     newPager(c.Request.URL.Path, nil, page.Pagination),
	})
}

// materialTitles looks up the title of every material in ids. Lookups that
// fail leave the title blank.
func (s *Server) materialTitles(c *gin.Context, client *api.Client, ids []int) map[int]string {
	titles := make(map[int]string)
	for _, id := range ids {
		if _, seen := titles[id]; seen || id == 0 {
			continue
		}
		m, err := client.Materials.Get(c.Request.Context(), id)
		if err != nil {
			s.logger.Warn("Failed to load material title", "material_id", id, "error", err)
			titles[id] = ""
			continue
		}
		titles[id] = m.Titulo
	}
	return titles
}

func requestedMaterials(reqs []api.LoanRequest) []int {
	ids := make([]int, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.MaterialID)
	}
	return ids
}
