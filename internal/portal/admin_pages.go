package portal

import (
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"biblio/internal/api"
	"biblio/internal/credentials"

	"github.com/gin-gonic/gin"
)

var materialTypes = []string{api.TipoLibro, api.TipoRevista, api.TipoActa}

var requestStates = []string{api.EstadoPendiente, api.EstadoAprobada, api.EstadoRechazada, api.EstadoCancelada}

const loanNotCreated = "Solicitud aprobada pero hubo un error al crear el préstamo. Verifique manualmente."

func (s *Server) adminDashboard(c *gin.Context) {
	s.render(c, http.StatusOK, "admin_dashboard.html", nil)
}

func (s *Server) materialsManagement(c *gin.Context) {
	s.renderMaterials(c, http.StatusOK, gin.H{})
}

func (s *Server) renderMaterials(c *gin.Context, status int, data gin.H) {
	tipo := c.Query("tipo")
	if !slices.Contains(materialTypes, tipo) {
		tipo = ""
	}
	data["Tipo"] = tipo
	data["Types"] = materialTypes

	page, err := clientFrom(c).Materials.List(c.Request.Context(), api.MaterialFilter{
		PageRequest: api.PageRequest{Page: queryInt(c, "page", 1), Size: defaultPageSize},
		Tipo:        tipo,
	})
	if err != nil {
		s.fail(c, "materials_management.html", data, err)
		return
	}

	query := url.Values{}
	if tipo != "" {
		query.Set("tipo", tipo)
	}
	data["Materials"] = page.Data
	data["Pager"] = newPager(c.Request.URL.Path, query, page.Pagination)
	s.render(c, status, "materials_management.html", data)
}

func (s *Server) createMaterial(c *gin.Context) {
	total, _ := strconv.Atoi(c.PostForm("total"))
	cantidad, err := strconv.Atoi(c.PostForm("cantidad"))
	if err != nil {
		cantidad = total
	}
	anio, _ := strconv.Atoi(c.PostForm("anio_publicacion"))

	in := api.MaterialInput{
		Titulo:          strings.TrimSpace(c.PostForm("titulo")),
		Autor:           strings.TrimSpace(c.PostForm("autor")),
		Tipo:            c.PostForm("tipo"),
		Descripcion:     strings.TrimSpace(c.PostForm("descripcion")),
		Ubicacion:       strings.TrimSpace(c.PostForm("ubicacion")),
		Estado:          "disponible",
		Cantidad:        cantidad,
		Total:           total,
		AnioPublicacion: anio,
	}

	if _, err := clientFrom(c).Materials.Create(c.Request.Context(), in); err != nil {
		s.fail(c, "materials_management.html", gin.H{"Form": in, "Types": materialTypes, "Tipo": ""}, err)
		return
	}
	c.Redirect(http.StatusFound, "/materials-management")
}

func (s *Server) editMaterialPage(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	m, err := clientFrom(c).Materials.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, "material_edit.html", gin.H{"Types": materialTypes}, err)
		return
	}
	s.render(c, http.StatusOK, "material_edit.html", gin.H{"Material": m, "Types": materialTypes})
}

// updateMaterial sends the fields that were filled in; blank fields are
// left as they are.
func (s *Server) updateMaterial(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var in api.MaterialUpdate
	for field, dst := range map[string]**string{
		"titulo":      &in.Titulo,
		"autor":       &in.Autor,
		"descripcion": &in.Descripcion,
		"ubicacion":   &in.Ubicacion,
	} {
		if v := strings.TrimSpace(c.PostForm(field)); v != "" {
			*dst = &v
		}
	}
	if tipo := c.PostForm("tipo"); slices.Contains(materialTypes, tipo) {
		in.Tipo = &tipo
	}
	for field, dst := range map[string]**int{
		"cantidad":         &in.Cantidad,
		"total":            &in.Total,
		"anio_publicacion": &in.AnioPublicacion,
	} {
		if n, err := strconv.Atoi(strings.TrimSpace(c.PostForm(field))); err == nil && n >= 0 {
			*dst = &n
		}
	}
	if in.Cantidad != nil && in.Total != nil && *in.Cantidad > *in.Total {
		s.render(c, http.StatusBadRequest, "material_edit.html", gin.H{
			"Material":  &api.Material{ID: id},
			"Types":     materialTypes,
			"FormError": "Los ejemplares disponibles no pueden superar el total.",
		})
		return
	}

	if _, err := clientFrom(c).Materials.Update(c.Request.Context(), id, in); err != nil {
		s.fail(c, "material_edit.html", gin.H{"Material": &api.Material{ID: id}, "Types": materialTypes}, err)
		return
	}
	c.Redirect(http.StatusFound, "/materials-management")
}

func (s *Server) deleteMaterial(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := clientFrom(c).Materials.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, "materials_management.html", gin.H{"Types": materialTypes, "Tipo": ""}, err)
		return
	}
	c.Redirect(http.StatusFound, "/materials-management")
}

func (s *Server) materialRequests(c *gin.Context) {
	estado := c.Query("estado")
	if !slices.Contains(requestStates, estado) {
		estado = ""
	}
	data := gin.H{"Estado": estado, "States": requestStates}

	client := clientFrom(c)
	page, err := client.Requests.List(c.Request.Context(), estado, api.PageRequest{
		Page: queryInt(c, "page", 1),
		Size: defaultPageSize,
	})
	if err != nil {
		s.fail(c, "material_requests.html", data, err)
		return
	}

	if userID := queryInt(c, "usuario", 0); userID > 0 {
		detail, err := s.requesterDetail(c, client, userID)
		if api.IsUnauthorized(err) {
			s.fail(c, "material_requests.html", data, err)
			return
		}
		data["Detail"] = detail
	}

	query := url.Values{}
	if estado != "" {
		query.Set("estado", estado)
	}
	data["Requests"] = page.Data
	data["Titles"] = s.materialTitles(c, client, requestedMaterials(page.Data))
	data["Pager"] = newPager(c.Request.URL.Path, query, page.Pagination)
	s.render(c, http.StatusOK, "material_requests.html", data)
}

// requesterDetail gathers the borrower panel: the account, the loans still
// out and the request history. Only a rejected token is returned as an
// error; anything else is shown inside the panel.
func (s *Server) requesterDetail(c *gin.Context, client *api.Client, userID int) (gin.H, error) {
	ctx := c.Request.Context()
	detail := gin.H{"UsuarioID": userID}

	user, err := client.Users.Get(ctx, userID)
	if err != nil {
		if api.IsUnauthorized(err) {
			return nil, err
		}
		s.logger.Warn("Failed to load requester", "usuario_id", userID, "error", err)
		detail["Error"] = errorMessage(err)
		return detail, nil
	}
	detail["User"] = user
	if user.CarneIdentidad == "" {
		return detail, nil
	}

	loans, err := client.Loans.List(ctx, api.LoanFilter{
		PageRequest: api.PageRequest{Page: 1, Size: 100},
		Usuario:     user.CarneIdentidad,
	})
	if err != nil {
		if api.IsUnauthorized(err) {
			return nil, err
		}
		s.logger.Warn("Failed to load requester loans", "usuario_id", userID, "error", err)
		detail["Error"] = errorMessage(err)
		return detail, nil
	}

	now := time.Now()
	var active []api.Loan
	overdue := make(map[int]bool)
	ids := make([]int, 0, len(loans.Data))
	for _, l := range loans.Data {
		if !l.Active() {
			continue
		}
		active = append(active, l)
		overdue[l.ID] = l.Overdue(now)
		ids = append(ids, l.MaterialID)
	}

	history, err := client.Requests.ByUser(ctx, user.CarneIdentidad, api.PageRequest{Page: 1, Size: defaultPageSize})
	if err != nil {
		if api.IsUnauthorized(err) {
			return nil, err
		}
		s.logger.Warn("Failed to load requester history", "usuario_id", userID, "error", err)
		detail["Error"] = errorMessage(err)
	} else {
		detail["History"] = history.Data
		ids = append(ids, requestedMaterials(history.Data)...)
	}

	detail["Loans"] = active
	detail["Overdue"] = overdue
	detail["Titles"] = s.materialTitles(c, client, ids)
	return detail, nil
}

// approveRequest marks the request approved and lends the material.
func (s *Server) approveRequest(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	client := clientFrom(c)
	data := gin.H{"States": requestStates, "Estado": ""}

	req, err := client.Requests.Get(ctx, id)
	if err != nil {
		s.fail(c, "material_requests.html", data, err)
		return
	}
	if !req.Pending() {
		data["Error"] = "La solicitud ya fue procesada."
		s.render(c, http.StatusConflict, "material_requests.html", data)
		return
	}

	if _, err := client.Requests.UpdateStatus(ctx, id, api.EstadoAprobada, strings.TrimSpace(c.PostForm("observaciones"))); err != nil {
		s.fail(c, "material_requests.html", data, err)
		return
	}
	if _, err := client.Loans.Create(ctx, api.LoanInput{UsuarioID: req.UsuarioID, MaterialID: req.MaterialID}); err != nil {
		if api.IsUnauthorized(err) {
			s.fail(c, "material_requests.html", data, err)
			return
		}
		c.Error(err)
		s.logger.Error("Request approved but loan creation failed",
			"solicitud_id", id,
			"usuario_id", req.UsuarioID,
			"material_id", req.MaterialID,
			"request_id", c.GetString("request_id"),
			"error", err,
		)
		data["Error"] = loanNotCreated
		s.render(c, statusFor(err), "material_requests.html", data)
		return
	}

	s.logger.Info("Loan request approved",
		"solicitud_id", id,
		"usuario_id", req.UsuarioID,
		"material_id", req.MaterialID,
		"request_id", c.GetString("request_id"),
	)
	c.Redirect(http.StatusFound, "/material-requests")
}

func (s *Server) rejectRequest(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	observaciones := strings.TrimSpace(c.PostForm("observaciones"))
	if _, err := clientFrom(c).Requests.UpdateStatus(c.Request.Context(), id, api.EstadoRechazada, observaciones); err != nil {
		s.fail(c, "material_requests.html", gin.H{"States": requestStates, "Estado": ""}, err)
		return
	}
	c.Redirect(http.StatusFound, "/material-requests")
}

func (s *Server) deleteRequest(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := clientFrom(c).Requests.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, "material_requests.html", gin.H{"States": requestStates, "Estado": ""}, err)
		return
	}
	c.Redirect(http.StatusFound, "/material-requests")
}

// returnLoan records a loan as given back and goes back to the borrower panel.
func (s *Server) returnLoan(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := clientFrom(c).Loans.Return(c.Request.Context(), id); err != nil {
		s.fail(c, "material_requests.html", gin.H{"States": requestStates, "Estado": ""}, err)
		return
	}

	target := "/material-requests"
	if userID, err := strconv.Atoi(c.PostForm("usuario_id")); err == nil && userID > 0 {
		target += "?usuario=" + strconv.Itoa(userID)
	}
	c.Redirect(http.StatusFound, target)
}

func (s *Server) orderedMaterials(c *gin.Context) {
	page, err := clientFrom(c).Materials.Ordered(c.Request.Context(), api.PageRequest{
		Page: queryInt(c, "page", 1),
		Size: defaultPageSize,
	})
	if err != nil {
		s.fail(c, "ordered_materials.html", nil, err)
		return
	}
	s.render(c, http.StatusOK, "ordered_materials.html", gin.H{
		"Materials": page.Data,
		"Pager":     newPager(c.Request.URL.Path, nil, page.Pagination),
	})
}

func (s *Server) loanedMaterials(c *gin.Context) {
	items, err := clientFrom(c).Materials.OnLoan(c.Request.Context())
	if err != nil {
		s.fail(c, "loaned_materials.html", nil, err)
		return
	}
	s.render(c, http.StatusOK, "loaned_materials.html", gin.H{"Items": items})
}

func (s *Server) revistaRequests(c *gin.Context) {
	page, err := clientFrom(c).Requests.Magazines(c.Request.Context(), api.PageRequest{
		Page: queryInt(c, "page", 1),
		Size: defaultPageSize,
	})
	if err != nil {
		s.fail(c, "revista_requests.html", nil, err)
		return
	}
	s.render(c, http.StatusOK, "revista_requests.html", gin.H{
		"Requests": page.Data,
		"Pager":    newPager(c.Request.URL.Path, nil, page.Pagination),
	})
}

func (s *Server) adminTools(c *gin.Context) {
	s.renderAdminTools(c, gin.H{"SelectedUser": 0})
}

func (s *Server) renderAdminTools(c *gin.Context, data gin.H) {
	users, err := clientFrom(c).Users.List(c.Request.Context(), 0, 100)
	if err != nil {
		s.fail(c, "admin_tools.html", data, err)
		return
	}
	data["Users"] = users
	s.render(c, http.StatusOK, "admin_tools.html", data)
}

func (s *Server) generateCredentials(c *gin.Context) {
	userID, _ := strconv.Atoi(c.PostForm("user_id"))
	data := gin.H{"SelectedUser": userID}
	if userID < 1 {
		data["FormError"] = "Seleccione un usuario."
		s.renderAdminTools(c, data)
		return
	}

	user, err := clientFrom(c).Users.Get(c.Request.Context(), userID)
	if err != nil {
		s.fail(c, "admin_tools.html", data, err)
		return
	}
	data["For"] = user

	creds, err := credentials.Generate()
	if err != nil {
		c.Error(err)
		data["Error"] = "No se pudieron generar las credenciales."
		s.renderAdminTools(c, data)
		return
	}
	data["Credentials"] = creds
	s.renderAdminTools(c, data)
}
