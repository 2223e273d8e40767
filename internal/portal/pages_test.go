package portal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"biblio/internal/token"
)

func decodeBody(t *testing.T, call apiCall) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal([]byte(call.Body), &body); err != nil {
		t.Fatalf("decode %s %s body %q: %v", call.Method, call.Path, call.Body, err)
	}
	return body
}

func TestPages_Render(t *testing.T) {
	const emptyPage = `{"data":[],"pagination":{"total":0,"page":1,"size":10,"pages":1}}`

	tests := []struct {
		name     string
		role     token.Role
		path     string
		routes   map[string]http.HandlerFunc
		wantText []string
		wantCall string
	}{
		{
			name: "my requests",
			role: token.RoleUser,
			path: "/my-requests",
			routes: map[string]http.HandlerFunc{
				"GET /api/solicitudes/usuario-email/{email}": jsonHandler(`{"data":[{"id":4,"usuario_id":9,"material_id":3,"estado":"pendiente","fecha_solicitud":"2025-06-01T10:00:00"}],"pagination":{"total":1,"page":1,"size":10,"pages":1}}`),
				"GET /api/materiales/3":                      jsonHandler(`{"id":3,"titulo":"Rayuela"}`),
			},
			wantText: []string{"Rayuela", "PENDIENTE", "/my-requests/4/cancel"},
			wantCall: "GET /api/solicitudes/usuario-email/usuario@example.com",
		},
		{
			name: "create request form",
			role: token.RoleUser,
			path: "/create-request",
			routes: map[string]http.HandlerFunc{
				"GET /api/materiales/disponibles": jsonHandler(`{"data":[{"id":3,"titulo":"Rayuela","autor":"Cortázar","cantidad":2}],"pagination":{"total":1,"page":1,"size":100,"pages":1}}`),
			},
			wantText: []string{`value="3"`, "Rayuela - Cortázar"},
			wantCall: "GET /api/materiales/disponibles",
		},
		{
			name: "available materials",
			role: token.RoleAdmin,
			path: "/available-materials",
			routes: map[string]http.HandlerFunc{
				"GET /api/materiales/disponibles": jsonHandler(`{"data":[{"id":1,"titulo":"Dune","autor":"Herbert","cantidad":1}],"pagination":{"total":1,"page":1,"size":10,"pages":1}}`),
			},
			wantText: []string{"Dune"},
			wantCall: "GET /api/materiales/disponibles",
		},
		{
			name: "loaned materials",
			role: token.RoleAdmin,
			path: "/loaned-materials",
			routes: map[string]http.HandlerFunc{
				"GET /api/materiales/en-prestamo": jsonHandler(`[{"tipo":"revista","subtipo":"científica","titulo":"Nature","autor":"Varios","cantidad_prestada":2,"fecha_prestamo":"2025-05-20T09:00:00"}]`),
			},
			wantText: []string{"Nature", "científica", "20/05/2025"},
			wantCall: "GET /api/materiales/en-prestamo",
		},
		{
			name: "magazine requests",
			role: token.RoleAdmin,
			path: "/revista-requests",
			routes: map[string]http.HandlerFunc{
				"GET /api/solicitudes/revistas/detalles": jsonHandler(`{"data":[{"id":2,"nombre_usuario":"Ana Pérez","direccion_usuario":"Calle 1","titulo_material":"Nature","estado":"aprobada"}],"pagination":{"total":1,"page":1,"size":10,"pages":1}}`),
			},
			wantText: []string{"Ana Pérez", "Calle 1", "APROBADA"},
			wantCall: "GET /api/solicitudes/revistas/detalles",
		},
		{
			name: "ordered materials",
			role: token.RoleAdmin,
			path: "/ordered-materials",
			routes: map[string]http.HandlerFunc{
				"GET /api/materiales/ordenados": jsonHandler(`{"data":[{"id":8,"titulo":"Ficciones","autor":"Borges"},{"id":2,"titulo":"Rayuela","autor":"Cortázar"}],"pagination":{"total":2,"page":1,"size":10,"pages":1}}`),
			},
			wantText: []string{"Ficciones", "Borges", "Rayuela"},
			wantCall: "GET /api/materiales/ordenados",
		},
		{
			name: "ordered materials empty",
			role: token.RoleAdmin,
			path: "/ordered-materials",
			routes: map[string]http.HandlerFunc{
				"GET /api/materiales/ordenados": jsonHandler(emptyPage),
			},
			wantText: []string{"No hay materiales registrados."},
			wantCall: "GET /api/materiales/ordenados",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPortal(t, tt.routes)
			p.loginAs(t, tt.role)

			w := p.do(http.MethodGet, tt.path, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
			}
			for _, want := range tt.wantText {
				if !strings.Contains(w.Body.String(), want) {
					t.Errorf("Expected page to contain %q", want)
				}
			}
			method, path, _ := strings.Cut(tt.wantCall, " ")
			if _, ok := p.api.called(method, path); !ok {
				t.Errorf("Expected API call %s", tt.wantCall)
			}
		})
	}
}

func TestOrderedMaterials_AdminOnly(t *testing.T) {
	p := newTestPortal(t, nil)
	p.loginAs(t, token.RoleUser)

	w := p.do(http.MethodGet, "/ordered-materials", nil)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/unauthorized" {
		t.Errorf("Expected redirect to /unauthorized, got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestMyRequests_Cancel(t *testing.T) {
	p := newTestPortal(t, map[string]http.HandlerFunc{
		"PUT /api/solicitudes/4": jsonHandler(`{"id":4,"estado":"cancelada"}`),
	})
	p.loginAs(t, token.RoleUser)

	w := p.do(http.MethodPost, "/my-requests/4/cancel", url.Values{})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/my-requests" {
		t.Fatalf("Expected redirect to /my-requests, got %d: %s", w.Code, w.Body.String())
	}

	call, ok := p.api.called(http.MethodPut, "/api/solicitudes/4")
	if !ok {
		t.Fatal("Expected status update")
	}
	body := decodeBody(t, call)
	if body["estado"] != "cancelada" || body["observaciones"] != "Cancelada por el usuario" {
		t.Errorf("update body = %s", call.Body)
	}
}

func TestCreateRequest_Submit(t *testing.T) {
	p := newTestPortal(t, map[string]http.HandlerFunc{
		"GET /api/auth/me":       jsonHandler(`{"id":9,"nombre":"Ana Pérez","email":"usuario@example.com","carne_identidad":"0801","direccion":"Calle 1","rol":"usuario"}`),
		"POST /api/solicitudes/": jsonHandler(`{"id":11,"usuario_id":9,"material_id":3,"estado":"pendiente"}`),
	})
	p.loginAs(t, token.RoleUser)

	w := p.do(http.MethodPost, "/create-request", url.Values{"material_id": {"3"}, "observaciones": {" para tesis "}})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/my-requests?created=1" {
		t.Fatalf("Expected redirect to /my-requests?created=1, got %d: %s", w.Code, w.Body.String())
	}
	if _, ok := p.api.called(http.MethodGet, "/api/auth/me"); !ok {
		t.Error("Expected the profile to be loaded first")
	}

	call, ok := p.api.called(http.MethodPost, "/api/solicitudes/")
	if !ok {
		t.Fatal("Expected request creation")
	}
	body := decodeBody(t, call)
	want := map[string]any{
		"usuario_id":        float64(9),
		"material_id":       float64(3),
		"nombre_usuario":    "Ana Pérez",
		"carne_identidad":   "0801",
		"direccion_usuario": "Calle 1",
		"observaciones":     "para tesis",
	}
	for k, v := range want {
		if body[k] != v {
			t.Errorf("%s = %v, want %v", k, body[k], v)
		}
	}
}

func TestCreateRequest_MissingMaterial(t *testing.T) {
	p := newTestPortal(t, map[string]http.HandlerFunc{
		"GET /api/materiales/disponibles": jsonHandler(`[]`),
	})
	p.loginAs(t, token.RoleUser)

	w := p.do(http.MethodPost, "/create-request", url.Values{"material_id": {""}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `id="form-error"`) {
		t.Error("Expected inline form error")
	}
	if _, ok := p.api.called(http.MethodPost, "/api/solicitudes/"); ok {
		t.Error("no request should be created")
	}
}

func TestMaterialRequests_ApproveLoanFails(t *testing.T) {
	p := newTestPortal(t, map[string]http.HandlerFunc{
		"GET /api/solicitudes/5": jsonHandler(`{"id":5,"usuario_id":9,"material_id":3,"estado":"pendiente"}`),
		"PUT /api/solicitudes/5": jsonHandler(`{"id":5,"usuario_id":9,"material_id":3,"estado":"aprobada"}`),
		"POST /api/prestamos/": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"detail":"boom"}`))
		},
	})
	p.loginAs(t, token.RoleAdmin)

	w := p.do(http.MethodPost, "/material-requests/5/approve", url.Values{})

	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Solicitud aprobada pero hubo un error al crear el préstamo. Verifique manualmente.") {
		t.Error("Expected the approved-without-loan warning")
	}
	if _, ok := p.api.called(http.MethodPut, "/api/solicitudes/5"); !ok {
		t.Error("Expected the status update to have been sent")
	}
}

func TestMaterialRequests_RequesterDetail(t *testing.T) {
	due := time.Now().AddDate(0, 0, -3).Format("2006-01-02T15:04:05")
	later := time.Now().AddDate(0, 0, 5).Format("2006-01-02T15:04:05")

	p := newTestPortal(t, map[string]http.HandlerFunc{
		"GET /api/solicitudes/{$}": jsonHandler(`{"data":[{"id":5,"usuario_id":9,"material_id":3,"estado":"pendiente"}],"pagination":{"total":1,"page":1,"size":10,"pages":1}}`),
		"GET /api/usuarios/9":      jsonHandler(`{"id":9,"nombre":"Ana Pérez","carne_identidad":"0801","direccion":"Calle 1"}`),
		"GET /api/prestamos/": jsonHandler(`{"data":[
			{"id":21,"usuario_id":9,"material_id":3,"estado":"activo","fecha_devolucion_esperada":"` + due + `"},
			{"id":22,"usuario_id":9,"material_id":4,"estado":"activo","fecha_devolucion_esperada":"` + later + `"},
			{"id":23,"usuario_id":9,"material_id":6,"estado":"devuelto","fecha_devolucion_esperada":"` + due + `","fecha_devolucion_real":"` + due + `"}
		],"pagination":{"total":3,"page":1,"size":100,"pages":1}}`),
		"GET /api/solicitudes/usuario-dni/{dni}": jsonHandler(`{"data":[{"id":2,"usuario_id":9,"material_id":4,"estado":"rechazada"}],"pagination":{"total":1,"page":1,"size":10,"pages":1}}`),
		"GET /api/materiales/3":                  jsonHandler(`{"id":3,"titulo":"Rayuela"}`),
		"GET /api/materiales/4":                  jsonHandler(`{"id":4,"titulo":"Ficciones"}`),
		"GET /api/materiales/6":                  jsonHandler(`{"id":6,"titulo":"Devuelto"}`),
	})
	p.loginAs(t, token.RoleAdmin)

	w := p.do(http.MethodGet, "/material-requests?usuario=9", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	body := w.Body.String()
	for _, want := range []string{`id="requester-detail"`, "Ana Pérez", "0801", "Calle 1", "Vencido", "Al día", "/loans/21/return", "/loans/22/return", "RECHAZADA"} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected panel to contain %q", want)
		}
	}
	if strings.Contains(body, "/loans/23/return") {
		t.Error("returned loans are not active")
	}
	if strings.Count(body, "Vencido") != 1 {
		t.Errorf("Expected exactly one overdue loan, got %d", strings.Count(body, "Vencido"))
	}

	loans, ok := p.api.called(http.MethodGet, "/api/prestamos/")
	if !ok || !strings.Contains(loans.Query, "usuario=0801") {
		t.Errorf("Expected loans filtered by identity card, got %+v", loans)
	}
	if _, ok := p.api.called(http.MethodGet, "/api/solicitudes/usuario-dni/0801"); !ok {
		t.Error("Expected the request history by identity card")
	}
}

func TestMaterialRequests_RequesterDetailUnavailable(t *testing.T) {
	p := newTestPortal(t, map[string]http.HandlerFunc{
		"GET /api/solicitudes/{$}": jsonHandler(`[]`),
		"GET /api/usuarios/9": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"Usuario no encontrado"}`))
		},
	})
	p.loginAs(t, token.RoleAdmin)

	w := p.do(http.MethodGet, "/material-requests?usuario=9", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected the list to render, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `id="requester-detail"`) || !strings.Contains(w.Body.String(), "El recurso solicitado no existe.") {
		t.Error("Expected the panel to show the lookup failure")
	}
}

func TestReturnLoan(t *testing.T) {
	p := newTestPortal(t, map[string]http.HandlerFunc{
		"PUT /api/prestamos/21/devolver": jsonHandler(`{"message":"ok"}`),
	})
	p.loginAs(t, token.RoleAdmin)

	w := p.do(http.MethodPost, "/loans/21/return", url.Values{"usuario_id": {"9"}})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/material-requests?usuario=9" {
		t.Errorf("Expected redirect back to the panel, got %d %q", w.Code, w.Header().Get("Location"))
	}
	if _, ok := p.api.called(http.MethodPut, "/api/prestamos/21/devolver"); !ok {
		t.Error("Expected the return to be sent")
	}
}

func TestDeleteRequest(t *testing.T) {
	p := newTestPortal(t, map[string]http.HandlerFunc{
		"DELETE /api/solicitudes/5": jsonHandler(`{"message":"ok"}`),
	})

	p.loginAs(t, token.RoleUser)
	w := p.do(http.MethodPost, "/material-requests/5/delete", url.Values{})
	if w.Header().Get("Location") != "/unauthorized" {
		t.Errorf("Expected usuario to be turned away, got %q", w.Header().Get("Location"))
	}

	p.loginAs(t, token.RoleAdmin)
	w = p.do(http.MethodPost, "/material-requests/5/delete", url.Values{})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/material-requests" {
		t.Errorf("Expected redirect to /material-requests, got %d", w.Code)
	}
	if _, ok := p.api.called(http.MethodDelete, "/api/solicitudes/5"); !ok {
		t.Error("Expected the delete to be sent")
	}
}

func TestEditMaterial(t *testing.T) {
	p := newTestPortal(t, map[string]http.HandlerFunc{
		"GET /api/materiales/7": jsonHandler(`{"id":7,"titulo":"Dune","autor":"Herbert","tipo":"libro","cantidad":2,"total":3}`),
		"PUT /api/materiales/7": jsonHandler(`{"id":7,"titulo":"Dune Mesías","autor":"Herbert","tipo":"libro","cantidad":1,"total":3}`),
	})
	p.loginAs(t, token.RoleAdmin)

	w := p.do(http.MethodGet, "/materials-management/7/edit", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `value="Dune"`) {
		t.Fatalf("Expected the edit form, got %d", w.Code)
	}

	w = p.do(http.MethodPost, "/materials-management/7", url.Values{
		"titulo":   {"Dune Mesías"},
		"autor":    {" "},
		"cantidad": {"1"},
	})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/materials-management" {
		t.Fatalf("Expected redirect to /materials-management, got %d: %s", w.Code, w.Body.String())
	}

	call, ok := p.api.called(http.MethodPut, "/api/materiales/7")
	if !ok {
		t.Fatal("Expected the update to be sent")
	}
	body := decodeBody(t, call)
	if len(body) != 2 || body["titulo"] != "Dune Mesías" || body["cantidad"] != float64(1) {
		t.Errorf("Expected only the filled fields, got %s", call.Body)
	}
}

func TestEditMaterial_AvailableOverTotal(t *testing.T) {
	p := newTestPortal(t, nil)
	p.loginAs(t, token.RoleAdmin)

	w := p.do(http.MethodPost, "/materials-management/7", url.Values{"cantidad": {"5"}, "total": {"3"}})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), `id="form-error"`) {
		t.Errorf("Expected inline form error, got %d", w.Code)
	}
	if _, ok := p.api.called(http.MethodPut, "/api/materiales/7"); ok {
		t.Error("no update should be sent")
	}
}

func TestSession_IgnoresHostHeaderOutsideDevelopment(t *testing.T) {
	p := newTestPortal(t, map[string]http.HandlerFunc{
		"GET /api/materiales/disponibles": jsonHandler(`[]`),
	}, withEnv(""))
	p.loginAs(t, token.RoleUser)

	req := httptest.NewRequest(http.MethodGet, "/available-materials", nil)
	req.Host = "203.0.113.7:3000"
	req.AddCookie(&http.Cookie{Name: ClientCookie, Value: testClientID})
	w := httptest.NewRecorder()
	p.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if _, ok := p.api.called(http.MethodGet, "/api/materiales/disponibles"); !ok {
		t.Error("Expected the configured upstream to be used, not the Host header")
	}
}
