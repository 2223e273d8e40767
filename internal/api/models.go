package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Time accepts the timestamps the API emits, with or without a zone.
type Time struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func (t *Time) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized time %q", s)
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// Material is a catalog item: a book, magazine or conference proceedings.
type Material struct {
	ID               int     `json:"id"`
	Titulo           string  `json:"titulo"`
	Autor            string  `json:"autor"`
	Tipo             string  `json:"tipo"`
	Descripcion      string  `json:"descripcion"`
	Ubicacion        string  `json:"ubicacion"`
	Estado           string  `json:"estado"`
	Cantidad         int     `json:"cantidad"`
	Total            int     `json:"total"`
	AnioPublicacion  int     `json:"año_publicacion"`
	FechaAdquisicion Time    `json:"fecha_adquisicion"`
	Activo           bool    `json:"activo"`
	FactorEstancia   float64 `json:"factor_estancia"`
}

// Available reports whether at least one copy can be lent.
func (m Material) Available() bool {
	return m.Cantidad > 0
}

// Material types.
const (
	TipoLibro   = "libro"
	TipoRevista = "revista"
	TipoActa    = "acta"
)

// MaterialInput is the body used to create a material.
type MaterialInput struct {
	Titulo          string `json:"titulo"`
	Autor           string `json:"autor"`
	Tipo            string `json:"tipo"`
	Descripcion     string `json:"descripcion"`
	Ubicacion       string `json:"ubicacion"`
	Estado          string `json:"estado"`
	Cantidad        int    `json:"cantidad"`
	Total           int    `json:"total"`
	AnioPublicacion int    `json:"año_publicacion"`
}

// Validate checks the fields the API would otherwise reject.
func (in MaterialInput) Validate() error {
	var missing []string
	if strings.TrimSpace(in.Titulo) == "" {
		missing = append(missing, "titulo")
	}
	if strings.TrimSpace(in.Autor) == "" {
		missing = append(missing, "autor")
	}
	if strings.TrimSpace(in.Tipo) == "" {
		missing = append(missing, "tipo")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if in.Total < 0 || in.Cantidad < 0 {
		return fmt.Errorf("quantities cannot be negative")
	}
	if in.Cantidad > in.Total {
		return fmt.Errorf("cantidad (%d) cannot exceed total (%d)", in.Cantidad, in.Total)
	}
	return nil
}

// MaterialUpdate is a partial update; nil fields are left unchanged.
type MaterialUpdate struct {
	Titulo          *string `json:"titulo,omitempty"`
	Autor           *string `json:"autor,omitempty"`
	Tipo            *string `json:"tipo,omitempty"`
	Descripcion     *string `json:"descripcion,omitempty"`
	Ubicacion       *string `json:"ubicacion,omitempty"`
	Estado          *string `json:"estado,omitempty"`
	Cantidad        *int    `json:"cantidad,omitempty"`
	Total           *int    `json:"total,omitempty"`
	AnioPublicacion *int    `json:"año_publicacion,omitempty"`
}

// MaterialOnLoan summarizes copies of a material currently lent out.
type MaterialOnLoan struct {
	Tipo             string  `json:"tipo"`
	Subtipo          string  `json:"subtipo,omitempty"`
	Titulo           string  `json:"titulo"`
	Autor            string  `json:"autor"`
	CantidadPrestada int     `json:"cantidad_prestada"`
	FechaPrestamo    Time    `json:"fecha_prestamo"`
	FactorEstancia   float64 `json:"factor_estancia"`
}

// Loan request states.
const (
	EstadoPendiente = "pendiente"
	EstadoAprobada  = "aprobada"
	EstadoRechazada = "rechazada"
	EstadoCancelada = "cancelada"
)

// LoanRequest is a user's request to borrow a material.
type LoanRequest struct {
	ID             int    `json:"id"`
	UsuarioID      int    `json:"usuario_id"`
	MaterialID     int    `json:"material_id"`
	FechaSolicitud Time   `json:"fecha_solicitud"`
	Estado         string `json:"estado"`
	Observaciones  string `json:"observaciones,omitempty"`
	Activo         bool   `json:"activo"`
}

// Pending reports whether an administrator still has to decide.
func (r LoanRequest) Pending() bool {
	return r.Estado == EstadoPendiente
}

// LoanRequestInput is the body used to create a loan request.
type LoanRequestInput struct {
	UsuarioID        int    `json:"usuario_id"`
	MaterialID       int    `json:"material_id"`
	NombreUsuario    string `json:"nombre_usuario,omitempty"`
	CarneIdentidad   string `json:"carne_identidad,omitempty"`
	DireccionUsuario string `json:"direccion_usuario,omitempty"`
	Observaciones    string `json:"observaciones,omitempty"`
}

// LoanRequestUpdate changes the state of a loan request.
type LoanRequestUpdate struct {
	Estado        string `json:"estado,omitempty"`
	Observaciones string `json:"observaciones,omitempty"`
}

// MagazineRequest is a loan request for a magazine with its details joined.
type MagazineRequest struct {
	ID               int    `json:"id"`
	NombreUsuario    string `json:"nombre_usuario"`
	DireccionUsuario string `json:"direccion_usuario"`
	TituloMaterial   string `json:"titulo_material"`
	FechaSolicitud   Time   `json:"fecha_solicitud"`
	Estado           string `json:"estado"`
	Observaciones    string `json:"observaciones,omitempty"`
}

// Loan is an active or returned loan.
type Loan struct {
	ID                      int    `json:"id"`
	UsuarioID               int    `json:"usuario_id"`
	MaterialID              int    `json:"material_id"`
	FechaPrestamo           Time   `json:"fecha_prestamo"`
	FechaDevolucionEsperada Time   `json:"fecha_devolucion_esperada"`
	FechaDevolucionReal     *Time  `json:"fecha_devolucion_real,omitempty"`
	Estado                  string `json:"estado"`
	Activo                  bool   `json:"activo"`
}

// Loan states.
const (
	LoanActivo   = "activo"
	LoanDevuelto = "devuelto"
)

// Active reports whether the material is still out.
func (l Loan) Active() bool {
	return strings.EqualFold(l.Estado, LoanActivo)
}

// Overdue reports whether the loan is still out past its expected return.
func (l Loan) Overdue(now time.Time) bool {
	return l.FechaDevolucionReal == nil && !l.FechaDevolucionEsperada.IsZero() && now.After(l.FechaDevolucionEsperada.Time)
}

// LoanInput is the body used to create a loan.
type LoanInput struct {
	UsuarioID  int `json:"usuario_id"`
	MaterialID int `json:"material_id"`
}

// LoanDetail is a loan with the material it refers to.
type LoanDetail struct {
	ID              int    `json:"id"`
	MaterialID      int    `json:"material_id"`
	Titulo          string `json:"titulo"`
	Autor           string `json:"autor"`
	FechaPrestamo   Time   `json:"fecha_prestamo"`
	FechaLimite     Time   `json:"fecha_limite"`
	FechaDevolucion *Time  `json:"fecha_devolucion,omitempty"`
	Estado          string `json:"estado"`
}

// Overdue reports whether the loan is still out past its due date.
func (l LoanDetail) Overdue(now time.Time) bool {
	return l.FechaDevolucion == nil && !l.FechaLimite.IsZero() && now.After(l.FechaLimite.Time)
}

// User is an account as the API reports it.
type User struct {
	ID             int    `json:"id"`
	Nombre         string `json:"nombre"`
	Email          string `json:"email"`
	CarneIdentidad string `json:"carne_identidad"`
	Direccion      string `json:"direccion"`
	Rol            string `json:"rol"`
	Activo         bool   `json:"activo"`
}

// RegisterRequest is the body used to create an account.
type RegisterRequest struct {
	Nombre         string `json:"nombre"`
	CarneIdentidad string `json:"carne_identidad"`
	Direccion      string `json:"direccion"`
	Email          string `json:"email"`
	Password       string `json:"password"`
}
