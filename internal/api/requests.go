package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// RequestService handles the /solicitudes endpoints.
type RequestService service

// List returns one page of loan requests, optionally only those in estado.
func (s *RequestService) List(ctx context.Context, estado string, p PageRequest) (*Page[LoanRequest], error) {
	q := p.values()
	if estado != "" {
		q.Set("estado", estado)
	}

	var page Page[LoanRequest]
	if err := s.client.get(ctx, "/solicitudes/", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ByUser returns the requests of the user holding identity card dni.
func (s *RequestService) ByUser(ctx context.Context, dni string, p PageRequest) (*Page[LoanRequest], error) {
	var page Page[LoanRequest]
	path := "/solicitudes/usuario-dni/" + url.PathEscape(dni)
	if err := s.client.get(ctx, path, p.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ByEmail returns the requests of the user logged in as email.
func (s *RequestService) ByEmail(ctx context.Context, email string, p PageRequest) (*Page[LoanRequest], error) {
	var page Page[LoanRequest]
	path := "/solicitudes/usuario-email/" + url.PathEscape(email)
	if err := s.client.get(ctx, path, p.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get returns one loan request.
func (s *RequestService) Get(ctx context.Context, id int) (*LoanRequest, error) {
	var r LoanRequest
	if err := s.client.get(ctx, fmt.Sprintf("/solicitudes/%d", id), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Create files a new loan request.
func (s *RequestService) Create(ctx context.Context, in LoanRequestInput) (*LoanRequest, error) {
	if in.UsuarioID <= 0 || in.MaterialID <= 0 {
		return nil, &ProgrammingError{Err: fmt.Errorf("usuario_id and material_id are required")}
	}
	var r LoanRequest
	if err := s.client.send(ctx, http.MethodPost, "/solicitudes/", in, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateStatus moves a loan request to estado.
func (s *RequestService) UpdateStatus(ctx context.Context, id int, estado, observaciones string) (*LoanRequest, error) {
	var r LoanRequest
	body := LoanRequestUpdate{Estado: estado, Observaciones: observaciones}
	if err := s.client.send(ctx, http.MethodPut, fmt.Sprintf("/solicitudes/%d", id), body, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Delete removes a loan request.
func (s *RequestService) Delete(ctx context.Context, id int) error {
	return s.client.send(ctx, http.MethodDelete, fmt.Sprintf("/solicitudes/%d", id), nil, nil)
}

// Magazines returns magazine requests with user and title details.
func (s *RequestService) Magazines(ctx context.Context, p PageRequest) (*Page[MagazineRequest], error) {
	var page Page[MagazineRequest]
	if err := s.client.get(ctx, "/solicitudes/revistas/detalles", p.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}
