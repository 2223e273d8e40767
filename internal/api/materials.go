package api

import (
	"context"
	"fmt"
	"net/http"
)

// MaterialService handles the /materiales endpoints.
type MaterialService service

// MaterialFilter narrows a catalog listing. Empty fields are ignored.
type MaterialFilter struct {
	PageRequest
	Titulo string
	Autor  string
	Tipo   string
	Estado string
}

// List returns one page of the catalog.
func (s *MaterialService) List(ctx context.Context, f MaterialFilter) (*Page[Material], error) {
	q := f.values()
	for key, value := range map[string]string{
		"titulo": f.Titulo,
		"autor":  f.Autor,
		"tipo":   f.Tipo,
		"estado": f.Estado,
	} {
		if value != "" {
			q.Set(key, value)
		}
	}

	var page Page[Material]
	if err := s.client.get(ctx, "/materiales/", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Available returns materials with at least one copy left to lend.
func (s *MaterialService) Available(ctx context.Context, p PageRequest) (*Page[Material], error) {
	var page Page[Material]
	if err := s.client.get(ctx, "/materiales/disponibles", p.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Ordered returns active materials sorted by author, then title.
func (s *MaterialService) Ordered(ctx context.Context, p PageRequest) (*Page[Material], error) {
	var page Page[Material]
	if err := s.client.get(ctx, "/materiales/ordenados", p.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get returns one material.
func (s *MaterialService) Get(ctx context.Context, id int) (*Material, error) {
	var m Material
	if err := s.client.get(ctx, fmt.Sprintf("/materiales/%d", id), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Create adds a material to the catalog.
func (s *MaterialService) Create(ctx context.Context, in MaterialInput) (*Material, error) {
	if err := in.Validate(); err != nil {
		return nil, &ProgrammingError{Err: err}
	}
	var m Material
	if err := s.client.send(ctx, http.MethodPost, "/materiales/", in, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Update changes the given fields of a material.
func (s *MaterialService) Update(ctx context.Context, id int, in MaterialUpdate) (*Material, error) {
	var m Material
	if err := s.client.send(ctx, http.MethodPut, fmt.Sprintf("/materiales/%d", id), in, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Delete removes a material from the catalog.
func (s *MaterialService) Delete(ctx context.Context, id int) error {
	return s.client.send(ctx, http.MethodDelete, fmt.Sprintf("/materiales/%d", id), nil, nil)
}

// OnLoan lists materials that currently have copies lent out.
func (s *MaterialService) OnLoan(ctx context.Context) ([]MaterialOnLoan, error) {
	var out []MaterialOnLoan
	if err := s.client.get(ctx, "/materiales/en-prestamo", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
