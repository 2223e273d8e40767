package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// LoanService handles the /prestamos endpoints.
type LoanService service

// Create lends a material to a user.
func (s *LoanService) Create(ctx context.Context, in LoanInput) (*Loan, error) {
	var l Loan
	if err := s.client.send(ctx, http.MethodPost, "/prestamos/", in, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// LoanFilter narrows a loan listing.
type LoanFilter struct {
	PageRequest
	// Usuario is the identity card of the borrower.
	Usuario string
}

// List returns one page of loans.
func (s *LoanService) List(ctx context.Context, f LoanFilter) (*Page[Loan], error) {
	q := f.values()
	if f.Usuario != "" {
		q.Set("usuario", f.Usuario)
	}

	var page Page[Loan]
	if err := s.client.get(ctx, "/prestamos/", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ByClient returns every loan of the user holding identity card carne, with
// the material details.
func (s *LoanService) ByClient(ctx context.Context, carne string) ([]LoanDetail, error) {
	var out []LoanDetail
	if err := s.client.get(ctx, "/prestamos/cliente/"+url.PathEscape(carne), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Return marks a loan as given back.
func (s *LoanService) Return(ctx context.Context, id int) error {
	return s.client.send(ctx, http.MethodPut, fmt.Sprintf("/prestamos/%d/devolver", id), nil, nil)
}
