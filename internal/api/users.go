package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// UserService handles the /usuarios endpoints.
type UserService service

// List returns up to limit users after skipping skip.
func (s *UserService) List(ctx context.Context, skip, limit int) ([]User, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))

	var out []User
	if err := s.client.get(ctx, "/usuarios/", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id int) (*User, error) {
	var u User
	if err := s.client.get(ctx, fmt.Sprintf("/usuarios/%d", id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
