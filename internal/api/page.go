package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Pagination describes where a page sits in a listing.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Pages int `json:"pages"`
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// UnmarshalJSON accepts the {data, pagination} envelope or a bare array,
// which is read as a single page holding every item.
func (p *Page[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var items []T
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		p.Data = items
		p.Pagination = Pagination{Total: len(items), Page: 1, Size: len(items), Pages: 1}
		return nil
	}

	var env struct {
		Data       *[]T        `json:"data"`
		Pagination *Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	if env.Data == nil {
		return fmt.Errorf("%w: envelope without data", ErrMalformedResponse)
	}
	if env.Pagination == nil {
		return fmt.Errorf("%w: envelope without pagination", ErrMalformedResponse)
	}
	p.Data = *env.Data
	p.Pagination = *env.Pagination
	return nil
}

// PageRequest selects a page of a listing. Zero values use the API defaults.
type PageRequest struct {
	Page int
	Size int
}

func (r PageRequest) values() url.Values {
	q := url.Values{}
	if r.Page > 0 {
		q.Set("page", strconv.Itoa(r.Page))
	}
	if r.Size > 0 {
		q.Set("size", strconv.Itoa(r.Size))
	}
	return q
}
