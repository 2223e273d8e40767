package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedResponse is returned when a response does not have the
// expected shape.
var ErrMalformedResponse = errors.New("malformed response")

// NetworkError is returned when a request never produced a response.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError is returned when the API answered with a non-2xx status.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api error: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api error: %d %s", e.Status, e.Detail)
}

// Unauthorized reports whether the API rejected the caller's credentials.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// ProgrammingError is returned when a request could not even be built.
type ProgrammingError struct {
	Err error
}

func (e *ProgrammingError) Error() string {
	return fmt.Sprintf("invalid request: %v", e.Err)
}

func (e *ProgrammingError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Unauthorized()
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
