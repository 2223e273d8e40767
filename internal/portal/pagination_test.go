package portal

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"biblio/internal/api"
)

func numbers(links []PageLink) (pages, gaps []int) {
	for _, l := range links {
		if l.Gap {
			gaps = append(gaps, l.Number)
		} else {
			pages = append(pages, l.Number)
		}
	}
	return pages, gaps
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPageWindow(t *testing.T) {
	tests := []struct {
		name      string
		current   int
		pages     int
		wantPages []int
		wantGaps  []int
	}{
		{"single page", 1, 1, []int{1}, nil},
		{"few pages", 2, 4, []int{1, 2, 3, 4}, nil},
		{"middle of many", 5, 10, []int{1, 3, 4, 5, 6, 7, 10}, []int{2, 8}},
		{"start of many", 1, 10, []int{1, 2, 3, 10}, []int{4}},
		{"end of many", 10, 10, []int{1, 8, 9, 10}, []int{7}},
		{"current out of range", 42, 6, []int{1, 4, 5, 6}, []int{3}},
		{"no pages", 1, 0, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages, gaps := numbers(pageWindow(tt.current, tt.pages))
			if !equalInts(pages, tt.wantPages) {
				t.Errorf("pages = %v, want %v", pages, tt.wantPages)
			}
			if !equalInts(gaps, tt.wantGaps) {
				t.Errorf("gaps = %v, want %v", gaps, tt.wantGaps)
			}
		})
	}
}

func TestPageWindow_MarksCurrent(t *testing.T) {
	for _, l := range pageWindow(3, 5) {
		if l.Current != (l.Number == 3) {
			t.Errorf("page %d Current = %v", l.Number, l.Current)
		}
	}
}

func TestPager(t *testing.T) {
	if newPager("/x", nil, api.Pagination{Total: 3, Page: 1, Size: 10, Pages: 1}) != nil {
		t.Error("a single page needs no pager")
	}

	p := newPager("/material-requests", url.Values{"estado": {"pendiente"}}, api.Pagination{Total: 25, Page: 3, Size: 10, Pages: 3})
	if p.Prev != 2 || p.Next != 0 {
		t.Errorf("Prev/Next = %d/%d", p.Prev, p.Next)
	}
	if p.From != 21 || p.To != 25 {
		t.Errorf("From/To = %d/%d", p.From, p.To)
	}
	if got := p.URL(1); got != "/material-requests?estado=pendiente&page=1" {
		t.Errorf("URL(1) = %q", got)
	}
}

func TestErrorMessageAndStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"network", &api.NetworkError{Op: "GET", URL: "http://x", Err: errors.New("refused")}, http.StatusBadGateway},
		{"malformed", api.ErrMalformedResponse, http.StatusBadGateway},
		{"forbidden", &api.APIError{Status: http.StatusForbidden}, http.StatusForbidden},
		{"validation", &api.APIError{Status: http.StatusUnprocessableEntity, Detail: "field required"}, http.StatusUnprocessableEntity},
		{"server error", &api.APIError{Status: http.StatusInternalServerError}, http.StatusBadGateway},
		{"invalid input", &api.ProgrammingError{Err: errors.New("missing titulo")}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.wantStatus {
				t.Errorf("statusFor = %d, want %d", got, tt.wantStatus)
			}
			if errorMessage(tt.err) == "" {
				t.Error("errorMessage must never be empty")
			}
		})
	}

	if got := errorMessage(&api.APIError{Status: http.StatusBadRequest, Detail: "Email ya registrado"}); got != "Email ya registrado" {
		t.Errorf("errorMessage = %q", got)
	}
}
