package portal

import (
	"net/url"
	"strconv"

	"biblio/internal/api"
)

// PageLink is one button of a pagination bar. Gap marks an ellipsis.
type PageLink struct {
	Number  int
	Current bool
	Gap     bool
}

// pageWindow lists the buttons for a bar over pages: the first and last
// page, the current page and two on each side, with an ellipsis right
// outside that window.
func pageWindow(current, pages int) []PageLink {
	if pages < 1 {
		return nil
	}
	current = min(max(current, 1), pages)

	var links []PageLink
	for p := 1; p <= pages; p++ {
		switch {
		case p == 1 || p == pages || (p >= current-2 && p <= current+2):
			links = append(links, PageLink{Number: p, Current: p == current})
		case p == current-3 || p == current+3:
			links = append(links, PageLink{Number: p, Gap: true})
		}
	}
	return links
}

// Pager is the pagination bar handed to templates.
type Pager struct {
	Links []PageLink
	Prev  int
	Next  int
	Total int
	From  int
	To    int
	query url.Values
	path  string
}

func newPager(path string, query url.Values, p api.Pagination) *Pager {
	if p.Pages <= 1 {
		return nil
	}
	pg := &Pager{
		Links: pageWindow(p.Page, p.Pages),
		Total: p.Total,
		query: query,
		path:  path,
	}
	if p.Page > 1 {
		pg.Prev = p.Page - 1
	}
	if p.Page < p.Pages {
		pg.Next = p.Page + 1
	}
	if p.Size > 0 {
		pg.From = (p.Page-1)*p.Size + 1
		pg.To = min(p.Page*p.Size, p.Total)
	}
	return pg
}

// URL returns the address of page n with the current filters kept.
func (p *Pager) URL(n int) string {
	q := url.Values{}
	for k, v := range p.query {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(n))
	return p.path + "?" + q.Encode()
}
