// Package pagination parses page/per_page query parameters for list endpoints.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPerPage = 50
	MaxPerPage     = 200
)

// Page holds the requested window and, once applied, the result totals.
type Page struct {
	Number  int // 1-based
	PerPage int
	Total   int
	HasNext bool
	HasPrev bool
}

// Offset returns the SQL OFFSET for this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Limit returns the SQL LIMIT for this page.
func (p Page) Limit() int {
	return p.PerPage
}

func (p Page) TotalPages() int {
	if p.Total <= 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

// FromRequest parses page and per_page from the query string. Bad or out of
// range values fall back to the defaults.
func FromRequest(r *http.Request, defaultPerPage int) Page {
	if defaultPerPage <= 0 {
		defaultPerPage = DefaultPerPage
	}

	page := 1
	if s := r.URL.Query().Get("page"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			page = n
		}
	}

	perPage := defaultPerPage
	if s := r.URL.Query().Get("per_page"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= MaxPerPage {
			perPage = n
		}
	}

	return Page{Number: page, PerPage: perPage, Total: -1}
}

// Apply sets Total from a count and computes HasPrev/HasNext.
func (p *Page) Apply(total int) {
	p.Total = total
	p.HasPrev = p.Number > 1
	p.HasNext = p.Number < p.TotalPages()
}
