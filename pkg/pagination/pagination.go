package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// FromRequest reads page and per_page. Invalid or out-of-range values fall
// back to page 1 and DefaultPerPage; per_page above MaxPerPage is clamped.
func FromRequest(r *http.Request) Params {
	q := r.URL.Query()
	p := Params{Page: 1, PerPage: DefaultPerPage}

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil && v > 0 {
		p.PerPage = min(v, MaxPerPage)
	}

	p.Offset = (p.Page - 1) * p.PerPage
	return p
}
