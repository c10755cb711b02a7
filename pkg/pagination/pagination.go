// Package pagination parses page/limit query parameters and shapes paginated
// responses.
package pagination

import (
	"net/http"
	"strconv"
)

// MaxPerPage caps the page size regardless of what the client asks for.
const MaxPerPage = 100

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// NewParams normalizes page and perPage: page below 1 becomes 1, perPage
// outside 1..MaxPerPage becomes defaultPerPage.
func NewParams(page, perPage, defaultPerPage int) Params {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > MaxPerPage {
		perPage = defaultPerPage
	}
	return Params{Page: page, PerPage: perPage, Offset: (page - 1) * perPage}
}

// FromRequest reads "page" and "limit" (or "per_page") from the query string.
// Invalid values fall back to page 1 and defaultPerPage.
func FromRequest(r *http.Request, defaultPerPage int) Params {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))

	raw := q.Get("limit")
	if raw == "" {
		raw = q.Get("per_page")
	}
	perPage, _ := strconv.Atoi(raw)

	return NewParams(page, perPage, defaultPerPage)
}

// Result wraps one page of data with its position in the full set.
type Result[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewResult creates a paginated result. A nil data slice is encoded as [].
func NewResult[T any](data []T, totalCount int, params Params) Result[T] {
	totalPages := 0
	if params.PerPage > 0 {
		totalPages = (totalCount + params.PerPage - 1) / params.PerPage
	}
	if data == nil {
		data = []T{}
	}

	return Result[T]{
		Data:       data,
		TotalCount: totalCount,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}
