package pagination

import (
	"net/url"
	"strconv"
)

// Params describe one page of an offset-paginated listing.
type Params struct {
	Page    int
	PerPage int
}

// Envelope is the wire shape of every paginated response.
type Envelope struct {
	Items   any   `json:"items"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
}

// ParsePage reads the page query parameter. Absent, malformed, or
// non-positive values fall back to page 1.
func ParsePage(query url.Values, perPage int) Params {
	page := 1
	if raw := query.Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}
	return Params{Page: page, PerPage: perPage}
}

// ParsePageSize reads both page and per_page, clamping per_page to
// [1, max] with the given default. Used where the page size is
// client-tunable.
func ParsePageSize(query url.Values, defaultPerPage, max int) Params {
	perPage := defaultPerPage
	if raw := query.Get("per_page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			perPage = parsed
		}
	}
	if perPage < 1 {
		perPage = 1
	}
	if perPage > max {
		perPage = max
	}
	return ParsePage(query, perPage)
}

// Offset is the SQL OFFSET for the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// NewEnvelope wraps items with paging metadata. Pages is the ceiling of
// total/perPage, zero when the collection is empty.
func NewEnvelope(items any, p Params, total int64) Envelope {
	pages := 0
	if total > 0 {
		pages = int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	}
	return Envelope{
		Items:   items,
		Page:    p.Page,
		PerPage: p.PerPage,
		Total:   total,
		Pages:   pages,
	}
}
