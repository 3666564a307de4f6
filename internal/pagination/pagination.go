// Package pagination provides the page envelope returned by list endpoints
// and the parsing of page/limit query parameters.
package pagination

import (
	"net/url"
	"strconv"
)

const (
	MinPage      = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Paginate is a requested page window.
type Paginate struct {
	Page  int
	Limit int
}

// Offset returns the number of rows to skip for this page.
func (p Paginate) Offset() int {
	return (p.Page - 1) * p.Limit
}

// MakeFrom reads "page" and "limit" from query values. Missing or invalid
// values fall back to the first page and DefaultLimit; limits are capped at
// MaxLimit.
func MakeFrom(q url.Values) Paginate {
	page := MinPage
	limit := DefaultLimit

	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		limit = v
	}

	return Normalize(page, limit)
}

// Normalize clamps page and limit into their valid ranges.
func Normalize(page, limit int) Paginate {
	if page < MinPage {
		page = MinPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Paginate{Page: page, Limit: limit}
}

// Page holds the data for a single page along with all pagination metadata.
//
// NextPage and PreviousPage are pointers so they are omitted from JSON
// when there is no next or previous page.
type Page[T any] struct {
	Data         []T   `json:"data"`
	Page         int   `json:"page"`
	Total        int64 `json:"total"`
	PageSize     int   `json:"page_size"`
	TotalPages   int   `json:"total_pages"`
	NextPage     *int  `json:"next_page,omitempty"`
	PreviousPage *int  `json:"previous_page,omitempty"`
}

// Make builds a page envelope from one page of data and the total count.
func Make[T any](data []T, p Paginate, total int64) *Page[T] {
	if data == nil {
		data = []T{}
	}
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))

	page := &Page[T]{
		Data:       data,
		Page:       p.Page,
		Total:      total,
		PageSize:   limit,
		TotalPages: totalPages,
	}
	if page.Page < totalPages {
		next := page.Page + 1
		page.NextPage = &next
	}
	if page.Page > 1 && page.Page <= totalPages {
		prev := page.Page - 1
		page.PreviousPage = &prev
	}
	return page
}

// Map converts a page of S into a page of D, preserving the metadata.
func Map[S, D any](src *Page[S], fn func(S) D) *Page[D] {
	out := make([]D, len(src.Data))
	for i, item := range src.Data {
		out[i] = fn(item)
	}
	return &Page[D]{
		Data:         out,
		Page:         src.Page,
		Total:        src.Total,
		PageSize:     src.PageSize,
		TotalPages:   src.TotalPages,
		NextPage:     src.NextPage,
		PreviousPage: src.PreviousPage,
	}
}
