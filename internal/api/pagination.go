package api

import (
	"net/http"
	"strconv"
)

// Pagination defaults.
const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// Pagination describes the page window of a list response.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// PagedResponse is the envelope for paginated list endpoints.
type PagedResponse struct {
	Items      any        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// pageParams extracts page and limit query parameters with defaults.
// Out-of-range values are clamped rather than rejected.
func pageParams(r *http.Request) (page, limit int) {
	page = defaultPage
	limit = defaultLimit

	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = min(n, maxLimit)
		}
	}
	return page, limit
}

// paginate slices items into the requested page window.
func paginate[T any](items []T, page, limit int) PagedResponse {
	total := len(items)
	totalPages := (total + limit - 1) / limit

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := min(start+limit, total)

	return PagedResponse{
		Items: items[start:end],
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    end < total,
			HasPrev:    page > 1,
		},
	}
}
