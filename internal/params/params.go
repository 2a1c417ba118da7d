package params

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// URL: /api/products?page=2&limit=30
// → ParsePagination() → Pagination{Limit:30, Page:2, Offset:30}
// → store runs count + page queries with the same predicate
// → ComputeMeta(total) → fills TotalPages, HasNext, etc.
// Pagination holds pagination info and computed metadata.
type Pagination struct {
	Limit      int  `json:"limit"`
	Offset     int  `json:"-"`
	Page       int  `json:"page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// Error reports a query parameter that could not be parsed.
type Error struct {
	Param string
	Value string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s must be an integer, got %q", e.Param, e.Value)
}

// ParsePagination parses ?page=...&limit=... Keys are case sensitive.
// A page below 1 is clamped to 1, a limit of 0 or less falls back to
// DefaultLimit and a limit above MaxLimit is capped. A page so large that
// its offset would overflow is clamped to MaxPage. Values that are not
// integers are rejected.
func ParsePagination(q url.Values) (Pagination, error) {
	p := Pagination{
		Limit: DefaultLimit,
		Page:  DefaultPage,
	}

	if limitStr := strings.TrimSpace(q.Get("limit")); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return p, &Error{Param: "limit", Value: limitStr}
		}
		p.Limit = ClampLimit(limit)
	}

	if pageStr := strings.TrimSpace(q.Get("page")); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			return p, &Error{Param: "page", Value: pageStr}
		}
		if page > 0 {
			p.Page = min(page, MaxPage(p.Limit))
		}
	}

	p.Offset = (p.Page - 1) * p.Limit
	return p, nil
}

// MaxPage is the largest page whose offset still fits in an int.
func MaxPage(limit int) int {
	if limit <= 0 {
		return math.MaxInt
	}
	return math.MaxInt / limit
}

// ClampLimit maps a requested page size into [1, MaxLimit].
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// ComputeMeta updates pagination after fetching total count.
func (p *Pagination) ComputeMeta(total int) {
	p.Total = total
	if p.Limit > 0 {
		p.TotalPages = int(math.Ceil(float64(total) / float64(p.Limit)))
	}
	p.HasPrev = p.Page > 1
	p.HasNext = p.Page < p.TotalPages
}
