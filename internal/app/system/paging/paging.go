// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

const (
	// DefaultPageSize is used when the request does not name one.
	DefaultPageSize = 10
	// MaxPageSize caps client-requested page sizes.
	MaxPageSize = 100
)

// Params is a 1-based page request.
type Params struct {
	PageSize   int
	PageNumber int
}

// Skip returns the number of rows before the requested page.
func (p Params) Skip() int64 {
	return int64((p.PageNumber - 1) * p.PageSize)
}

// Limit returns the page size as int64 for Mongo options.
func (p Params) Limit() int64 {
	return int64(p.PageSize)
}

// Parse reads pageSize and pageNumber from the query string. Missing or
// invalid values fall back to the defaults; pageSize is clamped to
// MaxPageSize.
func Parse(r *http.Request) Params {
	p := Params{
		PageSize:   positiveInt(query.Get(r, "pageSize"), DefaultPageSize),
		PageNumber: positiveInt(query.Get(r, "pageNumber"), 1),
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func positiveInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Info is the pagination block returned alongside a page of results.
type Info struct {
	PageSize   int   `json:"pageSize"`
	PageNumber int   `json:"pageNumber"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int64 `json:"totalPages"`
	Skip       int64 `json:"skip"`
}

// NewInfo computes the pagination block for total matching rows.
func NewInfo(p Params, total int64) Info {
	pages := int64(0)
	if p.PageSize > 0 {
		pages = (total + int64(p.PageSize) - 1) / int64(p.PageSize)
	}
	return Info{
		PageSize:   p.PageSize,
		PageNumber: p.PageNumber,
		TotalCount: total,
		TotalPages: pages,
		Skip:       p.Skip(),
	}
}
