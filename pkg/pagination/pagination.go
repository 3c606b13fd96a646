package pagination

import (
	"math"
	"net/url"
	"strconv"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 6
	// MaxLimit caps how many rows any page query can request.
	MaxLimit = 100
	// MaxPage keeps page*limit and the next-page number inside int.
	MaxPage = math.MaxInt/MaxLimit - 1
)

// Params holds page-number pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Page is the list envelope returned by paginated endpoints.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Normalize clamps page and limit into their valid ranges.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	p.Limit = NormalizeLimit(p.Limit)
	return p
}

// Offset returns the number of rows to skip for the requested page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// NewPage assembles a Page and derives next/previous links from self, the
// absolute URL of the current request.
func NewPage[T any](self *url.URL, params Params, count int64, results []T) Page[T] {
	params = params.Normalize()
	if results == nil {
		results = []T{}
	}
	page := Page[T]{Count: count, Results: results}
	if self == nil {
		return page
	}
	if int64(params.Page*params.Limit) < count {
		next := withPage(self, params.Page+1)
		page.Next = &next
	}
	if params.Page > 1 {
		prev := withPage(self, params.Page-1)
		page.Previous = &prev
	}
	return page
}

func withPage(self *url.URL, page int) string {
	u := *self
	q := u.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
