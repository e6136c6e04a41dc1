package shared

import (
	"net/http"
	"net/url"
	"strconv"

	"hris/internal/transport/http/api"
)

type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads ?limit and ?offset. Malformed or out-of-range values
// fall back to the defaults, and limit never exceeds maxLimit.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	q := r.URL.Query()
	p := Pagination{
		Limit:  queryInt(q, "limit", defaultLimit, 1),
		Offset: queryInt(q, "offset", 0, 0),
	}
	if maxLimit > 0 {
		p.Limit = min(p.Limit, maxLimit)
	}
	return p
}

func queryInt(q url.Values, key string, fallback, floor int) int {
	raw := q.Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < floor {
		return fallback
	}
	return v
}

// PageOf cuts the requested window out of a fully loaded list.
func PageOf[T any](items []T, p Pagination) api.Page {
	total := len(items)
	start := min(p.Offset, total)
	end := total
	if p.Limit > 0 {
		end = min(start+p.Limit, total)
	}
	return api.NewPage(items[start:end], total, p.Limit, p.Offset)
}

// Paged wraps a window the store already cut, with the store's total.
func Paged[T any](items []T, total int, p Pagination) api.Page {
	return api.NewPage(items, total, p.Limit, p.Offset)
}
