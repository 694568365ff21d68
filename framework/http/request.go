package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"
)

// Request wraps *http.Request with query and route helpers.
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Raw returns the underlying *http.Request.
func (req *Request) Raw() *http.Request { return req.raw }

// Query returns a query-string value.
func (req *Request) Query(key string, fallback ...string) string {
	v := req.raw.URL.Query().Get(key)
	if v == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return v
}

// QueryBool parses a query-string flag. A present flag without a value
// ("?cached") counts as true; unparsable values yield fallback.
func (req *Request) QueryBool(key string, fallback bool) bool {
	q := req.raw.URL.Query()
	if !q.Has(key) {
		return fallback
	}
	v := q.Get(key)
	if v == "" {
		return true
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return fallback
	}
	return b
}

// Has reports whether the query string carries key.
func (req *Request) Has(key string) bool {
	return req.raw.URL.Query().Has(key)
}

// RouteParam returns a URL route parameter (chi).
func (req *Request) RouteParam(key string) string {
	return chi.URLParam(req.raw, key)
}

// Header returns a request header value.
func (req *Request) Header(key string) string {
	return req.raw.Header.Get(key)
}
