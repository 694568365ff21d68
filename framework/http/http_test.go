package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gohttp "github.com/km-arc/go-beans/framework/http"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newResponse(t *testing.T) (*gohttp.Response, *httptest.ResponseRecorder) {
	t.Helper()
	rr := httptest.NewRecorder()
	return gohttp.NewResponse(rr), rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&m))
	return m
}

// ── Response ──────────────────────────────────────────────────────────────────

func TestResponse_JSON(t *testing.T) {
	res, rr := newResponse(t)
	res.JSON(http.StatusOK, map[string]any{"key": "val"})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "val", decodeJSON(t, rr)["key"])
}

func TestResponse_Success(t *testing.T) {
	res, rr := newResponse(t)
	res.Success([]string{"a", "b"})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []any{"a", "b"}, decodeJSON(t, rr)["data"])
}

func TestResponse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		send   func(*gohttp.Response)
		status int
		msg    string
	}{
		{"Error", func(r *gohttp.Response) { r.Error(http.StatusConflict, "busy") }, http.StatusConflict, "busy"},
		{"NotFound default", func(r *gohttp.Response) { r.NotFound() }, http.StatusNotFound, "Not found."},
		{"NotFound custom", func(r *gohttp.Response) { r.NotFound("no bean") }, http.StatusNotFound, "no bean"},
		{"ServerError", func(r *gohttp.Response) { r.ServerError() }, http.StatusInternalServerError, "Server Error."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, rr := newResponse(t)
			tt.send(res)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.msg, decodeJSON(t, rr)["message"])
		})
	}
}

// ── Request ───────────────────────────────────────────────────────────────────

func TestRequest_Query(t *testing.T) {
	req := gohttp.NewRequest(httptest.NewRequest(http.MethodGet, "/beans?scope=prototype&cached&lazy=0&bad=maybe", nil))

	assert.Equal(t, "prototype", req.Query("scope"))
	assert.Equal(t, "all", req.Query("missing", "all"))
	assert.True(t, req.Has("cached"))
	assert.False(t, req.Has("missing"))

	assert.True(t, req.QueryBool("cached", false))
	assert.False(t, req.QueryBool("lazy", true))
	assert.True(t, req.QueryBool("bad", true))
	assert.False(t, req.QueryBool("missing", false))
}

func TestRequest_RouteParamAndHeader(t *testing.T) {
	r := chi.NewRouter()
	var name, accept string
	r.Get("/beans/{name}", func(w http.ResponseWriter, raw *http.Request) {
		req := gohttp.NewRequest(raw)
		name = req.RouteParam("name")
		accept = req.Header("Accept")
		assert.Same(t, raw, req.Raw())
	})

	raw := httptest.NewRequest(http.MethodGet, "/beans/service", nil)
	raw.Header.Set("Accept", "application/json")
	r.ServeHTTP(httptest.NewRecorder(), raw)

	assert.Equal(t, "service", name)
	assert.Equal(t, "application/json", accept)
}
