package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	presignhttp "github.com/pkgfetch/s3presign/http"
)

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	handler := presignhttp.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = presignhttp.GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sign", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-Id"))
}

func TestRequestIDHonorsHeader(t *testing.T) {
	var seen string
	handler := presignhttp.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = presignhttp.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/sign", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
}

func TestGetRequestIDMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, presignhttp.GetRequestID(req.Context()))
}
