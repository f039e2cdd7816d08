package logging

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func TestAccessLog(t *testing.T) {
	var out strings.Builder
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := middleware.RequestID(AccessLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	})))

	for _, path := range []string{"/health", "/metrics"} {
		out.Reset()
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
		assert.Empty(t, out.String(), path)
	}

	out.Reset()
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/runs?force=1", nil))
	assert.Equal(t, http.StatusCreated, rr.Code)

	logs := out.String()
	assert.Contains(t, logs, "path=/runs")
	assert.Contains(t, logs, "status_code=201")
	assert.Contains(t, logs, "bytes_written=2")
	assert.Contains(t, logs, `query="force=1"`)
	assert.Contains(t, logs, "request_id=")
}
