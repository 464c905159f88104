package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t)
	s.health["database"] = func(context.Context) error { return nil }

	for _, path := range []string{"/health", "/api/v1/health"} {
		w := s.do(t, nil, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		var resp HealthResponse
		decodeData(t, w, &resp)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "test", resp.Version)
		assert.Equal(t, map[string]string{"database": "ok"}, resp.Checks)
	}

	s.health["cache"] = func(context.Context) error { return errors.New("connection refused") }
	w := s.do(t, nil, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
	assert.Contains(t, w.Body.String(), `"cache":"connection refused"`)
}
