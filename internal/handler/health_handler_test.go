package handler_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"pasassistant/internal/handler"
)

func TestHealthHandler_Liveness(t *testing.T) {
	h := handler.NewHealthHandler(t.TempDir())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/healthz", nil)

	h.Liveness(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealthHandler_Readiness(t *testing.T) {
	for name, tc := range map[string]struct {
		dir    string
		status int
	}{
		"ready":   {t.TempDir(), http.StatusOK},
		"missing": {filepath.Join(t.TempDir(), "absent"), http.StatusServiceUnavailable},
	} {
		t.Run(name, func(t *testing.T) {
			h := handler.NewHealthHandler(tc.dir)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodGet, "/readyz", nil)

			h.Readiness(c)

			assert.Equal(t, tc.status, w.Code)
		})
	}
}
