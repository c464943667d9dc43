package handler

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	projectsDir string
}

// NewHealthHandler creates a new HealthHandler reporting on projectsDir.
func NewHealthHandler(projectsDir string) *HealthHandler {
	return &HealthHandler{projectsDir: projectsDir}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz
func (h *HealthHandler) Readiness(c *gin.Context) {
	info, err := os.Stat(h.projectsDir)
	if err != nil || !info.IsDir() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "projects directory not reachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
