package router

import (
	"github.com/gin-gonic/gin"

	"pasassistant/internal/handler"
	"pasassistant/internal/middleware"
	"pasassistant/internal/service"
)

// Setup configures the Gin engine with all routes and middleware.
// corsOrigins falls back to the local front-end origins when empty.
func Setup(
	authSvc service.AuthService,
	projectH *handler.ProjectHandler,
	healthH *handler.HealthHandler,
	corsOrigins ...string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(corsOrigins...))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authSvc))

	projects := protected.Group("/projects")
	projects.POST("", projectH.Create)
	projects.GET("", projectH.List)
	projects.GET("/:id", projectH.Get)
	projects.DELETE("/:id", projectH.Delete)
	projects.PUT("/:id/structure", projectH.UpdateStructure)
	projects.GET("/:id/questions", projectH.Questions)
	projects.POST("/:id/cadrage", projectH.SubmitCadrage)
	projects.POST("/:id/anonymize", projectH.SubmitAnonymization)
	projects.POST("/:id/generate", projectH.Generate)
	projects.GET("/:id/status", projectH.Status)
	projects.GET("/:id/output", projectH.Output)
	projects.GET("/:id/attention", projectH.Attention)
	projects.POST("/:id/corrections", projectH.UploadCorrection)

	return r
}
