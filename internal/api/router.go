package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/qzarchive/qzarchive/pkg/logging"
)

// HealthChecker reports whether the archive database is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Router sets up API routes
type Router struct {
	handler *JSONRPCHandler
	posts   PostReader
	runs    RunReader
	health  HealthChecker
	logger  *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(posts PostReader, runs RunReader, health HealthChecker) *Router {
	router := &Router{
		handler: NewJSONRPCHandler(),
		posts:   posts,
		runs:    runs,
		health:  health,
		logger:  logging.WithComponent("api-router"),
	}

	router.registerMethods()

	return router
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// JSON-RPC endpoint
	engine.POST("/", r.handler.Handle)
}

// registerMethods registers all API methods
func (r *Router) registerMethods() {
	archive := NewArchiveAPI(r.posts, r.runs)

	r.handler.RegisterMethod("archive.get_post", archive.GetPost)
	r.handler.RegisterMethod("archive.list_posts", archive.ListPosts)
	r.handler.RegisterMethod("archive.list_runs", archive.ListRuns)
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	if r.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := r.health.Health(ctx); err != nil {
			r.logger.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "UNAVAILABLE",
				"service": "qzarchive-api",
				"error":   err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"service": "qzarchive-api",
	})
}
