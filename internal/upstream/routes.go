// Package upstream is the reference feedback API the engine develops
// against. It reproduces the production API's wire contract on an
// in-memory dataset: the {"feedback"/"comments"/"request"} envelopes,
// {"error": ...} failures, the X-User-ID header auth against the fixed
// three-user directory, and the role rules (managers author feedback for
// their reports, employees acknowledge and request it, comment authors
// own their comments).
//
// The package doubles as the integration fixture for the API client's
// tests via httptest.
package upstream

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Apocalypse96/FeedbackPro/internal/config"
)

// RegisterRoutes attaches middleware and every API endpoint to r.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Access log: structured logs tied to the request id
//  4. Recovery: capture panics after the logger
//  5. Body size limiter
//  6. Metrics (the /metrics endpoint itself skips the limiter and CORS)
//  7. Rate limiter per user/IP
//  8. Gzip and CORS
func RegisterRoutes(r *gin.Engine, s *Server, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(requestID())
	r.Use(accessLog())
	r.Use(recovery())
	r.Use(limitBody(1 << 20))

	r.Use(collectMetrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rl := newRateLimiter(cfg.RateRPS, cfg.RateBurst)
	r.Use(rl.handler())

	r.Use(gzip.Gzip(gzip.DefaultCompression))

	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.NoRoute(func(c *gin.Context) { fail(c, http.StatusNotFound, "Route not found") })
	r.NoMethod(func(c *gin.Context) { fail(c, http.StatusMethodNotAllowed, "Method not allowed") })

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api")
	fb := api.Group("/feedback")
	{
		fb.GET("/", s.handleListFeedback)
		fb.POST("/", s.handleCreateFeedback)
		fb.GET("/dashboard", s.handleDashboard)

		fb.POST("/requests", s.handleCreateRequest)
		fb.GET("/requests", s.handleListRequests)
		fb.PUT("/requests/:id", s.handleUpdateRequest)

		fb.PUT("/:id", s.handleUpdateFeedback)
		fb.POST("/:id/acknowledge", s.handleAcknowledge)
		fb.GET("/:id/comments", s.handleListComments)
		fb.POST("/:id/comments", s.handleCreateComment)
		fb.PUT("/:id/comments/:cid", s.handleUpdateComment)
		fb.DELETE("/:id/comments/:cid", s.handleDeleteComment)
		fb.POST("/:id/comments/:cid/like", s.handleToggleLike)
		fb.GET("/:id/export-pdf", s.handleExportPDF)
	}

	users := api.Group("/users")
	{
		users.GET("/team", s.handleTeamMembers)
		users.GET("/managers", s.handleManagers)
	}
}

// limitBody caps the request body size using http.MaxBytesReader, so
// oversized bodies error on read instead of buffering.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
