package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scenttrack/scent-coverage-go/internal/config"
	"github.com/scenttrack/scent-coverage-go/internal/handler"
	"github.com/scenttrack/scent-coverage-go/internal/middleware"
)

// SetupRouter wires the HTTP surface: coverage queries are public,
// observation ingest requires a bearer token.
func SetupRouter(cfg *config.Config, coverage *handler.CoverageHandler, observations *handler.ObservationHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Scent Coverage API is running",
		})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(120, time.Minute))
	{
		cov := api.Group("/coverage")
		{
			cov.GET("/stats", coverage.GetStats)
			cov.GET("/polygon", coverage.GetPolygon)
		}

		rovers := api.Group("/rovers")
		{
			rovers.GET("", coverage.ListRovers)
			rovers.GET("/:id/trail", coverage.GetTrail)
		}

		ingest := api.Group("/observations")
		ingest.Use(middleware.JWTAuth(cfg.JWTSecret))
		{
			ingest.POST("", observations.Create)
			ingest.GET("", observations.List)
		}
	}

	return r
}
