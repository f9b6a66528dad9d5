package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scenttrack/scent-coverage-go/internal/service"
	"github.com/scenttrack/scent-coverage-go/pkg/response"
)

// CoverageHandler handles HTTP requests for coverage data
type CoverageHandler struct {
	service *service.CoverageService
}

// NewCoverageHandler creates a new coverage handler
func NewCoverageHandler(service *service.CoverageService) *CoverageHandler {
	return &CoverageHandler{service: service}
}

// GetStats handles GET /api/v1/coverage/stats
func (h *CoverageHandler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to compute coverage stats")
		return
	}
	response.Success(c, stats)
}

// GetPolygon handles GET /api/v1/coverage/polygon
func (h *CoverageHandler) GetPolygon(c *gin.Context) {
	polygon, err := h.service.Polygon(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get coverage polygon")
		return
	}
	c.JSON(http.StatusOK, polygon)
}

// ListRovers handles GET /api/v1/rovers
func (h *CoverageHandler) ListRovers(c *gin.Context) {
	rovers, err := h.service.Rovers(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to list rovers")
		return
	}
	response.Success(c, gin.H{
		"data":  rovers,
		"count": len(rovers),
	})
}

// GetTrail handles GET /api/v1/rovers/:id/trail
func (h *CoverageHandler) GetTrail(c *gin.Context) {
	roverID := c.Param("id")
	if roverID == "" {
		response.BadRequest(c, "Missing rover id")
		return
	}

	trail, err := h.service.Trail(c.Request.Context(), roverID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get rover trail")
		return
	}
	if len(trail.Points) == 0 {
		response.NotFound(c, "No trail for rover "+roverID)
		return
	}
	response.Success(c, trail)
}
