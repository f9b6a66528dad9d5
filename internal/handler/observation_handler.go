package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scenttrack/scent-coverage-go/internal/models"
	"github.com/scenttrack/scent-coverage-go/internal/spatial"
	"github.com/scenttrack/scent-coverage-go/pkg/response"
)

// ObservationStore stores ingested observations and lists them back.
type ObservationStore interface {
	Insert(ctx context.Context, o models.Observation) error
	List(ctx context.Context, f models.ObservationFilter) ([]models.Observation, error)
}

// ObservationHandler handles HTTP ingest of rover observations
type ObservationHandler struct {
	store ObservationStore
}

// NewObservationHandler creates a new observation handler
func NewObservationHandler(store ObservationStore) *ObservationHandler {
	return &ObservationHandler{store: store}
}

// CreateObservationRequest is the ingest payload.
type CreateObservationRequest struct {
	RoverID        string    `json:"roverId" binding:"required"`
	RoverName      string    `json:"roverName" binding:"required"`
	SessionID      string    `json:"sessionId" binding:"required"`
	Seq            int64     `json:"seq" binding:"required"`
	CapturedAt     time.Time `json:"capturedAt" binding:"required"`
	Latitude       float64   `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude      float64   `json:"longitude" binding:"required,min=-180,max=180"`
	WindBearingDeg float64   `json:"windBearingDeg"`
	WindSpeedMs    float64   `json:"windSpeedMs" binding:"min=0"`
}

// Create handles POST /api/v1/observations
func (h *ObservationHandler) Create(c *gin.Context) {
	var req CreateObservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid observation payload: "+err.Error())
		return
	}

	obs := models.Observation{
		RoverID:        req.RoverID,
		RoverName:      req.RoverName,
		SessionID:      req.SessionID,
		Seq:            req.Seq,
		CapturedAt:     req.CapturedAt.UTC(),
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		WindBearingDeg: spatial.NormalizeBearing(req.WindBearingDeg),
		WindSpeedMS:    req.WindSpeedMs,
	}

	if err := h.store.Insert(c.Request.Context(), obs); err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to store observation")
		return
	}

	response.Success(c, gin.H{"seq": obs.Seq})
}

const maxListLimit = 1000

// List handles GET /api/v1/observations
func (h *ObservationHandler) List(c *gin.Context) {
	var filter models.ObservationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid observation filter: "+err.Error())
		return
	}
	if filter.SessionID == "" {
		response.BadRequest(c, "Missing sessionId")
		return
	}
	if filter.Limit <= 0 || filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	obs, err := h.store.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to list observations")
		return
	}

	response.Success(c, gin.H{
		"data":  obs,
		"count": len(obs),
	})
}
