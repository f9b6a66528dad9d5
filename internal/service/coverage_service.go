package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/scenttrack/scent-coverage-go/internal/geometry"
	"github.com/scenttrack/scent-coverage-go/internal/models"
	"github.com/scenttrack/scent-coverage-go/internal/scent"
	"github.com/scenttrack/scent-coverage-go/internal/spatial"
)

// TrailSource retrieves a rover's ordered coordinate trail.
type TrailSource interface {
	GetTrail(ctx context.Context, sessionID, roverID string) ([]models.TrailPoint, error)
}

// CoveragePolygon is the unified coverage region in GeoJSON Feature form.
type CoveragePolygon struct {
	Type       string                 `json:"type"`
	Geometry   json.RawMessage        `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// Trail is a rover's ordered coordinate sequence plus path length.
type Trail struct {
	RoverID string              `json:"roverId"`
	Points  []models.TrailPoint `json:"points"`
	LengthM float64             `json:"length_m"`
}

// CoverageService bridges the coverage engine to the HTTP handlers.
type CoverageService struct {
	tracker   *scent.CoverageTracker
	calc      *scent.CoverageCalculator
	trails    TrailSource
	sessionID string
}

// NewCoverageService creates a new coverage service
func NewCoverageService(tracker *scent.CoverageTracker, calc *scent.CoverageCalculator, trails TrailSource, sessionID string) *CoverageService {
	return &CoverageService{
		tracker:   tracker,
		calc:      calc,
		trails:    trails,
		sessionID: sessionID,
	}
}

// Stats returns the current coverage statistics.
func (s *CoverageService) Stats(ctx context.Context) (models.CoverageStats, error) {
	stats, err := s.calc.Stats(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to compute coverage stats: %w", err)
	}
	return stats, nil
}

// Polygon returns the unified coverage polygon as a GeoJSON Feature with
// version, staleness, and aggregate properties. Coordinates are in
// (longitude, latitude) axis order.
func (s *CoverageService) Polygon(ctx context.Context) (*CoveragePolygon, error) {
	snap, err := s.tracker.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get coverage polygon: %w", err)
	}

	global := snap.Global
	return &CoveragePolygon{
		Type:     "Feature",
		Geometry: geometry.ToGeoJSON(global.Geom),
		Properties: map[string]interface{}{
			"version":       global.Version,
			"stale":         snap.Stale,
			"polygon_count": global.Count,
			"area_ha":       global.AreaM2 / 10000,
			"rovers":        global.RoverNames,
		},
	}, nil
}

// Rovers returns per-rover aggregate summaries, sorted by rover id.
func (s *CoverageService) Rovers(ctx context.Context) ([]models.RoverSummary, error) {
	snap, err := s.tracker.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get rover summaries: %w", err)
	}

	summaries := make([]models.RoverSummary, 0, len(snap.Rovers))
	for _, r := range snap.Rovers {
		summaries = append(summaries, models.RoverSummary{
			RoverID:   r.RoverID,
			RoverName: r.RoverName,
			Count:     r.Count,
			AreaHa:    r.AreaM2 / 10000,
			LastSeq:   r.LastSeq,
			FirstSeen: r.FirstSeen,
			LastSeen:  r.LastSeen,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].RoverID < summaries[j].RoverID })
	return summaries, nil
}

// Trail returns a rover's ordered trail and its path length in meters.
func (s *CoverageService) Trail(ctx context.Context, roverID string) (*Trail, error) {
	points, err := s.trails.GetTrail(ctx, s.sessionID, roverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get trail for rover %s: %w", roverID, err)
	}

	var length float64
	for i := 1; i < len(points); i++ {
		length += spatial.HaversineDistance(
			points[i-1].Latitude, points[i-1].Longitude,
			points[i].Latitude, points[i].Longitude,
		)
	}

	return &Trail{
		RoverID: roverID,
		Points:  points,
		LengthM: length,
	}, nil
}
