package scent

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/twpayne/go-geos"

	"github.com/scenttrack/scent-coverage-go/internal/geometry"
	"github.com/scenttrack/scent-coverage-go/internal/models"
)

const sqMetersPerHectare = 10000.0

// CoverageCalculator intersects the tracked unified polygon with the
// fixed operational boundary and reports percentage coverage. Stats are
// cached and recomputed only when the global polygon's version changes.
type CoverageCalculator struct {
	tracker        *CoverageTracker
	boundary       *geos.Geom
	boundaryAreaHa float64
	refLat         float64

	mu         sync.Mutex
	cached     models.CoverageStats
	hasCached  bool
	recomputes int
}

// NewCoverageCalculator takes the boundary polygon (immutable for the
// process lifetime) and its reference latitude for area scaling.
func NewCoverageCalculator(tracker *CoverageTracker, boundary *geos.Geom, refLat float64) (*CoverageCalculator, error) {
	if boundary == nil || boundary.IsEmpty() {
		return nil, fmt.Errorf("scent: boundary polygon is empty")
	}
	areaHa := geometry.AreaM2(boundary, refLat) / sqMetersPerHectare
	if areaHa <= 0 {
		return nil, fmt.Errorf("scent: boundary polygon has zero area")
	}
	return &CoverageCalculator{
		tracker:        tracker,
		boundary:       boundary,
		boundaryAreaHa: areaHa,
		refLat:         refLat,
	}, nil
}

// BoundaryAreaHa returns the boundary area in hectares.
func (c *CoverageCalculator) BoundaryAreaHa() float64 {
	return c.boundaryAreaHa
}

// Boundary returns the boundary polygon.
func (c *CoverageCalculator) Boundary() *geos.Geom {
	return c.boundary
}

// Stats returns coverage statistics for the current unified polygon.
// When the cached stats were computed from the same global version, the
// cache is returned with no geometry work. On an unrepairable geometry
// failure the previous stats are served with the stale flag set.
func (c *CoverageCalculator) Stats(ctx context.Context) (models.CoverageStats, error) {
	snap, err := c.tracker.Current(ctx)
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.hasCached {
			stats := c.cached
			stats.Stale = true
			return stats, err
		}
		return models.CoverageStats{
			BoundaryAreaHa: c.boundaryAreaHa,
			Stale:          true,
			ComputedAt:     time.Now(),
		}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hasCached && c.cached.Version == snap.Global.Version {
		stats := c.cached
		stats.Stale = snap.Stale
		return stats, nil
	}

	covered, err := c.coveredAreaHa(snap.Global)
	if err != nil {
		log.Printf("scent: keeping previous coverage stats, intersection failed: %v", err)
		if c.hasCached {
			stats := c.cached
			stats.Stale = true
			return stats, nil
		}
		return models.CoverageStats{
			BoundaryAreaHa: c.boundaryAreaHa,
			Version:        snap.Global.Version,
			Stale:          true,
			ComputedAt:     time.Now(),
		}, nil
	}

	percent := covered / c.boundaryAreaHa * 100
	// Absorb floating-point overshoot from near-total coverage.
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	c.cached = models.CoverageStats{
		BoundaryAreaHa:  c.boundaryAreaHa,
		CoveredAreaHa:   covered,
		CoveragePercent: percent,
		Version:         snap.Global.Version,
		Stale:           snap.Stale,
		ComputedAt:      time.Now(),
	}
	c.hasCached = true
	c.recomputes++
	return c.cached, nil
}

func (c *CoverageCalculator) coveredAreaHa(global models.GlobalUnifiedPolygon) (float64, error) {
	if global.Geom == nil || global.Geom.IsEmpty() {
		return 0, nil
	}
	clipped, err := geometry.Intersection(global.Geom, c.boundary)
	if err != nil {
		return 0, err
	}
	return geometry.AreaM2(clipped, c.refLat) / sqMetersPerHectare, nil
}

// Recomputes reports how many times stats were actually recomputed, for
// cache-behavior verification.
func (c *CoverageCalculator) Recomputes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recomputes
}
