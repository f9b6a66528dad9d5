package scent

import (
	"fmt"
	"sort"

	"github.com/twpayne/go-geos"

	"github.com/scenttrack/scent-coverage-go/internal/geometry"
	"github.com/scenttrack/scent-coverage-go/internal/models"
)

// Unified is the result of merging a set of detection polygons: one
// (possibly multi-part) geometry, the count of contributors, and the
// metric area recomputed from the merged geometry so overlap between
// contributors is never double-counted.
type Unified struct {
	Geom    *geos.Geom
	Count   int
	AreaM2  float64
	MeanLat float64
}

// UnificationEngine merges detection polygons into coverage polygons,
// per rover and across rovers. Union is commutative and associative
// under the geometry kernel, so input order does not affect results
// beyond floating-point tolerance.
type UnificationEngine struct{}

// NewUnificationEngine returns a UnificationEngine.
func NewUnificationEngine() *UnificationEngine {
	return &UnificationEngine{}
}

// UnifyPolygons merges a set of detection polygons. An empty input yields
// an empty geometry with zero count and area, never an error; a single
// input returns that geometry unchanged with count 1.
func (u *UnificationEngine) UnifyPolygons(polys []models.DetectionPolygon) (Unified, error) {
	if len(polys) == 0 {
		return Unified{Geom: geometry.Empty()}, nil
	}

	var latSum float64
	for _, p := range polys {
		latSum += p.Latitude
	}
	meanLat := latSum / float64(len(polys))

	geom := polys[0].Geom
	for _, p := range polys[1:] {
		merged, err := geometry.Union(geom, p.Geom)
		if err != nil {
			return Unified{}, fmt.Errorf("unify polygons (rover %s seq %d): %w", p.RoverID, p.Seq, err)
		}
		geom = merged
	}

	return Unified{
		Geom:    geom,
		Count:   len(polys),
		AreaM2:  geometry.AreaM2(geom, meanLat),
		MeanLat: meanLat,
	}, nil
}

// UnifyRoverPolygons merges already-unified per-rover geometries into the
// global coverage polygon, deduplicating rover names and summing each
// rover's contributing-polygon count. Area is recomputed from the merged
// geometry, never summed across rovers.
func (u *UnificationEngine) UnifyRoverPolygons(rovers []models.RoverUnifiedPolygon) (models.GlobalUnifiedPolygon, error) {
	if len(rovers) == 0 {
		return models.GlobalUnifiedPolygon{Geom: geometry.Empty()}, nil
	}

	names := make(map[string]struct{}, len(rovers))
	var count int
	var latSum float64
	var latWeight float64
	for _, r := range rovers {
		names[r.RoverName] = struct{}{}
		count += r.Count
		latSum += r.MeanLat * float64(r.Count)
		latWeight += float64(r.Count)
	}
	meanLat := 0.0
	if latWeight > 0 {
		meanLat = latSum / latWeight
	}

	var geom *geos.Geom
	for _, r := range rovers {
		if r.Geom == nil || r.Geom.IsEmpty() {
			continue
		}
		if geom == nil {
			geom = r.Geom
			continue
		}
		merged, err := geometry.Union(geom, r.Geom)
		if err != nil {
			return models.GlobalUnifiedPolygon{}, fmt.Errorf("unify rover polygons (%s): %w", r.RoverID, err)
		}
		geom = merged
	}
	if geom == nil {
		geom = geometry.Empty()
	}

	nameList := make([]string, 0, len(names))
	for n := range names {
		nameList = append(nameList, n)
	}
	sort.Strings(nameList)

	return models.GlobalUnifiedPolygon{
		Geom:       geom,
		Count:      count,
		AreaM2:     geometry.AreaM2(geom, meanLat),
		RoverNames: nameList,
		MeanLat:    meanLat,
	}, nil
}
