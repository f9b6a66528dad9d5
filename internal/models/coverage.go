package models

import (
	"time"

	"github.com/twpayne/go-geos"
)

// DetectionPolygon is the estimated ground area from which scent could
// have reached a single observation point, given the wind at that moment.
// It carries the identifying fields of the originating observation and is
// immutable after construction.
type DetectionPolygon struct {
	RoverID        string
	RoverName      string
	SessionID      string
	Seq            int64
	CapturedAt     time.Time
	Latitude       float64
	Longitude      float64
	WindBearingDeg float64
	WindSpeedMS    float64

	Geom   *geos.Geom // valid polygon, SRID 4326
	AreaM2 float64
}

// RoverUnifiedPolygon is the per-rover coverage aggregate: the union of
// every detection polygon merged for that rover so far. Version increments
// whenever the set of contributing polygons changes.
type RoverUnifiedPolygon struct {
	RoverID   string
	RoverName string
	Geom      *geos.Geom
	Count     int
	AreaM2    float64
	LastSeq   int64
	FirstSeen time.Time
	LastSeen  time.Time
	MeanLat   float64
	Version   uint64
}

// GlobalUnifiedPolygon is the cross-rover coverage aggregate. Area is
// computed from the merged geometry, never summed per rover, so overlap
// between rovers is not double-counted.
type GlobalUnifiedPolygon struct {
	Geom       *geos.Geom
	Count      int
	AreaM2     float64
	RoverNames []string
	MeanLat    float64
	Version    uint64
}

// CoverageStats reports what fraction of the operational boundary the
// unified coverage polygon occupies. Valid only while Version matches the
// current GlobalUnifiedPolygon version.
type CoverageStats struct {
	BoundaryAreaHa  float64   `json:"boundary_area_ha"`
	CoveredAreaHa   float64   `json:"covered_area_ha"`
	CoveragePercent float64   `json:"coverage_percent"`
	Version         uint64    `json:"version"`
	Stale           bool      `json:"stale"`
	ComputedAt      time.Time `json:"computedAt"`
}

// RoverSummary is the API view of a rover's aggregate.
type RoverSummary struct {
	RoverID   string    `json:"roverId"`
	RoverName string    `json:"roverName"`
	Count     int       `json:"polygonCount"`
	AreaHa    float64   `json:"area_ha"`
	LastSeq   int64     `json:"lastSeq"`
	FirstSeen time.Time `json:"firstSeen"`
	LastSeen  time.Time `json:"lastSeen"`
}
