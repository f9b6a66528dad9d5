// Package geometry wraps the GEOS-backed planar polygon primitives the
// coverage engine consumes: point buffering, union, validity repair,
// intersection, and metric area over lon/lat degree coordinates.
package geometry

import (
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-geos"

	"github.com/scenttrack/scent-coverage-go/internal/spatial"
)

// SRID tags every geometry produced here as WGS84 lon/lat.
const SRID = 4326

// ErrInvalidGeometry reports a union or buffer result that could not be
// repaired into a valid polygon.
var ErrInvalidGeometry = fmt.Errorf("geometry: invalid geometry")

var repairCount atomic.Uint64

// RepairCount returns how many times an invalid intermediate geometry was
// repaired. Exposed for operational visibility only.
func RepairCount() uint64 {
	return repairCount.Load()
}

// recoverGEOS converts GEOS panics (the library's error convention) into
// an error so a bad geometry never takes down the aggregate pipeline.
func recoverGEOS(errp *error) {
	if r := recover(); r != nil {
		*errp = fmt.Errorf("%w: %v", ErrInvalidGeometry, r)
	}
}

// Empty returns an empty polygon tagged with SRID.
func Empty() *geos.Geom {
	g, err := geos.NewGeomFromWKT("POLYGON EMPTY")
	if err != nil {
		// A constant WKT literal cannot fail to parse.
		panic(err)
	}
	g.SetSRID(SRID)
	return g
}

// PolygonFromRing builds a polygon from an open lon/lat ring. The ring is
// closed automatically.
func PolygonFromRing(ring []orb.Point) (*geos.Geom, error) {
	if len(ring) < 3 {
		return nil, fmt.Errorf("geometry: ring needs at least 3 points, got %d", len(ring))
	}
	closed := make(orb.Ring, 0, len(ring)+1)
	closed = append(closed, ring...)
	if closed[0] != closed[len(closed)-1] {
		closed = append(closed, closed[0])
	}

	raw, err := json.Marshal(geojson.NewGeometry(orb.Polygon{closed}))
	if err != nil {
		return nil, fmt.Errorf("geometry: encode ring: %w", err)
	}
	g, err := geos.NewGeomFromGeoJSON(string(raw))
	if err != nil {
		return nil, fmt.Errorf("geometry: parse ring: %w", err)
	}
	g.SetSRID(SRID)
	return EnsureValid(g)
}

// Disc buffers the given lat/lon point by a metric radius, converted to
// degrees at that latitude. quadsegs controls arc resolution.
func Disc(lat, lon, radiusM float64, quadsegs int) (g *geos.Geom, err error) {
	defer recoverGEOS(&err)

	raw, err := json.Marshal(geojson.NewGeometry(orb.Point{lon, lat}))
	if err != nil {
		return nil, fmt.Errorf("geometry: encode point: %w", err)
	}
	pt, err := geos.NewGeomFromGeoJSON(string(raw))
	if err != nil {
		return nil, fmt.Errorf("geometry: parse point: %w", err)
	}

	radiusDeg := radiusM / spatial.MetersPerDegree
	disc := pt.Buffer(radiusDeg, quadsegs)
	disc.SetSRID(SRID)
	return disc, nil
}

// Union merges two polygons, repairing an invalid result.
func Union(a, b *geos.Geom) (g *geos.Geom, err error) {
	defer recoverGEOS(&err)

	merged := a.Union(b)
	merged.SetSRID(SRID)
	return EnsureValid(merged)
}

// Intersection intersects two polygons, repairing an invalid result.
func Intersection(a, b *geos.Geom) (g *geos.Geom, err error) {
	defer recoverGEOS(&err)

	clipped := a.Intersection(b)
	clipped.SetSRID(SRID)
	return EnsureValid(clipped)
}

// EnsureValid returns g unchanged when it is already valid. Otherwise it
// repairs via MakeValid, then by a zero-width buffer pass, and fails with
// ErrInvalidGeometry when neither yields a valid geometry.
func EnsureValid(g *geos.Geom) (out *geos.Geom, err error) {
	defer recoverGEOS(&err)

	if g.IsValid() {
		return g, nil
	}
	reason := g.IsValidReason()
	repairCount.Add(1)
	log.Printf("geometry: repairing invalid geometry: %s", reason)

	repaired := g.MakeValid()
	if repaired != nil && repaired.IsValid() {
		repaired.SetSRID(SRID)
		return repaired, nil
	}
	repaired = g.Buffer(0, 8)
	if repaired != nil && repaired.IsValid() {
		repaired.SetSRID(SRID)
		return repaired, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidGeometry, reason)
}

// AreaM2 converts the planar degree-space area of g to square meters
// using the meters-per-degree scale at the reference latitude.
func AreaM2(g *geos.Geom, refLat float64) float64 {
	if g == nil || g.IsEmpty() {
		return 0
	}
	return g.Area() * spatial.MetersPerDegree * spatial.MetersPerDegreeLon(refLat)
}

// ToGeoJSON serializes a geometry in lon/lat axis order.
func ToGeoJSON(g *geos.Geom) json.RawMessage {
	if g == nil {
		g = Empty()
	}
	return json.RawMessage(g.ToGeoJSON(-1))
}

// FromGeoJSON parses a GeoJSON geometry and tags it with SRID.
func FromGeoJSON(raw []byte) (*geos.Geom, error) {
	g, err := geos.NewGeomFromGeoJSON(string(raw))
	if err != nil {
		return nil, fmt.Errorf("geometry: parse geojson: %w", err)
	}
	g.SetSRID(SRID)
	return EnsureValid(g)
}
