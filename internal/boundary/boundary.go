// Package boundary loads the fixed operational boundary polygon ("the
// forest") from a GeoJSON file. The boundary is loaded once and is
// immutable for the process lifetime.
package boundary

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/twpayne/go-geos"

	"github.com/scenttrack/scent-coverage-go/internal/geometry"
)

// Load reads a GeoJSON Feature, FeatureCollection, or bare Geometry and
// returns the boundary polygon plus its centroid latitude, which the
// coverage calculator uses as the reference for metric area scaling.
func Load(path string) (*geos.Geom, float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read boundary file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes boundary GeoJSON. A FeatureCollection contributes its
// first polygonal feature.
func Parse(raw []byte) (*geos.Geom, float64, error) {
	orbGeom, err := decode(raw)
	if err != nil {
		return nil, 0, err
	}

	centroid, _ := planar.CentroidArea(orbGeom)

	encoded, err := json.Marshal(geojson.NewGeometry(orbGeom))
	if err != nil {
		return nil, 0, fmt.Errorf("encode boundary geometry: %w", err)
	}
	g, err := geometry.FromGeoJSON(encoded)
	if err != nil {
		return nil, 0, fmt.Errorf("parse boundary geometry: %w", err)
	}
	if g.IsEmpty() {
		return nil, 0, fmt.Errorf("boundary geometry is empty")
	}
	return g, centroid.Lat(), nil
}

func decode(raw []byte) (orb.Geometry, error) {
	if fc, err := geojson.UnmarshalFeatureCollection(raw); err == nil {
		for _, f := range fc.Features {
			switch f.Geometry.(type) {
			case orb.Polygon, orb.MultiPolygon:
				return f.Geometry, nil
			}
		}
		return nil, fmt.Errorf("boundary feature collection has no polygon")
	}
	if f, err := geojson.UnmarshalFeature(raw); err == nil {
		return f.Geometry, nil
	}
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, fmt.Errorf("boundary is not valid GeoJSON: %w", err)
	}
	return g.Geometry(), nil
}
