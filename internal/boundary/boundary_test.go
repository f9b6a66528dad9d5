package boundary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const squareFeature = `{
	"type": "Feature",
	"properties": {"name": "test forest"},
	"geometry": {
		"type": "Polygon",
		"coordinates": [[[174.70,-36.90],[174.80,-36.90],[174.80,-36.80],[174.70,-36.80],[174.70,-36.90]]]
	}
}`

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("feature", func(t *testing.T) {
		t.Parallel()
		g, refLat, err := Parse([]byte(squareFeature))
		require.NoError(t, err)
		assert.True(t, g.IsValid())
		assert.False(t, g.IsEmpty())
		assert.InDelta(t, -36.85, refLat, 1e-9)
	})

	t.Run("feature collection picks the polygon", func(t *testing.T) {
		t.Parallel()
		fc := `{"type":"FeatureCollection","features":[
			{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[174.7,-36.8]}},
			` + squareFeature + `]}`
		g, refLat, err := Parse([]byte(fc))
		require.NoError(t, err)
		assert.False(t, g.IsEmpty())
		assert.InDelta(t, -36.85, refLat, 1e-9)
	})

	t.Run("bare geometry", func(t *testing.T) {
		t.Parallel()
		geom := `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`
		g, refLat, err := Parse([]byte(geom))
		require.NoError(t, err)
		assert.False(t, g.IsEmpty())
		assert.InDelta(t, 0.5, refLat, 1e-9)
	})

	t.Run("rejects non-polygonal collections", func(t *testing.T) {
		t.Parallel()
		fc := `{"type":"FeatureCollection","features":[
			{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[1,2]}}]}`
		_, _, err := Parse([]byte(fc))
		assert.Error(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		t.Parallel()
		_, _, err := Parse([]byte("not geojson"))
		assert.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "forest.geojson")
	require.NoError(t, os.WriteFile(path, []byte(squareFeature), 0o644))

	g, refLat, err := Load(path)
	require.NoError(t, err)
	assert.False(t, g.IsEmpty())
	assert.InDelta(t, -36.85, refLat, 1e-9)

	_, _, err = Load(filepath.Join(t.TempDir(), "missing.geojson"))
	assert.Error(t, err)
}
