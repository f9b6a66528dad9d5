package scent

import (
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geos"

	"github.com/scenttrack/scent-coverage-go/internal/geometry"
	"github.com/scenttrack/scent-coverage-go/internal/models"
	"github.com/scenttrack/scent-coverage-go/internal/spatial"
)

// Test region: central Auckland.
const (
	testLat = -36.85
	testLon = 174.76
)

func testObservation(roverID, roverName string, seq int64, lat, lon, bearing, speed float64) models.Observation {
	return models.Observation{
		RoverID:        roverID,
		RoverName:      roverName,
		SessionID:      "test-session",
		Seq:            seq,
		CapturedAt:     time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(seq) * time.Minute),
		Latitude:       lat,
		Longitude:      lon,
		WindBearingDeg: bearing,
		WindSpeedMS:    speed,
	}
}

func testBuilder(t *testing.T) *PolygonBuilder {
	t.Helper()
	b, err := NewPolygonBuilder(DefaultBuilderConfig())
	require.NoError(t, err)
	return b
}

// squareAround builds an axis-aligned square polygon of the given half
// side length in meters, centered on (lat, lon).
func squareAround(t *testing.T, lat, lon, halfSideM float64) *geos.Geom {
	t.Helper()

	north, _ := spatial.DestinationPoint(lat, lon, 0, halfSideM)
	south, _ := spatial.DestinationPoint(lat, lon, 180, halfSideM)
	_, east := spatial.DestinationPoint(lat, lon, 90, halfSideM)
	_, west := spatial.DestinationPoint(lat, lon, 270, halfSideM)

	g, err := geometry.PolygonFromRing([]orb.Point{
		{west, south},
		{east, south},
		{east, north},
		{west, north},
	})
	require.NoError(t, err)
	return g
}
