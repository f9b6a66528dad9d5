package scent

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geos"

	"github.com/scenttrack/scent-coverage-go/internal/geometry"
	"github.com/scenttrack/scent-coverage-go/internal/spatial"
)

func TestBuilderConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, DefaultBuilderConfig().Validate())
	})

	t.Run("rejects negative radius", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultBuilderConfig()
		cfg.OmniRadiusM = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects degenerate fan", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultBuilderConfig()
		cfg.FanPointCount = 1
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects inverted distance multipliers", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultBuilderConfig()
		cfg.MaxDistanceMultiplier = cfg.MinDistanceMultiplier / 2
		assert.Error(t, cfg.Validate())
	})
}

func TestBuildDetectionPolygon(t *testing.T) {
	t.Parallel()
	b := testBuilder(t)

	t.Run("valid and non-empty across wind speeds", func(t *testing.T) {
		t.Parallel()
		for _, speed := range []float64{0, 0.5, 1, 2, 3, 5, 8} {
			obs := testObservation("r1", "Alpha", 1, testLat, testLon, 45, speed)
			poly, err := b.Build(obs)
			require.NoError(t, err, "speed %v", speed)
			assert.True(t, poly.Geom.IsValid(), "speed %v", speed)
			assert.False(t, poly.Geom.IsEmpty(), "speed %v", speed)
			assert.Greater(t, poly.AreaM2, 0.0, "speed %v", speed)
			assert.Equal(t, geometry.SRID, poly.Geom.SRID(), "speed %v", speed)
		}
	})

	t.Run("contains omnidirectional disc even at zero wind", func(t *testing.T) {
		t.Parallel()
		for _, speed := range []float64{0, 4, 8} {
			obs := testObservation("r1", "Alpha", 1, testLat, testLon, 120, speed)
			poly, err := b.Build(obs)
			require.NoError(t, err)

			// Slightly shrunk probe disc absorbs arc discretization.
			probe, err := geometry.Disc(testLat, testLon, b.Config().OmniRadiusM*0.95, 8)
			require.NoError(t, err)
			assert.True(t, poly.Geom.Contains(probe), "speed %v", speed)
		}
	})

	t.Run("normalizes wind bearing", func(t *testing.T) {
		t.Parallel()
		obs := testObservation("r1", "Alpha", 1, testLat, testLon, -90, 2)
		poly, err := b.Build(obs)
		require.NoError(t, err)
		assert.InDelta(t, 270.0, poly.WindBearingDeg, 1e-9)
	})

	t.Run("lobe extends upwind", func(t *testing.T) {
		t.Parallel()
		windBearing := 45.0
		speed := 3.0
		obs := testObservation("r1", "Alpha", 1, testLat, testLon, windBearing, speed)
		poly, err := b.Build(obs)
		require.NoError(t, err)

		assert.True(t, poly.Geom.IsValid())
		assert.Equal(t, geometry.SRID, poly.Geom.SRID())
		assert.Greater(t, poly.AreaM2, 0.0)

		farLat, farLon, farDist := farthestVertex(t, poly.Geom, testLat, testLon)
		assert.InDelta(t, b.Reach(speed), farDist, 1.0)

		bearingToFar := spatial.InitialBearing(testLat, testLon, farLat, farLon)
		diff := angularDiff(bearingToFar, windBearing)
		assert.LessOrEqual(t, diff, b.HalfAngle(speed)+2.0,
			"farthest vertex bears %v, wind from %v", bearingToFar, windBearing)
	})
}

func TestSpeedToShapeLaw(t *testing.T) {
	t.Parallel()
	b := testBuilder(t)
	cfg := b.Config()

	t.Run("half angle non-increasing in wind speed", func(t *testing.T) {
		t.Parallel()
		prev := b.HalfAngle(0)
		for speed := 0.25; speed <= cfg.MaxWindSpeedMS+2; speed += 0.25 {
			cur := b.HalfAngle(speed)
			assert.LessOrEqual(t, cur, prev, "speed %v", speed)
			assert.GreaterOrEqual(t, cur, minHalfAngleDeg)
			assert.LessOrEqual(t, cur, maxHalfAngleDeg)
			prev = cur
		}
	})

	t.Run("reach non-decreasing in wind speed", func(t *testing.T) {
		t.Parallel()
		floor := cfg.MinDistanceMultiplier * cfg.OmniRadiusM
		prev := b.Reach(0)
		assert.GreaterOrEqual(t, prev, floor)
		for speed := 0.25; speed <= cfg.MaxWindSpeedMS+2; speed += 0.25 {
			cur := b.Reach(speed)
			assert.GreaterOrEqual(t, cur, prev, "speed %v", speed)
			assert.GreaterOrEqual(t, cur, floor)
			prev = cur
		}
	})

	t.Run("reach clamps at max wind speed", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, b.Reach(cfg.MaxWindSpeedMS), b.Reach(cfg.MaxWindSpeedMS*3), 1e-9)
	})

	t.Run("pluggable law overrides default", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultBuilderConfig()
		cfg.ReachFunc = func(float64) float64 { return 123 }
		custom, err := NewPolygonBuilder(cfg)
		require.NoError(t, err)
		assert.Equal(t, 123.0, custom.Reach(5))
	})
}

// farthestVertex returns the polygon vertex farthest from (lat, lon) and
// its distance in meters.
func farthestVertex(t *testing.T, g *geos.Geom, lat, lon float64) (float64, float64, float64) {
	t.Helper()

	decoded, err := geojson.UnmarshalGeometry([]byte(g.ToGeoJSON(-1)))
	require.NoError(t, err)

	var best orb.Point
	var bestDist float64
	visit := func(p orb.Point) {
		d := spatial.HaversineDistance(lat, lon, p.Lat(), p.Lon())
		if d > bestDist {
			bestDist = d
			best = p
		}
	}
	switch geom := decoded.Geometry().(type) {
	case orb.Polygon:
		for _, ring := range geom {
			for _, p := range ring {
				visit(p)
			}
		}
	case orb.MultiPolygon:
		for _, poly := range geom {
			for _, ring := range poly {
				for _, p := range ring {
					visit(p)
				}
			}
		}
	default:
		t.Fatalf("unexpected geometry type %T", geom)
	}
	return best.Lat(), best.Lon(), bestDist
}

func angularDiff(a, b float64) float64 {
	d := spatial.NormalizeBearing(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}
