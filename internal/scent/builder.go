package scent

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/scenttrack/scent-coverage-go/internal/geometry"
	"github.com/scenttrack/scent-coverage-go/internal/models"
	"github.com/scenttrack/scent-coverage-go/internal/spatial"
)

// Default detection parameters.
const (
	DefaultOmniRadiusM           = 30.0
	DefaultFanPointCount         = 12
	DefaultMinDistanceMultiplier = 1.5
	DefaultMaxDistanceMultiplier = 10.0
	DefaultMaxWindSpeedMS        = 8.0

	// Fan half-width clamps in degrees: wide at calm, tight at max wind.
	maxHalfAngleDeg = 90.0
	minHalfAngleDeg = 15.0

	discQuadSegs = 8
)

// BuilderConfig holds the detection-area parameters. HalfAngleFunc and
// ReachFunc map wind speed to lobe shape; only monotonicity and the
// clamps are guaranteed, so callers may swap in a different law.
type BuilderConfig struct {
	// OmniRadiusM is the wind-independent buffer radius around the rover.
	OmniRadiusM float64
	// FanPointCount is the angular resolution of the directional lobe arc.
	FanPointCount int
	// MinDistanceMultiplier scales the minimum radial extent of the lobe
	// so it never collapses below OmniRadiusM*MinDistanceMultiplier.
	MinDistanceMultiplier float64
	// MaxDistanceMultiplier scales the lobe reach at MaxWindSpeedMS.
	MaxDistanceMultiplier float64
	// MaxWindSpeedMS is the speed at which the lobe reaches maximum reach.
	MaxWindSpeedMS float64

	// HalfAngleFunc returns the fan half-width in degrees for a wind
	// speed. Must be non-increasing in speed.
	HalfAngleFunc func(speedMS float64) float64
	// ReachFunc returns the lobe radial reach in meters for a wind
	// speed. Must be non-decreasing in speed.
	ReachFunc func(speedMS float64) float64
}

// DefaultBuilderConfig returns the standard detection parameters.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		OmniRadiusM:           DefaultOmniRadiusM,
		FanPointCount:         DefaultFanPointCount,
		MinDistanceMultiplier: DefaultMinDistanceMultiplier,
		MaxDistanceMultiplier: DefaultMaxDistanceMultiplier,
		MaxWindSpeedMS:        DefaultMaxWindSpeedMS,
	}
}

// Validate rejects out-of-range parameters at configuration time.
func (c BuilderConfig) Validate() error {
	if c.OmniRadiusM <= 0 {
		return fmt.Errorf("scent: omnidirectional radius must be positive, got %v", c.OmniRadiusM)
	}
	if c.FanPointCount < 2 {
		return fmt.Errorf("scent: fan point count must be at least 2, got %d", c.FanPointCount)
	}
	if c.MinDistanceMultiplier <= 0 {
		return fmt.Errorf("scent: min distance multiplier must be positive, got %v", c.MinDistanceMultiplier)
	}
	if c.MaxDistanceMultiplier < c.MinDistanceMultiplier {
		return fmt.Errorf("scent: max distance multiplier %v below min %v", c.MaxDistanceMultiplier, c.MinDistanceMultiplier)
	}
	if c.MaxWindSpeedMS <= 0 {
		return fmt.Errorf("scent: max wind speed must be positive, got %v", c.MaxWindSpeedMS)
	}
	return nil
}

// PolygonBuilder constructs one detection-area polygon per observation:
// a directional fan lobe oriented on the upwind bearing, unioned with the
// omnidirectional disc around the rover position.
type PolygonBuilder struct {
	cfg BuilderConfig
}

// NewPolygonBuilder validates the config and fills in the default
// speed-to-shape law where none is supplied.
func NewPolygonBuilder(cfg BuilderConfig) (*PolygonBuilder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.HalfAngleFunc == nil {
		max := cfg.MaxWindSpeedMS
		cfg.HalfAngleFunc = func(speedMS float64) float64 {
			return maxHalfAngleDeg - (maxHalfAngleDeg-minHalfAngleDeg)*clamp01(speedMS/max)
		}
	}
	if cfg.ReachFunc == nil {
		floor := cfg.MinDistanceMultiplier * cfg.OmniRadiusM
		ceil := cfg.MaxDistanceMultiplier * cfg.OmniRadiusM
		max := cfg.MaxWindSpeedMS
		cfg.ReachFunc = func(speedMS float64) float64 {
			return floor + (ceil-floor)*clamp01(speedMS/max)
		}
	}
	return &PolygonBuilder{cfg: cfg}, nil
}

// Config returns the effective builder configuration.
func (b *PolygonBuilder) Config() BuilderConfig {
	return b.cfg
}

// HalfAngle returns the fan half-width in degrees for a wind speed.
func (b *PolygonBuilder) HalfAngle(speedMS float64) float64 {
	return b.cfg.HalfAngleFunc(speedMS)
}

// Reach returns the lobe radial reach in meters for a wind speed.
func (b *PolygonBuilder) Reach(speedMS float64) float64 {
	return b.cfg.ReachFunc(speedMS)
}

// Build turns an observation into a detection polygon. The disc alone
// guarantees a valid, non-empty result even at zero wind speed; errors
// occur only when the geometry kernel cannot produce a valid polygon.
func (b *PolygonBuilder) Build(obs models.Observation) (models.DetectionPolygon, error) {
	bearing := spatial.NormalizeBearing(obs.WindBearingDeg)
	speed := obs.WindSpeedMS
	if speed < 0 {
		speed = 0
	}

	half := b.cfg.HalfAngleFunc(speed)
	reach := b.cfg.ReachFunc(speed)

	// The lobe extends toward where the wind blows from: scent reaching
	// the rover can only have originated upwind.
	ring := make([]orb.Point, 0, b.cfg.FanPointCount+1)
	ring = append(ring, orb.Point{obs.Longitude, obs.Latitude})
	n := b.cfg.FanPointCount
	for i := 0; i < n; i++ {
		angle := bearing - half + 2*half*float64(i)/float64(n-1)
		lat, lon := spatial.DestinationPoint(obs.Latitude, obs.Longitude, angle, reach)
		ring = append(ring, orb.Point{lon, lat})
	}

	lobe, err := geometry.PolygonFromRing(ring)
	if err != nil {
		return models.DetectionPolygon{}, fmt.Errorf("build fan lobe: %w", err)
	}
	disc, err := geometry.Disc(obs.Latitude, obs.Longitude, b.cfg.OmniRadiusM, discQuadSegs)
	if err != nil {
		return models.DetectionPolygon{}, fmt.Errorf("build omnidirectional disc: %w", err)
	}
	geom, err := geometry.Union(lobe, disc)
	if err != nil {
		return models.DetectionPolygon{}, fmt.Errorf("union lobe and disc: %w", err)
	}

	return models.DetectionPolygon{
		RoverID:        obs.RoverID,
		RoverName:      obs.RoverName,
		SessionID:      obs.SessionID,
		Seq:            obs.Seq,
		CapturedAt:     obs.CapturedAt,
		Latitude:       obs.Latitude,
		Longitude:      obs.Longitude,
		WindBearingDeg: bearing,
		WindSpeedMS:    speed,
		Geom:           geom,
		AreaM2:         geometry.AreaM2(geom, obs.Latitude),
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
