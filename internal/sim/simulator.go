// Package sim produces synthetic rover observations: waypoint-steered
// motion inside the operational region and a bounded random walk for
// wind, emitted with strictly increasing per-session sequence numbers.
package sim

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/scenttrack/scent-coverage-go/internal/models"
	"github.com/scenttrack/scent-coverage-go/internal/spatial"
)

// Sink receives simulated observations.
type Sink interface {
	Insert(ctx context.Context, o models.Observation) error
}

// Config controls the simulation.
type Config struct {
	SessionID    string
	CenterLat    float64
	CenterLon    float64
	RadiusM      float64       // operational region radius
	RoverNames   []string
	RoverSpeedMS float64       // ground speed
	MaxWindMS    float64
	Interval     time.Duration // time between observation rounds
	Seed         int64
}

// DefaultConfig simulates two rovers in a 1 km region.
func DefaultConfig() Config {
	return Config{
		CenterLat:    -36.85,
		CenterLon:    174.76,
		RadiusM:      1000,
		RoverNames:   []string{"Alpha", "Bravo"},
		RoverSpeedMS: 1.2,
		MaxWindMS:    8,
		Interval:     2 * time.Second,
	}
}

type roverSim struct {
	id, name     string
	lat, lon     float64
	wpLat, wpLon float64
	windBearing  float64
	windSpeed    float64
}

// Simulator walks a set of rovers through the region and pushes their
// observations into the sink.
type Simulator struct {
	cfg    Config
	sink   Sink
	rng    *rand.Rand
	rovers []*roverSim
	seq    int64
}

// New creates a simulator. A session id is generated when none is set.
func New(cfg Config, sink Sink) *Simulator {
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	s := &Simulator{cfg: cfg, sink: sink, rng: rng}
	for i, name := range cfg.RoverNames {
		r := &roverSim{
			id:          fmt.Sprintf("rover-%02d", i+1),
			name:        name,
			lat:         cfg.CenterLat,
			lon:         cfg.CenterLon,
			windBearing: rng.Float64() * 360,
			windSpeed:   rng.Float64() * cfg.MaxWindMS / 2,
		}
		s.pickWaypoint(r)
		s.rovers = append(s.rovers, r)
	}
	return s
}

// SessionID returns the session the simulator emits into.
func (s *Simulator) SessionID() string {
	return s.cfg.SessionID
}

// Run emits one round of observations per interval until the context is
// cancelled.
func (s *Simulator) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	log.Printf("sim: session %s, %d rovers, region %.0fm around (%.4f, %.4f)",
		s.cfg.SessionID, len(s.rovers), s.cfg.RadiusM, s.cfg.CenterLat, s.cfg.CenterLon)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Step(ctx); err != nil {
				return err
			}
		}
	}
}

// Step advances every rover by one interval and emits its observation.
func (s *Simulator) Step(ctx context.Context) error {
	dt := s.cfg.Interval.Seconds()
	if dt <= 0 {
		dt = 1
	}

	for _, r := range s.rovers {
		s.move(r, dt)
		s.driftWind(r)

		s.seq++
		obs := models.Observation{
			RoverID:        r.id,
			RoverName:      r.name,
			SessionID:      s.cfg.SessionID,
			Seq:            s.seq,
			CapturedAt:     time.Now().UTC(),
			Latitude:       r.lat,
			Longitude:      r.lon,
			WindBearingDeg: r.windBearing,
			WindSpeedMS:    r.windSpeed,
		}
		if err := s.sink.Insert(ctx, obs); err != nil {
			return fmt.Errorf("sim: insert observation seq %d: %w", s.seq, err)
		}
	}
	return nil
}

func (s *Simulator) move(r *roverSim, dt float64) {
	step := s.cfg.RoverSpeedMS * dt * (0.8 + 0.4*s.rng.Float64())
	remaining := spatial.HaversineDistance(r.lat, r.lon, r.wpLat, r.wpLon)
	if remaining <= step {
		r.lat, r.lon = r.wpLat, r.wpLon
		s.pickWaypoint(r)
		return
	}
	bearing := spatial.InitialBearing(r.lat, r.lon, r.wpLat, r.wpLon)
	r.lat, r.lon = spatial.DestinationPoint(r.lat, r.lon, bearing, step)
}

func (s *Simulator) pickWaypoint(r *roverSim) {
	bearing := s.rng.Float64() * 360
	dist := s.cfg.RadiusM * s.rng.Float64()
	r.wpLat, r.wpLon = spatial.DestinationPoint(s.cfg.CenterLat, s.cfg.CenterLon, bearing, dist)
}

func (s *Simulator) driftWind(r *roverSim) {
	r.windBearing = spatial.NormalizeBearing(r.windBearing + (s.rng.Float64()-0.5)*30)
	r.windSpeed += (s.rng.Float64() - 0.5) * 1.0
	if r.windSpeed < 0 {
		r.windSpeed = 0
	}
	if r.windSpeed > s.cfg.MaxWindMS {
		r.windSpeed = s.cfg.MaxWindMS
	}
}
