package sim

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scenttrack/scent-coverage-go/internal/models"
	"github.com/scenttrack/scent-coverage-go/internal/spatial"
)

type captureSink struct {
	mu  sync.Mutex
	obs []models.Observation
}

func (c *captureSink) Insert(ctx context.Context, o models.Observation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.obs = append(c.obs, o)
	return nil
}

func TestSimulatorStep(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.Interval = time.Second
	sink := &captureSink{}
	s := New(cfg, sink)

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Step(ctx))
	}

	require.Len(t, sink.obs, 50*len(cfg.RoverNames))

	t.Run("sequence numbers strictly increase per session", func(t *testing.T) {
		var prev int64
		for _, o := range sink.obs {
			assert.Greater(t, o.Seq, prev)
			assert.Equal(t, s.SessionID(), o.SessionID)
			prev = o.Seq
		}
	})

	t.Run("rovers stay near the region", func(t *testing.T) {
		slack := cfg.RoverSpeedMS * cfg.Interval.Seconds() * 2
		for _, o := range sink.obs {
			d := spatial.HaversineDistance(cfg.CenterLat, cfg.CenterLon, o.Latitude, o.Longitude)
			assert.LessOrEqual(t, d, cfg.RadiusM+slack, "rover %s seq %d", o.RoverID, o.Seq)
		}
	})

	t.Run("wind stays in range", func(t *testing.T) {
		for _, o := range sink.obs {
			assert.GreaterOrEqual(t, o.WindSpeedMS, 0.0)
			assert.LessOrEqual(t, o.WindSpeedMS, cfg.MaxWindMS)
			assert.GreaterOrEqual(t, o.WindBearingDeg, 0.0)
			assert.Less(t, o.WindBearingDeg, 360.0)
		}
	})

	t.Run("session id is generated when unset", func(t *testing.T) {
		assert.NotEmpty(t, s.SessionID())
	})

	t.Run("deterministic under a fixed seed", func(t *testing.T) {
		cfg2 := cfg
		cfg2.SessionID = s.SessionID()
		sink2 := &captureSink{}
		s2 := New(cfg2, sink2)
		for i := 0; i < 5; i++ {
			require.NoError(t, s2.Step(ctx))
		}
		require.GreaterOrEqual(t, len(sink.obs), 10)
		assert.Equal(t, sink.obs[0].Latitude, sink2.obs[0].Latitude)
		assert.Equal(t, sink.obs[0].Longitude, sink2.obs[0].Longitude)
	})
}

func TestSimulatorRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Seed = 7
	cfg.Interval = 10 * time.Millisecond
	sink := &captureSink{}
	s := New(cfg, sink)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.NotEmpty(t, sink.obs)
}
