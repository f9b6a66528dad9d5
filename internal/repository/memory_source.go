package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/scenttrack/scent-coverage-go/internal/models"
	"github.com/scenttrack/scent-coverage-go/internal/scent"
)

// MemorySource is the in-memory observation source. It backs the
// simulator, tests, and deployments without persistent storage, and is
// interchangeable with the SQLite repository.
type MemorySource struct {
	mu          sync.Mutex
	obs         []models.Observation
	nextID      int64
	unavailable bool
}

// NewMemorySource returns an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{}
}

// Initialize is a no-op for the in-memory source.
func (m *MemorySource) Initialize(ctx context.Context) error {
	return nil
}

// SetUnavailable toggles simulated connectivity loss.
func (m *MemorySource) SetUnavailable(unavailable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable = unavailable
}

// Insert stores one observation, keeping the log ordered by sequence.
func (m *MemorySource) Insert(ctx context.Context, o models.Observation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	o.ID = m.nextID
	m.obs = append(m.obs, o)
	sort.SliceStable(m.obs, func(i, j int) bool { return m.obs[i].Seq < m.obs[j].Seq })
	return nil
}

// GetAll returns every observation for a session, ascending by sequence.
func (m *MemorySource) GetAll(ctx context.Context, sessionID string) ([]models.Observation, error) {
	return m.GetNewSince(ctx, sessionID, -1)
}

// GetNewSince returns observations with sequence numbers greater than
// lastSeq, ascending by sequence.
func (m *MemorySource) GetNewSince(ctx context.Context, sessionID string, lastSeq int64) ([]models.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unavailable {
		return nil, fmt.Errorf("memory source offline: %w", scent.ErrSourceUnavailable)
	}

	var out []models.Observation
	for _, o := range m.obs {
		if o.SessionID == sessionID && o.Seq > lastSeq {
			out = append(out, o)
		}
	}
	return out, nil
}

// List returns observations matching the filter, ascending by sequence.
func (m *MemorySource) List(ctx context.Context, f models.ObservationFilter) ([]models.Observation, error) {
	obs, err := m.GetNewSince(ctx, f.SessionID, f.AfterSeq)
	if err != nil {
		return nil, err
	}

	var out []models.Observation
	for _, o := range obs {
		if f.RoverID != "" && o.RoverID != f.RoverID {
			continue
		}
		out = append(out, o)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// GetTrail returns a rover's ordered trail coordinates for a session.
func (m *MemorySource) GetTrail(ctx context.Context, sessionID, roverID string) ([]models.TrailPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unavailable {
		return nil, fmt.Errorf("memory source offline: %w", scent.ErrSourceUnavailable)
	}

	var trail []models.TrailPoint
	for _, o := range m.obs {
		if o.SessionID == sessionID && o.RoverID == roverID {
			trail = append(trail, models.TrailPoint{
				Seq:        o.Seq,
				CapturedAt: o.CapturedAt,
				Latitude:   o.Latitude,
				Longitude:  o.Longitude,
			})
		}
	}
	return trail, nil
}
