package scent

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/scenttrack/scent-coverage-go/internal/geometry"
	"github.com/scenttrack/scent-coverage-go/internal/models"
)

// ObservationSource is the storage collaborator the tracker polls.
// Implementations must return observations ascending by sequence number
// and wrap connectivity failures with ErrSourceUnavailable.
type ObservationSource interface {
	Initialize(ctx context.Context) error
	GetAll(ctx context.Context, sessionID string) ([]models.Observation, error)
	GetNewSince(ctx context.Context, sessionID string, lastSeq int64) ([]models.Observation, error)
}

// DetectionBuilder turns observations into detection polygons.
type DetectionBuilder interface {
	Build(obs models.Observation) (models.DetectionPolygon, error)
}

// Snapshot is an atomically swapped view of the aggregates. Geometry and
// version always correspond; readers never observe a torn pair.
type Snapshot struct {
	Global    models.GlobalUnifiedPolygon
	Rovers    []models.RoverUnifiedPolygon
	Stale     bool
	FetchedAt time.Time
}

type roverState struct {
	seen    map[int64]struct{}
	latSum  float64
	unified models.RoverUnifiedPolygon

	// pending holds a batch whose geometry work failed; it is retried on
	// the next poll. The session watermark has already moved past these
	// sequence numbers, so the source will not return them again.
	pending []models.Observation
}

// CoverageTracker wraps the observation source and the unification engine
// behind a version-keyed cache. Current is O(1) when the source reports
// nothing new; otherwise only rovers with new sequence numbers are
// rebuilt, and the global aggregate only when some rover changed.
type CoverageTracker struct {
	mu        sync.Mutex
	source    ObservationSource
	builder   DetectionBuilder
	unifier   *UnificationEngine
	sessionID string

	lastSeq       int64
	rovers        map[string]*roverState
	globalVersion uint64

	snapshot atomic.Pointer[Snapshot]
}

// NewCoverageTracker returns a tracker for one session. The initial
// snapshot is an empty global polygon at version 0.
func NewCoverageTracker(source ObservationSource, builder DetectionBuilder, unifier *UnificationEngine, sessionID string) *CoverageTracker {
	t := &CoverageTracker{
		source:    source,
		builder:   builder,
		unifier:   unifier,
		sessionID: sessionID,
		rovers:    make(map[string]*roverState),
	}
	t.snapshot.Store(&Snapshot{
		Global:    models.GlobalUnifiedPolygon{Geom: geometry.Empty()},
		FetchedAt: time.Now(),
	})
	return t
}

// Snapshot returns the last published snapshot without touching the
// observation source.
func (t *CoverageTracker) Snapshot() *Snapshot {
	return t.snapshot.Load()
}

// Current fetches new observations, folds them into the per-rover and
// global aggregates, and returns the resulting snapshot. A batch whose
// geometry work fails is parked and retried on later polls, with the
// snapshot marked stale until it lands. On source failure the
// last-known-good snapshot is returned with Stale set. On context
// cancellation the cached aggregates are left untouched and the context
// error is returned alongside the last snapshot.
func (t *CoverageTracker) Current(ctx context.Context) (*Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	obs, err := t.source.GetNewSince(ctx, t.sessionID, t.lastSeq)
	if err != nil {
		if ctx.Err() != nil {
			return t.snapshot.Load(), ctx.Err()
		}
		if errors.Is(err, ErrSourceUnavailable) {
			log.Printf("scent: observation source unavailable, serving stale aggregates: %v", err)
			t.publishStale(true)
			return t.snapshot.Load(), nil
		}
		return t.snapshot.Load(), err
	}

	if len(obs) == 0 && !t.hasPending() {
		t.publishStale(false)
		return t.snapshot.Load(), nil
	}

	changed := false
	polled := make(map[string]struct{})
	for _, rover := range t.groupNew(obs) {
		polled[rover.id] = struct{}{}
		if t.mergeRover(rover.id, rover.obs) {
			changed = true
		}
	}

	// Retry parked batches for rovers with nothing new this poll.
	for id, rs := range t.rovers {
		if _, ok := polled[id]; ok || len(rs.pending) == 0 {
			continue
		}
		if t.mergeRover(id, nil) {
			changed = true
		}
	}

	stale := t.hasPending()
	if changed && !t.rebuildGlobal() {
		stale = true
	}
	t.publishStale(stale)
	return t.snapshot.Load(), nil
}

// hasPending reports whether any rover has a parked batch awaiting retry.
func (t *CoverageTracker) hasPending() bool {
	for _, rs := range t.rovers {
		if len(rs.pending) > 0 {
			return true
		}
	}
	return false
}

type roverBatch struct {
	id  string
	obs []models.Observation
}

// groupNew partitions observations by rover, dropping sequence numbers
// already merged so duplicate delivery stays idempotent. The watermark
// advances regardless so the next poll does not refetch.
func (t *CoverageTracker) groupNew(obs []models.Observation) []roverBatch {
	var order []string
	byRover := make(map[string][]models.Observation)
	inBatch := make(map[string]map[int64]struct{})
	for _, o := range obs {
		if o.Seq > t.lastSeq {
			t.lastSeq = o.Seq
		}
		if rs := t.rovers[o.RoverID]; rs != nil {
			if _, dup := rs.seen[o.Seq]; dup {
				continue
			}
		}
		if seqs := inBatch[o.RoverID]; seqs != nil {
			if _, dup := seqs[o.Seq]; dup {
				continue
			}
		} else {
			inBatch[o.RoverID] = make(map[int64]struct{})
		}
		inBatch[o.RoverID][o.Seq] = struct{}{}
		if _, ok := byRover[o.RoverID]; !ok {
			order = append(order, o.RoverID)
		}
		byRover[o.RoverID] = append(byRover[o.RoverID], o)
	}

	batches := make([]roverBatch, 0, len(order))
	for _, id := range order {
		batches = append(batches, roverBatch{id: id, obs: byRover[id]})
	}
	return batches
}

// mergeRover folds a rover's new observations, plus any batch parked by
// an earlier geometry failure, into its unified aggregate. The merge is
// all-or-nothing: on a union failure the whole batch is parked on the
// rover and retried on the next poll, and the cached aggregate stays
// intact. Observations whose polygon cannot be constructed at all are
// dropped; construction is deterministic, so retrying them is pointless.
func (t *CoverageTracker) mergeRover(roverID string, obs []models.Observation) bool {
	rs := t.rovers[roverID]
	if rs == nil {
		rs = &roverState{
			seen: make(map[int64]struct{}),
			unified: models.RoverUnifiedPolygon{
				RoverID: roverID,
				Geom:    geometry.Empty(),
			},
		}
	}
	if len(rs.pending) > 0 {
		obs = append(rs.pending, obs...)
	}

	polys := make([]models.DetectionPolygon, 0, len(obs))
	for _, o := range obs {
		poly, err := t.builder.Build(o)
		if err != nil {
			log.Printf("scent: dropping observation %s/%d, polygon construction failed: %v", roverID, o.Seq, err)
			continue
		}
		polys = append(polys, poly)
	}
	if len(polys) == 0 {
		rs.pending = nil
		t.rovers[roverID] = rs
		return false
	}

	geom := rs.unified.Geom
	for _, p := range polys {
		merged, err := geometry.Union(geom, p.Geom)
		if err != nil {
			log.Printf("scent: parking batch for rover %s, union failed: %v", roverID, err)
			rs.pending = obs
			t.rovers[roverID] = rs
			return false
		}
		geom = merged
	}
	rs.pending = nil

	// Geometry work succeeded: commit the batch.
	for _, p := range polys {
		rs.seen[p.Seq] = struct{}{}
		rs.latSum += p.Latitude
		if rs.unified.Count == 0 || p.CapturedAt.Before(rs.unified.FirstSeen) {
			rs.unified.FirstSeen = p.CapturedAt
		}
		if p.CapturedAt.After(rs.unified.LastSeen) {
			rs.unified.LastSeen = p.CapturedAt
		}
		if p.Seq > rs.unified.LastSeq {
			rs.unified.LastSeq = p.Seq
		}
		if rs.unified.RoverName == "" {
			rs.unified.RoverName = p.RoverName
		}
		rs.unified.Count++
	}
	rs.unified.Geom = geom
	rs.unified.MeanLat = rs.latSum / float64(rs.unified.Count)
	rs.unified.AreaM2 = geometry.AreaM2(geom, rs.unified.MeanLat)
	rs.unified.Version++
	t.rovers[roverID] = rs
	return true
}

// rebuildGlobal re-unifies the per-rover aggregates and publishes a new
// snapshot with an incremented global version. Rovers that have not
// contributed any polygon yet are left out. Reports whether a snapshot
// was published.
func (t *CoverageTracker) rebuildGlobal() bool {
	rovers := make([]models.RoverUnifiedPolygon, 0, len(t.rovers))
	for _, rs := range t.rovers {
		if rs.unified.Count == 0 {
			continue
		}
		rovers = append(rovers, rs.unified)
	}

	global, err := t.unifier.UnifyRoverPolygons(rovers)
	if err != nil {
		log.Printf("scent: keeping previous global aggregate, unification failed: %v", err)
		return false
	}

	t.globalVersion++
	global.Version = t.globalVersion
	t.snapshot.Store(&Snapshot{
		Global:    global,
		Rovers:    rovers,
		FetchedAt: time.Now(),
	})
	return true
}

// publishStale republishes the current snapshot with the given staleness
// flag. Geometry and version are untouched.
func (t *CoverageTracker) publishStale(stale bool) {
	cur := t.snapshot.Load()
	if cur.Stale == stale {
		return
	}
	next := *cur
	next.Stale = stale
	next.FetchedAt = time.Now()
	t.snapshot.Store(&next)
}
