package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/scenttrack/scent-coverage-go/internal/database"
	"github.com/scenttrack/scent-coverage-go/internal/models"
	"github.com/scenttrack/scent-coverage-go/internal/scent"
)

var _ scent.ObservationSource = (*ObservationRepository)(nil)

func newTestRepo(t *testing.T) *ObservationRepository {
	t.Helper()

	conn, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "observations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, database.Migrate(conn))
	return NewObservationRepository(conn)
}

func TestObservationRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("initialize pings the database", func(t *testing.T) {
		t.Parallel()
		repo := newTestRepo(t)
		assert.NoError(t, repo.Initialize(ctx))
	})

	t.Run("insert then fetch round-trips fields", func(t *testing.T) {
		t.Parallel()
		repo := newTestRepo(t)
		in := memObs("r1", 1, -36.85, 174.76)
		require.NoError(t, repo.Insert(ctx, in))

		out, err := repo.GetAll(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, in.RoverID, out[0].RoverID)
		assert.Equal(t, in.Seq, out[0].Seq)
		assert.Equal(t, in.Latitude, out[0].Latitude)
		assert.Equal(t, in.Longitude, out[0].Longitude)
		assert.Equal(t, in.WindBearingDeg, out[0].WindBearingDeg)
		assert.Equal(t, in.WindSpeedMS, out[0].WindSpeedMS)
		assert.True(t, in.CapturedAt.Equal(out[0].CapturedAt))
	})

	t.Run("get new since returns ascending sequences only", func(t *testing.T) {
		t.Parallel()
		repo := newTestRepo(t)
		batch := []models.Observation{
			memObs("r1", 1, -36.85, 174.76),
			memObs("r1", 2, -36.851, 174.761),
			memObs("r2", 3, -36.86, 174.77),
		}
		require.NoError(t, repo.InsertBatch(ctx, batch))

		newer, err := repo.GetNewSince(ctx, "s1", 1)
		require.NoError(t, err)
		require.Len(t, newer, 2)
		assert.Equal(t, int64(2), newer[0].Seq)
		assert.Equal(t, int64(3), newer[1].Seq)

		none, err := repo.GetNewSince(ctx, "s1", 3)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("duplicate session and sequence is rejected", func(t *testing.T) {
		t.Parallel()
		repo := newTestRepo(t)
		obs := memObs("r1", 7, -36.85, 174.76)
		require.NoError(t, repo.Insert(ctx, obs))
		assert.Error(t, repo.Insert(ctx, obs))
	})

	t.Run("list filters by rover and sequence with a limit", func(t *testing.T) {
		t.Parallel()
		repo := newTestRepo(t)
		require.NoError(t, repo.InsertBatch(ctx, []models.Observation{
			memObs("r1", 1, -36.850, 174.760),
			memObs("r1", 2, -36.851, 174.761),
			memObs("r1", 3, -36.852, 174.762),
			memObs("r2", 4, -36.86, 174.77),
		}))

		obs, err := repo.List(ctx, models.ObservationFilter{SessionID: "s1", RoverID: "r1", AfterSeq: 1, Limit: 1})
		require.NoError(t, err)
		require.Len(t, obs, 1)
		assert.Equal(t, int64(2), obs[0].Seq)

		obs, err = repo.List(ctx, models.ObservationFilter{SessionID: "s1"})
		require.NoError(t, err)
		assert.Len(t, obs, 4)
	})

	t.Run("trail is ordered and scoped to the rover", func(t *testing.T) {
		t.Parallel()
		repo := newTestRepo(t)
		require.NoError(t, repo.InsertBatch(ctx, []models.Observation{
			memObs("r1", 2, -36.851, 174.761),
			memObs("r1", 1, -36.850, 174.760),
			memObs("r2", 3, -36.9, 174.8),
		}))

		trail, err := repo.GetTrail(ctx, "s1", "r1")
		require.NoError(t, err)
		require.Len(t, trail, 2)
		assert.Equal(t, int64(1), trail[0].Seq)
		assert.Equal(t, int64(2), trail[1].Seq)
		assert.Equal(t, -36.850, trail[0].Latitude)
	})
}
