package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/scenttrack/scent-coverage-go/internal/models"
	"github.com/scenttrack/scent-coverage-go/internal/scent"
)

const observationColumns = `id, rover_id, rover_name, session_id, seq, captured_at,
	latitude, longitude, wind_bearing, wind_speed`

// ObservationRepository is the SQLite-backed observation source.
type ObservationRepository struct {
	db *sql.DB
}

// NewObservationRepository creates a new observation repository
func NewObservationRepository(db *sql.DB) *ObservationRepository {
	return &ObservationRepository{db: db}
}

// Initialize verifies connectivity. Schema creation is handled by the
// database migrations.
func (r *ObservationRepository) Initialize(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return sourceErr("ping database", err)
	}
	return nil
}

// GetAll retrieves every observation for a session, ascending by sequence
func (r *ObservationRepository) GetAll(ctx context.Context, sessionID string) ([]models.Observation, error) {
	query := `SELECT ` + observationColumns + `
		FROM observations WHERE session_id = ? ORDER BY seq ASC`
	return r.query(ctx, query, sessionID)
}

// GetNewSince retrieves observations with sequence numbers greater than
// lastSeq, ascending by sequence
func (r *ObservationRepository) GetNewSince(ctx context.Context, sessionID string, lastSeq int64) ([]models.Observation, error) {
	query := `SELECT ` + observationColumns + `
		FROM observations WHERE session_id = ? AND seq > ? ORDER BY seq ASC`
	return r.query(ctx, query, sessionID, lastSeq)
}

func (r *ObservationRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.Observation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, sourceErr("query observations", err)
	}
	defer rows.Close()

	var obs []models.Observation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		obs = append(obs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, sourceErr("read observations", err)
	}
	return obs, nil
}

func scanObservation(rows *sql.Rows) (models.Observation, error) {
	var o models.Observation
	var capturedAtMs int64
	err := rows.Scan(
		&o.ID, &o.RoverID, &o.RoverName, &o.SessionID, &o.Seq, &capturedAtMs,
		&o.Latitude, &o.Longitude, &o.WindBearingDeg, &o.WindSpeedMS,
	)
	if err != nil {
		return models.Observation{}, err
	}
	o.CapturedAt = time.UnixMilli(capturedAtMs).UTC()
	return o, nil
}

// Insert stores one observation. Duplicate (session, seq) pairs are
// rejected by the unique index.
func (r *ObservationRepository) Insert(ctx context.Context, o models.Observation) error {
	query := `INSERT INTO observations
		(rover_id, rover_name, session_id, seq, captured_at, latitude, longitude, wind_bearing, wind_speed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		o.RoverID, o.RoverName, o.SessionID, o.Seq, o.CapturedAt.UnixMilli(),
		o.Latitude, o.Longitude, o.WindBearingDeg, o.WindSpeedMS,
	)
	if err != nil {
		return fmt.Errorf("failed to insert observation: %w", err)
	}
	return nil
}

// InsertBatch stores multiple observations in one transaction.
func (r *ObservationRepository) InsertBatch(ctx context.Context, batch []models.Observation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO observations
		(rover_id, rover_name, session_id, seq, captured_at, latitude, longitude, wind_bearing, wind_speed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, o := range batch {
		_, err := stmt.ExecContext(ctx,
			o.RoverID, o.RoverName, o.SessionID, o.Seq, o.CapturedAt.UnixMilli(),
			o.Latitude, o.Longitude, o.WindBearingDeg, o.WindSpeedMS,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert observation seq %d: %w", o.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// List retrieves observations matching the filter, ascending by sequence.
func (r *ObservationRepository) List(ctx context.Context, f models.ObservationFilter) ([]models.Observation, error) {
	query := `SELECT ` + observationColumns + `
		FROM observations WHERE session_id = ?`
	args := []interface{}{f.SessionID}
	if f.RoverID != "" {
		query += " AND rover_id = ?"
		args = append(args, f.RoverID)
	}
	if f.AfterSeq > 0 {
		query += " AND seq > ?"
		args = append(args, f.AfterSeq)
	}
	query += " ORDER BY seq ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	return r.query(ctx, query, args...)
}

// GetTrail retrieves a rover's ordered trail coordinates for a session.
func (r *ObservationRepository) GetTrail(ctx context.Context, sessionID, roverID string) ([]models.TrailPoint, error) {
	query := `SELECT seq, captured_at, latitude, longitude
		FROM observations WHERE session_id = ? AND rover_id = ? ORDER BY seq ASC`

	rows, err := r.db.QueryContext(ctx, query, sessionID, roverID)
	if err != nil {
		return nil, sourceErr("query trail", err)
	}
	defer rows.Close()

	var trail []models.TrailPoint
	for rows.Next() {
		var p models.TrailPoint
		var capturedAtMs int64
		if err := rows.Scan(&p.Seq, &capturedAtMs, &p.Latitude, &p.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan trail point: %w", err)
		}
		p.CapturedAt = time.UnixMilli(capturedAtMs).UTC()
		trail = append(trail, p)
	}
	if err := rows.Err(); err != nil {
		return nil, sourceErr("read trail", err)
	}
	return trail, nil
}

// sourceErr tags a storage failure so callers can recognize it with
// errors.Is(err, scent.ErrSourceUnavailable).
func sourceErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(scent.ErrSourceUnavailable, err))
}
