package database

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a versioned schema change.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_observations",
		SQL: `
			CREATE TABLE IF NOT EXISTS observations (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				rover_id TEXT NOT NULL,
				rover_name TEXT NOT NULL,
				session_id TEXT NOT NULL,
				seq INTEGER NOT NULL,
				captured_at INTEGER NOT NULL,
				latitude REAL NOT NULL,
				longitude REAL NOT NULL,
				wind_bearing REAL NOT NULL,
				wind_speed REAL NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				UNIQUE(session_id, seq)
			)
		`,
	},
	{
		Version: 2,
		Name:    "index_observations_session_seq",
		SQL: `
			CREATE INDEX IF NOT EXISTS idx_observations_session_seq
				ON observations(session_id, seq);
			CREATE INDEX IF NOT EXISTS idx_observations_session_rover
				ON observations(session_id, rover_id, seq);
		`,
	},
}

// Migrate applies pending migrations in version order.
func Migrate(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := conn.Query("SELECT version FROM migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := Transaction(conn, func(tx *sql.Tx) error {
			if _, err := tx.Exec(m.SQL); err != nil {
				return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
			}
			if _, err := tx.Exec("INSERT INTO migrations (version, name) VALUES (?, ?)", m.Version, m.Name); err != nil {
				return fmt.Errorf("record migration %d: %w", m.Version, err)
			}
			return nil
		}); err != nil {
			return err
		}
		log.Printf("Applied migration %d: %s", m.Version, m.Name)
	}

	return nil
}
