package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fetched_at TEXT NOT NULL,
		raw BLOB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS station_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		station_index INTEGER NOT NULL,
		station_name TEXT NOT NULL,
		status INTEGER NOT NULL,
		observed_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_station_events_station ON station_events (station_index, id)`,
}

// Open opens the SQLite database at path, creating its directory if needed.
// The pool is limited to one connection so ":memory:" databases stay shared.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dbConn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	dbConn.SetMaxOpenConns(1)

	if err := dbConn.Ping(); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return dbConn, nil
}

// ApplyMigrations creates any missing tables and indexes.
func ApplyMigrations(db *sql.DB) error {
	tx, err := StartTransaction(db)
	if err != nil {
		return err
	}
	for i, stmt := range migrations {
		if _, err := tx.Exec(stmt); err != nil {
			RollbackTransaction(tx)
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	if err := CommitTransaction(tx); err != nil {
		return err
	}

	log.Debug().Int("statements", len(migrations)).Msg("Database migrations applied")
	return nil
}
