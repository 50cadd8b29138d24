package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/thatsimonsguy/sprinkler-controller/internal/model"
)

// StartTransaction starts a new database transaction.
func StartTransaction(db *sql.DB) (*sql.Tx, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	return tx, nil
}

// CommitTransaction commits the given transaction.
func CommitTransaction(tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RollbackTransaction rolls back the given transaction.
func RollbackTransaction(tx *sql.Tx) {
	tx.Rollback()
}

// SaveSnapshot stores a raw /ja document and returns its row id.
func SaveSnapshot(db *sql.DB, fetchedAt time.Time, raw []byte) (int64, error) {
	res, err := db.Exec(`INSERT INTO snapshots (fetched_at, raw) VALUES (?, ?)`,
		fetchedAt.UTC().Format(time.RFC3339Nano), raw)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("snapshot id: %w", err)
	}
	return id, nil
}

// PruneSnapshots keeps the newest keep snapshots and deletes the rest.
func PruneSnapshots(db *sql.DB, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := db.Exec(`DELETE FROM snapshots WHERE id NOT IN (
		SELECT id FROM snapshots ORDER BY id DESC LIMIT ?
	)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// RecordStationEvents stores one status row per station in a single
// transaction.
func RecordStationEvents(db *sql.DB, stations []model.Station, observedAt time.Time) error {
	if len(stations) == 0 {
		return nil
	}

	tx, err := StartTransaction(db)
	if err != nil {
		return err
	}
	if err := RecordStationEventsWithTx(tx, stations, observedAt); err != nil {
		RollbackTransaction(tx)
		return err
	}
	return CommitTransaction(tx)
}

func RecordStationEventsWithTx(tx *sql.Tx, stations []model.Station, observedAt time.Time) error {
	ts := observedAt.UTC().Format(time.RFC3339Nano)
	for _, s := range stations {
		_, err := tx.Exec(`INSERT INTO station_events (station_index, station_name, status, observed_at) VALUES (?, ?, ?, ?)`,
			s.Index, s.Name, s.Status, ts)
		if err != nil {
			return fmt.Errorf("insert event for station %d: %w", s.Index, err)
		}
	}
	return nil
}
