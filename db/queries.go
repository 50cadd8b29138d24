package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrNoSnapshot = errors.New("no snapshot stored")

type SnapshotRecord struct {
	ID        int64
	FetchedAt time.Time
	Raw       []byte
}

type StationEvent struct {
	ID           int64     `json:"id"`
	StationIndex int       `json:"station_index"`
	StationName  string    `json:"station_name"`
	Status       int       `json:"status"`
	ObservedAt   time.Time `json:"observed_at"`
}

// LatestSnapshot returns the most recently stored snapshot.
func LatestSnapshot(db *sql.DB) (SnapshotRecord, error) {
	var rec SnapshotRecord
	var fetchedAt string
	err := db.QueryRow(`SELECT id, fetched_at, raw FROM snapshots ORDER BY id DESC LIMIT 1`).
		Scan(&rec.ID, &fetchedAt, &rec.Raw)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, ErrNoSnapshot
	}
	if err != nil {
		return rec, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	rec.FetchedAt, err = time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return rec, fmt.Errorf("snapshot %d has bad timestamp %q: %w", rec.ID, fetchedAt, err)
	}
	return rec, nil
}

func CountSnapshots(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}

// GetStationEvents returns up to limit events for a station, newest first.
func GetStationEvents(db *sql.DB, stationIndex, limit int) ([]StationEvent, error) {
	rows, err := db.Query(`SELECT id, station_index, station_name, status, observed_at
		FROM station_events WHERE station_index = ? ORDER BY id DESC LIMIT ?`, stationIndex, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query station events: %w", err)
	}
	defer rows.Close()

	events := []StationEvent{}
	for rows.Next() {
		var e StationEvent
		var observedAt string
		if err := rows.Scan(&e.ID, &e.StationIndex, &e.StationName, &e.Status, &observedAt); err != nil {
			return nil, fmt.Errorf("failed to scan station event: %w", err)
		}
		e.ObservedAt, _ = time.Parse(time.RFC3339Nano, observedAt)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read station events: %w", err)
	}
	return events, nil
}
