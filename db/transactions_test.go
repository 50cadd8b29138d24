package db

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/sprinkler-controller/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbConn, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { dbConn.Close() })
	require.NoError(t, ApplyMigrations(dbConn))
	return dbConn
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	dbConn := openTestDB(t)
	require.NoError(t, ApplyMigrations(dbConn))

	rows, err := dbConn.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		tables = append(tables, name)
	}
	assert.Equal(t, []string{"snapshots", "station_events"}, tables)
}

func TestSnapshots_SaveLatestPrune(t *testing.T) {
	dbConn := openTestDB(t)

	_, err := LatestSnapshot(dbConn)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	base := time.Date(2026, 6, 1, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := SaveSnapshot(dbConn, base.Add(time.Duration(i)*time.Minute), []byte(`{"n":`+string(rune('0'+i))+`}`))
		require.NoError(t, err)
	}

	latest, err := LatestSnapshot(dbConn)
	require.NoError(t, err)
	assert.Equal(t, `{"n":4}`, string(latest.Raw))
	assert.True(t, latest.FetchedAt.Equal(base.Add(4*time.Minute)))

	removed, err := PruneSnapshots(dbConn, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	n, err := CountSnapshots(dbConn)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	latest, err = LatestSnapshot(dbConn)
	require.NoError(t, err)
	assert.Equal(t, `{"n":4}`, string(latest.Raw), "pruning keeps the newest rows")
}

func TestStationEvents(t *testing.T) {
	dbConn := openTestDB(t)

	t0 := time.Date(2026, 6, 1, 6, 0, 0, 0, time.UTC)
	require.NoError(t, RecordStationEvents(dbConn, []model.Station{
		{Index: 0, Name: "Front Lawn", Status: 1},
		{Index: 1, Name: "Back Lawn", Status: 0},
	}, t0))
	require.NoError(t, RecordStationEvents(dbConn, []model.Station{
		{Index: 0, Name: "Front Lawn", Status: 0},
	}, t0.Add(10*time.Minute)))
	require.NoError(t, RecordStationEvents(dbConn, nil, t0))

	events, err := GetStationEvents(dbConn, 0, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 0, events[0].Status, "newest first")
	assert.Equal(t, 1, events[1].Status)
	assert.Equal(t, "Front Lawn", events[0].StationName)
	assert.True(t, events[0].ObservedAt.Equal(t0.Add(10*time.Minute)))

	events, err = GetStationEvents(dbConn, 0, 1)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	events, err = GetStationEvents(dbConn, 7, 10)
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}
