package db

import (
	"fmt"
)

// LatestSnapshotCLI opens the database at dbPath and returns the newest raw
// snapshot, for offline inspection.
func LatestSnapshotCLI(dbPath string) (SnapshotRecord, error) {
	dbConn, err := Open(dbPath)
	if err != nil {
		return SnapshotRecord{}, err
	}
	defer dbConn.Close()
	return LatestSnapshot(dbConn)
}

func PruneSnapshotsCLI(dbPath string, keep int) error {
	dbConn, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	n, err := PruneSnapshots(dbConn, keep)
	if err != nil {
		return err
	}
	fmt.Printf("Pruned %d snapshots, kept newest %d\n", n, keep)
	return nil
}
