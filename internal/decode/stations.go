package decode

import (
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/sprinkler-controller/internal/model"
	"github.com/thatsimonsguy/sprinkler-controller/internal/snapshot"
)

// FlagByteStations is how many stations one flag byte can describe. Only
// the first byte of each flag array is read, so stations at index 8 and
// above always decode with every flag cleared.
const FlagByteStations = 8

// Stations builds numStations Station records from the stations and status
// sections of a snapshot.
func Stations(snap snapshot.Snapshot, numStations int) ([]model.Station, error) {
	if numStations < 0 {
		return nil, &StructuralMismatchError{Field: "status.nstations", Want: numStations}
	}
	ignoreRain, err := flagByte(snap, "ignore_rain")
	if err != nil {
		return nil, err
	}
	sequential, err := flagByte(snap, "stn_seq")
	if err != nil {
		return nil, err
	}
	disabled, err := flagByte(snap, "stn_dis")
	if err != nil {
		return nil, err
	}
	special, err := flagByte(snap, "stn_spe")
	if err != nil {
		return nil, err
	}

	names, err := stringArray(snap, "stations", "snames", numStations)
	if err != nil {
		return nil, err
	}
	status, err := intArray(snap, "status", "sn", numStations)
	if err != nil {
		return nil, err
	}

	if numStations > FlagByteStations {
		log.Warn().
			Int("num_stations", numStations).
			Msg("Station flags are only decoded for the first 8 stations")
	}

	stations := make([]model.Station, 0, numStations)
	for idx := 0; idx < numStations; idx++ {
		stations = append(stations, model.Station{
			Name:       names[idx],
			Status:     status[idx],
			Index:      idx,
			IgnoreRain: bit(ignoreRain, idx),
			Sequential: bit(sequential, idx),
			Disabled:   bit(disabled, idx),
			Special:    bit(special, idx),
		})
	}
	return stations, nil
}

func bit(mask, idx int) bool {
	if idx >= 63 {
		return false
	}
	return (mask>>idx)&1 == 1
}

func flagByte(snap snapshot.Snapshot, key string) (int, error) {
	field := "stations." + key
	raw, ok := snap.Lookup("stations", key)
	if !ok {
		return 0, &StructuralMismatchError{Field: field, Missing: true}
	}
	arr, ok := snapshot.Array(raw)
	if !ok {
		return 0, &StructuralMismatchError{Field: field, Missing: true}
	}
	if len(arr) < 1 {
		return 0, &StructuralMismatchError{Field: field, Want: 1, Got: 0}
	}
	mask, err := snapshot.Int(arr[0])
	if err != nil {
		return 0, &StructuralMismatchError{Field: field + "[0]", Missing: true}
	}
	return mask, nil
}

func stringArray(snap snapshot.Snapshot, section, key string, want int) ([]string, error) {
	field := section + "." + key
	raw, ok := snap.Lookup(section, key)
	if !ok {
		return nil, &StructuralMismatchError{Field: field, Missing: true}
	}
	values, err := snapshot.Strings(raw)
	if err != nil {
		return nil, &StructuralMismatchError{Field: field, Missing: true}
	}
	if len(values) < want {
		return nil, &StructuralMismatchError{Field: field, Want: want, Got: len(values)}
	}
	return values, nil
}

func intArray(snap snapshot.Snapshot, section, key string, want int) ([]int, error) {
	field := section + "." + key
	raw, ok := snap.Lookup(section, key)
	if !ok {
		return nil, &StructuralMismatchError{Field: field, Missing: true}
	}
	values, err := snapshot.Ints(raw)
	if err != nil {
		return nil, &StructuralMismatchError{Field: field, Missing: true}
	}
	if len(values) < want {
		return nil, &StructuralMismatchError{Field: field, Want: want, Got: len(values)}
	}
	return values, nil
}
