package decode

import (
	"errors"
	"fmt"

	"github.com/thatsimonsguy/sprinkler-controller/internal/model"
	"github.com/thatsimonsguy/sprinkler-controller/internal/registry"
	"github.com/thatsimonsguy/sprinkler-controller/internal/snapshot"
)

// Assemble builds a Controller from a snapshot. Property resolution is
// lenient; station and program construction is not, and any failure there
// discards the whole Controller.
func Assemble(snap snapshot.Snapshot) (*model.Controller, error) {
	props := registry.Resolve(snap)

	en, ok := snap.Lookup("settings", "en")
	if !ok {
		return nil, &StructuralMismatchError{Field: "settings.en", Missing: true}
	}
	enabled := snapshot.Bool(en)

	numStations, err := props.Int("num_stations")
	if err != nil {
		return nil, &StructuralMismatchError{Field: "status.nstations", Missing: true}
	}
	stations, err := Stations(snap, numStations)
	if err != nil {
		return nil, err
	}

	numPrograms, err := props.Int("num_programs")
	if err != nil {
		return nil, &StructuralMismatchError{Field: "programs.nprogs", Missing: true}
	}
	programs, err := Programs(snap, numPrograms)
	if err != nil {
		return nil, err
	}

	return model.NewController(props, enabled, stations, programs), nil
}

// Programs decodes programs.pd[0..numPrograms).
func Programs(snap snapshot.Snapshot, numPrograms int) ([]model.Program, error) {
	if numPrograms < 0 {
		return nil, &StructuralMismatchError{Field: "programs.nprogs", Want: numPrograms}
	}
	if numPrograms == 0 {
		return []model.Program{}, nil
	}
	raw, ok := snap.Lookup("programs", "pd")
	if !ok {
		return nil, &StructuralMismatchError{Field: "programs.pd", Missing: true}
	}
	pd, ok := snapshot.Array(raw)
	if !ok {
		return nil, &StructuralMismatchError{Field: "programs.pd", Missing: true}
	}
	if len(pd) < numPrograms {
		return nil, &StructuralMismatchError{Field: "programs.pd", Want: numPrograms, Got: len(pd)}
	}

	programs := make([]model.Program, 0, numPrograms)
	for idx := 0; idx < numPrograms; idx++ {
		p, err := Program(pd[idx])
		if err != nil {
			var pde *ProgramDecodeError
			if errors.As(err, &pde) {
				pde.Index = idx
				return nil, pde
			}
			return nil, fmt.Errorf("program %d: %w", idx, err)
		}
		p.Index = idx
		programs = append(programs, p)
	}
	return programs, nil
}
