package decode

import (
	"errors"
	"fmt"
)

var (
	ErrStructuralMismatch = errors.New("structural mismatch")
	ErrProgramDecode      = errors.New("program decode failed")
)

// StructuralMismatchError reports a snapshot array or key that cannot back
// the counts the snapshot itself declares.
type StructuralMismatchError struct {
	Field string
	Want  int
	Got   int
	// Missing is set when the field is absent or not an array.
	Missing bool
}

func (e *StructuralMismatchError) Error() string {
	if e.Missing {
		return fmt.Sprintf("structural mismatch: %s missing or malformed", e.Field)
	}
	if e.Want < 0 {
		return fmt.Sprintf("structural mismatch: %s declares negative count %d", e.Field, e.Want)
	}
	return fmt.Sprintf("structural mismatch: %s has %d entries, need %d", e.Field, e.Got, e.Want)
}

func (e *StructuralMismatchError) Unwrap() error {
	return ErrStructuralMismatch
}

// ProgramDecodeError names the tuple field that could not be decoded.
// Index is -1 when the tuple was decoded outside of a snapshot.
type ProgramDecodeError struct {
	Index int
	Field string
	Err   error
}

func (e *ProgramDecodeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("program decode: field %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("program %d decode: field %s: %v", e.Index, e.Field, e.Err)
}

func (e *ProgramDecodeError) Unwrap() []error {
	return []error{ErrProgramDecode, e.Err}
}
