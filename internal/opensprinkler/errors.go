package opensprinkler

import (
	"errors"
	"fmt"
)

// Device result codes, returned as {"result": N} by command endpoints.
const (
	resultSuccess      = 1
	resultUnauthorized = 2
	resultMismatch     = 3
	resultDataMissing  = 16
	resultOutOfRange   = 17
	resultDataFormat   = 18
	resultRFCode       = 19
	resultPageNotFound = 32
	resultNotPermitted = 48
)

var (
	ErrUnauthorized = errors.New("opensprinkler: password missing or incorrect")
	ErrMismatch     = errors.New("opensprinkler: new and confirmation password do not match")
	ErrDataMissing  = errors.New("opensprinkler: missing required parameters")
	ErrOutOfRange   = errors.New("opensprinkler: parameter value out of range")
	ErrDataFormat   = errors.New("opensprinkler: parameter does not match required format")
	ErrRFCode       = errors.New("opensprinkler: RF code does not match required format")
	ErrPageNotFound = errors.New("opensprinkler: page not found")
	ErrNotPermitted = errors.New("opensprinkler: operation not permitted on station")
	ErrUnexpected   = errors.New("opensprinkler: unexpected response")
	ErrUnavailable  = errors.New("opensprinkler: device unreachable")
)

var resultErrors = map[int]error{
	resultUnauthorized: ErrUnauthorized,
	resultMismatch:     ErrMismatch,
	resultDataMissing:  ErrDataMissing,
	resultOutOfRange:   ErrOutOfRange,
	resultDataFormat:   ErrDataFormat,
	resultRFCode:       ErrRFCode,
	resultPageNotFound: ErrPageNotFound,
	resultNotPermitted: ErrNotPermitted,
}

// DeviceError carries the verb and HTTP/result codes of a failed request.
type DeviceError struct {
	Sentinel error
	Verb     string
	Status   int
	Result   int
	Err      error
}

func (e *DeviceError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Verb, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Result > 0 {
		msg = fmt.Sprintf("%s (result %d)", msg, e.Result)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DeviceError) Unwrap() error {
	return e.Sentinel
}

func resultError(verb string, result int) error {
	if result == resultSuccess {
		return nil
	}
	sentinel, ok := resultErrors[result]
	if !ok {
		sentinel = ErrUnexpected
	}
	return &DeviceError{Sentinel: sentinel, Verb: verb, Result: result}
}
