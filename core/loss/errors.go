package loss

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a record with a missing or out-of-range field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUndefinedResult marks a computation with no defined value, such as
	// the loss percentage of a line without load.
	ErrUndefinedResult = errors.New("undefined result")
	// ErrDatasetMismatch marks duplicate line ids or failed joins.
	ErrDatasetMismatch = errors.New("dataset mismatch")
)

// LineError attributes a failure to a single line.
type LineError struct {
	LineID string
	Field  string
	Err    error
}

func (e *LineError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %q: %v", e.LineID, e.Err)
	}
	return fmt.Sprintf("line %q: %s: %v", e.LineID, e.Field, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

func invalid(lineID, field, format string, args ...any) error {
	return &LineError{
		LineID: lineID,
		Field:  field,
		Err:    fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...)),
	}
}
