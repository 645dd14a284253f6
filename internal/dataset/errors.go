package dataset

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned for inputs that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file format; upload a CSV or Excel (.xlsx) file")

// ErrEmpty indicates an operation needs at least one row.
var ErrEmpty = errors.New("dataset is empty")

// LoadError wraps failures reading or fetching a source: malformed files,
// unreachable URLs, invalid sheet references.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("load failed: %v", e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SelectionError reports a column choice the requested operation cannot use.
// It covers unknown columns, too few value columns and type mismatches alike.
type SelectionError struct {
	Op     string
	Column string
	Reason string
}

func (e *SelectionError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: column %q: %s", e.Op, e.Column, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Incompatible builds a SelectionError with a formatted reason.
func Incompatible(op, column, format string, args ...any) error {
	return &SelectionError{Op: op, Column: column, Reason: fmt.Sprintf(format, args...)}
}

// UnknownColumn reports a column missing from the dataset.
func UnknownColumn(op, column string) error {
	return &SelectionError{Op: op, Column: column, Reason: "no such column"}
}

// IsUserError reports whether err is one of the expected, user-recoverable
// failures rather than an internal fault.
func IsUserError(err error) bool {
	var le *LoadError
	var se *SelectionError
	return errors.As(err, &le) || errors.As(err, &se) ||
		errors.Is(err, ErrUnsupportedFormat) || errors.Is(err, ErrEmpty)
}
