package core

import (
	"errors"
	"fmt"
)

// ValidationError reports a business rule failure on user input. Row is the
// zero-based position in a bulk edit, or -1 for a single transaction.
type ValidationError struct {
	Row   int
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("row %d: %s: %v", e.Row+1, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// AtRow returns a copy of err addressed to row i when err is a ValidationError.
func AtRow(err error, i int) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		cp := *ve
		cp.Row = i
		return &cp
	}
	return err
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
