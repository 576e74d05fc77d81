package tolerance

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument indicates an out-of-range ratio, level or fraction.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrParse indicates a malformed tolerance document.
var ErrParse = errors.New("malformed tolerance document")

// ParseError describes why a tolerance document was rejected.
// errors.Is(err, ErrParse) holds for every ParseError, and the cause (for
// example an ErrInvalidArgument from a range check) is preserved.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tolerance: %s: %v", e.Msg, e.Err)
	}
	return "tolerance: " + e.Msg
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}

func parseErr(err error, format string, args ...any) *ParseError {
	return &ParseError{Msg: fmt.Sprintf(format, args...), Err: err}
}
