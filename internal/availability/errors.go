package availability

import "errors"

var (
	ErrInvalidRange = errors.New("invalid date range")
)

// ComputationError is a fatal failure while computing availability, such as
// an unresolvable time zone or a broken invariant. It is never retried.
type ComputationError struct {
	Op  string
	Err error
}

func (e *ComputationError) Error() string {
	return "availability: " + e.Op + ": " + e.Err.Error()
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}
