package series

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks caller errors: bad periods, out-of-range indexes,
// mismatched granularities and unreachable resampling targets.
var ErrInvalidInput = errors.New("invalid input")

var (
	ErrIndexOutOfRange     = fmt.Errorf("%w: index out of range", ErrInvalidInput)
	ErrGranularityMismatch = fmt.Errorf("%w: granularity mismatch", ErrInvalidInput)
)

func indexError(i, n int) error {
	return fmt.Errorf("%w: %d (length %d)", ErrIndexOutOfRange, i, n)
}
