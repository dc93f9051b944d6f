package density

import (
	"errors"
	"fmt"
)

// Error kinds shared by every stage of the pipeline.
var (
	// ErrMissingDependency indicates a required estimation or rendering
	// capability is unavailable at startup.
	ErrMissingDependency = errors.New("density: required capability unavailable")

	// ErrMissingFile indicates an input file referenced by the manifest does not exist.
	ErrMissingFile = errors.New("density: input file not found")

	// ErrParse indicates a manifest, sample, or parameter file does not match its format.
	ErrParse = errors.New("density: malformed input")

	// ErrDegenerateSample indicates a sample with fewer than two points,
	// zero range, or zero variance.
	ErrDegenerateSample = errors.New("density: degenerate sample")

	// ErrUserAbort indicates the operator declined to proceed.
	ErrUserAbort = errors.New("density: aborted by user")

	// ErrUnknownBandwidth indicates a bandwidth rule token that is not recognised.
	ErrUnknownBandwidth = errors.New("density: unknown bandwidth rule")
)

// EstimationError wraps an estimation failure with the series and stage
// that produced it.
type EstimationError struct {
	Series  string
	Stage   string
	Wrapped error
}

func (e *EstimationError) Error() string {
	if e.Series == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Wrapped)
	}
	return fmt.Sprintf("%s (%s): %v", e.Stage, e.Series, e.Wrapped)
}

func (e *EstimationError) Unwrap() error {
	return e.Wrapped
}
