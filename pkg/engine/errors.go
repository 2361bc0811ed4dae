package engine

import (
	"errors"
	"fmt"
)

var ErrStaleGraph = errors.New("stored graph does not match the extract")

// BuildError wraps a failed import with the number of malformed records
// dropped before the failure.
type BuildError struct {
	Skipped int
	Err     error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build graph (%d records skipped): %v", e.Skipped, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
