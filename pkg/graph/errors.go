package graph

import (
	"errors"
	"fmt"
)

var (
	ErrBuilderFinalized = errors.New("graph builder already finalized")
	ErrInvalidSnapshot  = errors.New("invalid graph snapshot")
)

// EmptyGraphError is returned by Finalize when no usable edge was added.
type EmptyGraphError struct {
	WaysAdded int
}

func (e *EmptyGraphError) Error() string {
	return fmt.Sprintf("graph has no usable edges after %d ways", e.WaysAdded)
}
