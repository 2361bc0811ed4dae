package osmparser

import (
	"errors"
	"fmt"
)

const MaxReportedErrors = 100

var ErrUnsupportedFormat = errors.New("unsupported extract format")

type RecordKind string

const (
	KindNode RecordKind = "node"
	KindWay  RecordKind = "way"
	KindLine RecordKind = "line"
)

// MalformedInputError describes one extract record that was skipped.
type MalformedInputError struct {
	Kind   RecordKind
	ID     int64
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed %s %d: %s", e.Kind, e.ID, e.Reason)
}
