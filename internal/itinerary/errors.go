package itinerary

import (
	"errors"
	"fmt"

	"github.com/tripdesk/tripdesk-go/internal/model"
)

// ErrNotFound is returned when no activity row matches the given
// (time, activity) pair.
var ErrNotFound = errors.New("no matching activity")

// ValidationError reports bad input caught before any remote call.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// PartialMoveError reports a move whose target write succeeded but
// whose source delete failed, leaving the row duplicated across both
// day sheets. It needs manual reconciliation and must never be
// collapsed into a generic failure.
type PartialMoveError struct {
	SourceDay int
	TargetDay int
	Key       model.MatchKey
	Err       error
}

func (e *PartialMoveError) Error() string {
	return fmt.Sprintf("move %q/%q: written to day %d but delete from day %d failed, row is duplicated: %v",
		e.Key.Time, e.Key.Activity, e.TargetDay, e.SourceDay, e.Err)
}

func (e *PartialMoveError) Unwrap() error { return e.Err }
