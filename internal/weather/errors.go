package weather

import (
	"fmt"
)

// FetchError reports a failed provider call for a coordinate pair.
type FetchError struct {
	Provider string
	At       Coordinates
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s from %s: %v", e.At.Key(), e.Provider, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ShapeError reports a structurally malformed provider payload.
type ShapeError struct {
	Field string
	Err   error
}

func (e *ShapeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("malformed weather payload: missing %s", e.Field)
	}
	return fmt.Sprintf("malformed weather payload: %s: %v", e.Field, e.Err)
}

func (e *ShapeError) Unwrap() error {
	return e.Err
}

// TimezoneWarning is raised when the provider's timezone cannot be resolved
// and UTC is used instead. It does not stop shaping.
type TimezoneWarning struct {
	Requested string
	Err       error
}

func (w TimezoneWarning) String() string {
	return fmt.Sprintf("could not localize timezone %q, using UTC as a fallback", w.Requested)
}
