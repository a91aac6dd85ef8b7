package geometry

import (
	"errors"
	"fmt"
)

var (
	// ErrDegeneratePolygon is returned for polygons with fewer than three
	// distinct points or zero area.
	ErrDegeneratePolygon = errors.New("degenerate polygon")
	// ErrSelfIntersecting is returned when two non-adjacent edges touch.
	ErrSelfIntersecting = errors.New("self-intersecting polygon")
	// ErrNoHorizontalEdge is returned when no point pair lies within the
	// horizontal tolerance.
	ErrNoHorizontalEdge = errors.New("no horizontal edge")
	// ErrUnknownSlotType is returned by CenterDistances for types it cannot
	// map onto short/long axes.
	ErrUnknownSlotType = errors.New("unknown slot type")
)

// GeometryError records which primitive failed. Use errors.Is against the
// sentinel values above to find out why.
type GeometryError struct {
	Op  string
	Err error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("geometry: %s: %v", e.Op, e.Err)
}

func (e *GeometryError) Unwrap() error {
	return e.Err
}

func newError(op string, err error) error {
	return &GeometryError{Op: op, Err: err}
}
