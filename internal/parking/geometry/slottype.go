package geometry

import "strings"

// SlotType is the layout of a parking slot relative to the road.
type SlotType string

const (
	SlotParallel      SlotType = "parallel"
	SlotPerpendicular SlotType = "perpendicular"
	SlotAngled        SlotType = "angled"
)

// ParseSlotType normalises an annotation type string. Unrecognised values
// are kept verbatim so that CenterDistances can reject them later.
func ParseSlotType(s string) SlotType {
	t := SlotType(strings.ToLower(strings.TrimSpace(s)))
	if t.Known() {
		return t
	}
	return SlotType(s)
}

// Known reports whether t is one of the declared slot types.
func (t SlotType) Known() bool {
	switch t {
	case SlotParallel, SlotPerpendicular, SlotAngled:
		return true
	}
	return false
}
