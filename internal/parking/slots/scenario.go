package slots

import "fmt"

// ScenarioCode is the sensor's classification of a scanned slot's parking
// type.
type ScenarioCode int

const (
	ScenarioUnknown        ScenarioCode = 0
	ScenarioParallel       ScenarioCode = 1
	ScenarioPerpendicular  ScenarioCode = 2
	ScenarioAngledForward  ScenarioCode = 3
	ScenarioAngledBackward ScenarioCode = 4
)

func (c ScenarioCode) String() string {
	switch c {
	case ScenarioParallel:
		return "parallel"
	case ScenarioPerpendicular:
		return "perpendicular"
	case ScenarioAngledForward:
		return "angled-forward"
	case ScenarioAngledBackward:
		return "angled-backward"
	case ScenarioUnknown:
		return "unknown"
	}
	return fmt.Sprintf("scenario(%d)", int(c))
}

// SlotType maps a scenario code onto the ground-truth slot layout. The
// second return is false for codes that do not correspond to any layout.
func (c ScenarioCode) SlotType() (SlotType, bool) {
	switch c {
	case ScenarioParallel:
		return Parallel, true
	case ScenarioPerpendicular:
		return Perpendicular, true
	case ScenarioAngledForward, ScenarioAngledBackward:
		return Angled, true
	}
	return "", false
}

// TypeMatches reports whether a scanned scenario code agrees with the
// ground-truth slot type. Angled slots accept both angled codes.
func TypeMatches(t SlotType, code ScenarioCode) bool {
	st, ok := code.SlotType()
	return ok && st == t
}
