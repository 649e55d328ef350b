package enums

import "fmt"

// ScenarioPhase reports whether a workspace has ever been durably saved.
type ScenarioPhase string

const (
	ScenarioPhaseBuilding  ScenarioPhase = "building"
	ScenarioPhasePersisted ScenarioPhase = "persisted"
)

var validScenarioPhases = []ScenarioPhase{
	ScenarioPhaseBuilding,
	ScenarioPhasePersisted,
}

// String implements fmt.Stringer.
func (p ScenarioPhase) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ScenarioPhase.
func (p ScenarioPhase) IsValid() bool {
	for _, candidate := range validScenarioPhases {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseScenarioPhase converts raw input into a ScenarioPhase.
func ParseScenarioPhase(value string) (ScenarioPhase, error) {
	for _, candidate := range validScenarioPhases {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid scenario phase %q", value)
}
