package enums

import "fmt"

// AllocationChangeKind names the mutation that produced a membership change.
type AllocationChangeKind string

const (
	AllocationChangeInitialized AllocationChangeKind = "initialized"
	AllocationChangeMoved       AllocationChangeKind = "moved"
	AllocationChangeReset       AllocationChangeKind = "reset"
)

var validAllocationChangeKinds = []AllocationChangeKind{
	AllocationChangeInitialized,
	AllocationChangeMoved,
	AllocationChangeReset,
}

// String implements fmt.Stringer.
func (k AllocationChangeKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known AllocationChangeKind.
func (k AllocationChangeKind) IsValid() bool {
	for _, candidate := range validAllocationChangeKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseAllocationChangeKind converts raw input into an AllocationChangeKind.
func ParseAllocationChangeKind(value string) (AllocationChangeKind, error) {
	for _, candidate := range validAllocationChangeKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid allocation change kind %q", value)
}
