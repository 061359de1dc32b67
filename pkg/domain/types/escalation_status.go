package types

import "fmt"

// EscalationStatus represents the status of an escalation
type EscalationStatus string

const (
	EscalationStatusOpened   EscalationStatus = "opened"
	EscalationStatusResolved EscalationStatus = "resolved"
)

// IsValid checks if the escalation status is valid
func (s EscalationStatus) IsValid() bool {
	switch s {
	case EscalationStatusOpened, EscalationStatusResolved:
		return true
	default:
		return false
	}
}

// String returns the string representation of the escalation status
func (s EscalationStatus) String() string {
	return string(s)
}

// ParseEscalationStatus parses a string into an EscalationStatus
func ParseEscalationStatus(s string) (EscalationStatus, error) {
	status := EscalationStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid escalation status: %s", s)
	}
	return status, nil
}
