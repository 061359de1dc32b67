package types

import (
	"github.com/m-mizutani/goerr/v2"
)

// Impact is the estimated business impact of a ticket
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// AllImpacts returns all valid impact levels, lowest first
func AllImpacts() []Impact {
	return []Impact{ImpactLow, ImpactMedium, ImpactHigh}
}

// Validate checks if the Impact is valid
func (i Impact) Validate() error {
	switch i {
	case ImpactLow, ImpactMedium, ImpactHigh:
		return nil
	default:
		return goerr.New("invalid impact", goerr.V("impact", i))
	}
}

// String returns the string representation of Impact
func (i Impact) String() string {
	return string(i)
}
