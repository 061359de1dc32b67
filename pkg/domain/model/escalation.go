package model

import (
	"slices"
	"time"

	"github.com/secmon-lab/shepherd/pkg/domain/types"
)

// Escalation hands a ticket over to a team. A ticket has at most one opened
// escalation at a time.
type Escalation struct {
	ID          types.EscalationID     `firestore:"id" json:"id"`
	TicketID    types.TicketID         `firestore:"ticket_id" json:"ticket_id"`
	Status      types.EscalationStatus `firestore:"status" json:"status"`
	Team        types.TeamID           `firestore:"team" json:"team"`
	Tags        Tags                   `firestore:"tags" json:"tags"`
	EscalatedBy string                 `firestore:"escalated_by" json:"escalated_by"`
	CreatedAt   time.Time              `firestore:"created_at" json:"created_at"`
	ResolvedAt  *time.Time             `firestore:"resolved_at" json:"resolved_at,omitempty"`
}

// NewEscalation creates an opened, not yet persisted escalation
func NewEscalation(ticketID types.TicketID, team types.TeamID, tags Tags, actorID string) *Escalation {
	return &Escalation{
		TicketID:    ticketID,
		Status:      types.EscalationStatusOpened,
		Team:        team,
		Tags:        slices.Clone(tags),
		EscalatedBy: actorID,
	}
}

// Resolve marks the escalation resolved at when. It returns false when the
// escalation was already resolved.
func (e *Escalation) Resolve(when time.Time) bool {
	if e.Status == types.EscalationStatusResolved {
		return false
	}
	e.Status = types.EscalationStatusResolved
	e.ResolvedAt = &when
	return true
}

// IsOpen reports whether the escalation is still opened
func (e *Escalation) IsOpen() bool {
	return e.Status == types.EscalationStatusOpened
}

// Copy returns a deep copy of the escalation
func (e *Escalation) Copy() *Escalation {
	copied := *e
	copied.Tags = slices.Clone(e.Tags)
	if e.ResolvedAt != nil {
		at := *e.ResolvedAt
		copied.ResolvedAt = &at
	}
	return &copied
}
