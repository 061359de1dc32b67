package model

import "github.com/secmon-lab/shepherd/pkg/domain/types"

// DomainEvent is published by the ticket lifecycle and consumed by
// interested handlers in-process. The set of variants is closed.
type DomainEvent interface {
	domainEvent()
}

// TicketStatusChanged is published after a ticket status transition was
// persisted
type TicketStatusChanged struct {
	TicketID  types.TicketID
	NewStatus types.TicketStatus
}

func (*TicketStatusChanged) domainEvent() {}

// TicketEscalated asks for the ticket to be handed over to a team
type TicketEscalated struct {
	Ticket  *Ticket
	Team    types.TeamID
	Tags    Tags
	ActorID string
}

func (*TicketEscalated) domainEvent() {}
