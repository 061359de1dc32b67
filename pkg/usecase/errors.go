package usecase

import "errors"

// Sentinel errors for use case layer
var (
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrEscalationNotFound = errors.New("escalation not found")
	ErrUnknownTeam        = errors.New("unknown team")
	ErrUnexpectedEvent    = errors.New("unexpected event type")
)

// Context keys for error values
const (
	TicketIDKey     = "ticket_id"
	EscalationIDKey = "escalation_id"
	TeamIDKey       = "team_id"
)
