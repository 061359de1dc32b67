package types

import "fmt"

// TicketStatus represents the lifecycle status of a ticket
type TicketStatus string

const (
	TicketStatusOpened TicketStatus = "opened"
	TicketStatusStale  TicketStatus = "stale"
	TicketStatusClosed TicketStatus = "closed"
)

// AllTicketStatuses returns all valid ticket statuses
func AllTicketStatuses() []TicketStatus {
	return []TicketStatus{
		TicketStatusOpened,
		TicketStatusStale,
		TicketStatusClosed,
	}
}

// IsValid checks if the ticket status is valid
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusOpened,
		TicketStatusStale,
		TicketStatusClosed:
		return true
	default:
		return false
	}
}

// CanTransitTo reports whether moving from s to next is a real transition.
// Moving to the current status, leaving closed, or going back to opened are
// not transitions; callers treat them as no-ops.
func (s TicketStatus) CanTransitTo(next TicketStatus) bool {
	switch s {
	case TicketStatusOpened:
		return next == TicketStatusStale || next == TicketStatusClosed
	case TicketStatusStale:
		return next == TicketStatusClosed
	case TicketStatusClosed:
		return false
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusClosed
}

// Emoji returns an emoji for message rendering
func (s TicketStatus) Emoji() string {
	switch s {
	case TicketStatusOpened:
		return ":large_green_circle:"
	case TicketStatusStale:
		return ":hourglass:"
	case TicketStatusClosed:
		return ":white_check_mark:"
	default:
		return ":grey_question:"
	}
}

// String returns the string representation of the ticket status
func (s TicketStatus) String() string {
	return string(s)
}

// ParseTicketStatus parses a string into a TicketStatus
func ParseTicketStatus(s string) (TicketStatus, error) {
	status := TicketStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid ticket status: %s", s)
	}
	return status, nil
}
