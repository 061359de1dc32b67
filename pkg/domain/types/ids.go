package types

import (
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

var idPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// TicketID identifies a ticket. It is derived from the thread the ticket is
// attached to, so the same thread always maps to the same ID.
type TicketID string

// NewTicketID builds the ticket ID of a thread
func NewTicketID(channelID, threadTS string) TicketID {
	return TicketID(channelID + "_" + threadTS)
}

// Validate checks if the TicketID is valid
func (id TicketID) Validate() error {
	channel, ts, ok := strings.Cut(string(id), "_")
	if !ok || channel == "" || ts == "" {
		return goerr.New("malformed ticket ID", goerr.V("id", id))
	}
	if strings.Contains(string(id), "/") {
		return goerr.New("ticket ID must not contain slash", goerr.V("id", id))
	}
	return nil
}

// String returns the string representation of TicketID
func (id TicketID) String() string {
	return string(id)
}

// EscalationID identifies an escalation. Empty until persisted.
type EscalationID string

// String returns the string representation of EscalationID
func (id EscalationID) String() string {
	return string(id)
}

// Tag is a free-form label attached to tickets and escalations
type Tag string

// Validate checks if the Tag is valid
func (t Tag) Validate() error {
	if t == "" {
		return goerr.New("tag cannot be empty")
	}
	if !idPattern.MatchString(string(t)) {
		return goerr.New("tag must be lowercase alphanumeric with hyphens", goerr.V("tag", t))
	}
	return nil
}
