package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
)

// EscalationRepository defines the interface for Escalation data access
type EscalationRepository interface {
	// CreateIfNotExists stores e with a new ID unless the ticket already has
	// an opened escalation, in which case that one is returned unchanged.
	// The check and the insert are atomic.
	CreateIfNotExists(ctx context.Context, e *model.Escalation) (esc *model.Escalation, created bool, err error)

	// Get retrieves an escalation by ID
	Get(ctx context.Context, id types.EscalationID) (*model.Escalation, error)

	// Resolve marks the escalation resolved. Resolving a resolved escalation
	// returns it with changed=false.
	Resolve(ctx context.Context, id types.EscalationID, when time.Time) (esc *model.Escalation, changed bool, err error)

	// ResolveByTicketID resolves the opened escalation of the ticket.
	// Returns nil, nil if the ticket has no opened escalation.
	ResolveByTicketID(ctx context.Context, ticketID types.TicketID, when time.Time) (*model.Escalation, error)

	// GetOpenByTicketID retrieves the opened escalation of the ticket.
	// Returns nil, nil if there is none.
	GetOpenByTicketID(ctx context.Context, ticketID types.TicketID) (*model.Escalation, error)

	// List retrieves escalations, newest first
	List(ctx context.Context, opts ...ListEscalationOption) ([]*model.Escalation, error)
}

// ListEscalationOption is a functional option for filtering escalations in List
type ListEscalationOption func(*listEscalationConfig)

type listEscalationConfig struct {
	status *types.EscalationStatus
	team   *types.TeamID
}

// WithEscalationStatus filters escalations by status
func WithEscalationStatus(status types.EscalationStatus) ListEscalationOption {
	return func(c *listEscalationConfig) {
		c.status = &status
	}
}

// WithEscalationTeam filters escalations by team
func WithEscalationTeam(team types.TeamID) ListEscalationOption {
	return func(c *listEscalationConfig) {
		c.team = &team
	}
}

// BuildListEscalationConfig builds a listEscalationConfig from options
func BuildListEscalationConfig(opts ...ListEscalationOption) *listEscalationConfig {
	cfg := &listEscalationConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Status returns the status filter value, or nil if not set
func (c *listEscalationConfig) Status() *types.EscalationStatus {
	return c.status
}

// Team returns the team filter value, or nil if not set
func (c *listEscalationConfig) Team() *types.TeamID {
	return c.team
}

// Match reports whether e passes the filter
func (c *listEscalationConfig) Match(e *model.Escalation) bool {
	if c.status != nil && e.Status != *c.status {
		return false
	}
	if c.team != nil && e.Team != *c.team {
		return false
	}
	return true
}
