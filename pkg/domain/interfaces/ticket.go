package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
)

// TicketRepository defines the interface for Ticket data access. Every write
// is idempotent so duplicated or reordered Slack deliveries converge.
type TicketRepository interface {
	// Create stores t unless a ticket with the same ID already exists. It
	// returns the stored ticket and whether this call created it.
	Create(ctx context.Context, t *model.Ticket) (*model.Ticket, bool, error)

	// Get retrieves a ticket by ID
	Get(ctx context.Context, id types.TicketID) (*model.Ticket, error)

	// FindByThread retrieves the ticket attached to the thread of ref.
	// Returns nil, nil if the thread has no ticket.
	FindByThread(ctx context.Context, ref model.MessageReference) (*model.Ticket, error)

	// AppendStatus atomically moves the ticket to status at when if the
	// ticket transition table allows it. A forbidden or repeated transition
	// is a no-op: the current ticket is returned with appended=false.
	AppendStatus(ctx context.Context, id types.TicketID, status types.TicketStatus, when time.Time) (ticket *model.Ticket, appended bool, err error)

	// Touch records activity in the ticket thread
	Touch(ctx context.Context, id types.TicketID, when time.Time) error

	// UpdateClassification sets the impact and merges tags
	UpdateClassification(ctx context.Context, id types.TicketID, impact *types.Impact, tags model.Tags) (*model.Ticket, error)

	// SetTeam assigns the ticket to team
	SetTeam(ctx context.Context, id types.TicketID, team types.TeamID) error

	// List returns one page of tickets matching filter, newest first, and the
	// total number of matching tickets
	List(ctx context.Context, filter model.TicketFilter, offset, limit int) ([]*model.Ticket, int, error)

	// ListStaleCandidates returns opened tickets without activity since before
	ListStaleCandidates(ctx context.Context, before time.Time) ([]*model.Ticket, error)
}
