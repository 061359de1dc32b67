package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
)

type ticketRepository struct {
	mu      sync.RWMutex
	tickets map[types.TicketID]*model.Ticket
}

func newTicketRepository() *ticketRepository {
	return &ticketRepository{
		tickets: make(map[types.TicketID]*model.Ticket),
	}
}

func (r *ticketRepository) Create(ctx context.Context, t *model.Ticket) (*model.Ticket, bool, error) {
	if err := t.ID.Validate(); err != nil {
		return nil, false, goerr.Wrap(err, "invalid ticket")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.tickets[t.ID]; ok {
		return existing.Copy(), false, nil
	}

	r.tickets[t.ID] = t.Copy()
	return t.Copy(), true, nil
}

func (r *ticketRepository) Get(ctx context.Context, id types.TicketID) (*model.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tickets[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "ticket not found", goerr.V("id", id))
	}
	return t.Copy(), nil
}

func (r *ticketRepository) FindByThread(ctx context.Context, ref model.MessageReference) (*model.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tickets[types.NewTicketID(ref.ChannelID, ref.ThreadKey())]
	if !ok {
		return nil, nil
	}
	return t.Copy(), nil
}

func (r *ticketRepository) AppendStatus(ctx context.Context, id types.TicketID, status types.TicketStatus, when time.Time) (*model.Ticket, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok {
		return nil, false, goerr.Wrap(ErrNotFound, "ticket not found", goerr.V("id", id))
	}

	appended := t.AppendStatus(status, when.UTC())
	return t.Copy(), appended, nil
}

func (r *ticketRepository) Touch(ctx context.Context, id types.TicketID, when time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok {
		return goerr.Wrap(ErrNotFound, "ticket not found", goerr.V("id", id))
	}
	if when.After(t.LastActivityAt) {
		t.LastActivityAt = when.UTC()
	}
	return nil
}

func (r *ticketRepository) UpdateClassification(ctx context.Context, id types.TicketID, impact *types.Impact, tags model.Tags) (*model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "ticket not found", goerr.V("id", id))
	}
	if impact != nil {
		v := *impact
		t.Impact = &v
	}
	t.Tags = t.Tags.Add(tags...)
	return t.Copy(), nil
}

func (r *ticketRepository) SetTeam(ctx context.Context, id types.TicketID, team types.TeamID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok {
		return goerr.Wrap(ErrNotFound, "ticket not found", goerr.V("id", id))
	}
	t.Team = &team
	return nil
}

func (r *ticketRepository) List(ctx context.Context, filter model.TicketFilter, offset, limit int) ([]*model.Ticket, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*model.Ticket, 0, len(r.tickets))
	for _, t := range r.tickets {
		if filter.Match(t) {
			matched = append(matched, t)
		}
	}
	sortTicketsNewestFirst(matched)

	total := len(matched)
	if offset >= total || limit <= 0 {
		return []*model.Ticket{}, total, nil
	}
	end := min(offset+limit, total)

	page := make([]*model.Ticket, 0, end-offset)
	for _, t := range matched[offset:end] {
		page = append(page, t.Copy())
	}
	return page, total, nil
}

func (r *ticketRepository) ListStaleCandidates(ctx context.Context, before time.Time) ([]*model.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.Ticket
	for _, t := range r.tickets {
		if t.Status == types.TicketStatusOpened && t.LastActivityAt.Before(before) {
			result = append(result, t.Copy())
		}
	}
	sortTicketsNewestFirst(result)
	return result, nil
}

func sortTicketsNewestFirst(tickets []*model.Ticket) {
	sort.Slice(tickets, func(i, j int) bool {
		if tickets[i].CreatedAt.Equal(tickets[j].CreatedAt) {
			return tickets[i].ID > tickets[j].ID
		}
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})
}
