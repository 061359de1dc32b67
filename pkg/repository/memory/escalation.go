package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/interfaces"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
)

type escalationRepository struct {
	mu          sync.RWMutex
	escalations map[types.EscalationID]*model.Escalation
	// opened indexes the opened escalation of each ticket
	opened map[types.TicketID]types.EscalationID
}

func newEscalationRepository() *escalationRepository {
	return &escalationRepository{
		escalations: make(map[types.EscalationID]*model.Escalation),
		opened:      make(map[types.TicketID]types.EscalationID),
	}
}

func (r *escalationRepository) CreateIfNotExists(ctx context.Context, e *model.Escalation) (*model.Escalation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.opened[e.TicketID]; ok {
		return r.escalations[id].Copy(), false, nil
	}

	created := e.Copy()
	created.ID = types.EscalationID(uuid.NewString())
	created.Status = types.EscalationStatusOpened
	created.CreatedAt = time.Now().UTC()
	created.ResolvedAt = nil

	r.escalations[created.ID] = created
	r.opened[created.TicketID] = created.ID
	return created.Copy(), true, nil
}

func (r *escalationRepository) Get(ctx context.Context, id types.EscalationID) (*model.Escalation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.escalations[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "escalation not found", goerr.V("id", id))
	}
	return e.Copy(), nil
}

func (r *escalationRepository) Resolve(ctx context.Context, id types.EscalationID, when time.Time) (*model.Escalation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.escalations[id]
	if !ok {
		return nil, false, goerr.Wrap(ErrNotFound, "escalation not found", goerr.V("id", id))
	}

	changed := e.Resolve(when.UTC())
	if changed {
		delete(r.opened, e.TicketID)
	}
	return e.Copy(), changed, nil
}

func (r *escalationRepository) ResolveByTicketID(ctx context.Context, ticketID types.TicketID, when time.Time) (*model.Escalation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.opened[ticketID]
	if !ok {
		return nil, nil
	}

	e := r.escalations[id]
	e.Resolve(when.UTC())
	delete(r.opened, ticketID)
	return e.Copy(), nil
}

func (r *escalationRepository) GetOpenByTicketID(ctx context.Context, ticketID types.TicketID) (*model.Escalation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.opened[ticketID]
	if !ok {
		return nil, nil
	}
	return r.escalations[id].Copy(), nil
}

func (r *escalationRepository) List(ctx context.Context, opts ...interfaces.ListEscalationOption) ([]*model.Escalation, error) {
	cfg := interfaces.BuildListEscalationConfig(opts...)

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Escalation, 0, len(r.escalations))
	for _, e := range r.escalations {
		if cfg.Match(e) {
			result = append(result, e.Copy())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}
