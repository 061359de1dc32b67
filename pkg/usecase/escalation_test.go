package usecase_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/shepherd/pkg/domain/interfaces"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
	"github.com/secmon-lab/shepherd/pkg/repository/memory"
	"github.com/secmon-lab/shepherd/pkg/usecase"
)

func TestEscalation_IdempotentCreate(t *testing.T) {
	ctx := context.Background()
	tracker := &mockIssueTracker{}
	f := newFixture(t, usecase.WithIssueTracker(tracker))
	ticket := f.openTicket(t, c1Root)
	postedBefore := len(f.messenger.posted)

	ev := &model.TicketEscalated{Ticket: ticket, Team: "infra", Tags: model.NewTags("network"), ActorID: "U100"}
	gt.NoError(t, f.uc.Bus().Publish(ctx, ev)).Required()
	gt.NoError(t, f.uc.Bus().Publish(ctx, ev)).Required()

	escalations, err := f.repo.Escalation().List(ctx, interfaces.WithEscalationStatus(types.EscalationStatusOpened))
	gt.NoError(t, err).Required()
	gt.Array(t, escalations).Length(1).Required()
	gt.Value(t, escalations[0].TicketID).Equal(ticket.ID)

	gt.Array(t, f.messenger.posted).Length(postedBefore + 1)
	gt.Array(t, tracker.titles).Length(1)
}

func TestEscalation_CascadeOnClose(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket := f.openTicket(t, c1Root)

	gt.NoError(t, f.uc.Ticket.Escalate(ctx, ticket.ID, "infra", nil, "U100")).Required()
	open, err := f.repo.Escalation().GetOpenByTicketID(ctx, ticket.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, open).NotNil()

	_, err = f.uc.Ticket.Close(ctx, ticket.ID, f.advance(time.Hour))
	gt.NoError(t, err).Required()

	resolved, err := f.repo.Escalation().Get(ctx, open.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, resolved.Status).Equal(types.EscalationStatusResolved)
}

func TestEscalation_ResolveAction(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, membership *mockMembership) (*fixture, *model.Escalation) {
		t.Helper()
		var opts []usecase.Option
		if membership != nil {
			opts = append(opts, usecase.WithMembershipLookup(membership))
		}
		f := newFixture(t, opts...)
		ticket := f.openTicket(t, c1Root)
		gt.NoError(t, f.uc.Ticket.Escalate(ctx, ticket.ID, "infra", nil, "U100")).Required()
		esc, err := f.repo.Escalation().GetOpenByTicketID(ctx, ticket.ID)
		gt.NoError(t, err).Required()
		return f, esc
	}

	resolveAction := func(esc *model.Escalation) *model.Action {
		return &model.Action{
			ActionID:  usecase.SlackActionIDResolve,
			Value:     esc.ID.String(),
			ActorID:   "U500",
			Container: model.MessageReference{ChannelID: "C1", Timestamp: "999.000001", ThreadTimestamp: "100.000001"},
		}
	}

	t.Run("member resolves", func(t *testing.T) {
		membership := &mockMembership{member: true}
		f, esc := setup(t, membership)

		gt.NoError(t, f.uc.Escalation.HandleResolveAction(ctx, resolveAction(esc))).Required()
		gt.Value(t, membership.calls).Equal(1)

		stored, err := f.repo.Escalation().Get(ctx, esc.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.Status).Equal(types.EscalationStatusResolved)
		gt.Array(t, f.messenger.ephemeral).Length(0)
	})

	t.Run("non member gets ephemeral notice", func(t *testing.T) {
		membership := &mockMembership{member: false}
		f, esc := setup(t, membership)

		gt.NoError(t, f.uc.Escalation.HandleResolveAction(ctx, resolveAction(esc))).Required()
		gt.Value(t, membership.calls).Equal(1)

		stored, err := f.repo.Escalation().Get(ctx, esc.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.Status).Equal(types.EscalationStatusOpened)
		gt.Array(t, f.messenger.ephemeral).Length(1).Required()
		gt.Value(t, f.messenger.ephemeral[0].ActorID).Equal("U500")
		gt.Value(t, f.messenger.ephemeral[0].Ref.ChannelID).Equal("C1")
	})

	t.Run("gate disabled lets anyone resolve", func(t *testing.T) {
		f, esc := setup(t, nil)

		gt.NoError(t, f.uc.Escalation.HandleResolveAction(ctx, resolveAction(esc))).Required()

		stored, err := f.repo.Escalation().Get(ctx, esc.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.Status).Equal(types.EscalationStatusResolved)
	})

	t.Run("resolving twice posts once", func(t *testing.T) {
		f, esc := setup(t, nil)

		gt.NoError(t, f.uc.Escalation.HandleResolveAction(ctx, resolveAction(esc))).Required()
		posted := len(f.messenger.posted)
		gt.NoError(t, f.uc.Escalation.HandleResolveAction(ctx, resolveAction(esc))).Required()
		gt.Array(t, f.messenger.posted).Length(posted)
	})

	t.Run("unknown escalation", func(t *testing.T) {
		f, _ := setup(t, nil)
		_, err := f.uc.Escalation.Resolve(ctx, "no-such-escalation", "U500")
		gt.Error(t, err).Is(usecase.ErrEscalationNotFound)
	})
}

// closingRepository runs beforeCreate ahead of every escalation insert so a
// close can be interleaved between the ticket check and the insert.
type closingRepository struct {
	*memory.Memory
	beforeCreate func(ctx context.Context)
}

func (r *closingRepository) Escalation() interfaces.EscalationRepository {
	return &closingEscalationRepository{EscalationRepository: r.Memory.Escalation(), beforeCreate: r.beforeCreate}
}

type closingEscalationRepository struct {
	interfaces.EscalationRepository
	beforeCreate func(ctx context.Context)
}

func (r *closingEscalationRepository) CreateIfNotExists(ctx context.Context, e *model.Escalation) (*model.Escalation, bool, error) {
	if r.beforeCreate != nil {
		r.beforeCreate(ctx)
	}
	return r.EscalationRepository.CreateIfNotExists(ctx, e)
}

func TestEscalation_CloseBeforeCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket := f.openTicket(t, c1Root)

	repo := &closingRepository{Memory: f.repo}
	uc := usecase.New(repo, f.messenger,
		usecase.WithAppConfig(testAppConfig()),
		usecase.WithPool(f.pool),
		usecase.WithClock(func() time.Time { return f.now }),
	)
	var once sync.Once
	repo.beforeCreate = func(ctx context.Context) {
		once.Do(func() {
			_, err := uc.Ticket.Close(ctx, ticket.ID, f.advance(time.Minute))
			gt.NoError(t, err).Required()
		})
	}

	gt.NoError(t, uc.Ticket.Escalate(ctx, ticket.ID, "infra", nil, "U100")).Required()

	closed, err := f.repo.Ticket().Get(ctx, ticket.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, closed.Status).Equal(types.TicketStatusClosed)

	open, err := f.repo.Escalation().GetOpenByTicketID(ctx, ticket.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, open).Nil()

	escalations, err := f.repo.Escalation().List(ctx)
	gt.NoError(t, err).Required()
	gt.Array(t, escalations).Length(1).Required()
	gt.Value(t, escalations[0].Status).Equal(types.EscalationStatusResolved)

	for _, text := range f.messenger.postedTexts() {
		gt.Bool(t, strings.HasPrefix(text, "Ticket escalated")).False()
	}
}
