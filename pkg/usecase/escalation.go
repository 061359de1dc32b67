package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/interfaces"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/model/config"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
	"github.com/secmon-lab/shepherd/pkg/utils/errutil"
	"github.com/secmon-lab/shepherd/pkg/utils/logging"
)

// EscalationUseCase owns the escalation lifecycle
type EscalationUseCase struct {
	repo         interfaces.Repository
	messenger    interfaces.OutboundMessenger
	issueTracker interfaces.IssueTracker
	gate         *AuthorizationGate
	app          *config.App
	clock        func() time.Time
}

// HandleTicketEscalated creates the escalation of the ticket unless one is
// already opened. Only a newly created escalation is announced.
func (uc *EscalationUseCase) HandleTicketEscalated(ctx context.Context, ev *model.TicketEscalated) error {
	esc, created, err := uc.repo.Escalation().CreateIfNotExists(ctx,
		model.NewEscalation(ev.Ticket.ID, ev.Team, ev.Tags, ev.ActorID))
	if err != nil {
		return goerr.Wrap(err, "failed to create escalation", goerr.V(TicketIDKey, ev.Ticket.ID))
	}
	if !created {
		logging.From(ctx).Info("ticket already escalated",
			TicketIDKey, ev.Ticket.ID,
			EscalationIDKey, esc.ID,
			TeamIDKey, esc.Team)
		return nil
	}

	// A close that landed before the insert had nothing to cascade to.
	current, err := uc.repo.Ticket().Get(ctx, ev.Ticket.ID)
	if err != nil {
		return goerr.Wrap(err, "failed to get escalated ticket", goerr.V(TicketIDKey, ev.Ticket.ID))
	}
	if current.Status.IsTerminal() {
		if _, err := uc.repo.Escalation().ResolveByTicketID(ctx, ev.Ticket.ID, uc.clock()); err != nil {
			return goerr.Wrap(err, "failed to resolve escalation of closed ticket", goerr.V(TicketIDKey, ev.Ticket.ID))
		}
		logging.From(ctx).Info("escalation resolved, ticket closed meanwhile",
			TicketIDKey, ev.Ticket.ID,
			EscalationIDKey, esc.ID)
		return nil
	}

	logging.From(ctx).Info("escalation opened",
		TicketIDKey, ev.Ticket.ID,
		EscalationIDKey, esc.ID,
		TeamIDKey, esc.Team)

	var issueURL string
	if uc.issueTracker != nil {
		url, err := uc.issueTracker.CreateIssue(ctx, issueTitle(ev.Ticket), issueBody(uc.app, ev.Ticket, esc))
		if err != nil {
			errutil.Handle(ctx, err, "failed to create issue for escalation")
		} else {
			issueURL = url
		}
	}

	blocks := buildEscalationBlocks(uc.app, esc, issueURL)
	if _, err := uc.messenger.PostMessage(ctx, ev.Ticket.Thread(), blocks, "Ticket escalated to "+teamLabel(uc.app, esc.Team)); err != nil {
		return goerr.Wrap(err, "failed to post escalation", goerr.V(EscalationIDKey, esc.ID))
	}
	return nil
}

// HandleTicketStatusChanged resolves the opened escalation of a ticket that
// was closed. No authorization applies.
func (uc *EscalationUseCase) HandleTicketStatusChanged(ctx context.Context, ev *model.TicketStatusChanged) error {
	if ev.NewStatus != types.TicketStatusClosed {
		return nil
	}

	esc, err := uc.repo.Escalation().ResolveByTicketID(ctx, ev.TicketID, uc.clock())
	if err != nil {
		return goerr.Wrap(err, "failed to resolve escalation of closed ticket", goerr.V(TicketIDKey, ev.TicketID))
	}
	if esc != nil {
		logging.From(ctx).Info("escalation resolved by ticket close",
			TicketIDKey, ev.TicketID,
			EscalationIDKey, esc.ID)
	}
	return nil
}

// HandleResolveAction resolves the escalation in the button value if the
// clicking user passes the authorization gate. Others get an ephemeral
// notice and nothing changes.
func (uc *EscalationUseCase) HandleResolveAction(ctx context.Context, action *model.Action) error {
	id := types.EscalationID(action.Value)

	if !uc.gate.IsAuthorized(ctx, action.ActorID) {
		logging.From(ctx).Info("escalation resolve rejected", EscalationIDKey, id, "actor", action.ActorID)
		if err := uc.messenger.PostEphemeral(ctx, action.ActorID, action.Container, buildNotAuthorizedBlocks(), "Not allowed"); err != nil {
			return goerr.Wrap(err, "failed to post rejection notice")
		}
		return nil
	}

	_, err := uc.Resolve(ctx, id, action.ActorID)
	return err
}

// Resolve marks the escalation resolved and announces it in the ticket
// thread. Resolving twice is a no-op.
func (uc *EscalationUseCase) Resolve(ctx context.Context, id types.EscalationID, actorID string) (*model.Escalation, error) {
	esc, changed, err := uc.repo.Escalation().Resolve(ctx, id, uc.clock())
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrEscalationNotFound, "escalation not found", goerr.V(EscalationIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to resolve escalation", goerr.V(EscalationIDKey, id))
	}
	if !changed {
		return esc, nil
	}

	logging.From(ctx).Info("escalation resolved", EscalationIDKey, id, "actor", actorID)

	ticket, err := uc.repo.Ticket().Get(ctx, esc.TicketID)
	if err != nil {
		return esc, goerr.Wrap(err, "failed to get ticket of escalation", goerr.V(EscalationIDKey, id))
	}
	if _, err := uc.messenger.PostMessage(ctx, ticket.Thread(), buildEscalationResolvedBlocks(esc, actorID), "Escalation resolved"); err != nil {
		return esc, goerr.Wrap(err, "failed to post resolution", goerr.V(EscalationIDKey, id))
	}
	return esc, nil
}

// List returns escalations, newest first
func (uc *EscalationUseCase) List(ctx context.Context, opts ...interfaces.ListEscalationOption) ([]*model.Escalation, error) {
	escalations, err := uc.repo.Escalation().List(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list escalations")
	}
	return escalations, nil
}

func issueTitle(ticket *model.Ticket) string {
	return "[shepherd] " + truncate(ticket.QueryText, queryPreviewLength)
}

func issueBody(app *config.App, ticket *model.Ticket, esc *model.Escalation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Escalated to **%s** by Slack user `%s`.\n\n", teamLabel(app, esc.Team), esc.EscalatedBy)
	fmt.Fprintf(&b, "- Ticket: `%s`\n", ticket.ID)
	fmt.Fprintf(&b, "- Channel: `%s`, thread `%s`\n", ticket.ChannelID, ticket.QueryTS)
	if ticket.Impact != nil {
		fmt.Fprintf(&b, "- Impact: %s\n", ticket.Impact)
	}
	if len(esc.Tags) > 0 {
		tags := make([]string, len(esc.Tags))
		for i, tag := range esc.Tags {
			tags[i] = string(tag)
		}
		fmt.Fprintf(&b, "- Tags: %s\n", strings.Join(tags, ", "))
	}
	b.WriteString("\n> ")
	b.WriteString(strings.ReplaceAll(ticket.QueryText, "\n", "\n> "))
	b.WriteString("\n")
	return b.String()
}
