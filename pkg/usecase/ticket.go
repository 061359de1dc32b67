package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/interfaces"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/model/config"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
	"github.com/secmon-lab/shepherd/pkg/utils/async"
	"github.com/secmon-lab/shepherd/pkg/utils/errutil"
	"github.com/secmon-lab/shepherd/pkg/utils/logging"
)

// TicketUseCase drives the ticket lifecycle from Slack occurrences
type TicketUseCase struct {
	repo       interfaces.Repository
	messenger  interfaces.OutboundMessenger
	classifier interfaces.Classifier
	threads    interfaces.ThreadResolver
	app        *config.App
	bus        *EventBus
	pool       *async.Pool
	clock      func() time.Time
}

// HandleMessagePosted opens a ticket for a new root message in a watched
// channel, and records activity for replies in a ticket thread
func (uc *TicketUseCase) HandleMessagePosted(ctx context.Context, ev model.InboundEvent) error {
	msg, ok := ev.(*model.MessagePosted)
	if !ok {
		return goerr.Wrap(ErrUnexpectedEvent, "expected message posted", goerr.V("kind", ev.Kind()))
	}

	ref := msg.Ref()
	if msg.FromBot() || !uc.app.IsWatched(ref.ChannelID) {
		return nil
	}
	now := uc.clock().UTC()

	if !ref.IsRoot() {
		ticket, err := uc.repo.Ticket().FindByThread(ctx, ref)
		if err != nil {
			return goerr.Wrap(err, "failed to find ticket for reply")
		}
		if ticket == nil {
			return nil
		}
		if err := uc.repo.Ticket().Touch(ctx, ticket.ID, now); err != nil {
			return goerr.Wrap(err, "failed to record activity", goerr.V(TicketIDKey, ticket.ID))
		}
		return nil
	}

	ticket, created, err := uc.repo.Ticket().Create(ctx, model.NewTicket(ref, msg.Text, msg.Actor(), now))
	if err != nil {
		return goerr.Wrap(err, "failed to create ticket")
	}
	if !created {
		logging.From(ctx).Debug("ticket already exists", TicketIDKey, ticket.ID)
		return nil
	}

	logging.From(ctx).Info("ticket opened", TicketIDKey, ticket.ID, "author", ticket.AuthorID)

	if _, err := uc.messenger.PostMessage(ctx, ticket.Thread(), buildTicketOpenedBlocks(uc.app, ticket), "Ticket opened"); err != nil {
		errutil.Handle(ctx, err, "failed to post ticket acknowledgment")
	}

	if uc.classifier != nil {
		if err := uc.classify(ctx, ticket); err != nil {
			errutil.Handle(ctx, err, "failed to classify ticket")
		}
	}

	return nil
}

func (uc *TicketUseCase) classify(ctx context.Context, ticket *model.Ticket) error {
	result, err := uc.classifier.Classify(ctx, ticket.QueryText)
	if err != nil {
		return goerr.Wrap(err, "classifier failed", goerr.V(TicketIDKey, ticket.ID))
	}

	impact, suggested := result.Normalize()
	tags := model.Tags{}
	for _, tag := range suggested {
		if uc.app.IsKnownTag(tag) {
			tags = tags.Add(tag)
		}
	}
	if impact == nil && len(tags) == 0 {
		return nil
	}

	if _, err := uc.repo.Ticket().UpdateClassification(ctx, ticket.ID, impact, tags); err != nil {
		return goerr.Wrap(err, "failed to save classification", goerr.V(TicketIDKey, ticket.ID))
	}
	return nil
}

// HandleReactionAdded closes or escalates the ticket of the reacted message
// when the reaction is one of the configured ones
func (uc *TicketUseCase) HandleReactionAdded(ctx context.Context, ev model.InboundEvent) error {
	reaction, ok := ev.(*model.ReactionAdded)
	if !ok {
		return goerr.Wrap(ErrUnexpectedEvent, "expected reaction added", goerr.V("kind", ev.Kind()))
	}

	resolved := reaction.Reaction == uc.app.Reactions.Resolved
	escalate := uc.app.Reactions.Escalate != "" && reaction.Reaction == uc.app.Reactions.Escalate
	if !resolved && !escalate {
		return nil
	}

	ticket, err := uc.findReactedTicket(ctx, reaction.Ref())
	if err != nil {
		return err
	}
	if ticket == nil {
		return nil
	}

	if resolved {
		_, err := uc.Close(ctx, ticket.ID, uc.clock())
		return err
	}
	return uc.Escalate(ctx, ticket.ID, uc.app.Reactions.EscalateTeam, nil, reaction.Actor())
}

// findReactedTicket returns the ticket of the reacted message. Reaction
// events carry no thread timestamp, so a reply is mapped to its thread root
// when a resolver is configured.
func (uc *TicketUseCase) findReactedTicket(ctx context.Context, ref model.MessageReference) (*model.Ticket, error) {
	ticket, err := uc.repo.Ticket().FindByThread(ctx, ref)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find ticket for reaction")
	}
	if ticket != nil || uc.threads == nil {
		return ticket, nil
	}

	root, err := uc.threads.ThreadRoot(ctx, ref)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve thread of reacted message")
	}
	if root.Timestamp == ref.Timestamp {
		return nil, nil
	}

	ticket, err = uc.repo.Ticket().FindByThread(ctx, root)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find ticket for reaction", goerr.V("thread_ts", root.Timestamp))
	}
	return ticket, nil
}

// Close moves the ticket to closed. Closing a closed ticket changes nothing
// and publishes nothing.
func (uc *TicketUseCase) Close(ctx context.Context, id types.TicketID, when time.Time) (*model.Ticket, error) {
	ticket, _, err := uc.transit(ctx, id, types.TicketStatusClosed, when)
	return ticket, err
}

// MarkStale moves an opened ticket to stale. It is driven from outside the
// state machine and is safe to call repeatedly.
func (uc *TicketUseCase) MarkStale(ctx context.Context, id types.TicketID, when time.Time) (*model.Ticket, bool, error) {
	return uc.transit(ctx, id, types.TicketStatusStale, when)
}

func (uc *TicketUseCase) transit(ctx context.Context, id types.TicketID, next types.TicketStatus, when time.Time) (*model.Ticket, bool, error) {
	ticket, appended, err := uc.repo.Ticket().AppendStatus(ctx, id, next, when)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, false, goerr.Wrap(ErrTicketNotFound, "ticket not found", goerr.V(TicketIDKey, id))
		}
		return nil, false, goerr.Wrap(err, "failed to append ticket status",
			goerr.V(TicketIDKey, id), goerr.V("status", next))
	}
	if !appended {
		logging.From(ctx).Debug("ticket status unchanged", TicketIDKey, id, "current", ticket.Status, "requested", next)
		return ticket, false, nil
	}

	logging.From(ctx).Info("ticket status changed", TicketIDKey, id, "status", next)

	if _, err := uc.messenger.PostMessage(ctx, ticket.Thread(), buildTicketStatusBlocks(ticket), "Ticket "+next.String()); err != nil {
		errutil.Handle(ctx, err, "failed to post ticket status")
	}

	if err := uc.bus.Publish(ctx, &model.TicketStatusChanged{TicketID: id, NewStatus: next}); err != nil {
		return ticket, true, goerr.Wrap(err, "failed to publish status change", goerr.V(TicketIDKey, id))
	}
	return ticket, true, nil
}

// Escalate hands the ticket over to team. Closed tickets are left alone.
func (uc *TicketUseCase) Escalate(ctx context.Context, id types.TicketID, team types.TeamID, tags model.Tags, actorID string) error {
	if _, ok := uc.app.LookupTeam(team); !ok {
		return goerr.Wrap(ErrUnknownTeam, "cannot escalate", goerr.V(TeamIDKey, team), goerr.V(TicketIDKey, id))
	}

	ticket, err := uc.repo.Ticket().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(ErrTicketNotFound, "ticket not found", goerr.V(TicketIDKey, id))
		}
		return goerr.Wrap(err, "failed to get ticket", goerr.V(TicketIDKey, id))
	}
	if ticket.Status.IsTerminal() {
		logging.From(ctx).Info("ignore escalation of closed ticket", TicketIDKey, id)
		return nil
	}

	if err := uc.repo.Ticket().SetTeam(ctx, id, team); err != nil {
		return goerr.Wrap(err, "failed to assign team", goerr.V(TicketIDKey, id), goerr.V(TeamIDKey, team))
	}
	ticket.Team = &team

	return uc.bus.Publish(ctx, &model.TicketEscalated{
		Ticket:  ticket,
		Team:    team,
		Tags:    tags,
		ActorID: actorID,
	})
}

// HandleBotMentioned replies with usage, and the ticket status when the
// mention is inside a ticket thread
func (uc *TicketUseCase) HandleBotMentioned(ctx context.Context, ev model.InboundEvent) error {
	mention, ok := ev.(*model.BotMentioned)
	if !ok {
		return goerr.Wrap(ErrUnexpectedEvent, "expected bot mention", goerr.V("kind", ev.Kind()))
	}

	ticket, err := uc.repo.Ticket().FindByThread(ctx, mention.Ref())
	if err != nil {
		return goerr.Wrap(err, "failed to find ticket for mention")
	}

	ref := mention.Ref().InThread()
	if _, err := uc.messenger.PostMessage(ctx, ref, buildHelpBlocks(uc.app, ticket), "How to use shepherd"); err != nil {
		return goerr.Wrap(err, "failed to post help")
	}
	return nil
}

// HandleEscalateAction opens the escalation modal for the ticket in the
// button value
func (uc *TicketUseCase) HandleEscalateAction(ctx context.Context, action *model.Action) error {
	id := types.TicketID(action.Value)
	ticket, err := uc.repo.Ticket().Get(ctx, id)
	if err != nil {
		return goerr.Wrap(err, "failed to get ticket for escalation", goerr.V(TicketIDKey, id))
	}

	if err := uc.messenger.OpenView(ctx, action.TriggerID, buildEscalateModal(uc.app, ticket)); err != nil {
		return goerr.Wrap(err, "failed to open escalation modal", goerr.V(TicketIDKey, id))
	}
	return nil
}

// HandleEscalateSubmission validates the escalation modal. Input errors are
// returned to the modal; valid input is escalated on the worker pool so the
// acknowledgment is not delayed.
func (uc *TicketUseCase) HandleEscalateSubmission(ctx context.Context, sub *model.Submission) (*model.SubmissionResponse, error) {
	errs := map[string]string{}

	team := types.TeamID(sub.Value(SlackBlockIDEscalateTeam, SlackActionIDEscalateTeam))
	if team == "" {
		errs[SlackBlockIDEscalateTeam] = "Select a team"
	} else if _, ok := uc.app.LookupTeam(team); !ok {
		errs[SlackBlockIDEscalateTeam] = "Unknown team"
	}

	tags, badTag := parseTags(sub.Value(SlackBlockIDEscalateTags, SlackActionIDEscalateTags), uc.app)
	if badTag != "" {
		errs[SlackBlockIDEscalateTags] = "Unknown tag: " + badTag
	}

	if len(errs) > 0 {
		return &model.SubmissionResponse{
			ResponseAction: model.SubmissionResponseErrors,
			Errors:         errs,
		}, nil
	}

	ticketID := types.TicketID(sub.PrivateMetadata)
	if err := ticketID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "escalation modal has no ticket", goerr.V("metadata", sub.PrivateMetadata))
	}

	actorID := sub.ActorID
	uc.pool.Submit(ctx, "escalate_ticket", func(ctx context.Context) error {
		return uc.Escalate(ctx, ticketID, team, tags, actorID)
	}, TicketIDKey, ticketID, TeamIDKey, team)

	return nil, nil
}

// parseTags splits comma separated tag input. It returns the first tag that
// is not allowed, if any.
func parseTags(input string, app *config.App) (model.Tags, string) {
	tags := model.Tags{}
	for _, raw := range strings.Split(input, ",") {
		raw = strings.ToLower(strings.TrimSpace(raw))
		if raw == "" {
			continue
		}
		tag := types.Tag(raw)
		if !app.IsKnownTag(tag) {
			return nil, raw
		}
		tags = tags.Add(tag)
	}
	return tags, ""
}

// Get returns a ticket by ID
func (uc *TicketUseCase) Get(ctx context.Context, id types.TicketID) (*model.Ticket, error) {
	ticket, err := uc.repo.Ticket().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrTicketNotFound, "ticket not found", goerr.V(TicketIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get ticket", goerr.V(TicketIDKey, id))
	}
	return ticket, nil
}

// List returns one page of tickets, newest first, and the total count
func (uc *TicketUseCase) List(ctx context.Context, filter model.TicketFilter, offset, limit int) ([]*model.Ticket, int, error) {
	tickets, total, err := uc.repo.Ticket().List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to list tickets")
	}
	return tickets, total, nil
}

// SweepStale marks every opened ticket without activity for the configured
// window as stale. It returns how many tickets changed. A failure on one
// ticket does not stop the sweep.
func (uc *TicketUseCase) SweepStale(ctx context.Context, now time.Time) (int, error) {
	window := uc.app.StaleAfter
	if window <= 0 {
		window = config.DefaultStaleAfter
	}

	candidates, err := uc.repo.Ticket().ListStaleCandidates(ctx, now.Add(-window))
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list stale candidates")
	}

	marked := 0
	for _, t := range candidates {
		_, changed, err := uc.MarkStale(ctx, t.ID, now)
		if err != nil {
			errutil.Handle(ctx, err, "failed to mark ticket stale")
			continue
		}
		if changed {
			marked++
		}
	}
	return marked, nil
}
