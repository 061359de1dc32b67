package dispatch

import (
	"context"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/utils/async"
	"github.com/secmon-lab/shepherd/pkg/utils/logging"
)

var (
	ErrNoSubmissionHandler        = goerr.New("no submission handler matched")
	ErrAmbiguousSubmissionHandler = goerr.New("more than one submission handler matched")
	ErrInvalidRegistry            = goerr.New("invalid handler registry")
)

// Router routes inbound occurrences to the registered handlers. Events and
// actions run on the worker pool, one task per matching handler.
// Submissions run synchronously because their result is the acknowledgment.
type Router struct {
	events      map[model.EventKind][]EventHandler
	actions     []ActionHandler
	submissions []SubmissionHandler
	pool        *async.Pool
}

// New validates reg and builds a Router. The registry must not be modified
// afterwards.
func New(reg Registry, pool *async.Pool) (*Router, error) {
	if pool == nil {
		return nil, goerr.Wrap(ErrInvalidRegistry, "worker pool is required")
	}

	r := &Router{
		events: make(map[model.EventKind][]EventHandler),
		pool:   pool,
	}

	for _, h := range reg.Events {
		if h.Name == "" || h.Handle == nil {
			return nil, goerr.Wrap(ErrInvalidRegistry, "event handler needs name and function", goerr.V("name", h.Name))
		}
		if !slices.Contains(model.AllEventKinds(), h.Kind) {
			return nil, goerr.Wrap(ErrInvalidRegistry, "unknown event kind", goerr.V("name", h.Name), goerr.V("kind", h.Kind))
		}
		r.events[h.Kind] = append(r.events[h.Kind], h)
	}

	for _, h := range reg.Actions {
		if h.Name == "" || h.Handle == nil || h.Pattern == nil {
			return nil, goerr.Wrap(ErrInvalidRegistry, "action handler needs name, pattern and function", goerr.V("name", h.Name))
		}
		r.actions = append(r.actions, h)
	}

	for _, h := range reg.Submissions {
		if h.Name == "" || h.Handle == nil || h.Pattern == nil {
			return nil, goerr.Wrap(ErrInvalidRegistry, "submission handler needs name, pattern and function", goerr.V("name", h.Name))
		}
		r.submissions = append(r.submissions, h)
	}

	return r, nil
}

// DispatchEvent schedules every handler registered for the event kind and
// returns immediately
func (r *Router) DispatchEvent(ctx context.Context, ev model.InboundEvent) {
	if ev == nil {
		return
	}

	handlers := r.events[ev.Kind()]
	if len(handlers) == 0 {
		logging.From(ctx).Debug("no handler for event", "kind", ev.Kind())
		return
	}

	ref := ev.Ref()
	for _, h := range handlers {
		r.pool.Submit(ctx, h.Name, func(ctx context.Context) error {
			return h.Handle(ctx, ev)
		},
			"occurrence", string(ev.Kind()),
			"actor", ev.Actor(),
			"channel", ref.ChannelID,
			"ts", ref.Timestamp,
		)
	}
}

// DispatchAction schedules every handler whose pattern matches the action ID
// and returns immediately. Unknown actions are dropped with a warning.
func (r *Router) DispatchAction(ctx context.Context, action *model.Action) {
	if action == nil {
		return
	}

	matched := 0
	for _, h := range r.actions {
		if !h.Pattern.MatchString(action.ActionID) {
			continue
		}
		matched++

		r.pool.Submit(ctx, h.Name, func(ctx context.Context) error {
			return h.Handle(ctx, action)
		},
			"occurrence", "block_action",
			"action_id", action.ActionID,
			"actor", action.ActorID,
			"channel", action.Container.ChannelID,
			"ts", action.Container.Timestamp,
		)
	}

	if matched == 0 {
		logging.From(ctx).Warn("unrecognized action",
			"action_id", action.ActionID,
			"actor", action.ActorID,
		)
	}
}

// DispatchSubmission runs the one handler matching the callback ID and
// returns its response
func (r *Router) DispatchSubmission(ctx context.Context, sub *model.Submission) (*model.SubmissionResponse, error) {
	if sub == nil {
		return nil, goerr.Wrap(ErrNoSubmissionHandler, "submission is nil")
	}

	var matched []SubmissionHandler
	for _, h := range r.submissions {
		if h.Pattern.MatchString(sub.CallbackID) {
			matched = append(matched, h)
		}
	}

	switch len(matched) {
	case 0:
		return nil, goerr.Wrap(ErrNoSubmissionHandler, "unhandled submission", goerr.V("callback_id", sub.CallbackID))
	case 1:
	default:
		names := make([]string, len(matched))
		for i, h := range matched {
			names[i] = h.Name
		}
		return nil, goerr.Wrap(ErrAmbiguousSubmissionHandler, "ambiguous submission",
			goerr.V("callback_id", sub.CallbackID),
			goerr.V("handlers", names))
	}

	h := matched[0]
	ctx = logging.With(ctx, logging.From(ctx).With(
		"handler", h.Name,
		"occurrence", "view_submission",
		"callback_id", sub.CallbackID,
		"actor", sub.ActorID,
	))

	resp, err := h.Handle(ctx, sub)
	if err != nil {
		return nil, goerr.Wrap(err, "submission handler failed", goerr.V("handler", h.Name))
	}
	return resp, nil
}
