package http

import (
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	slackmodel "github.com/secmon-lab/shepherd/pkg/domain/model/slack"
	"github.com/secmon-lab/shepherd/pkg/utils/errutil"
	"github.com/secmon-lab/shepherd/pkg/utils/logging"
	"github.com/secmon-lab/shepherd/pkg/utils/safe"
	"github.com/slack-go/slack"
)

// SlackInteractionHandler handles Slack interactive component payloads
// (button clicks, select menus and modal submissions)
type SlackInteractionHandler struct {
	dispatcher Dispatcher
}

// NewSlackInteractionHandler creates a new Slack interaction handler
func NewSlackInteractionHandler(dispatcher Dispatcher) *SlackInteractionHandler {
	return &SlackInteractionHandler{
		dispatcher: dispatcher,
	}
}

// ServeHTTP handles Slack interaction webhook requests
func (h *SlackInteractionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Slack sends interaction payloads as application/x-www-form-urlencoded
	// with a "payload" field containing JSON
	payload := r.FormValue("payload")
	if payload == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("missing payload field in interaction request"), http.StatusBadRequest)
		return
	}

	var callback slack.InteractionCallback
	if err := json.Unmarshal([]byte(payload), &callback); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse interaction payload"), http.StatusBadRequest)
		return
	}

	switch callback.Type {
	case slack.InteractionTypeBlockActions:
		for _, action := range slackmodel.NewActions(&callback) {
			h.dispatcher.DispatchAction(ctx, action)
		}
		w.WriteHeader(http.StatusOK)

	case slack.InteractionTypeViewSubmission:
		resp, err := h.dispatcher.DispatchSubmission(ctx, slackmodel.NewSubmission(&callback))
		if err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to handle view submission",
				goerr.V("callback_id", callback.View.CallbackID)), http.StatusInternalServerError)
			return
		}
		if resp == nil {
			w.WriteHeader(http.StatusOK)
			return
		}

		data, err := json.Marshal(resp)
		if err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal submission response"), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		safe.Write(ctx, w, data)

	default:
		logging.From(ctx).Debug("ignored interaction type", "type", callback.Type)
		w.WriteHeader(http.StatusOK)
	}
}
