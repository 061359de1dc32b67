package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/secmon-lab/shepherd/pkg/controller/http"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	goslack "github.com/slack-go/slack"
)

func postInteraction(t *testing.T, handler http.Handler, callback goslack.InteractionCallback) *httptest.ResponseRecorder {
	t.Helper()
	payloadJSON, err := json.Marshal(callback)
	gt.NoError(t, err).Required()

	form := url.Values{"payload": {string(payloadJSON)}}
	req := httptest.NewRequest(http.MethodPost, "/hooks/slack/interaction", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	return rec
}

func TestSlackInteractionHandler(t *testing.T) {
	t.Run("dispatches block actions", func(t *testing.T) {
		dispatcher := &mockDispatcher{}
		handler := httpctrl.NewSlackInteractionHandler(dispatcher)

		rec := postInteraction(t, handler, goslack.InteractionCallback{
			Type:      goslack.InteractionTypeBlockActions,
			User:      goslack.User{ID: "U2"},
			TriggerID: "trigger-1",
			Container: goslack.Container{ChannelID: "C1", MessageTs: "200.000001"},
			ActionCallback: goslack.ActionCallbacks{
				BlockActions: []*goslack.BlockAction{
					{ActionID: "escalation_resolve", Value: "esc-1"},
				},
			},
		})

		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Array(t, dispatcher.actions).Length(1).Required()
		gt.Value(t, dispatcher.actions[0].ActionID).Equal("escalation_resolve")
		gt.Value(t, dispatcher.actions[0].Value).Equal("esc-1")
		gt.Value(t, dispatcher.actions[0].ActorID).Equal("U2")
		gt.Value(t, dispatcher.actions[0].Container.ChannelID).Equal("C1")
	})

	t.Run("returns submission response as JSON", func(t *testing.T) {
		dispatcher := &mockDispatcher{
			submissionResp: &model.SubmissionResponse{
				ResponseAction: model.SubmissionResponseErrors,
				Errors:         map[string]string{"escalate_team": "unknown team"},
			},
		}
		handler := httpctrl.NewSlackInteractionHandler(dispatcher)

		rec := postInteraction(t, handler, goslack.InteractionCallback{
			Type: goslack.InteractionTypeViewSubmission,
			User: goslack.User{ID: "U2"},
			View: goslack.View{
				CallbackID:      "escalation_submit",
				PrivateMetadata: "C1_100.000001",
				State: &goslack.ViewState{
					Values: map[string]map[string]goslack.BlockAction{
						"escalate_team": {
							"team": {SelectedOption: goslack.OptionBlockObject{Value: "nobody"}},
						},
					},
				},
			},
		})

		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, rec.Header().Get("Content-Type")).Equal("application/json")

		var resp model.SubmissionResponse
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Value(t, resp.ResponseAction).Equal(model.SubmissionResponseErrors)
		gt.Value(t, resp.Errors["escalate_team"]).Equal("unknown team")

		gt.Array(t, dispatcher.submissions).Length(1).Required()
		gt.Value(t, dispatcher.submissions[0].CallbackID).Equal("escalation_submit")
		gt.Value(t, dispatcher.submissions[0].Value("escalate_team", "team")).Equal("nobody")
	})

	t.Run("empty response closes the modal", func(t *testing.T) {
		dispatcher := &mockDispatcher{}
		handler := httpctrl.NewSlackInteractionHandler(dispatcher)

		rec := postInteraction(t, handler, goslack.InteractionCallback{
			Type: goslack.InteractionTypeViewSubmission,
			View: goslack.View{CallbackID: "escalation_submit"},
		})

		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, rec.Body.Len()).Equal(0)
	})

	t.Run("dispatch failure is a server error", func(t *testing.T) {
		dispatcher := &mockDispatcher{submissionErr: errors.New("no handler")}
		handler := httpctrl.NewSlackInteractionHandler(dispatcher)

		rec := postInteraction(t, handler, goslack.InteractionCallback{
			Type: goslack.InteractionTypeViewSubmission,
			View: goslack.View{CallbackID: "unknown"},
		})

		gt.Value(t, rec.Code).Equal(http.StatusInternalServerError)
	})

	t.Run("missing payload is a bad request", func(t *testing.T) {
		handler := httpctrl.NewSlackInteractionHandler(&mockDispatcher{})

		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/interaction", strings.NewReader(""))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("other interaction types are acknowledged", func(t *testing.T) {
		dispatcher := &mockDispatcher{}
		handler := httpctrl.NewSlackInteractionHandler(dispatcher)

		rec := postInteraction(t, handler, goslack.InteractionCallback{
			Type: goslack.InteractionTypeViewClosed,
		})

		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Array(t, dispatcher.actions).Length(0)
		gt.Array(t, dispatcher.submissions).Length(0)
	})
}
