package http_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/secmon-lab/shepherd/pkg/controller/http"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
)

// Export the private function for testing
var VerifySlackSignature = httpctrl.VerifySlackSignature

// computeSlackSignature computes the Slack signature for testing
func computeSlackSignature(signingSecret, timestamp, body string) string {
	baseString := fmt.Sprintf("v0:%s:%s", timestamp, body)
	h := hmac.New(sha256.New, []byte(signingSecret))
	h.Write([]byte(baseString))
	return "v0=" + hex.EncodeToString(h.Sum(nil))
}

// mockDispatcher records what the HTTP layer hands over
type mockDispatcher struct {
	mu          sync.Mutex
	events      []model.InboundEvent
	actions     []*model.Action
	submissions []*model.Submission

	submissionResp *model.SubmissionResponse
	submissionErr  error
}

func (m *mockDispatcher) DispatchEvent(ctx context.Context, ev model.InboundEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func (m *mockDispatcher) DispatchAction(ctx context.Context, action *model.Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, action)
}

func (m *mockDispatcher) DispatchSubmission(ctx context.Context, sub *model.Submission) (*model.SubmissionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions = append(m.submissions, sub)
	return m.submissionResp, m.submissionErr
}

func TestVerifySlackSignature(t *testing.T) {
	signingSecret := "test-signing-secret"
	body := []byte(`{"type":"url_verification","challenge":"test"}`)

	t.Run("valid signature", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature := computeSlackSignature(signingSecret, timestamp, string(body))

		gt.NoError(t, VerifySlackSignature(signingSecret, timestamp, signature, body))
	})

	t.Run("invalid signature", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		gt.Value(t, VerifySlackSignature(signingSecret, timestamp, "v0=invalid_signature", body)).NotNil()
	})

	t.Run("missing timestamp", func(t *testing.T) {
		signature := computeSlackSignature(signingSecret, "123456", string(body))
		gt.Value(t, VerifySlackSignature(signingSecret, "", signature, body)).NotNil()
	})

	t.Run("missing signature", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		gt.Value(t, VerifySlackSignature(signingSecret, timestamp, "", body)).NotNil()
	})

	t.Run("timestamp too old", func(t *testing.T) {
		oldTimestamp := strconv.FormatInt(time.Now().Add(-10*time.Minute).Unix(), 10)
		signature := computeSlackSignature(signingSecret, oldTimestamp, string(body))
		gt.Value(t, VerifySlackSignature(signingSecret, oldTimestamp, signature, body)).NotNil()
	})

	t.Run("invalid timestamp format", func(t *testing.T) {
		signature := computeSlackSignature(signingSecret, "not-a-number", string(body))
		gt.Value(t, VerifySlackSignature(signingSecret, "not-a-number", signature, body)).NotNil()
	})

	t.Run("different body produces different signature", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature := computeSlackSignature(signingSecret, timestamp, "different body")
		gt.Value(t, VerifySlackSignature(signingSecret, timestamp, signature, body)).NotNil()
	})
}

func TestSlackSignatureMiddleware(t *testing.T) {
	signingSecret := "test-signing-secret"
	body := []byte(`{"type":"url_verification","challenge":"test"}`)

	t.Run("calls next handler with restored body when signature is valid", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature := computeSlackSignature(signingSecret, timestamp, string(body))

		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/event", bytes.NewReader(body))
		req.Header.Set("X-Slack-Request-Timestamp", timestamp)
		req.Header.Set("X-Slack-Signature", signature)
		rec := httptest.NewRecorder()

		var received []byte
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
		})

		httpctrl.SlackSignatureMiddleware(signingSecret)(next).ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, string(received)).Equal(string(body))
	})

	t.Run("rejects invalid signature", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)

		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/event", bytes.NewReader(body))
		req.Header.Set("X-Slack-Request-Timestamp", timestamp)
		req.Header.Set("X-Slack-Signature", "v0=wrong")
		rec := httptest.NewRecorder()

		nextCalled := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
		})

		httpctrl.SlackSignatureMiddleware(signingSecret)(next).ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusUnauthorized)
		gt.Bool(t, nextCalled).False()
	})
}

func TestSlackWebhookHandler(t *testing.T) {
	t.Run("answers URL verification challenge", func(t *testing.T) {
		dispatcher := &mockDispatcher{}
		handler := httpctrl.NewSlackWebhookHandler(dispatcher)

		body := `{"token":"x","challenge":"challenge-token","type":"url_verification"}`
		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/event", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, rec.Body.String()).Equal("challenge-token")
		gt.Array(t, dispatcher.events).Length(0)
	})

	t.Run("dispatches message callback", func(t *testing.T) {
		dispatcher := &mockDispatcher{}
		handler := httpctrl.NewSlackWebhookHandler(dispatcher)

		body := `{
			"token": "x",
			"team_id": "T1",
			"type": "event_callback",
			"event_id": "Ev1",
			"event": {
				"type": "message",
				"channel": "C1",
				"user": "U1",
				"text": "printer is broken",
				"ts": "100.000001"
			}
		}`
		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/event", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Array(t, dispatcher.events).Length(1).Required()

		ev := dispatcher.events[0]
		gt.Value(t, ev.Kind()).Equal(model.EventKindMessagePosted)
		gt.Value(t, ev.Actor()).Equal("U1")
		gt.Value(t, ev.Ref().ChannelID).Equal("C1")
		gt.Value(t, ev.Ref().Timestamp).Equal("100.000001")
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		dispatcher := &mockDispatcher{}
		handler := httpctrl.NewSlackWebhookHandler(dispatcher)

		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/event", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestServer_SlackRoutesRequireSignature(t *testing.T) {
	signingSecret := "test-signing-secret"
	dispatcher := &mockDispatcher{}
	srv, err := httpctrl.New(httpctrl.WithSlackWebhook(dispatcher, signingSecret))
	gt.NoError(t, err).Required()

	body := `{"token":"x","challenge":"abc","type":"url_verification"}`

	t.Run("unsigned request is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/event", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		gt.Value(t, rec.Code).Equal(http.StatusUnauthorized)
	})

	t.Run("signed request passes", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/event", bytes.NewBufferString(body))
		req.Header.Set("X-Slack-Request-Timestamp", timestamp)
		req.Header.Set("X-Slack-Signature", computeSlackSignature(signingSecret, timestamp, body))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, rec.Body.String()).Equal("abc")
	})
}
