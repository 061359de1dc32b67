package dispatch

import (
	"context"
	"regexp"

	"github.com/secmon-lab/shepherd/pkg/domain/model"
)

// EventHandler reacts to one kind of inbound event
type EventHandler struct {
	Name   string
	Kind   model.EventKind
	Handle func(ctx context.Context, ev model.InboundEvent) error
}

// ActionHandler reacts to block actions whose action ID matches Pattern
type ActionHandler struct {
	Name    string
	Pattern *regexp.Regexp
	Handle  func(ctx context.Context, action *model.Action) error
}

// SubmissionHandler answers modal submissions whose callback ID matches
// Pattern. Its response is sent back as the acknowledgment body.
type SubmissionHandler struct {
	Name    string
	Pattern *regexp.Regexp
	Handle  func(ctx context.Context, sub *model.Submission) (*model.SubmissionResponse, error)
}

// Registry is the complete list of handlers. It is built once at startup.
type Registry struct {
	Events      []EventHandler
	Actions     []ActionHandler
	Submissions []SubmissionHandler
}

// ExactMatch builds a pattern matching id and nothing else
func ExactMatch(id string) *regexp.Regexp {
	return regexp.MustCompile("^" + regexp.QuoteMeta(id) + "$")
}
