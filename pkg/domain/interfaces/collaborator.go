package interfaces

import (
	"context"

	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/slack-go/slack"
)

// MembershipLookup answers whether a Slack user belongs to the group allowed
// to run privileged actions
type MembershipLookup interface {
	IsMember(ctx context.Context, actorID string) (bool, error)
}

// OutboundMessenger pushes messages and views back to Slack
type OutboundMessenger interface {
	// PostMessage posts blocks at ref. A ref with ThreadTimestamp replies in
	// that thread. It returns the timestamp of the posted message.
	PostMessage(ctx context.Context, ref model.MessageReference, blocks []slack.Block, text string) (string, error)

	// PostEphemeral posts a message only actorID can see
	PostEphemeral(ctx context.Context, actorID string, ref model.MessageReference, blocks []slack.Block, text string) error

	// UpdateHomeView publishes the App Home tab of actorID
	UpdateHomeView(ctx context.Context, actorID string, view slack.HomeTabViewRequest) error

	// OpenView opens a modal for the interaction identified by triggerID
	OpenView(ctx context.Context, triggerID string, view slack.ModalViewRequest) error
}

// ThreadResolver finds the root message of the thread a message belongs to.
// A message that is not in a thread is its own root.
type ThreadResolver interface {
	ThreadRoot(ctx context.Context, ref model.MessageReference) (model.MessageReference, error)
}

// IssueTracker files issues in an external tracker
type IssueTracker interface {
	// CreateIssue creates an issue and returns its URL
	CreateIssue(ctx context.Context, title, body string) (string, error)
}

// Classifier suggests impact and tags for a support request
type Classifier interface {
	Classify(ctx context.Context, text string) (*model.Classification, error)
}
