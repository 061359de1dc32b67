package model

// Action is a block action (button click, select) from an interactive
// message or view
type Action struct {
	ActionID  string
	Value     string
	ActorID   string
	TriggerID string
	// Container is the message holding the clicked element. ChannelID is
	// empty when the action comes from a view such as App Home.
	Container MessageReference
	// SelectedOption is set for select menus
	SelectedOption string
	// ViewMetadata is the private metadata of the view holding the element
	ViewMetadata string
}

// Submission is a modal view submission
type Submission struct {
	CallbackID      string
	ActorID         string
	PrivateMetadata string
	// Values maps block ID to action ID to the submitted value. Multi-value
	// inputs are joined by commas.
	Values map[string]map[string]string
}

// Value returns the submitted value of blockID/actionID, or empty string
func (s *Submission) Value(blockID, actionID string) string {
	if s.Values == nil {
		return ""
	}
	return s.Values[blockID][actionID]
}

// SubmissionResponseAction tells Slack what to do with the modal
type SubmissionResponseAction string

const (
	SubmissionResponseClear  SubmissionResponseAction = "clear"
	SubmissionResponseErrors SubmissionResponseAction = "errors"
)

// SubmissionResponse is the body of a view_submission acknowledgment. A nil
// response means an empty 200, which closes the modal.
type SubmissionResponse struct {
	ResponseAction SubmissionResponseAction `json:"response_action,omitempty"`
	Errors         map[string]string        `json:"errors,omitempty"`
}
