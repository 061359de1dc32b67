package slack

import (
	"strings"

	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/slack-go/slack"
)

// NewActions converts the block actions of an interaction callback
func NewActions(callback *slack.InteractionCallback) []*model.Action {
	if callback == nil || callback.Type != slack.InteractionTypeBlockActions {
		return nil
	}

	container := model.MessageReference{
		ChannelID:       callback.Channel.ID,
		Timestamp:       callback.Message.Timestamp,
		ThreadTimestamp: callback.Message.ThreadTimestamp,
	}
	if container.ChannelID == "" {
		container.ChannelID = callback.Container.ChannelID
	}
	if container.Timestamp == "" {
		container.Timestamp = callback.Container.MessageTs
	}

	actions := make([]*model.Action, 0, len(callback.ActionCallback.BlockActions))
	for _, ba := range callback.ActionCallback.BlockActions {
		if ba == nil {
			continue
		}
		actions = append(actions, &model.Action{
			ActionID:       ba.ActionID,
			Value:          ba.Value,
			ActorID:        callback.User.ID,
			TriggerID:      callback.TriggerID,
			Container:      container,
			SelectedOption: ba.SelectedOption.Value,
			ViewMetadata:   callback.View.PrivateMetadata,
		})
	}
	return actions
}

// NewSubmission converts a view_submission callback. It returns nil for any
// other callback type.
func NewSubmission(callback *slack.InteractionCallback) *model.Submission {
	if callback == nil || callback.Type != slack.InteractionTypeViewSubmission {
		return nil
	}

	values := make(map[string]map[string]string)
	if callback.View.State != nil {
		for blockID, actions := range callback.View.State.Values {
			values[blockID] = make(map[string]string, len(actions))
			for actionID, action := range actions {
				values[blockID][actionID] = blockActionValue(action)
			}
		}
	}

	return &model.Submission{
		CallbackID:      callback.View.CallbackID,
		ActorID:         callback.User.ID,
		PrivateMetadata: callback.View.PrivateMetadata,
		Values:          values,
	}
}

func blockActionValue(action slack.BlockAction) string {
	if action.SelectedOption.Value != "" {
		return action.SelectedOption.Value
	}
	if len(action.SelectedOptions) > 0 {
		selected := make([]string, 0, len(action.SelectedOptions))
		for _, opt := range action.SelectedOptions {
			selected = append(selected, opt.Value)
		}
		return strings.Join(selected, ",")
	}
	return action.Value
}
