package slack

import (
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/slack-go/slack/slackevents"
)

// message subtypes that still represent a user posting in a channel
var postedSubTypes = map[string]bool{
	"":                 true,
	"thread_broadcast": true,
	"file_share":       true,
}

// NewInboundEvent converts a Slack Events API callback into an InboundEvent.
// It returns nil for callbacks shepherd does not handle (edits, deletions,
// unknown event types).
func NewInboundEvent(ev *slackevents.EventsAPIEvent) model.InboundEvent {
	if ev == nil || ev.Type != slackevents.CallbackEvent {
		return nil
	}

	switch data := ev.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		if !postedSubTypes[data.SubType] {
			return nil
		}
		ref := model.MessageReference{
			ChannelID:       data.Channel,
			Timestamp:       data.TimeStamp,
			ThreadTimestamp: data.ThreadTimeStamp,
		}
		return model.NewMessagePosted(data.User, ref, data.Text, data.BotID)

	case *slackevents.AppMentionEvent:
		ref := model.MessageReference{
			ChannelID:       data.Channel,
			Timestamp:       data.TimeStamp,
			ThreadTimestamp: data.ThreadTimeStamp,
		}
		return model.NewBotMentioned(data.User, ref, data.Text)

	case *slackevents.ReactionAddedEvent:
		ref := model.MessageReference{
			ChannelID: data.Item.Channel,
			Timestamp: data.Item.Timestamp,
		}
		return model.NewReactionAdded(data.User, ref, data.Reaction)

	case *slackevents.ReactionRemovedEvent:
		ref := model.MessageReference{
			ChannelID: data.Item.Channel,
			Timestamp: data.Item.Timestamp,
		}
		return model.NewReactionRemoved(data.User, ref, data.Reaction)

	case *slackevents.AppHomeOpenedEvent:
		if data.Tab != "" && data.Tab != "home" {
			return nil
		}
		return model.NewHomeOpened(data.User)

	default:
		return nil
	}
}
