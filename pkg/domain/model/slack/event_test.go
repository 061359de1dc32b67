package slack_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/model/slack"
	"github.com/slack-go/slack/slackevents"
)

func callback(data any) *slackevents.EventsAPIEvent {
	return &slackevents.EventsAPIEvent{
		Type:   slackevents.CallbackEvent,
		TeamID: "T123456",
		InnerEvent: slackevents.EventsAPIInnerEvent{
			Data: data,
		},
	}
}

func TestNewInboundEvent_MessageEvent(t *testing.T) {
	ev := slack.NewInboundEvent(callback(&slackevents.MessageEvent{
		Type:      "message",
		User:      "U123456",
		Text:      "I cannot login",
		TimeStamp: "100.000001",
		Channel:   "C123456",
	}))

	msg, ok := ev.(*model.MessagePosted)
	gt.Bool(t, ok).True()
	gt.Value(t, msg.Actor()).Equal("U123456")
	gt.Value(t, msg.Text).Equal("I cannot login")
	gt.Value(t, msg.Ref()).Equal(model.MessageReference{ChannelID: "C123456", Timestamp: "100.000001"})
	gt.Bool(t, msg.FromBot()).False()
}

func TestNewInboundEvent_ThreadReply(t *testing.T) {
	ev := slack.NewInboundEvent(callback(&slackevents.MessageEvent{
		User:            "U2",
		TimeStamp:       "100.000300",
		ThreadTimeStamp: "100.000001",
		Channel:         "C1",
	}))

	gt.Value(t, ev.Ref().ThreadKey()).Equal("100.000001")
	gt.Bool(t, ev.Ref().IsRoot()).False()
}

func TestNewInboundEvent_IgnoresEdits(t *testing.T) {
	ev := slack.NewInboundEvent(callback(&slackevents.MessageEvent{
		SubType:   "message_changed",
		TimeStamp: "100.000001",
		Channel:   "C1",
	}))
	gt.Value(t, ev).Nil()
}

func TestNewInboundEvent_Reaction(t *testing.T) {
	added := slack.NewInboundEvent(callback(&slackevents.ReactionAddedEvent{
		User:     "U1",
		Reaction: "white_check_mark",
		Item:     slackevents.Item{Type: "message", Channel: "C1", Timestamp: "100.000001"},
	}))
	gt.Value(t, added.Kind()).Equal(model.EventKindReactionAdded)
	gt.Value(t, added.(*model.ReactionAdded).Reaction).Equal("white_check_mark")
	gt.Value(t, added.Ref().ThreadKey()).Equal("100.000001")

	removed := slack.NewInboundEvent(callback(&slackevents.ReactionRemovedEvent{
		User:     "U1",
		Reaction: "white_check_mark",
		Item:     slackevents.Item{Type: "message", Channel: "C1", Timestamp: "100.000001"},
	}))
	gt.Value(t, removed.Kind()).Equal(model.EventKindReactionRemoved)
}

func TestNewInboundEvent_AppMention(t *testing.T) {
	ev := slack.NewInboundEvent(callback(&slackevents.AppMentionEvent{
		User:            "U1",
		Text:            "<@B1> status",
		TimeStamp:       "100.000500",
		ThreadTimeStamp: "100.000001",
		Channel:         "C1",
	}))
	gt.Value(t, ev.Kind()).Equal(model.EventKindBotMentioned)
	gt.Value(t, ev.(*model.BotMentioned).Text).Equal("<@B1> status")
}

func TestNewInboundEvent_AppHomeOpened(t *testing.T) {
	ev := slack.NewInboundEvent(callback(&slackevents.AppHomeOpenedEvent{User: "U1", Tab: "home"}))
	gt.Value(t, ev.Kind()).Equal(model.EventKindHomeOpened)

	gt.Value(t, slack.NewInboundEvent(callback(&slackevents.AppHomeOpenedEvent{User: "U1", Tab: "messages"}))).Nil()
}

func TestNewInboundEvent_Unsupported(t *testing.T) {
	gt.Value(t, slack.NewInboundEvent(callback(&slackevents.MemberJoinedChannelEvent{User: "U1"}))).Nil()
	gt.Value(t, slack.NewInboundEvent(&slackevents.EventsAPIEvent{Type: slackevents.URLVerification})).Nil()
	gt.Value(t, slack.NewInboundEvent(nil)).Nil()
}
