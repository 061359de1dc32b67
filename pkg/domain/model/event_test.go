package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
)

func TestMessageReference(t *testing.T) {
	root := model.MessageReference{ChannelID: "C1", Timestamp: "100.000001"}
	reply := model.MessageReference{ChannelID: "C1", Timestamp: "100.000200", ThreadTimestamp: "100.000001"}
	otherChannel := model.MessageReference{ChannelID: "C2", Timestamp: "100.000001"}

	gt.Value(t, reply.ThreadKey()).Equal("100.000001")
	gt.Bool(t, root.SameThread(reply)).True()
	gt.Bool(t, root.SameThread(otherChannel)).False()
	gt.Bool(t, root.IsRoot()).True()
	gt.Bool(t, reply.IsRoot()).False()
	gt.Value(t, reply.ThreadRoot()).Equal(root)
	gt.Value(t, root.InThread()).Equal(model.MessageReference{ChannelID: "C1", ThreadTimestamp: "100.000001"})
}

func TestInboundEventKinds(t *testing.T) {
	ref := model.MessageReference{ChannelID: "C1", Timestamp: "1.0"}
	events := []model.InboundEvent{
		model.NewMessagePosted("U1", ref, "hi", ""),
		model.NewReactionAdded("U1", ref, "eyes"),
		model.NewReactionRemoved("U1", ref, "eyes"),
		model.NewBotMentioned("U1", ref, "<@B1> help"),
		model.NewHomeOpened("U1"),
	}

	kinds := make([]model.EventKind, 0, len(events))
	for _, ev := range events {
		gt.Value(t, ev.Actor()).Equal("U1")
		kinds = append(kinds, ev.Kind())
	}
	gt.Value(t, kinds).Equal(model.AllEventKinds())
}
