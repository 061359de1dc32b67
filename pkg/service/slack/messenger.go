package slack

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/slack-go/slack"
)

func messageOptions(ref model.MessageReference, blocks []slack.Block, text string) []slack.MsgOption {
	opts := []slack.MsgOption{
		slack.MsgOptionText(text, false),
	}
	if len(blocks) > 0 {
		opts = append(opts, slack.MsgOptionBlocks(blocks...))
	}
	if ref.ThreadTimestamp != "" {
		opts = append(opts, slack.MsgOptionTS(ref.ThreadTimestamp))
	}
	return opts
}

// PostMessage posts a Block Kit message to ref and returns the message
// timestamp. The text parameter is used as a fallback for notifications.
func (c *Client) PostMessage(ctx context.Context, ref model.MessageReference, blocks []slack.Block, text string) (string, error) {
	_, ts, err := c.api.PostMessageContext(ctx, ref.ChannelID, messageOptions(ref, blocks, text)...)
	if err != nil {
		return "", goerr.Wrap(err, "failed to post message",
			goerr.V("channel_id", ref.ChannelID),
			goerr.V("thread_ts", ref.ThreadTimestamp))
	}
	return ts, nil
}

// PostEphemeral posts a message only actorID can see
func (c *Client) PostEphemeral(ctx context.Context, actorID string, ref model.MessageReference, blocks []slack.Block, text string) error {
	if _, err := c.api.PostEphemeralContext(ctx, ref.ChannelID, actorID, messageOptions(ref, blocks, text)...); err != nil {
		return goerr.Wrap(err, "failed to post ephemeral message",
			goerr.V("channel_id", ref.ChannelID),
			goerr.V("user_id", actorID))
	}
	return nil
}

// UpdateHomeView publishes the App Home tab of actorID
func (c *Client) UpdateHomeView(ctx context.Context, actorID string, view slack.HomeTabViewRequest) error {
	if _, err := c.api.PublishViewContext(ctx, slack.PublishViewContextRequest{
		UserID: actorID,
		View:   view,
	}); err != nil {
		return goerr.Wrap(err, "failed to publish home view", goerr.V("user_id", actorID))
	}
	return nil
}

// OpenView opens a modal for the interaction identified by triggerID
func (c *Client) OpenView(ctx context.Context, triggerID string, view slack.ModalViewRequest) error {
	if _, err := c.api.OpenViewContext(ctx, triggerID, view); err != nil {
		return goerr.Wrap(err, "failed to open view", goerr.V("callback_id", view.CallbackID))
	}
	return nil
}

// ThreadRoot looks up the message at ref and returns the root of its thread
func (c *Client) ThreadRoot(ctx context.Context, ref model.MessageReference) (model.MessageReference, error) {
	msgs, _, _, err := c.api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
		ChannelID: ref.ChannelID,
		Timestamp: ref.Timestamp,
		Limit:     1,
		Inclusive: true,
	})
	if err != nil {
		return ref, goerr.Wrap(err, "failed to get conversation replies",
			goerr.V("channel_id", ref.ChannelID),
			goerr.V("ts", ref.Timestamp))
	}

	root := model.MessageReference{ChannelID: ref.ChannelID, Timestamp: ref.Timestamp}
	if len(msgs) > 0 && msgs[0].ThreadTimestamp != "" {
		root.Timestamp = msgs[0].ThreadTimestamp
	}
	return root, nil
}
