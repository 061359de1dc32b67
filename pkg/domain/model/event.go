package model

// MessageReference points at a Slack message. ThreadTimestamp is empty for
// root messages.
type MessageReference struct {
	ChannelID       string
	Timestamp       string
	ThreadTimestamp string
}

// ThreadKey returns the timestamp of the thread root the message belongs to
func (r MessageReference) ThreadKey() string {
	if r.ThreadTimestamp != "" {
		return r.ThreadTimestamp
	}
	return r.Timestamp
}

// SameThread reports whether both references belong to the same thread
func (r MessageReference) SameThread(other MessageReference) bool {
	return r.ChannelID == other.ChannelID && r.ThreadKey() == other.ThreadKey()
}

// IsRoot reports whether the message is a thread root (or a plain message)
func (r MessageReference) IsRoot() bool {
	return r.ThreadTimestamp == "" || r.ThreadTimestamp == r.Timestamp
}

// ThreadRoot returns the reference of the thread root
func (r MessageReference) ThreadRoot() MessageReference {
	return MessageReference{ChannelID: r.ChannelID, Timestamp: r.ThreadKey()}
}

// InThread returns a reference that replies in the thread of r
func (r MessageReference) InThread() MessageReference {
	return MessageReference{ChannelID: r.ChannelID, ThreadTimestamp: r.ThreadKey()}
}

// EventKind tags InboundEvent variants
type EventKind string

const (
	EventKindMessagePosted   EventKind = "message_posted"
	EventKindReactionAdded   EventKind = "reaction_added"
	EventKindReactionRemoved EventKind = "reaction_removed"
	EventKindBotMentioned    EventKind = "bot_mentioned"
	EventKindHomeOpened      EventKind = "home_opened"
)

// AllEventKinds returns every InboundEvent variant tag
func AllEventKinds() []EventKind {
	return []EventKind{
		EventKindMessagePosted,
		EventKindReactionAdded,
		EventKindReactionRemoved,
		EventKindBotMentioned,
		EventKindHomeOpened,
	}
}

// InboundEvent is an occurrence pushed by Slack's Events API. The set of
// variants is closed: only types in this package implement it.
type InboundEvent interface {
	Kind() EventKind
	Actor() string
	Ref() MessageReference
	inboundEvent()
}

type eventBase struct {
	actor string
	ref   MessageReference
}

func (e eventBase) Actor() string         { return e.actor }
func (e eventBase) Ref() MessageReference { return e.ref }
func (e eventBase) inboundEvent()         {}

// MessagePosted is a message posted in a channel or thread
type MessagePosted struct {
	eventBase
	Text  string
	BotID string
}

func NewMessagePosted(actor string, ref MessageReference, text, botID string) *MessagePosted {
	return &MessagePosted{eventBase: eventBase{actor: actor, ref: ref}, Text: text, BotID: botID}
}

func (e *MessagePosted) Kind() EventKind { return EventKindMessagePosted }

// FromBot reports whether the message was posted by a bot integration
func (e *MessagePosted) FromBot() bool { return e.BotID != "" }

// ReactionAdded is an emoji reaction added to a message
type ReactionAdded struct {
	eventBase
	Reaction string
}

func NewReactionAdded(actor string, ref MessageReference, reaction string) *ReactionAdded {
	return &ReactionAdded{eventBase: eventBase{actor: actor, ref: ref}, Reaction: reaction}
}

func (e *ReactionAdded) Kind() EventKind { return EventKindReactionAdded }

// ReactionRemoved is an emoji reaction removed from a message
type ReactionRemoved struct {
	eventBase
	Reaction string
}

func NewReactionRemoved(actor string, ref MessageReference, reaction string) *ReactionRemoved {
	return &ReactionRemoved{eventBase: eventBase{actor: actor, ref: ref}, Reaction: reaction}
}

func (e *ReactionRemoved) Kind() EventKind { return EventKindReactionRemoved }

// BotMentioned is a message mentioning the bot
type BotMentioned struct {
	eventBase
	Text string
}

func NewBotMentioned(actor string, ref MessageReference, text string) *BotMentioned {
	return &BotMentioned{eventBase: eventBase{actor: actor, ref: ref}, Text: text}
}

func (e *BotMentioned) Kind() EventKind { return EventKindBotMentioned }

// HomeOpened is the App Home tab being opened. Its reference is empty.
type HomeOpened struct {
	eventBase
}

func NewHomeOpened(actor string) *HomeOpened {
	return &HomeOpened{eventBase: eventBase{actor: actor}}
}

func (e *HomeOpened) Kind() EventKind { return EventKindHomeOpened }
