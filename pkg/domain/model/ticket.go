package model

import (
	"slices"
	"time"

	"github.com/secmon-lab/shepherd/pkg/domain/types"
)

// StatusLogEntry records when a ticket entered a status
type StatusLogEntry struct {
	At     time.Time          `firestore:"at" json:"at"`
	Status types.TicketStatus `firestore:"status" json:"status"`
}

// Ticket is a support request attached to a Slack thread
type Ticket struct {
	ID             types.TicketID     `firestore:"id" json:"id"`
	ChannelID      string             `firestore:"channel_id" json:"channel_id"`
	QueryTS        string             `firestore:"query_ts" json:"query_ts"`
	QueryText      string             `firestore:"query_text" json:"query_text"`
	AuthorID       string             `firestore:"author_id" json:"author_id"`
	Status         types.TicketStatus `firestore:"status" json:"status"`
	Team           *types.TeamID      `firestore:"team" json:"team,omitempty"`
	Impact         *types.Impact      `firestore:"impact" json:"impact,omitempty"`
	Tags           Tags               `firestore:"tags" json:"tags"`
	StatusLog      []StatusLogEntry   `firestore:"status_log" json:"status_log"`
	LastActivityAt time.Time          `firestore:"last_activity_at" json:"last_activity_at"`
	CreatedAt      time.Time          `firestore:"created_at" json:"created_at"`
}

// NewTicket creates an opened ticket for the thread rooted at query
func NewTicket(query MessageReference, text, authorID string, now time.Time) *Ticket {
	root := query.ThreadRoot()
	return &Ticket{
		ID:             types.NewTicketID(root.ChannelID, root.Timestamp),
		ChannelID:      root.ChannelID,
		QueryTS:        root.Timestamp,
		QueryText:      text,
		AuthorID:       authorID,
		Status:         types.TicketStatusOpened,
		Tags:           Tags{},
		StatusLog:      []StatusLogEntry{{At: now, Status: types.TicketStatusOpened}},
		LastActivityAt: now,
		CreatedAt:      now,
	}
}

// Ref returns the reference of the ticket's thread root
func (t *Ticket) Ref() MessageReference {
	return MessageReference{ChannelID: t.ChannelID, Timestamp: t.QueryTS}
}

// Thread returns a reference for replying in the ticket's thread
func (t *Ticket) Thread() MessageReference {
	return MessageReference{ChannelID: t.ChannelID, ThreadTimestamp: t.QueryTS}
}

// AppendStatus moves the ticket to status at when, if the transition table
// allows it. It returns false and leaves the ticket untouched otherwise.
// The new log entry is placed strictly after the previous one even when
// when is older, so the log stays ordered under out-of-order delivery.
func (t *Ticket) AppendStatus(status types.TicketStatus, when time.Time) bool {
	if !t.Status.CanTransitTo(status) {
		return false
	}

	if n := len(t.StatusLog); n > 0 {
		last := t.StatusLog[n-1].At
		if !when.After(last) {
			when = last.Add(time.Microsecond)
		}
	}

	t.Status = status
	t.StatusLog = append(t.StatusLog, StatusLogEntry{At: when, Status: status})
	if when.After(t.LastActivityAt) {
		t.LastActivityAt = when
	}
	return true
}

// Copy returns a deep copy of the ticket
func (t *Ticket) Copy() *Ticket {
	copied := *t
	if t.Team != nil {
		team := *t.Team
		copied.Team = &team
	}
	if t.Impact != nil {
		impact := *t.Impact
		copied.Impact = &impact
	}
	copied.Tags = slices.Clone(t.Tags)
	copied.StatusLog = slices.Clone(t.StatusLog)
	return &copied
}

// Tags is an ordered set of tags
type Tags []types.Tag

// Add appends tags that are not already present, keeping first-seen order
func (ts Tags) Add(tags ...types.Tag) Tags {
	for _, tag := range tags {
		if tag == "" || slices.Contains(ts, tag) {
			continue
		}
		ts = append(ts, tag)
	}
	return ts
}

// Has reports whether tag is in the set
func (ts Tags) Has(tag types.Tag) bool {
	return slices.Contains(ts, tag)
}

// NewTags builds a Tags set from tags, dropping duplicates
func NewTags(tags ...types.Tag) Tags {
	return Tags{}.Add(tags...)
}

// TicketFilter narrows ticket listings
type TicketFilter struct {
	Team   *types.TeamID
	Tag    *types.Tag
	Status *types.TicketStatus
	Since  *time.Time
	Until  *time.Time
}

// Match reports whether t passes the filter
func (f TicketFilter) Match(t *Ticket) bool {
	if f.Team != nil && (t.Team == nil || *t.Team != *f.Team) {
		return false
	}
	if f.Tag != nil && !t.Tags.Has(*f.Tag) {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Since != nil && t.CreatedAt.Before(*f.Since) {
		return false
	}
	if f.Until != nil && !t.CreatedAt.Before(*f.Until) {
		return false
	}
	return true
}
