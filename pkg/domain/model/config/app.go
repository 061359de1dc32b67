package config

import (
	"slices"
	"time"

	"github.com/secmon-lab/shepherd/pkg/domain/types"
)

const (
	DefaultResolvedReaction = "white_check_mark"
	DefaultStaleAfter       = 72 * time.Hour
	DefaultHomePageSize     = 10
)

// Team is a group tickets can be escalated to
type Team struct {
	ID   types.TeamID
	Name string
	// UserGroupID is the Slack user group mentioned when the team receives
	// an escalation. Optional.
	UserGroupID string
}

// Reactions maps reaction names to ticket operations
type Reactions struct {
	Resolved string
	// Escalate is disabled when empty
	Escalate     string
	EscalateTeam types.TeamID
}

// App holds the ticket tracker configuration
type App struct {
	// Channels are the watched channel IDs. Empty means every channel the
	// bot is a member of.
	Channels     []string
	Reactions    Reactions
	Teams        []Team
	Tags         []types.Tag
	StaleAfter   time.Duration
	HomePageSize int
	// AuthorizedUserGroup is the Slack user group allowed to resolve
	// escalations. Empty disables the check.
	AuthorizedUserGroup string
}

// DefaultApp returns the configuration used when no config file is given
func DefaultApp() *App {
	return &App{
		Reactions: Reactions{
			Resolved: DefaultResolvedReaction,
		},
		StaleAfter:   DefaultStaleAfter,
		HomePageSize: DefaultHomePageSize,
	}
}

// IsWatched reports whether messages in channelID create tickets
func (a *App) IsWatched(channelID string) bool {
	return len(a.Channels) == 0 || slices.Contains(a.Channels, channelID)
}

// LookupTeam returns the team with id
func (a *App) LookupTeam(id types.TeamID) (*Team, bool) {
	for i := range a.Teams {
		if a.Teams[i].ID == id {
			return &a.Teams[i], true
		}
	}
	return nil, false
}

// IsKnownTag reports whether tag may be attached to tickets. Any valid tag
// is accepted when no tag list is configured.
func (a *App) IsKnownTag(tag types.Tag) bool {
	if tag.Validate() != nil {
		return false
	}
	return len(a.Tags) == 0 || slices.Contains(a.Tags, tag)
}
