package model

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/secmon-lab/shepherd/pkg/domain/types"
)

const (
	homeViewStateVersion = "1"
	homeFilterDateLayout = time.DateOnly
)

// HomepageViewState is the pagination and filter state of the App Home
// ticket list. The server keeps no copy; it travels inside the view as an
// opaque token.
type HomepageViewState struct {
	Page   int         `json:"p"`
	Filter *HomeFilter `json:"f,omitempty"`
}

// HomeFilter narrows the App Home ticket list. Since and Until are dates in
// YYYY-MM-DD form; Until is inclusive.
type HomeFilter struct {
	Team  types.TeamID `json:"team,omitempty"`
	Tag   types.Tag    `json:"tag,omitempty"`
	Since string       `json:"since,omitempty"`
	Until string       `json:"until,omitempty"`
}

// IsEmpty reports whether the filter has no predicate
func (f *HomeFilter) IsEmpty() bool {
	return f == nil || (f.Team == "" && f.Tag == "" && f.Since == "" && f.Until == "")
}

func (f *HomeFilter) valid() bool {
	if f.IsEmpty() {
		return false
	}
	if f.Team != "" && f.Team.Validate() != nil {
		return false
	}
	if f.Tag != "" && f.Tag.Validate() != nil {
		return false
	}

	var since, until time.Time
	var err error
	if f.Since != "" {
		if since, err = time.Parse(homeFilterDateLayout, f.Since); err != nil {
			return false
		}
	}
	if f.Until != "" {
		if until, err = time.Parse(homeFilterDateLayout, f.Until); err != nil {
			return false
		}
	}
	if f.Since != "" && f.Until != "" && until.Before(since) {
		return false
	}
	return true
}

// IsValid reports whether the state can be encoded and decoded back as is
func (s HomepageViewState) IsValid() bool {
	if s.Page < 0 {
		return false
	}
	if s.Filter != nil && !s.Filter.valid() {
		return false
	}
	return true
}

// WithPage returns a copy of s moved to page, clamped at zero
func (s HomepageViewState) WithPage(page int) HomepageViewState {
	s.Page = max(page, 0)
	return s
}

// WithTeam returns a copy of s filtered by team, back on the first page.
// An empty team clears the team predicate.
func (s HomepageViewState) WithTeam(team types.TeamID) HomepageViewState {
	var filter HomeFilter
	if s.Filter != nil {
		filter = *s.Filter
	}
	filter.Team = team

	s.Page = 0
	s.Filter = nil
	if !filter.IsEmpty() {
		s.Filter = &filter
	}
	return s
}

// TicketFilter converts the view filter into a repository filter
func (s HomepageViewState) TicketFilter() TicketFilter {
	var filter TicketFilter
	if s.Filter == nil {
		return filter
	}

	if s.Filter.Team != "" {
		team := s.Filter.Team
		filter.Team = &team
	}
	if s.Filter.Tag != "" {
		tag := s.Filter.Tag
		filter.Tag = &tag
	}
	if since, err := time.Parse(homeFilterDateLayout, s.Filter.Since); err == nil {
		filter.Since = &since
	}
	if until, err := time.Parse(homeFilterDateLayout, s.Filter.Until); err == nil {
		end := until.AddDate(0, 0, 1)
		filter.Until = &end
	}
	return filter
}

// EncodeHomeViewState serializes state into an opaque token
func EncodeHomeViewState(state HomepageViewState) string {
	raw, err := json.Marshal(state)
	if err != nil {
		// HomepageViewState holds only strings and ints
		return ""
	}
	return homeViewStateVersion + "." + base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeHomeViewState parses a token produced by EncodeHomeViewState. Empty,
// malformed or invalid tokens decode to the first unfiltered page.
func DecodeHomeViewState(token string) HomepageViewState {
	version, payload, ok := strings.Cut(token, ".")
	if !ok || version != homeViewStateVersion {
		return HomepageViewState{}
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return HomepageViewState{}
	}

	var state HomepageViewState
	if err := json.Unmarshal(raw, &state); err != nil {
		return HomepageViewState{}
	}
	if !state.IsValid() {
		return HomepageViewState{}
	}
	return state
}
