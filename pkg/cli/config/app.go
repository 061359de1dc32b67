package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	domainConfig "github.com/secmon-lab/shepherd/pkg/domain/model/config"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// AppConfig holds the --config flag
type AppConfig struct {
	path string
}

// Flags returns CLI flags for the application configuration
func (a *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the TOML configuration file (defaults are used when omitted)",
			Sources:     cli.EnvVars("SHEPHERD_CONFIG"),
			Destination: &a.path,
		},
	}
}

// Path returns the configuration file path
func (a *AppConfig) Path() string {
	return a.path
}

// Configure loads the configuration file, or returns the defaults when no
// path is set
func (a *AppConfig) Configure() (*domainConfig.App, error) {
	if a.path == "" {
		return domainConfig.DefaultApp(), nil
	}

	file, err := LoadAppConfiguration(a.path)
	if err != nil {
		return nil, err
	}
	return file.ToDomainApp()
}

// AppFile is the TOML layout of the configuration file
type AppFile struct {
	Channels      []string      `toml:"channels"`
	Tags          []string      `toml:"tags"`
	StaleAfter    string        `toml:"stale_after"`
	HomePageSize  int           `toml:"home_page_size"`
	Reactions     Reactions     `toml:"reactions"`
	Authorization Authorization `toml:"authorization"`
	Teams         []Team        `toml:"team"`
}

// Reactions maps reaction names to ticket operations
type Reactions struct {
	Resolved     string `toml:"resolved"`
	Escalate     string `toml:"escalate"`
	EscalateTeam string `toml:"escalate_team"`
}

// Authorization restricts privileged actions to a Slack user group
type Authorization struct {
	UserGroup string `toml:"user_group"`
}

// Team represents a team configuration
type Team struct {
	ID        string `toml:"id"`
	Name      string `toml:"name"`
	UserGroup string `toml:"user_group"`
}

// Validate checks if the Team is valid
func (t *Team) Validate() error {
	id := types.TeamID(t.ID)
	if err := id.Validate(); err != nil {
		return goerr.Wrap(err, "invalid team ID")
	}
	if t.Name == "" {
		return goerr.Wrap(ErrMissingName, "team name is required", goerr.V(TeamIDKey, t.ID))
	}
	return nil
}

// Validate checks if the AppFile is valid
func (a *AppFile) Validate() error {
	teamIDs := make(map[string]bool)
	for i, team := range a.Teams {
		if err := team.Validate(); err != nil {
			return goerr.Wrap(err, "invalid team", goerr.V(TeamIndexKey, i))
		}
		if teamIDs[team.ID] {
			return goerr.Wrap(ErrDuplicateTeamID, "team ID must be unique", goerr.V(TeamIDKey, team.ID))
		}
		teamIDs[team.ID] = true
	}

	for _, tag := range a.Tags {
		if err := types.Tag(tag).Validate(); err != nil {
			return goerr.Wrap(ErrInvalidTag, err.Error(), goerr.V(TagKey, tag))
		}
	}

	if a.Reactions.EscalateTeam != "" && !teamIDs[a.Reactions.EscalateTeam] {
		return goerr.Wrap(ErrUnknownTeam, "reactions.escalate_team must name a configured team",
			goerr.V(TeamIDKey, a.Reactions.EscalateTeam))
	}
	if a.Reactions.Escalate != "" && a.Reactions.EscalateTeam == "" {
		return goerr.Wrap(ErrInvalidConfig, "reactions.escalate requires reactions.escalate_team")
	}
	if a.Reactions.Escalate != "" && a.Reactions.Escalate == a.resolvedReaction() {
		return goerr.Wrap(ErrInvalidConfig, "escalate and resolved reactions must differ",
			goerr.V("reaction", a.Reactions.Escalate))
	}

	if a.StaleAfter != "" {
		d, err := time.ParseDuration(a.StaleAfter)
		if err != nil {
			return goerr.Wrap(ErrInvalidDuration, err.Error(), goerr.V("stale_after", a.StaleAfter))
		}
		if d <= 0 {
			return goerr.Wrap(ErrInvalidDuration, "stale_after must be positive", goerr.V("stale_after", a.StaleAfter))
		}
	}

	if a.HomePageSize < 0 || a.HomePageSize > 100 {
		return goerr.Wrap(ErrInvalidConfig, "home_page_size must be between 0 (default) and 100",
			goerr.V("home_page_size", a.HomePageSize))
	}

	return nil
}

func (a *AppFile) resolvedReaction() string {
	if a.Reactions.Resolved == "" {
		return domainConfig.DefaultResolvedReaction
	}
	return a.Reactions.Resolved
}

// LoadAppConfiguration loads the application configuration from a TOML file
func LoadAppConfiguration(path string) (*AppFile, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var config AppFile
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML config", goerr.V(ConfigPathKey, path))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &config, nil
}

// ToDomainApp converts the validated file into the domain configuration,
// filling unset values with defaults
func (a *AppFile) ToDomainApp() (*domainConfig.App, error) {
	app := domainConfig.DefaultApp()

	app.Channels = a.Channels
	app.Reactions = domainConfig.Reactions{
		Resolved:     a.resolvedReaction(),
		Escalate:     a.Reactions.Escalate,
		EscalateTeam: types.TeamID(a.Reactions.EscalateTeam),
	}
	app.AuthorizedUserGroup = a.Authorization.UserGroup

	for _, tag := range a.Tags {
		app.Tags = append(app.Tags, types.Tag(tag))
	}

	app.Teams = make([]domainConfig.Team, len(a.Teams))
	for i, team := range a.Teams {
		app.Teams[i] = domainConfig.Team{
			ID:          types.TeamID(team.ID),
			Name:        team.Name,
			UserGroupID: team.UserGroup,
		}
	}

	if a.StaleAfter != "" {
		d, err := time.ParseDuration(a.StaleAfter)
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidDuration, err.Error(), goerr.V("stale_after", a.StaleAfter))
		}
		app.StaleAfter = d
	}
	if a.HomePageSize > 0 {
		app.HomePageSize = a.HomePageSize
	}

	return app, nil
}
