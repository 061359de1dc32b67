package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrInvalidConfig   = goerr.New("invalid configuration")
	ErrDuplicateTeamID = goerr.New("duplicate team ID")
	ErrUnknownTeam     = goerr.New("unknown team")
	ErrInvalidTag      = goerr.New("invalid tag")
	ErrMissingName     = goerr.New("name is required")
	ErrInvalidDuration = goerr.New("invalid duration")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	TeamIDKey     = "team_id"
	TagKey        = "tag"
	TeamIndexKey  = "team_index"
)
