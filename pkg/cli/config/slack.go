package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

type Slack struct {
	botToken      string
	signingSecret string
	apiURL        string
	cacheTTL      time.Duration
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("SHEPHERD_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-signing-secret",
			Usage:       "Slack Signing Secret (for webhook verification)",
			Category:    "Slack",
			Destination: &x.signingSecret,
			Sources:     cli.EnvVars("SHEPHERD_SLACK_SIGNING_SECRET"),
		},
		&cli.StringFlag{
			Name:        "slack-api-url",
			Usage:       "Slack Web API base URL (for testing against a stub)",
			Category:    "Slack",
			Destination: &x.apiURL,
			Sources:     cli.EnvVars("SHEPHERD_SLACK_API_URL"),
		},
		&cli.DurationFlag{
			Name:        "slack-membership-cache-ttl",
			Usage:       "How long user group membership is cached",
			Category:    "Slack",
			Value:       5 * time.Minute,
			Destination: &x.cacheTTL,
			Sources:     cli.EnvVars("SHEPHERD_SLACK_MEMBERSHIP_CACHE_TTL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.Int("signing-secret.len", len(x.signingSecret)),
		slog.String("api-url", x.apiURL),
		slog.Duration("membership-cache-ttl", x.cacheTTL),
	)
}

// Configure creates the Slack client. userGroup enables membership checks
// against that group.
func (x *Slack) Configure(userGroup string) (*slack.Client, error) {
	if x.botToken == "" {
		return nil, goerr.New("--slack-bot-token is required")
	}

	opts := []slack.Option{
		slack.WithCacheTTL(x.cacheTTL),
	}
	if userGroup != "" {
		opts = append(opts, slack.WithUserGroup(userGroup))
	}
	if x.apiURL != "" {
		opts = append(opts, slack.WithAPIURL(x.apiURL))
	}

	client, err := slack.New(x.botToken, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create slack client")
	}
	return client, nil
}

// IsWebhookConfigured checks if Slack webhook is configured
func (x *Slack) IsWebhookConfigured() bool {
	return x.signingSecret != ""
}

// SigningSecret returns the Slack signing secret
func (x *Slack) SigningSecret() string {
	return x.signingSecret
}
