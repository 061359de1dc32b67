package slack

import (
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/interfaces"
	"github.com/slack-go/slack"
)

const (
	// DefaultCacheTTL is the default TTL for the user group member cache
	DefaultCacheTTL = 45 * time.Second
)

// membersEntry holds cached user group members with expiration
type membersEntry struct {
	members   map[string]struct{}
	expiresAt time.Time
}

// Client talks to the Slack Web API. It sends messages and views, and
// answers membership of the authorization user group.
type Client struct {
	api        *slack.Client
	apiOptions []slack.Option
	cacheTTL   time.Duration
	userGroup  string

	mu    sync.Mutex
	cache *membersEntry
}

var (
	_ interfaces.OutboundMessenger = &Client{}
	_ interfaces.MembershipLookup  = &Client{}
	_ interfaces.ThreadResolver    = &Client{}
)

// Option is a functional option for client configuration
type Option func(*Client)

// WithCacheTTL sets the TTL for the user group member cache
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cacheTTL = ttl
	}
}

// WithUserGroup sets the user group whose members pass the authorization
// gate
func WithUserGroup(id string) Option {
	return func(c *Client) {
		c.userGroup = id
	}
}

// WithAPIURL points the client to another API endpoint
func WithAPIURL(url string) Option {
	return func(c *Client) {
		c.apiOptions = append(c.apiOptions, slack.OptionAPIURL(url))
	}
}

// New creates a new Slack client with the provided bot token
func New(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}

	c := &Client{
		cacheTTL: DefaultCacheTTL,
	}

	for _, opt := range opts {
		opt(c)
	}
	c.api = slack.New(token, c.apiOptions...)

	return c, nil
}
