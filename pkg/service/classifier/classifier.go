package classifier

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/shepherd/pkg/domain/interfaces"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
)

// Client suggests impact and tags of a support request with an LLM
type Client struct {
	llmClient gollem.LLMClient
	tags      []types.Tag
}

var _ interfaces.Classifier = &Client{}

// Option is a functional option for client configuration
type Option func(*Client)

// WithTags restricts suggested tags to the given vocabulary
func WithTags(tags []types.Tag) Option {
	return func(c *Client) {
		c.tags = tags
	}
}

// New creates a new classifier with the provided LLM client
func New(llmClient gollem.LLMClient, opts ...Option) (*Client, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	c := &Client{
		llmClient: llmClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Classify asks the LLM for the impact and tags of text. The result is not
// normalized; callers drop values they do not know.
func (c *Client) Classify(ctx context.Context, text string) (*model.Classification, error) {
	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(c.responseSchema()),
		gollem.WithSessionSystemPrompt(c.systemPrompt()),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(text))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content from LLM")
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.New("LLM returned no text")
	}

	var result model.Classification
	if err := json.Unmarshal([]byte(resp.Texts[0]), &result); err != nil {
		return nil, goerr.Wrap(err, "failed to parse LLM response", goerr.V("response", resp.Texts[0]))
	}
	return &result, nil
}

func (c *Client) systemPrompt() string {
	var sb strings.Builder
	sb.WriteString("You triage support requests posted in a chat channel.\n\n")
	sb.WriteString("## Instructions:\n\n")
	sb.WriteString("1. Decide the impact of the request on the requester's work:\n")
	sb.WriteString("   - high: work is blocked for many people or a production system is down\n")
	sb.WriteString("   - medium: work is blocked for the requester, or degraded for many\n")
	sb.WriteString("   - low: questions, requests and minor inconvenience\n")
	sb.WriteString("2. Pick up to three tags describing the topic, lowercase with hyphens.\n")
	if len(c.tags) > 0 {
		names := make([]string, len(c.tags))
		for i, tag := range c.tags {
			names[i] = string(tag)
		}
		sb.WriteString("   Choose only from: ")
		sb.WriteString(strings.Join(names, ", "))
		sb.WriteString("\n")
	}
	sb.WriteString("3. If unsure, answer low with no tags.\n")
	return sb.String()
}

func (c *Client) responseSchema() *gollem.Parameter {
	impacts := make([]string, 0, len(types.AllImpacts()))
	for _, i := range types.AllImpacts() {
		impacts = append(impacts, i.String())
	}

	return &gollem.Parameter{
		Title:       "Classification",
		Description: "Impact and tags of a support request",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"impact": {
				Type:        gollem.TypeString,
				Description: "Impact level of the request",
				Enum:        impacts,
				Required:    true,
			},
			"tags": {
				Type:        gollem.TypeArray,
				Description: "Topic tags of the request",
				Required:    true,
				Items: &gollem.Parameter{
					Type: gollem.TypeString,
				},
			},
		},
	}
}
