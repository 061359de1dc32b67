package github

import (
	"context"
	"net/http"
	"os"
	"sync"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/interfaces"
	"github.com/shurcooL/githubv4"
)

// Client files escalation issues in one GitHub repository
type Client struct {
	gql   *githubv4.Client
	owner string
	repo  string

	mu     sync.Mutex
	repoID githubv4.ID
}

var _ interfaces.IssueTracker = &Client{}

// New creates a new GitHub client using GitHub App authentication.
// privateKey can be a PEM string or a file path to a PEM file.
func New(appID, installationID int64, privateKey, owner, repo string) (*Client, error) {
	if owner == "" || repo == "" {
		return nil, goerr.New("GitHub repository owner and name are required")
	}

	var key []byte

	// Try reading as file path first
	// #nosec G304 -- path comes from CLI flag, not user input
	if data, err := os.ReadFile(privateKey); err == nil {
		key = data
	} else {
		// Treat as PEM string
		key = []byte(privateKey)
	}

	tr, err := ghinstallation.New(http.DefaultTransport, appID, installationID, key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub App transport")
	}

	httpClient := &http.Client{Transport: tr}
	return newClient(githubv4.NewClient(httpClient), owner, repo), nil
}

func newClient(gql *githubv4.Client, owner, repo string) *Client {
	return &Client{gql: gql, owner: owner, repo: repo}
}

type repositoryQuery struct {
	Repository struct {
		ID            githubv4.ID
		NameWithOwner githubv4.String
		HasIssues     githubv4.Boolean `graphql:"hasIssuesEnabled"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

type createIssueMutation struct {
	CreateIssue struct {
		Issue struct {
			Number githubv4.Int
			URL    githubv4.String `graphql:"url"`
		}
	} `graphql:"createIssue(input: $input)"`
}

func (c *Client) repositoryID(ctx context.Context) (githubv4.ID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.repoID != nil {
		return c.repoID, nil
	}

	var q repositoryQuery
	variables := map[string]interface{}{
		"owner": githubv4.String(c.owner),
		"name":  githubv4.String(c.repo),
	}
	if err := c.gql.Query(ctx, &q, variables); err != nil {
		return nil, goerr.Wrap(err, "failed to look up repository",
			goerr.V("owner", c.owner), goerr.V("repo", c.repo))
	}
	if !bool(q.Repository.HasIssues) {
		return nil, goerr.New("repository has issues disabled",
			goerr.V("owner", c.owner), goerr.V("repo", c.repo))
	}

	c.repoID = q.Repository.ID
	return c.repoID, nil
}

// CreateIssue opens an issue and returns its URL
func (c *Client) CreateIssue(ctx context.Context, title, body string) (string, error) {
	repoID, err := c.repositoryID(ctx)
	if err != nil {
		return "", err
	}

	var m createIssueMutation
	input := githubv4.CreateIssueInput{
		RepositoryID: repoID,
		Title:        githubv4.String(title),
		Body:         githubv4.NewString(githubv4.String(body)),
	}
	if err := c.gql.Mutate(ctx, &m, input, nil); err != nil {
		return "", goerr.Wrap(err, "failed to create issue",
			goerr.V("owner", c.owner), goerr.V("repo", c.repo))
	}

	return string(m.CreateIssue.Issue.URL), nil
}

// ValidateRepository checks that the repository is reachable and accepts
// issues
func (c *Client) ValidateRepository(ctx context.Context) error {
	_, err := c.repositoryID(ctx)
	return err
}
