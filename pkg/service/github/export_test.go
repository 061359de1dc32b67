package github

import (
	"net/http"

	"github.com/shurcooL/githubv4"
)

// NewForTest creates a client talking to a test GraphQL endpoint
func NewForTest(endpoint, owner, repo string) *Client {
	return newClient(githubv4.NewEnterpriseClient(endpoint, http.DefaultClient), owner, repo)
}
