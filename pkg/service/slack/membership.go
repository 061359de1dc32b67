package slack

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// IsMember reports whether actorID belongs to the configured user group.
// Members are cached for the cache TTL.
func (c *Client) IsMember(ctx context.Context, actorID string) (bool, error) {
	if c.userGroup == "" {
		return false, goerr.New("authorization user group is not configured")
	}

	members, err := c.userGroupMembers(ctx)
	if err != nil {
		return false, err
	}
	_, ok := members[actorID]
	return ok, nil
}

func (c *Client) userGroupMembers(ctx context.Context) (map[string]struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if c.cache != nil && c.cache.expiresAt.After(now) {
		return c.cache.members, nil
	}

	ids, err := c.api.GetUserGroupMembersContext(ctx, c.userGroup)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get user group members", goerr.V("user_group", c.userGroup))
	}

	members := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		members[id] = struct{}{}
	}
	c.cache = &membersEntry{
		members:   members,
		expiresAt: now.Add(c.cacheTTL),
	}
	return members, nil
}
