package crm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// UpsertOrganization returns the id of the organization named name,
// creating it when an exact search finds nothing.
func (c *Client) UpsertOrganization(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, errors.New("organization name is empty")
	}
	id, searchErr := c.search(ctx, "organizations", url.Values{"term": {name}})
	if searchErr != nil {
		c.logger.Warn(ctx, "organization search failed, creating", logErr(searchErr)...)
	}
	if id != 0 {
		return id, nil
	}
	id, err := c.create(ctx, "organizations", map[string]any{"name": name})
	if err != nil {
		return 0, fmt.Errorf("create organization: %w", errors.Join(searchErr, err))
	}
	return id, nil
}
