package api

import (
	"context"
	"fmt"
)

// Me fetches the profile of the voter the attached credential belongs to.
func (c *Client) Me(ctx context.Context) (Voter, error) {
	var v Voter
	if err := c.Get(ctx, PathMe, &v); err != nil {
		return nil, fmt.Errorf("fetching voter profile: %w", err)
	}
	return v, nil
}
