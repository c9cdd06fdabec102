package platform

import (
	"context"

	"xp-dashboard/internal/profile/domain"
)

// Fetch executes q and returns the records of its top-level field in the
// loose shape the normalizer accepts.
func (c *Client) Fetch(ctx context.Context, token string, q Query) ([]domain.RawRecord, error) {
	var data map[string]any
	if err := c.Execute(ctx, token, q.Document, q.Variables, &data); err != nil {
		return nil, err
	}
	return domain.Records(data[q.Field]), nil
}
