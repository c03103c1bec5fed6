package api

import (
	"context"
	"fmt"

	"github.com/vevevedk/vvv-invest-sub000/internal/model"
)

// GetHeadlines fetches one page of news headlines. An empty topic
// returns the market-wide feed.
func (c *Client) GetHeadlines(ctx context.Context, topic string, q PageQuery) ([]model.Headline, error) {
	const path = "/api/news/headlines"

	query := q.values()
	if topic != "" {
		query.Set("search", topic)
	}

	var resp HeadlinesResponse
	if err := c.get(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("get headlines: %w", err)
	}

	out := make([]model.Headline, 0, len(resp.Data))
	for i := range resp.Data {
		h, err := resp.Data[i].ToModel()
		if err != nil {
			return nil, &SchemaError{Endpoint: path, Err: err}
		}
		out = append(out, h)
	}

	return out, nil
}
