package api

import (
	"context"
	"fmt"

	"github.com/vevevedk/vvv-invest-sub000/internal/model"
)

// GetFlowAlerts fetches one page of option-flow alerts. An empty
// symbol returns the market-wide feed.
func (c *Client) GetFlowAlerts(ctx context.Context, symbol string, q PageQuery) ([]model.FlowSignal, error) {
	const path = "/api/flow/alerts"

	query := q.values()
	if symbol != "" {
		query.Set("ticker", symbol)
	}

	var resp FlowAlertsResponse
	if err := c.get(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("get flow alerts: %w", err)
	}

	out := make([]model.FlowSignal, 0, len(resp.Data))
	for i := range resp.Data {
		sig, err := resp.Data[i].ToModel()
		if err != nil {
			return nil, &SchemaError{Endpoint: path, Err: err}
		}
		out = append(out, sig)
	}

	return out, nil
}
