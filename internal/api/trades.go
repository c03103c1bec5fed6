package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/vevevedk/vvv-invest-sub000/internal/model"
)

// values encodes the pagination parameters common to all endpoints.
func (q PageQuery) values() url.Values {
	v := url.Values{}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Backfill {
		if !q.Start.IsZero() {
			v.Set("newer_than", q.Start.UTC().Format(time.RFC3339))
		}
		if !q.End.IsZero() {
			v.Set("older_than", q.End.UTC().Format(time.RFC3339))
		}
		v.Set("page", strconv.Itoa(q.Page))
	} else if !q.NewerThan.IsZero() {
		v.Set("newer_than", q.NewerThan.UTC().Format(time.RFC3339Nano))
	}
	return v
}

// GetDarkpoolTrades fetches one page of dark-pool prints for a symbol.
func (c *Client) GetDarkpoolTrades(ctx context.Context, symbol string, q PageQuery) ([]model.TradePrint, error) {
	path := "/api/darkpool/" + url.PathEscape(symbol)

	var resp TradesResponse
	if err := c.get(ctx, path, q.values(), &resp); err != nil {
		return nil, fmt.Errorf("get darkpool trades %s: %w", symbol, err)
	}

	out := make([]model.TradePrint, 0, len(resp.Data))
	for i := range resp.Data {
		tp, err := resp.Data[i].ToModel()
		if err != nil {
			return nil, &SchemaError{Endpoint: path, Err: err}
		}
		out = append(out, tp)
	}

	return out, nil
}
