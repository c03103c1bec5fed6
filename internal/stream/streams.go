package stream

import (
	"context"

	"github.com/vevevedk/vvv-invest-sub000/internal/api"
	"github.com/vevevedk/vvv-invest-sub000/internal/model"
)

func (r PageRequest) query() api.PageQuery {
	return api.PageQuery{
		Limit:     r.Limit,
		NewerThan: r.NewerThan,
		Start:     r.Start,
		End:       r.End,
		Page:      r.Page,
		Backfill:  r.Backfill,
	}
}

// Trades collects dark-pool trade prints per symbol.
type Trades struct {
	client *api.Client
}

// NewTrades creates the trade-print stream.
func NewTrades(client *api.Client) *Trades {
	return &Trades{client: client}
}

func (s *Trades) Kind() model.StreamKind { return model.StreamTrades }
func (s *Trades) MaxPageSize() int       { return 200 }

func (s *Trades) FetchPage(ctx context.Context, req PageRequest) (model.Page, error) {
	trades, err := s.client.GetDarkpoolTrades(ctx, req.Symbol, req.query())
	if err != nil {
		return model.Page{}, err
	}

	records := make([]model.Record, len(trades))
	for i := range trades {
		records[i] = trades[i]
	}
	return model.Page{Records: records, Requested: req.Limit}, nil
}

// Headlines collects news headlines per search topic. An empty topic
// collects the market-wide feed.
type Headlines struct {
	client *api.Client
}

// NewHeadlines creates the headline stream.
func NewHeadlines(client *api.Client) *Headlines {
	return &Headlines{client: client}
}

func (s *Headlines) Kind() model.StreamKind { return model.StreamHeadlines }
func (s *Headlines) MaxPageSize() int       { return 100 }

func (s *Headlines) FetchPage(ctx context.Context, req PageRequest) (model.Page, error) {
	headlines, err := s.client.GetHeadlines(ctx, req.Symbol, req.query())
	if err != nil {
		return model.Page{}, err
	}

	records := make([]model.Record, len(headlines))
	for i := range headlines {
		records[i] = headlines[i]
	}
	return model.Page{Records: records, Requested: req.Limit}, nil
}

// Flow collects option-flow signals per symbol.
type Flow struct {
	client *api.Client
}

// NewFlow creates the flow-signal stream.
func NewFlow(client *api.Client) *Flow {
	return &Flow{client: client}
}

func (s *Flow) Kind() model.StreamKind { return model.StreamFlow }
func (s *Flow) MaxPageSize() int       { return 200 }

func (s *Flow) FetchPage(ctx context.Context, req PageRequest) (model.Page, error) {
	signals, err := s.client.GetFlowAlerts(ctx, req.Symbol, req.query())
	if err != nil {
		return model.Page{}, err
	}

	records := make([]model.Record, len(signals))
	for i := range signals {
		records[i] = signals[i]
	}
	return model.Page{Records: records, Requested: req.Limit}, nil
}
