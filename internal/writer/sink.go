package writer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vevevedk/vvv-invest-sub000/internal/model"
)

const (
	insertTrade = `
		INSERT INTO darkpool_trades
			(trade_id, symbol, executed_at, price, size, premium, market_center, nbbo_bid, nbbo_ask, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (trade_id) DO NOTHING`

	insertHeadline = `
		INSERT INTO news_headlines
			(headline, source, published_at, symbols, tags, is_major, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (headline, published_at) DO NOTHING`

	insertSignal = `
		INSERT INTO flow_signals
			(signal_id, symbol, option_chain, strike, expiry, signaled_at, side, premium, volume, open_interest, rule, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (signal_id) DO NOTHING`
)

// Sink writes records to their per-stream tables.
type Sink struct {
	db      *pgxpool.Pool
	logger  *slog.Logger
	retries int
	backoff time.Duration
}

// NewSink creates a sink. retries is the number of re-attempts per
// batch after the first write fails.
func NewSink(db *pgxpool.Pool, logger *slog.Logger, retries int) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		db:      db,
		logger:  logger,
		retries: retries,
		backoff: 250 * time.Millisecond,
	}
}

// Persist upserts a batch of records, retrying the whole batch on
// write failure. Idempotence makes the re-send safe: rows written by
// a partially applied batch conflict on the second attempt. Returns
// how many rows were inserted and how many were already present.
func (s *Sink) Persist(ctx context.Context, kind model.StreamKind, records []model.Record) (inserted, conflicts int, err error) {
	if len(records) == 0 {
		return 0, 0, nil
	}

	for attempt := 0; ; attempt++ {
		inserted, conflicts, err = s.persistOnce(ctx, kind, records)
		if err == nil {
			return inserted, conflicts, nil
		}
		if attempt >= s.retries || ctx.Err() != nil {
			return 0, 0, fmt.Errorf("persist %s batch of %d: %w", kind, len(records), err)
		}

		s.logger.Warn("batch write failed, retrying",
			"stream", kind,
			"attempt", attempt+1,
			"count", len(records),
			"error", err,
		)

		select {
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		case <-time.After(s.backoff * time.Duration(attempt+1)):
		}
	}
}

func (s *Sink) persistOnce(ctx context.Context, kind model.StreamKind, records []model.Record) (inserted, conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, rec := range records {
		if err := queueRecord(batch, kind, rec); err != nil {
			return 0, 0, err
		}
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		ct, err := results.Exec()
		if err != nil {
			return 0, 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		} else {
			inserted++
		}
	}

	return inserted, conflicts, nil
}

// queueRecord adds one upsert to the batch. The record's concrete
// type must match the stream kind.
func queueRecord(batch *pgx.Batch, kind model.StreamKind, rec model.Record) error {
	switch kind {
	case model.StreamTrades:
		t, ok := rec.(model.TradePrint)
		if !ok {
			return fmt.Errorf("stream %s got record type %T", kind, rec)
		}
		batch.Queue(insertTrade,
			t.TradeID, t.Symbol, t.ExecutedAt.UTC(), t.Price, t.Size,
			t.Premium, t.MarketCenter, t.NBBOBid, t.NBBOAsk)

	case model.StreamHeadlines:
		h, ok := rec.(model.Headline)
		if !ok {
			return fmt.Errorf("stream %s got record type %T", kind, rec)
		}
		batch.Queue(insertHeadline,
			h.Headline, h.Source, h.PublishedAt.UTC(), h.Symbols, h.Tags, h.IsMajor)

	case model.StreamFlow:
		f, ok := rec.(model.FlowSignal)
		if !ok {
			return fmt.Errorf("stream %s got record type %T", kind, rec)
		}
		var expiry any
		if !f.Expiry.IsZero() {
			expiry = f.Expiry
		}
		batch.Queue(insertSignal,
			f.SignalID, f.Symbol, f.OptionChain, f.Strike, expiry,
			f.SignaledAt.UTC(), f.Side, f.Premium, f.Volume, f.OpenInterest, f.Rule)

	default:
		return fmt.Errorf("unknown stream kind %q", kind)
	}

	return nil
}
