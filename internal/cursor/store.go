package cursor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vevevedk/vvv-invest-sub000/internal/model"
)

// Store persists cursors and stream blocks in PostgreSQL.
type Store struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a cursor store.
func NewStore(db *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Get returns the cursor for a (stream, symbol) pair. The second
// return is false if no cursor exists yet.
func (s *Store) Get(ctx context.Context, stream model.StreamKind, symbol string) (model.Cursor, bool, error) {
	var cur model.Cursor
	err := s.db.QueryRow(ctx, `
		SELECT stream, symbol, watermark, updated_at
		FROM collector_cursors
		WHERE stream = $1 AND symbol = $2
	`, stream, symbol).Scan(&cur.Stream, &cur.Symbol, &cur.Watermark, &cur.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Cursor{}, false, nil
	}
	if err != nil {
		return model.Cursor{}, false, fmt.Errorf("get cursor %s/%s: %w", stream, symbol, err)
	}

	return cur, true, nil
}

// Advance moves the watermark forward. A regressive watermark is a
// no-op logged as an anomaly, never an error: the guard protects
// against out-of-order updates racing a timing-out run.
func (s *Store) Advance(ctx context.Context, stream model.StreamKind, symbol string, watermark time.Time) error {
	ct, err := s.db.Exec(ctx, `
		INSERT INTO collector_cursors (stream, symbol, watermark, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (stream, symbol) DO UPDATE
		SET watermark = EXCLUDED.watermark, updated_at = now()
		WHERE collector_cursors.watermark <= EXCLUDED.watermark
	`, stream, symbol, watermark.UTC())
	if err != nil {
		return fmt.Errorf("advance cursor %s/%s: %w", stream, symbol, err)
	}

	if ct.RowsAffected() == 0 {
		s.logger.Warn("regressive watermark ignored",
			"stream", stream,
			"symbol", symbol,
			"watermark", watermark,
		)
	}

	return nil
}

// Block marks a stream unusable until manually cleared. Set on
// authorization failures so a mis-configured credential does not burn
// the shared request budget in a hot retry loop.
func (s *Store) Block(ctx context.Context, stream model.StreamKind, reason string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO collector_stream_blocks (stream, reason, blocked_at)
		VALUES ($1, $2, now())
		ON CONFLICT (stream) DO UPDATE
		SET reason = EXCLUDED.reason, blocked_at = now()
	`, stream, reason)
	if err != nil {
		return fmt.Errorf("block stream %s: %w", stream, err)
	}
	return nil
}

// ClearBlock removes a stream block.
func (s *Store) ClearBlock(ctx context.Context, stream model.StreamKind) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM collector_stream_blocks WHERE stream = $1
	`, stream)
	if err != nil {
		return fmt.Errorf("clear block %s: %w", stream, err)
	}
	return nil
}

// Blocked reports whether a stream is blocked and why.
func (s *Store) Blocked(ctx context.Context, stream model.StreamKind) (bool, string, error) {
	var reason string
	err := s.db.QueryRow(ctx, `
		SELECT reason FROM collector_stream_blocks WHERE stream = $1
	`, stream).Scan(&reason)

	if errors.Is(err, pgx.ErrNoRows) {
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("check block %s: %w", stream, err)
	}

	return true, reason, nil
}
