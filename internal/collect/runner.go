package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vevevedk/vvv-invest-sub000/internal/api"
	"github.com/vevevedk/vvv-invest-sub000/internal/lease"
	"github.com/vevevedk/vvv-invest-sub000/internal/model"
	"github.com/vevevedk/vvv-invest-sub000/internal/paginate"
	"github.com/vevevedk/vvv-invest-sub000/internal/stream"
)

// CursorStore persists watermarks per (stream, symbol).
type CursorStore interface {
	Get(ctx context.Context, stream model.StreamKind, symbol string) (model.Cursor, bool, error)
	Advance(ctx context.Context, stream model.StreamKind, symbol string, watermark time.Time) error
}

// BlockStore tracks streams blocked on authorization failures.
type BlockStore interface {
	Block(ctx context.Context, stream model.StreamKind, reason string) error
	Blocked(ctx context.Context, stream model.StreamKind) (bool, string, error)
}

// LeaseStore provides run exclusivity per stream.
type LeaseStore interface {
	Acquire(ctx context.Context, stream model.StreamKind, holder uuid.UUID, ttl time.Duration) error
	Heartbeat(ctx context.Context, stream model.StreamKind, holder uuid.UUID, ttl time.Duration) error
	Release(ctx context.Context, stream model.StreamKind, holder uuid.UUID) error
}

// Sink persists records idempotently.
type Sink interface {
	Persist(ctx context.Context, kind model.StreamKind, records []model.Record) (inserted, conflicts int, err error)
}

// Config holds per-stream runner settings.
type Config struct {
	Symbols     []string // symbols/topics collected per cycle; empty means the market-wide feed
	PageSize    int
	PageCap     int
	LeaseTTL    time.Duration
	CycleBudget time.Duration
}

// Result summarizes one collection cycle.
type Result struct {
	State      State
	Skipped    bool // lease contention, benign no-op
	Blocked    bool // stream blocked on a prior authorization failure
	Pages      int
	Inserted   int
	Duplicates int
	Capped     bool      // at least one walk hit the page cap
	Watermark  time.Time // newest confirmed watermark across symbols
}

// Runner coordinates collection cycles for one stream.
type Runner struct {
	stream  stream.Stream
	cfg     Config
	cursors CursorStore
	blocks  BlockStore
	leases  LeaseStore
	sink    Sink
	logger  *slog.Logger

	mu         sync.Mutex
	state      State
	lastResult Result
}

// NewRunner creates a runner for one stream.
func NewRunner(s stream.Stream, cfg Config, cursors CursorStore, blocks BlockStore, leases LeaseStore, sink Sink, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = []string{""}
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = s.MaxPageSize()
	}
	if cfg.PageCap == 0 {
		cfg.PageCap = 120
	}
	if cfg.LeaseTTL == 0 {
		cfg.LeaseTTL = 10 * time.Minute
	}
	if cfg.CycleBudget == 0 {
		cfg.CycleBudget = 8 * time.Minute
	}
	return &Runner{
		stream:  s,
		cfg:     cfg,
		cursors: cursors,
		blocks:  blocks,
		leases:  leases,
		sink:    sink,
		logger:  logger.With("stream", s.Kind()),
		state:   StateIdle,
	}
}

// Kind returns the stream this runner collects.
func (r *Runner) Kind() model.StreamKind { return r.stream.Kind() }

// State returns the live cycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// LastResult returns the outcome of the most recent cycle.
func (r *Runner) LastResult() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastResult
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *Runner) finish(res Result) Result {
	r.mu.Lock()
	r.lastResult = res
	r.state = StateIdle
	r.mu.Unlock()
	return res
}

// RunIncremental executes one scheduled collection cycle: resume each
// symbol from its watermark, persist pages, advance cursors.
//
// Lease contention and stream blocks return a nil error with the
// corresponding Result flag set: to the scheduler they are silent,
// there is simply no new data this cycle.
func (r *Runner) RunIncremental(ctx context.Context) (Result, error) {
	return r.run(ctx, func(cctx context.Context, res *Result) error {
		for _, symbol := range r.cfg.Symbols {
			if err := r.collectSymbol(cctx, symbol, res); err != nil {
				return err
			}
		}
		return nil
	})
}

// RunBackfill executes a manual historical pass over [start, end) for
// one symbol. It shares the stream's lease with scheduled runs but
// never touches the live cursor. The returned Result carries the
// pages and records persisted before any failure, so re-invoking the
// same range is safe and resumable.
func (r *Runner) RunBackfill(ctx context.Context, symbol string, start, end time.Time) (Result, error) {
	if !end.After(start) {
		return Result{State: StateFailed}, fmt.Errorf("backfill range [%s, %s) is empty", start, end)
	}

	return r.run(ctx, func(cctx context.Context, res *Result) error {
		pager := paginate.NewBackfill(r.stream, symbol, start, end, paginate.Config{
			PageSize: r.cfg.PageSize,
			PageCap:  r.cfg.PageCap,
		})
		return r.drain(cctx, pager, symbol, res, false)
	})
}

// run wraps a cycle body with the shared lease, budget, heartbeat,
// and state-machine plumbing.
func (r *Runner) run(ctx context.Context, body func(context.Context, *Result) error) (Result, error) {
	kind := r.stream.Kind()
	res := Result{}

	blocked, reason, err := r.blocks.Blocked(ctx, kind)
	if err != nil {
		res.State = StateFailed
		return r.finish(res), err
	}
	if blocked {
		r.logger.Warn("stream blocked, skipping cycle", "reason", reason)
		res.Blocked = true
		res.State = StateIdle
		return r.finish(res), nil
	}

	r.setState(StateAcquiring)
	holder := uuid.New()
	if err := r.leases.Acquire(ctx, kind, holder, r.cfg.LeaseTTL); err != nil {
		if errors.Is(err, lease.ErrHeld) {
			r.logger.Debug("cycle already running, exiting")
			res.Skipped = true
			res.State = StateIdle
			return r.finish(res), nil
		}
		res.State = StateFailed
		return r.finish(res), err
	}
	defer func() {
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.leases.Release(rctx, kind, holder); err != nil {
			r.logger.Error("lease release failed", "error", err)
		}
	}()

	cctx, cancel := context.WithTimeout(ctx, r.cfg.CycleBudget)
	defer cancel()

	hbDone := make(chan struct{})
	go r.heartbeat(cctx, cancel, holder, hbDone)
	defer func() { cancel(); <-hbDone }()

	r.setState(StateRunning)
	start := time.Now()

	if err := body(cctx, &res); err != nil {
		res.State = r.classify(cctx, err)
		r.logger.Error("collection cycle failed",
			"state", res.State,
			"pages", res.Pages,
			"inserted", res.Inserted,
			"duplicates", res.Duplicates,
			"duration", time.Since(start),
			"error", err,
		)
		return r.finish(res), err
	}

	res.State = StateCompleted
	r.logger.Info("collection cycle complete",
		"pages", res.Pages,
		"inserted", res.Inserted,
		"duplicates", res.Duplicates,
		"capped", res.Capped,
		"watermark", res.Watermark,
		"duration", time.Since(start),
	)
	return r.finish(res), nil
}

// collectSymbol walks one symbol from its cursor and advances the
// watermark page by page.
func (r *Runner) collectSymbol(ctx context.Context, symbol string, res *Result) error {
	kind := r.stream.Kind()

	cur, _, err := r.cursors.Get(ctx, kind, symbol)
	if err != nil {
		return err
	}

	pager := paginate.NewIncremental(r.stream, symbol, cur.Watermark, paginate.Config{
		PageSize: r.cfg.PageSize,
		PageCap:  r.cfg.PageCap,
	})

	return r.drain(ctx, pager, symbol, res, true)
}

// drain pulls pages until exhaustion. advance selects whether the
// live cursor follows persisted pages; backfill passes false.
func (r *Runner) drain(ctx context.Context, pager *paginate.Pager, symbol string, res *Result, advance bool) error {
	kind := r.stream.Kind()

	for {
		page, ok, err := pager.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		inserted, conflicts, err := r.sink.Persist(ctx, kind, page.Records)
		if err != nil {
			return err
		}

		res.Pages++
		res.Inserted += inserted
		res.Duplicates += conflicts

		// Write-then-advance: the cursor only ever covers rows the
		// sink has confirmed.
		if advance {
			wm := page.MaxTime()
			if err := r.cursors.Advance(ctx, kind, symbol, wm); err != nil {
				return err
			}
			if wm.After(res.Watermark) {
				res.Watermark = wm
			}
		}
	}

	if pager.Capped() {
		res.Capped = true
		r.logger.Warn("page cap reached, walk truncated",
			"symbol", symbol,
			"pages", pager.Pages(),
		)
	}

	return nil
}

// heartbeat renews the lease at a third of its TTL until the cycle
// context ends. Losing the lease cancels the cycle: another run owns
// the stream now, and continuing would break single-writer
// exclusivity.
func (r *Runner) heartbeat(ctx context.Context, cancel context.CancelFunc, holder uuid.UUID, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.cfg.LeaseTTL / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.leases.Heartbeat(ctx, r.stream.Kind(), holder, r.cfg.LeaseTTL); err != nil {
				if errors.Is(err, lease.ErrLost) {
					r.logger.Error("lease lost mid-cycle, aborting")
					cancel()
					return
				}
				r.logger.Warn("lease heartbeat failed", "error", err)
			}
		}
	}
}

// classify maps a cycle error to its terminal state per the failure
// taxonomy. Authorization failures also block the stream.
func (r *Runner) classify(ctx context.Context, err error) State {
	if errors.Is(err, api.ErrUnauthorized) {
		bctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if berr := r.blocks.Block(bctx, r.stream.Kind(), err.Error()); berr != nil {
			r.logger.Error("failed to block stream", "error", berr)
		}
		return StateFailed
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return StateTimedOut
	}
	return StateFailed
}
