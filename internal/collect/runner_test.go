package collect

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vevevedk/vvv-invest-sub000/internal/api"
	"github.com/vevevedk/vvv-invest-sub000/internal/cursor"
	"github.com/vevevedk/vvv-invest-sub000/internal/lease"
	"github.com/vevevedk/vvv-invest-sub000/internal/model"
	"github.com/vevevedk/vvv-invest-sub000/internal/stream"
)

// fakeStream serves an in-memory time-ordered dataset the way the
// vendor API does.
type fakeStream struct {
	mu       sync.Mutex
	records  []model.TradePrint
	requests int
	err      error         // returned by every fetch when set
	delay    time.Duration // per-request latency
}

func (f *fakeStream) Kind() model.StreamKind { return model.StreamTrades }
func (f *fakeStream) MaxPageSize() int       { return 500 }

func (f *fakeStream) FetchPage(ctx context.Context, req stream.PageRequest) (model.Page, error) {
	f.mu.Lock()
	f.requests++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return model.Page{}, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return model.Page{}, f.err
	}

	var matched []model.TradePrint
	for _, r := range f.records {
		if req.Backfill {
			if !r.ExecutedAt.Before(req.Start) && r.ExecutedAt.Before(req.End) {
				matched = append(matched, r)
			}
		} else if r.ExecutedAt.After(req.NewerThan) {
			matched = append(matched, r)
		}
	}
	if req.Backfill {
		offset := req.Page * req.Limit
		if offset > len(matched) {
			offset = len(matched)
		}
		matched = matched[offset:]
	}
	if len(matched) > req.Limit {
		matched = matched[:req.Limit]
	}

	out := make([]model.Record, len(matched))
	for i := range matched {
		out[i] = matched[i]
	}
	return model.Page{Records: out, Requested: req.Limit}, nil
}

func (f *fakeStream) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

// memSink stores records by natural key; failAfter > 0 makes every
// Persist call past that many pages fail.
type memSink struct {
	mu        sync.Mutex
	rows      map[string]model.Record
	pages     int
	failAfter int
}

func newMemSink() *memSink {
	return &memSink{rows: make(map[string]model.Record), failAfter: -1}
}

func (s *memSink) Persist(_ context.Context, _ model.StreamKind, records []model.Record) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pages++
	if s.failAfter >= 0 && s.pages > s.failAfter {
		return 0, 0, errors.New("storage write failed")
	}

	inserted, conflicts := 0, 0
	for _, r := range records {
		if _, ok := s.rows[r.NaturalKey()]; ok {
			conflicts++
			continue
		}
		s.rows[r.NaturalKey()] = r
		inserted++
	}
	return inserted, conflicts, nil
}

func (s *memSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func dataset(n int, t0 time.Time) []model.TradePrint {
	recs := make([]model.TradePrint, n)
	for i := range recs {
		recs[i] = model.TradePrint{
			TradeID:    uuid.New(),
			Symbol:     "SPY",
			ExecutedAt: t0.Add(time.Duration(i+1) * time.Second),
		}
	}
	return recs
}

type fixture struct {
	runner  *Runner
	stream  *fakeStream
	cursors *cursor.MemoryStore
	leases  *lease.MemoryStore
	sink    *memSink
}

func newFixture(fs *fakeStream, cfg Config) *fixture {
	cursors := cursor.NewMemoryStore(nil)
	leases := lease.NewMemoryStore()
	sink := newMemSink()
	if cfg.LeaseTTL == 0 {
		cfg.LeaseTTL = time.Minute
	}
	if cfg.CycleBudget == 0 {
		cfg.CycleBudget = 30 * time.Second
	}
	return &fixture{
		runner:  NewRunner(fs, cfg, cursors, cursors, leases, sink, nil),
		stream:  fs,
		cursors: cursors,
		leases:  leases,
		sink:    sink,
	}
}

func TestRunner_IncrementalCycle(t *testing.T) {
	t0 := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)
	fs := &fakeStream{records: dataset(1220, t0)}
	fx := newFixture(fs, Config{Symbols: []string{"SPY"}, PageSize: 500, PageCap: 100})

	// The cursor starts at T0 so the whole dataset is new.
	if err := fx.cursors.Advance(context.Background(), model.StreamTrades, "SPY", t0); err != nil {
		t.Fatalf("seed cursor: %v", err)
	}

	res, err := fx.runner.RunIncremental(context.Background())
	if err != nil {
		t.Fatalf("RunIncremental failed: %v", err)
	}

	if res.State != StateCompleted {
		t.Errorf("State = %v, want Completed", res.State)
	}
	if res.Pages != 3 {
		t.Errorf("Pages = %d, want 3", res.Pages)
	}
	if res.Inserted != 1220 {
		t.Errorf("Inserted = %d, want 1220", res.Inserted)
	}
	if fs.requestCount() != 3 {
		t.Errorf("requests = %d, want 3", fs.requestCount())
	}

	want := t0.Add(1220 * time.Second)
	if !res.Watermark.Equal(want) {
		t.Errorf("Watermark = %v, want %v", res.Watermark, want)
	}
	cur, ok, _ := fx.cursors.Get(context.Background(), model.StreamTrades, "SPY")
	if !ok || !cur.Watermark.Equal(want) {
		t.Errorf("stored watermark = %v, want %v", cur.Watermark, want)
	}

	if fx.runner.State() != StateIdle {
		t.Errorf("State() = %v, want Idle after cycle", fx.runner.State())
	}
}

func TestRunner_Idempotence(t *testing.T) {
	t0 := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)
	fs := &fakeStream{records: dataset(100, t0)}
	fx := newFixture(fs, Config{Symbols: []string{"SPY"}, PageSize: 500, PageCap: 100})

	if _, err := fx.runner.RunIncremental(context.Background()); err != nil {
		t.Fatalf("first cycle failed: %v", err)
	}
	before := fx.sink.count()

	// Reset the cursor so the second cycle refetches everything.
	fx2 := newFixture(fs, Config{Symbols: []string{"SPY"}, PageSize: 500, PageCap: 100})
	fx2.sink.rows = fx.sink.rows

	res, err := fx2.runner.RunIncremental(context.Background())
	if err != nil {
		t.Fatalf("second cycle failed: %v", err)
	}

	if res.Inserted != 0 {
		t.Errorf("Inserted = %d, want 0 on refetch", res.Inserted)
	}
	if res.Duplicates != 100 {
		t.Errorf("Duplicates = %d, want 100", res.Duplicates)
	}
	if fx.sink.count() != before {
		t.Errorf("rows = %d, want unchanged %d", fx.sink.count(), before)
	}
}

func TestRunner_LeaseContention(t *testing.T) {
	fs := &fakeStream{}
	fx := newFixture(fs, Config{Symbols: []string{"SPY"}})

	// Another holder owns the stream.
	other := uuid.New()
	if err := fx.leases.Acquire(context.Background(), model.StreamTrades, other, time.Hour); err != nil {
		t.Fatalf("seed lease: %v", err)
	}

	res, err := fx.runner.RunIncremental(context.Background())
	if err != nil {
		t.Fatalf("contended cycle must be a silent no-op, got %v", err)
	}
	if !res.Skipped {
		t.Error("Skipped = false, want true")
	}
	if fs.requestCount() != 0 {
		t.Errorf("requests = %d, want 0", fs.requestCount())
	}

	// The foreign lease must survive the no-op exit.
	if err := fx.leases.Heartbeat(context.Background(), model.StreamTrades, other, time.Hour); err != nil {
		t.Errorf("foreign lease damaged: %v", err)
	}
}

func TestRunner_AuthFailureBlocksStream(t *testing.T) {
	fs := &fakeStream{err: fmt.Errorf("vendor api error 403: Forbidden: %w", api.ErrUnauthorized)}
	fx := newFixture(fs, Config{Symbols: []string{"SPY"}})

	res, err := fx.runner.RunIncremental(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if res.State != StateFailed {
		t.Errorf("State = %v, want Failed", res.State)
	}

	blocked, reason, _ := fx.cursors.Blocked(context.Background(), model.StreamTrades)
	if !blocked {
		t.Fatal("stream not blocked after authorization failure")
	}
	if reason == "" {
		t.Error("block reason empty")
	}

	// The next cycle is a silent skip without touching the vendor.
	before := fs.requestCount()
	res, err = fx.runner.RunIncremental(context.Background())
	if err != nil {
		t.Fatalf("blocked cycle must be silent, got %v", err)
	}
	if !res.Blocked {
		t.Error("Blocked = false, want true")
	}
	if fs.requestCount() != before {
		t.Errorf("requests = %d, want %d", fs.requestCount(), before)
	}

	// Clearing the block restores collection.
	if err := fx.cursors.ClearBlock(context.Background(), model.StreamTrades); err != nil {
		t.Fatalf("ClearBlock failed: %v", err)
	}
	fs.err = nil
	if _, err := fx.runner.RunIncremental(context.Background()); err != nil {
		t.Errorf("cycle after unblock failed: %v", err)
	}
}

func TestRunner_WriteFailureLeavesCursor(t *testing.T) {
	t0 := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)
	fs := &fakeStream{records: dataset(1000, t0)}
	fx := newFixture(fs, Config{Symbols: []string{"SPY"}, PageSize: 200, PageCap: 100})

	// Pages 1-3 persist, page 4 fails.
	fx.sink.failAfter = 3

	res, err := fx.runner.RunIncremental(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if res.State != StateFailed {
		t.Errorf("State = %v, want Failed", res.State)
	}
	if res.Pages != 3 {
		t.Errorf("Pages = %d, want 3 persisted before the failure", res.Pages)
	}

	// Cursor covers exactly the persisted pages, not the failed one.
	cur, ok, _ := fx.cursors.Get(context.Background(), model.StreamTrades, "SPY")
	if !ok {
		t.Fatal("cursor missing")
	}
	want := t0.Add(600 * time.Second)
	if !cur.Watermark.Equal(want) {
		t.Errorf("watermark = %v, want %v", cur.Watermark, want)
	}

	// The lease was released on failure, not left to expire.
	if err := fx.leases.Acquire(context.Background(), model.StreamTrades, uuid.New(), time.Minute); err != nil {
		t.Errorf("lease not released after failure: %v", err)
	}
}

func TestRunner_CrashConsistentResume(t *testing.T) {
	t0 := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)
	records := dataset(900, t0)

	// First run dies after persisting pages 1-3 of 5.
	fs := &fakeStream{records: records}
	fx := newFixture(fs, Config{Symbols: []string{"SPY"}, PageSize: 200, PageCap: 100})
	fx.sink.failAfter = 3

	if _, err := fx.runner.RunIncremental(context.Background()); err == nil {
		t.Fatal("expected first run to fail")
	}
	if got := fx.sink.count(); got != 600 {
		t.Fatalf("rows after crash = %d, want 600", got)
	}

	// Restart: fresh runner and lease state, same cursor store and
	// sink contents, healthy storage.
	fs2 := &fakeStream{records: records}
	restarted := &fixture{
		cursors: fx.cursors,
		leases:  lease.NewMemoryStore(),
		sink:    newMemSink(),
	}
	restarted.sink.rows = fx.sink.rows
	restarted.runner = NewRunner(fs2, Config{
		Symbols: []string{"SPY"}, PageSize: 200, PageCap: 100,
		LeaseTTL: time.Minute, CycleBudget: 30 * time.Second,
	}, restarted.cursors, restarted.cursors, restarted.leases, restarted.sink, nil)

	res, err := restarted.runner.RunIncremental(context.Background())
	if err != nil {
		t.Fatalf("resumed run failed: %v", err)
	}

	// Only pages 4-5 are fetched (300 remaining records at 200/page).
	if fs2.requestCount() != 2 {
		t.Errorf("requests after restart = %d, want 2", fs2.requestCount())
	}
	if res.Inserted != 300 {
		t.Errorf("Inserted = %d, want 300", res.Inserted)
	}
	if got := restarted.sink.count(); got != 900 {
		t.Errorf("total rows = %d, want 900 with zero duplicates", got)
	}
}

func TestRunner_Timeout(t *testing.T) {
	t0 := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)
	fs := &fakeStream{records: dataset(5000, t0), delay: 50 * time.Millisecond}
	fx := newFixture(fs, Config{
		Symbols:     []string{"SPY"},
		PageSize:    100,
		PageCap:     1000,
		LeaseTTL:    time.Minute,
		CycleBudget: 120 * time.Millisecond,
	})

	res, err := fx.runner.RunIncremental(context.Background())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if res.State != StateTimedOut {
		t.Errorf("State = %v, want TimedOut", res.State)
	}

	// Clean abort: lease released, cursor at its last confirmed value.
	if err := fx.leases.Acquire(context.Background(), model.StreamTrades, uuid.New(), time.Minute); err != nil {
		t.Errorf("lease not released after timeout: %v", err)
	}
}

func TestRunner_Backfill(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fs := &fakeStream{records: dataset(450, t0)}
	fx := newFixture(fs, Config{Symbols: []string{"SPY"}, PageSize: 200, PageCap: 100})

	// Seed a live cursor; backfill must not move it.
	liveWM := t0.Add(time.Hour)
	if err := fx.cursors.Advance(context.Background(), model.StreamTrades, "SPY", liveWM); err != nil {
		t.Fatalf("seed cursor: %v", err)
	}

	res, err := fx.runner.RunBackfill(context.Background(), "SPY", t0, t0.Add(500*time.Second))
	if err != nil {
		t.Fatalf("RunBackfill failed: %v", err)
	}

	if res.State != StateCompleted {
		t.Errorf("State = %v, want Completed", res.State)
	}
	if res.Inserted != 450 {
		t.Errorf("Inserted = %d, want 450", res.Inserted)
	}

	cur, _, _ := fx.cursors.Get(context.Background(), model.StreamTrades, "SPY")
	if !cur.Watermark.Equal(liveWM) {
		t.Errorf("live cursor moved to %v during backfill", cur.Watermark)
	}
}

func TestRunner_BackfillPartialFailureReportsProgress(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fs := &fakeStream{records: dataset(1000, t0)}
	fx := newFixture(fs, Config{Symbols: []string{"SPY"}, PageSize: 200, PageCap: 100})
	fx.sink.failAfter = 2

	res, err := fx.runner.RunBackfill(context.Background(), "SPY", t0, t0.Add(2000*time.Second))
	if err == nil {
		t.Fatal("expected error")
	}

	// The status reports what landed, so re-invoking the range is
	// safe and resumable.
	if res.Pages != 2 {
		t.Errorf("Pages = %d, want 2", res.Pages)
	}
	if res.Inserted != 400 {
		t.Errorf("Inserted = %d, want 400", res.Inserted)
	}
}

func TestRunner_BackfillEmptyRange(t *testing.T) {
	fs := &fakeStream{}
	fx := newFixture(fs, Config{Symbols: []string{"SPY"}})

	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := fx.runner.RunBackfill(context.Background(), "SPY", t0, t0); err == nil {
		t.Error("expected error for empty range")
	}
}
