package cursor

import (
	"context"
	"testing"
	"time"

	"github.com/vevevedk/vvv-invest-sub000/internal/model"
)

func TestMemoryStore_MonotonicWatermark(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()
	t0 := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)

	// Out-of-order advances: the stored watermark must equal the
	// running maximum at every step.
	offsets := []time.Duration{0, 30 * time.Second, 10 * time.Second, 45 * time.Second, 45 * time.Second, 5 * time.Second}
	var max time.Duration
	for _, off := range offsets {
		if err := s.Advance(ctx, model.StreamTrades, "SPY", t0.Add(off)); err != nil {
			t.Fatalf("Advance failed: %v", err)
		}
		if off > max {
			max = off
		}

		cur, ok, err := s.Get(ctx, model.StreamTrades, "SPY")
		if err != nil || !ok {
			t.Fatalf("Get = (%v, %v)", ok, err)
		}
		if !cur.Watermark.Equal(t0.Add(max)) {
			t.Errorf("watermark = %v, want %v", cur.Watermark, t0.Add(max))
		}
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore(nil)

	_, ok, err := s.Get(context.Background(), model.StreamFlow, "NVDA")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("ok = true for missing cursor, want false")
	}
}

func TestMemoryStore_CursorsAreIndependent(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()
	t0 := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)

	if err := s.Advance(ctx, model.StreamTrades, "SPY", t0.Add(time.Hour)); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if err := s.Advance(ctx, model.StreamTrades, "QQQ", t0); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	cur, _, _ := s.Get(ctx, model.StreamTrades, "QQQ")
	if !cur.Watermark.Equal(t0) {
		t.Errorf("QQQ watermark = %v, want %v", cur.Watermark, t0)
	}
}

func TestMemoryStore_Blocks(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()

	blocked, _, err := s.Blocked(ctx, model.StreamFlow)
	if err != nil || blocked {
		t.Fatalf("Blocked = (%v, %v), want unblocked", blocked, err)
	}

	if err := s.Block(ctx, model.StreamFlow, "authorization rejected: 403"); err != nil {
		t.Fatalf("Block failed: %v", err)
	}

	blocked, reason, err := s.Blocked(ctx, model.StreamFlow)
	if err != nil {
		t.Fatalf("Blocked failed: %v", err)
	}
	if !blocked || reason != "authorization rejected: 403" {
		t.Errorf("Blocked = (%v, %q)", blocked, reason)
	}

	if err := s.ClearBlock(ctx, model.StreamFlow); err != nil {
		t.Fatalf("ClearBlock failed: %v", err)
	}
	if blocked, _, _ := s.Blocked(ctx, model.StreamFlow); blocked {
		t.Error("stream still blocked after ClearBlock")
	}
}
