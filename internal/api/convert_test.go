package api

import (
	"testing"
	"time"
)

func TestDollarsToInternal(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"0.52", 52000},
		{"0.5250", 52500},
		{"152.345", 15234500},
		{"1", 100000},
		{"0", 0},
		{"", 0},
		{"garbage", 0},
	}

	for _, tt := range tests {
		if got := DollarsToInternal(tt.input); got != tt.want {
			t.Errorf("DollarsToInternal(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Run("RFC3339", func(t *testing.T) {
		got, err := ParseTimestamp("2025-06-02T14:30:00Z")
		if err != nil {
			t.Fatalf("ParseTimestamp failed: %v", err)
		}
		want := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("no timezone", func(t *testing.T) {
		got, err := ParseTimestamp("2025-06-02T14:30:00")
		if err != nil {
			t.Fatalf("ParseTimestamp failed: %v", err)
		}
		want := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		if _, err := ParseTimestamp("yesterday"); err == nil {
			t.Error("expected error for invalid timestamp")
		}
	})
}

func TestAPITrade_ToModel(t *testing.T) {
	wire := APITrade{
		TrackingID:   "7f9c24e5-2f8a-4b1d-9c3e-8a5d6f7b8c9d",
		Ticker:       "SPY",
		Price:        "523.45",
		Size:         10000,
		Premium:      "5234500.00",
		ExecutedAt:   "2025-06-02T14:30:00Z",
		MarketCenter: "L",
		NBBOBid:      "523.44",
		NBBOAsk:      "523.46",
	}

	tp, err := wire.ToModel()
	if err != nil {
		t.Fatalf("ToModel failed: %v", err)
	}

	if tp.TradeID.String() != wire.TrackingID {
		t.Errorf("TradeID = %s, want %s", tp.TradeID, wire.TrackingID)
	}
	if tp.Price != 52345000 {
		t.Errorf("Price = %d, want 52345000", tp.Price)
	}
	if tp.Size != 10000 {
		t.Errorf("Size = %d, want 10000", tp.Size)
	}
	if !tp.ExecutedAt.Equal(time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)) {
		t.Errorf("ExecutedAt = %v", tp.ExecutedAt)
	}
}

func TestAPITrade_ToModel_BadID(t *testing.T) {
	wire := APITrade{
		TrackingID: "not-a-uuid",
		ExecutedAt: "2025-06-02T14:30:00Z",
	}
	if _, err := wire.ToModel(); err == nil {
		t.Error("expected error for malformed tracking_id")
	}
}

func TestAPIHeadline_ToModel(t *testing.T) {
	wire := APIHeadline{
		Headline:  "Fed holds rates steady",
		Source:    "newswire",
		CreatedAt: "2025-06-02T14:30:00Z",
		Tickers:   []string{"SPY", "QQQ"},
		IsMajor:   true,
	}

	h, err := wire.ToModel()
	if err != nil {
		t.Fatalf("ToModel failed: %v", err)
	}
	if h.Headline != wire.Headline {
		t.Errorf("Headline = %q", h.Headline)
	}
	if len(h.Symbols) != 2 {
		t.Errorf("Symbols = %v, want 2 entries", h.Symbols)
	}
	if !h.IsMajor {
		t.Error("IsMajor not carried over")
	}

	wire.Headline = ""
	if _, err := wire.ToModel(); err == nil {
		t.Error("expected error for empty headline")
	}
}

func TestAPIFlowAlert_ToModel(t *testing.T) {
	wire := APIFlowAlert{
		ID:           "b3e1a2c4-5d6f-4a8b-9c0d-1e2f3a4b5c6d",
		Ticker:       "NVDA",
		OptionChain:  "NVDA250620C00140000",
		Strike:       "140",
		Expiry:       "2025-06-20",
		CreatedAt:    "2025-06-02T14:30:05Z",
		Type:         "call",
		TotalPremium: "1250000",
		Volume:       5000,
		OpenInterest: 12000,
		AlertRule:    "RepeatedHits",
	}

	sig, err := wire.ToModel()
	if err != nil {
		t.Fatalf("ToModel failed: %v", err)
	}
	if sig.Strike != 14000000 {
		t.Errorf("Strike = %d, want 14000000", sig.Strike)
	}
	if sig.Side != "call" {
		t.Errorf("Side = %q, want call", sig.Side)
	}
	if !sig.Expiry.Equal(time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expiry = %v", sig.Expiry)
	}
}
