package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vevevedk/vvv-invest-sub000/internal/model"
)

// DollarsToInternal converts a dollar string to internal representation.
// "0.52" -> 52000, "152.345" -> 15234500
// Returns 0 for empty input.
func DollarsToInternal(dollars string) int64 {
	if dollars == "" {
		return 0
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(dollars), 64)
	if err != nil {
		return 0
	}

	return int64(f*100000 + 0.5)
}

// ParseTimestamp parses an ISO 8601 timestamp.
func ParseTimestamp(iso string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		// Some vendor payloads omit the timezone.
		t, err = time.Parse("2006-01-02T15:04:05", iso)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: %w", iso, err)
		}
	}
	return t.UTC(), nil
}

// ToModel converts an APITrade to model.TradePrint. The vendor ID and
// execution timestamp must parse; anything else would make dedup and
// watermark tracking meaningless.
func (t *APITrade) ToModel() (model.TradePrint, error) {
	id, err := uuid.Parse(t.TrackingID)
	if err != nil {
		return model.TradePrint{}, fmt.Errorf("parse tracking_id %q: %w", t.TrackingID, err)
	}

	executedAt, err := ParseTimestamp(t.ExecutedAt)
	if err != nil {
		return model.TradePrint{}, err
	}

	return model.TradePrint{
		TradeID:      id,
		Symbol:       t.Ticker,
		ExecutedAt:   executedAt,
		Price:        DollarsToInternal(t.Price),
		Size:         t.Size,
		Premium:      DollarsToInternal(t.Premium),
		MarketCenter: t.MarketCenter,
		NBBOBid:      DollarsToInternal(t.NBBOBid),
		NBBOAsk:      DollarsToInternal(t.NBBOAsk),
	}, nil
}

// ToModel converts an APIHeadline to model.Headline.
func (h *APIHeadline) ToModel() (model.Headline, error) {
	if h.Headline == "" {
		return model.Headline{}, fmt.Errorf("empty headline text")
	}

	publishedAt, err := ParseTimestamp(h.CreatedAt)
	if err != nil {
		return model.Headline{}, err
	}

	return model.Headline{
		Headline:    h.Headline,
		Source:      h.Source,
		PublishedAt: publishedAt,
		Symbols:     h.Tickers,
		Tags:        h.Tags,
		IsMajor:     h.IsMajor,
	}, nil
}

// ToModel converts an APIFlowAlert to model.FlowSignal.
func (a *APIFlowAlert) ToModel() (model.FlowSignal, error) {
	id, err := uuid.Parse(a.ID)
	if err != nil {
		return model.FlowSignal{}, fmt.Errorf("parse alert id %q: %w", a.ID, err)
	}

	signaledAt, err := ParseTimestamp(a.CreatedAt)
	if err != nil {
		return model.FlowSignal{}, err
	}

	var expiry time.Time
	if a.Expiry != "" {
		expiry, err = time.Parse("2006-01-02", a.Expiry)
		if err != nil {
			return model.FlowSignal{}, fmt.Errorf("parse expiry %q: %w", a.Expiry, err)
		}
	}

	return model.FlowSignal{
		SignalID:     id,
		Symbol:       a.Ticker,
		OptionChain:  a.OptionChain,
		Strike:       DollarsToInternal(a.Strike),
		Expiry:       expiry,
		SignaledAt:   signaledAt,
		Side:         a.Type,
		Premium:      DollarsToInternal(a.TotalPremium),
		Volume:       a.Volume,
		OpenInterest: a.OpenInterest,
		Rule:         a.AlertRule,
	}, nil
}
