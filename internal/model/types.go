package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StreamKind identifies one of the independent collection streams.
type StreamKind string

const (
	StreamTrades    StreamKind = "trades"
	StreamHeadlines StreamKind = "headlines"
	StreamFlow      StreamKind = "flow"
)

// Mode selects how a collection cycle walks the upstream API.
type Mode string

const (
	// ModeIncremental resumes from the stream's live watermark.
	ModeIncremental Mode = "incremental"

	// ModeBackfill walks a fixed historical range by page index and
	// never touches the live watermark.
	ModeBackfill Mode = "backfill"
)

// CollectionTarget names one unit of scheduled work.
type CollectionTarget struct {
	Stream StreamKind
	Symbol string // ticker symbol, or search topic for headlines
	Mode   Mode
}

func (t CollectionTarget) String() string {
	if t.Symbol == "" {
		return string(t.Stream)
	}
	return fmt.Sprintf("%s/%s", t.Stream, t.Symbol)
}

// Cursor marks the most recent data confirmed ingested for a
// (stream, symbol) pair. Watermark is monotonically non-decreasing;
// a cursor row is created on the first successful page and never deleted.
type Cursor struct {
	Stream    StreamKind
	Symbol    string
	Watermark time.Time
	UpdatedAt time.Time
}

// RunLease is a time-bounded exclusivity token for one stream.
// At most one non-expired lease exists per stream at any instant.
type RunLease struct {
	Stream     StreamKind
	HolderID   uuid.UUID
	AcquiredAt time.Time
	ExpiresAt  time.Time
}

// Record is the capability contract every ingested entity satisfies.
// NaturalKey uniquely identifies the record in the source domain and
// makes persistence idempotent regardless of retries; EventTime feeds
// the stream's watermark.
type Record interface {
	NaturalKey() string
	EventTime() time.Time
}

// Page is one ordered slice of records fetched from the upstream API.
type Page struct {
	Records []Record

	// Requested is the limit that was sent with the request. A page
	// with fewer records than requested signals exhaustion.
	Requested int
}

// HasMore reports whether the upstream likely has another page.
func (p Page) HasMore() bool {
	return p.Requested > 0 && len(p.Records) >= p.Requested
}

// MaxTime returns the newest EventTime in the page, or the zero time
// for an empty page.
func (p Page) MaxTime() time.Time {
	var max time.Time
	for _, r := range p.Records {
		if ts := r.EventTime(); ts.After(max) {
			max = ts
		}
	}
	return max
}

// TradePrint is a single off-exchange trade execution.
type TradePrint struct {
	TradeID      uuid.UUID // vendor-assigned, primary key
	Symbol       string
	ExecutedAt   time.Time
	Price        int64 // hundred-thousandths of a dollar
	Size         int64 // shares
	Premium      int64 // hundred-thousandths of a dollar
	MarketCenter string
	NBBOBid      int64
	NBBOAsk      int64
}

func (t TradePrint) NaturalKey() string   { return t.TradeID.String() }
func (t TradePrint) EventTime() time.Time { return t.ExecutedAt }

// Headline is a single news item. Headlines carry no vendor ID, so the
// natural key is the (headline, published_at) composite.
type Headline struct {
	Headline    string
	Source      string
	PublishedAt time.Time
	Symbols     []string
	Tags        []string
	IsMajor     bool
}

func (h Headline) NaturalKey() string {
	return h.PublishedAt.UTC().Format(time.RFC3339Nano) + "|" + h.Headline
}
func (h Headline) EventTime() time.Time { return h.PublishedAt }

// FlowSignal is a derivative-flow alert for a single option chain.
type FlowSignal struct {
	SignalID     uuid.UUID // vendor-assigned, primary key
	Symbol       string
	OptionChain  string
	Strike       int64 // hundred-thousandths of a dollar
	Expiry       time.Time
	SignaledAt   time.Time
	Side         string // "call" or "put"
	Premium      int64  // hundred-thousandths of a dollar
	Volume       int64
	OpenInterest int64
	Rule         string // vendor rule that fired the alert
}

func (f FlowSignal) NaturalKey() string   { return f.SignalID.String() }
func (f FlowSignal) EventTime() time.Time { return f.SignaledAt }
