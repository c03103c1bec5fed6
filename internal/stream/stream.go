package stream

import (
	"context"
	"time"

	"github.com/vevevedk/vvv-invest-sub000/internal/model"
)

// PageRequest describes one page fetch. Incremental walks set
// NewerThan; backfill walks set Start, End and Page.
type PageRequest struct {
	Symbol    string
	Limit     int
	NewerThan time.Time
	Start     time.Time
	End       time.Time
	Page      int
	Backfill  bool
}

// Stream is the per-kind capability contract.
type Stream interface {
	// Kind identifies the stream.
	Kind() model.StreamKind

	// MaxPageSize is the vendor's documented page-size maximum for
	// this endpoint.
	MaxPageSize() int

	// FetchPage fetches a single page. Records are returned in vendor
	// order; callers needing deterministic order sort by
	// (EventTime, NaturalKey).
	FetchPage(ctx context.Context, req PageRequest) (model.Page, error)
}
