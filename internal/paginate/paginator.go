// Package paginate walks an upstream stream page by page, either
// incrementally from a watermark or across a fixed historical range.
//
// Incremental walks are watermark-based rather than offset-based:
// records are strictly appended upstream with increasing timestamps,
// so resuming from the newest confirmed timestamp cannot skip or
// duplicate data the way offset pagination does under concurrent
// appends. A page cap bounds every walk as a circuit breaker against
// runaway loops.
package paginate

import (
	"context"
	"sort"
	"time"

	"github.com/vevevedk/vvv-invest-sub000/internal/model"
	"github.com/vevevedk/vvv-invest-sub000/internal/stream"
)

// Config bounds a single pagination walk.
type Config struct {
	PageSize int // records requested per page
	PageCap  int // maximum pages fetched per walk
}

// Pager walks one stream for one symbol. Not safe for concurrent use.
type Pager struct {
	stream stream.Stream
	symbol string
	cfg    Config

	// Incremental state. The watermark advances to each page's newest
	// record so the next request resumes past it.
	watermark time.Time

	// Backfill state.
	start, end time.Time
	pageIndex  int
	backfill   bool

	pages  int
	done   bool
	capped bool
}

// NewIncremental creates a pager that resumes from the given
// watermark. A zero watermark starts from the oldest data the vendor
// serves.
func NewIncremental(s stream.Stream, symbol string, watermark time.Time, cfg Config) *Pager {
	return &Pager{
		stream:    s,
		symbol:    symbol,
		cfg:       cfg,
		watermark: watermark,
	}
}

// NewBackfill creates a pager over the fixed range [start, end),
// walked by page index. It is independent of the live watermark and
// never consults it.
func NewBackfill(s stream.Stream, symbol string, start, end time.Time, cfg Config) *Pager {
	return &Pager{
		stream:   s,
		symbol:   symbol,
		cfg:      cfg,
		start:    start,
		end:      end,
		backfill: true,
	}
}

// Next fetches the next page. It returns ok=false once the walk is
// exhausted. Records within a page are sorted by (EventTime,
// NaturalKey) so resumption after a crash is deterministic for
// records sharing a timestamp.
func (p *Pager) Next(ctx context.Context) (model.Page, bool, error) {
	if p.done {
		return model.Page{}, false, nil
	}
	if p.cfg.PageCap > 0 && p.pages >= p.cfg.PageCap {
		p.done = true
		p.capped = true
		return model.Page{}, false, nil
	}

	req := stream.PageRequest{
		Symbol: p.symbol,
		Limit:  p.cfg.PageSize,
	}
	if p.backfill {
		req.Backfill = true
		req.Start = p.start
		req.End = p.end
		req.Page = p.pageIndex
	} else {
		req.NewerThan = p.watermark
	}

	page, err := p.stream.FetchPage(ctx, req)
	if err != nil {
		p.done = true
		return model.Page{}, false, err
	}

	p.pages++
	p.pageIndex++

	if len(page.Records) == 0 {
		p.done = true
		return model.Page{}, false, nil
	}

	sortRecords(page.Records)

	if !page.HasMore() {
		p.done = true
	}

	if !p.backfill {
		newest := page.MaxTime()
		// A full page that makes no watermark progress means the
		// upstream keeps serving data we have already confirmed;
		// stop rather than loop.
		if !p.watermark.IsZero() && !newest.After(p.watermark) {
			p.done = true
		} else {
			p.watermark = newest
		}
	}

	return page, true, nil
}

// Pages returns the number of pages fetched so far.
func (p *Pager) Pages() int { return p.pages }

// Capped reports whether the walk stopped because it hit the page cap.
func (p *Pager) Capped() bool { return p.capped }

// Watermark returns the newest record timestamp seen by an
// incremental walk.
func (p *Pager) Watermark() time.Time { return p.watermark }

func sortRecords(records []model.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, tj := records[i].EventTime(), records[j].EventTime()
		if ti.Equal(tj) {
			return records[i].NaturalKey() < records[j].NaturalKey()
		}
		return ti.Before(tj)
	})
}
