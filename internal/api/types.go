package api

import "time"

// TradesResponse from GET /api/darkpool/{symbol}
type TradesResponse struct {
	Data []APITrade `json:"data"`
}

// APITrade represents a dark-pool print from the vendor API.
type APITrade struct {
	TrackingID   string `json:"tracking_id"`
	Ticker       string `json:"ticker"`
	Price        string `json:"price"` // dollars, e.g. "152.345"
	Size         int64  `json:"size"`
	Premium      string `json:"premium"`
	ExecutedAt   string `json:"executed_at"` // ISO 8601
	MarketCenter string `json:"market_center"`
	NBBOBid      string `json:"nbbo_bid"`
	NBBOAsk      string `json:"nbbo_ask"`
}

// HeadlinesResponse from GET /api/news/headlines
type HeadlinesResponse struct {
	Data []APIHeadline `json:"data"`
}

// APIHeadline represents a news item from the vendor API. Headlines
// carry no vendor ID.
type APIHeadline struct {
	Headline  string   `json:"headline"`
	Source    string   `json:"source"`
	CreatedAt string   `json:"created_at"` // ISO 8601
	Tickers   []string `json:"tickers"`
	Tags      []string `json:"tags"`
	IsMajor   bool     `json:"is_major"`
}

// FlowAlertsResponse from GET /api/flow/alerts
type FlowAlertsResponse struct {
	Data []APIFlowAlert `json:"data"`
}

// APIFlowAlert represents an option-flow alert from the vendor API.
type APIFlowAlert struct {
	ID           string `json:"id"`
	Ticker       string `json:"ticker"`
	OptionChain  string `json:"option_chain"`
	Strike       string `json:"strike"` // dollars
	Expiry       string `json:"expiry"` // "2006-01-02"
	CreatedAt    string `json:"created_at"`
	Type         string `json:"type"` // "call" or "put"
	TotalPremium string `json:"total_premium"`
	Volume       int64  `json:"volume"`
	OpenInterest int64  `json:"open_interest"`
	AlertRule    string `json:"alert_rule"`
}

// PageQuery carries the pagination parameters shared by all three
// endpoints. Exactly one walk style is used per request: NewerThan for
// incremental collection, or Start/End/Page for backfill.
type PageQuery struct {
	Limit     int
	NewerThan time.Time // incremental: records strictly newer than the watermark
	Start     time.Time // backfill range start (inclusive)
	End       time.Time // backfill range end (exclusive)
	Page      int       // backfill page index, 0-based
	Backfill  bool
}
