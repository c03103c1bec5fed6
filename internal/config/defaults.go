package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultBaseURL            = "https://api.unusualwhales.com"
	DefaultAPITimeout         = 30 * time.Second
	DefaultMaxRetries         = 3
	DefaultRetryBackoff       = 1 * time.Second
	DefaultRateLimitPerMinute = 120
	DefaultRateBurst          = 2
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultLeaseTTL           = 10 * time.Minute
	DefaultCycleBudget        = 8 * time.Minute
	DefaultWriteRetries       = 2
	DefaultTradesPageSize     = 200
	DefaultHeadlinesPageSize  = 100
	DefaultFlowPageSize       = 200
	DefaultPageCap            = 120
	DefaultStreamInterval     = 5 * time.Minute
	DefaultHealthPort         = 8080
)

func (c *CollectorConfig) applyDefaults() {
	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.RetryBackoff == 0 {
		c.API.RetryBackoff = DefaultRetryBackoff
	}
	if c.API.RateLimitPerMinute == 0 {
		c.API.RateLimitPerMinute = DefaultRateLimitPerMinute
	}
	if c.API.RateBurst == 0 {
		c.API.RateBurst = DefaultRateBurst
	}

	// Database defaults
	applyDBDefaults(&c.Database)

	// Collector defaults
	if c.Collector.LeaseTTL == 0 {
		c.Collector.LeaseTTL = DefaultLeaseTTL
	}
	if c.Collector.CycleBudget == 0 {
		c.Collector.CycleBudget = DefaultCycleBudget
	}
	if c.Collector.WriteRetries == 0 {
		c.Collector.WriteRetries = DefaultWriteRetries
	}

	// Stream defaults
	applyStreamDefaults(&c.Streams.Trades, DefaultTradesPageSize)
	applyStreamDefaults(&c.Streams.Headlines, DefaultHeadlinesPageSize)
	applyStreamDefaults(&c.Streams.Flow, DefaultFlowPageSize)

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}

func applyStreamDefaults(s *StreamConfig, pageSize int) {
	if s.Interval == 0 {
		s.Interval = DefaultStreamInterval
	}
	if s.PageSize == 0 {
		s.PageSize = pageSize
	}
	if s.PageCap == 0 {
		s.PageCap = DefaultPageCap
	}
}
