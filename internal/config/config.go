package config

import "time"

// CollectorConfig is the root configuration for a collector instance.
type CollectorConfig struct {
	Instance  InstanceConfig `yaml:"instance"`
	API       APIConfig      `yaml:"api"`
	Database  DBConfig       `yaml:"database"`
	Collector RunConfig      `yaml:"collector"`
	Streams   StreamsConfig  `yaml:"streams"`
	Health    HealthConfig   `yaml:"health"`
}

// InstanceConfig identifies this collector.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// APIConfig holds vendor API settings.
type APIConfig struct {
	BaseURL            string        `yaml:"base_url"`
	Token              string        `yaml:"token"`
	Timeout            time.Duration `yaml:"timeout"`
	MaxRetries         int           `yaml:"max_retries"`
	RetryBackoff       time.Duration `yaml:"retry_backoff"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
	RateBurst          int           `yaml:"rate_burst"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// RunConfig holds settings shared by every collection cycle.
type RunConfig struct {
	LeaseTTL     time.Duration `yaml:"lease_ttl"`
	CycleBudget  time.Duration `yaml:"cycle_budget"`
	WriteRetries int           `yaml:"write_retries"`
}

// StreamsConfig holds per-stream collection settings.
type StreamsConfig struct {
	Trades    StreamConfig `yaml:"trades"`
	Headlines StreamConfig `yaml:"headlines"`
	Flow      StreamConfig `yaml:"flow"`
}

// StreamConfig configures one stream's schedule and pagination.
type StreamConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	PageSize int           `yaml:"page_size"`
	PageCap  int           `yaml:"page_cap"`
	Symbols  []string      `yaml:"symbols"`
}

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Port int `yaml:"port"`
}
