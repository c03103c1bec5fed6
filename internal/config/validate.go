package config

import (
	"errors"
	"fmt"
)

// Vendor-documented page size maxima per endpoint.
const (
	MaxTradesPageSize    = 200
	MaxHeadlinesPageSize = 100
	MaxFlowPageSize      = 200
)

// Validate checks that all required fields are set and values are valid.
func (c *CollectorConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.API.Token == "" {
		return errors.New("api.token is required")
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Collector.CycleBudget >= c.Collector.LeaseTTL {
		return fmt.Errorf("collector.cycle_budget (%v) must be less than lease_ttl (%v)",
			c.Collector.CycleBudget, c.Collector.LeaseTTL)
	}

	if err := c.Streams.Trades.validate("streams.trades", MaxTradesPageSize); err != nil {
		return err
	}
	if err := c.Streams.Headlines.validate("streams.headlines", MaxHeadlinesPageSize); err != nil {
		return err
	}
	if err := c.Streams.Flow.validate("streams.flow", MaxFlowPageSize); err != nil {
		return err
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 1 and 65535, got %d", c.Health.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

func (s *StreamConfig) validate(prefix string, maxPageSize int) error {
	if s.PageSize < 1 {
		return fmt.Errorf("%s.page_size must be >= 1", prefix)
	}
	if s.PageSize > maxPageSize {
		return fmt.Errorf("%s.page_size must be <= %d, got %d", prefix, maxPageSize, s.PageSize)
	}
	if s.PageCap < 1 {
		return fmt.Errorf("%s.page_cap must be >= 1", prefix)
	}
	return nil
}
