package config

import (
	"fmt"
	"strings"
)

// GeneratorResolver reports whether a named value generator exists.
// Satisfied by produce.Registry. Validation resolves override generator
// names up front so a bad override fails at load time, not mid-run.
type GeneratorResolver interface {
	Has(name string) bool
}

// Validate checks the configuration for errors that would otherwise only
// surface mid-run. A nil resolver skips generator name checks.
func (c *Config) Validate(gens GeneratorResolver) error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateSeed(); err != nil {
		return err
	}
	if err := c.validateOverrides(gens); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("database.driver must be postgres or mysql, got %q", c.Database.Driver)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database.database is required")
	}
	if c.Database.Port < 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database.port %d out of range", c.Database.Port)
	}

	switch c.Database.TLS {
	case "", "disable", "preferred", "required":
	default:
		return fmt.Errorf("database.tls must be disable, preferred, or required, got %q", c.Database.TLS)
	}

	return nil
}

func (c *Config) validateSeed() error {
	if c.Seed.Rows <= 0 {
		return fmt.Errorf("seed.rows must be positive, got %d", c.Seed.Rows)
	}
	if c.Seed.BatchSize <= 0 {
		return fmt.Errorf("seed.batch_size must be positive, got %d", c.Seed.BatchSize)
	}
	if c.Seed.NullProbability < 0 || c.Seed.NullProbability >= 1 {
		return fmt.Errorf("seed.null_probability must be in [0, 1), got %g", c.Seed.NullProbability)
	}
	if c.Seed.MaxAttempts < 1 {
		return fmt.Errorf("seed.max_attempts must be at least 1, got %d", c.Seed.MaxAttempts)
	}

	for _, name := range c.Seed.IncludeTables {
		if err := validateTableFilter(name); err != nil {
			return fmt.Errorf("seed.include_tables: %w", err)
		}
	}
	for _, name := range c.Seed.ExcludeTables {
		if err := validateTableFilter(name); err != nil {
			return fmt.Errorf("seed.exclude_tables: %w", err)
		}
	}

	return nil
}

// validateTableFilter accepts bare or schema-qualified table names.
func validateTableFilter(name string) error {
	if name == "" {
		return fmt.Errorf("empty table filter")
	}
	if strings.Count(name, ".") > 1 {
		return fmt.Errorf("table filter %q must be table or schema.table", name)
	}
	return nil
}

func (c *Config) validateOverrides(gens GeneratorResolver) error {
	for i, o := range c.Overrides {
		if o.Column == "" {
			return fmt.Errorf("overrides[%d]: column is required", i)
		}
		if strings.Count(o.Column, ".") > 2 {
			return fmt.Errorf("overrides[%d]: column %q must be column, table.column, or schema.table.column", i, o.Column)
		}

		hasValues := len(o.Values) > 0
		hasGenerator := o.Generator != ""
		if hasValues == hasGenerator {
			return fmt.Errorf("overrides[%d] (%s): exactly one of values or generator must be set", i, o.Column)
		}

		if hasGenerator && gens != nil && !gens.Has(o.Generator) {
			return fmt.Errorf("overrides[%d] (%s): unknown generator %q", i, o.Column, o.Generator)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}

	return nil
}
