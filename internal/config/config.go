// Package config provides configuration structures and loading for goseed.
package config

// Config represents the complete application configuration.
type Config struct {
	Database  DatabaseConfig   `yaml:"database" mapstructure:"database"`
	Seed      SeedConfig       `yaml:"seed" mapstructure:"seed"`
	Overrides []OverrideConfig `yaml:"overrides" mapstructure:"overrides"`
	Logging   LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

// DatabaseConfig represents the target database connection configuration.
type DatabaseConfig struct {
	Driver             string `yaml:"driver" mapstructure:"driver"` // postgres or mysql
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// SeedConfig represents the seeding run settings.
type SeedConfig struct {
	// Rows is the target row count per table. Existing rows count toward it,
	// so it acts as a ceiling rather than a number of inserts.
	Rows int `yaml:"rows" mapstructure:"rows"`

	// RandomSeed makes two runs against the same schema state produce the
	// same values. Zero picks a time-based seed.
	RandomSeed int64 `yaml:"random_seed" mapstructure:"random_seed"`

	Schemas       []string `yaml:"schemas" mapstructure:"schemas"`
	IncludeTables []string `yaml:"include_tables" mapstructure:"include_tables"`
	ExcludeTables []string `yaml:"exclude_tables" mapstructure:"exclude_tables"`

	DryRun    bool `yaml:"dry_run" mapstructure:"dry_run"`
	BatchSize int  `yaml:"batch_size" mapstructure:"batch_size"`

	// NullProbability is applied per nullable non-key column.
	NullProbability float64 `yaml:"null_probability" mapstructure:"null_probability"`

	// MaxAttempts bounds row regeneration when unique constraints conflict.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// OverrideConfig replaces default value generation for one column.
// Column is matched as schema.table.column, table.column, or bare column
// name, first match wins. Exactly one of Values or Generator must be set.
type OverrideConfig struct {
	Column    string   `yaml:"column" mapstructure:"column"`
	Values    []string `yaml:"values" mapstructure:"values"`
	Generator string   `yaml:"generator" mapstructure:"generator"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// Default policy constants, surfaced through config so runs can tune them.
const (
	DefaultRows            = 100
	DefaultBatchSize       = 100
	DefaultNullProbability = 0.15
	DefaultMaxAttempts     = 25
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:             "postgres",
			Host:               "localhost",
			Port:               0, // resolved per driver at DSN build time
			TLS:                "preferred",
			MaxConnections:     10,
			MaxIdleConnections: 5,
		},
		Seed: SeedConfig{
			Rows:            DefaultRows,
			Schemas:         []string{"public"},
			BatchSize:       DefaultBatchSize,
			NullProbability: DefaultNullProbability,
			MaxAttempts:     DefaultMaxAttempts,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}
