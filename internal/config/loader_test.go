package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "goseed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: postgres
  host: db.internal
  port: 5432
  user: seeder
  password: secret
  database: app
seed:
  rows: 500
  random_seed: 42
  schemas: [public, billing]
  batch_size: 250
overrides:
  - column: users.email
    generator: email
  - column: status
    values: [active, disabled]
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "app", cfg.Database.Database)

	assert.Equal(t, 500, cfg.Seed.Rows)
	assert.Equal(t, int64(42), cfg.Seed.RandomSeed)
	assert.Equal(t, []string{"public", "billing"}, cfg.Seed.Schemas)
	assert.Equal(t, 250, cfg.Seed.BatchSize)

	require.Len(t, cfg.Overrides, 2)
	assert.Equal(t, "users.email", cfg.Overrides[0].Column)
	assert.Equal(t, "email", cfg.Overrides[0].Generator)
	assert.Equal(t, []string{"active", "disabled"}, cfg.Overrides[1].Values)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: mysql
  host: localhost
  user: root
  database: app
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultRows, cfg.Seed.Rows)
	assert.Equal(t, DefaultBatchSize, cfg.Seed.BatchSize)
	assert.Equal(t, DefaultNullProbability, cfg.Seed.NullProbability)
	assert.Equal(t, DefaultMaxAttempts, cfg.Seed.MaxAttempts)
	assert.False(t, cfg.Seed.DryRun)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/goseed.yaml")
	require.Error(t, err)
}

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("GOSEED_TEST_PASSWORD", "supersecret")
	t.Setenv("GOSEED_TEST_HOST", "db.prod")

	path := writeConfig(t, `
database:
  driver: postgres
  host: ${GOSEED_TEST_HOST}
  user: seeder
  password: $GOSEED_TEST_PASSWORD
  database: app
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "db.prod", cfg.Database.Host)
	assert.Equal(t, "supersecret", cfg.Database.Password)
}

func TestLoad_EnvSubstitutionMissingVarKept(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: postgres
  host: localhost
  user: seeder
  password: ${GOSEED_DEFINITELY_UNSET}
  database: app
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "${GOSEED_DEFINITELY_UNSET}", cfg.Database.Password)
}

func TestApplyOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed.Rows = 100

	cfg.ApplyOverrides(CLIOverrides{
		LogLevel:  "debug",
		Rows:      500,
		Seed:      42,
		BatchSize: 50,
		Schemas:   []string{"billing"},
		DryRun:    true,
	})

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 500, cfg.Seed.Rows)
	assert.Equal(t, int64(42), cfg.Seed.RandomSeed)
	assert.Equal(t, 50, cfg.Seed.BatchSize)
	assert.Equal(t, []string{"billing"}, cfg.Seed.Schemas)
	assert.True(t, cfg.Seed.DryRun)
}

func TestApplyOverrides_ZeroValuesIgnored(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed.Rows = 250
	cfg.Logging.Level = "warn"

	cfg.ApplyOverrides(CLIOverrides{})

	assert.Equal(t, 250, cfg.Seed.Rows)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.False(t, cfg.Seed.DryRun)
}
