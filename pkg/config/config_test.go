package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port     int           `env:"TEST_CFG_PORT" envDefault:"8080"`
	LockMode string        `env:"TEST_CFG_LOCK_MODE" envDefault:"none"`
	LockTTL  time.Duration `env:"TEST_CFG_LOCK_TTL" envDefault:"5s"`
	Brokers  []string      `env:"TEST_CFG_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	Enabled  bool          `env:"TEST_CFG_ENABLED" envDefault:"false"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "none", cfg.LockMode)
	assert.Equal(t, 5*time.Second, cfg.LockTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.False(t, cfg.Enabled)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "9090")
	t.Setenv("TEST_CFG_LOCK_MODE", "redis")
	t.Setenv("TEST_CFG_LOCK_TTL", "250ms")
	t.Setenv("TEST_CFG_BROKERS", "k1:9092,k2:9092")
	t.Setenv("TEST_CFG_ENABLED", "true")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "redis", cfg.LockMode)
	assert.Equal(t, 250*time.Millisecond, cfg.LockTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
	assert.True(t, cfg.Enabled)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "not-a-number")

	var cfg testConfig
	err := Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadFromMap(t *testing.T) {
	var cfg testConfig
	require.NoError(t, LoadFromMap(&cfg, map[string]string{"TEST_CFG_LOCK_MODE": "local"}))

	assert.Equal(t, "local", cfg.LockMode)
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoad_NonPointer(t *testing.T) {
	assert.Error(t, Load(testConfig{}))
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TEST_CFG_PORT=7070\nTEST_CFG_LOCK_MODE=local\n"), 0o600))

	// Already exported variables are not overridden.
	t.Setenv("TEST_CFG_LOCK_MODE", "redis")
	t.Setenv("TEST_CFG_PORT", "")
	require.NoError(t, os.Unsetenv("TEST_CFG_PORT"))

	require.NoError(t, LoadDotEnv(path))

	var cfg testConfig
	require.NoError(t, Load(&cfg))
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "redis", cfg.LockMode)
}

func TestLoadDotEnv_MissingFileIgnored(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}
