package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestMustLoadByPath(t *testing.T) {
	path := writeConfig(t, `
env: prod
http_server:
  address: 0.0.0.0:9000
  timeout: 2s
storage:
  driver: sqlite
  sqlite_path: /tmp/futures.db
ledger:
  starting_balance: 5000.25
  faucet_click: 0.1
price_feed:
  mode: binance
  interval: 500ms
`)

	cfg := MustLoadByPath(path)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "0.0.0.0:9000", cfg.HTTPServer.Address)
	assert.Equal(t, 2*time.Second, cfg.HTTPServer.Timeout)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.True(t, cfg.Ledger.StartingBalance.Equal(decimal.RequireFromString("5000.25")), cfg.Ledger.StartingBalance.String())
	assert.True(t, cfg.Ledger.FaucetClick.Equal(decimal.RequireFromString("0.1")))
	assert.Equal(t, "binance", cfg.PriceFeed.Mode)
	assert.Equal(t, 500*time.Millisecond, cfg.PriceFeed.Interval)

	// defaults
	assert.Equal(t, int64(5), cfg.Ledger.StartingStars)
	assert.True(t, cfg.Ledger.FaucetMax.IsZero(), "unset money values are left to the ledger defaults")
	assert.Equal(t, int64(12345), cfg.Session.DevUserID)
	assert.Equal(t, 10*time.Minute, cfg.RedisCfg.PriceTTL)
	assert.Equal(t, "nats://localhost:4222", cfg.NatsCfg.URL)
	assert.False(t, cfg.NatsCfg.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "env: local\n")
	t.Setenv("HTTP_ADDRESS", "127.0.0.1:7070")
	t.Setenv("STORAGE_DRIVER", "postgres")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7070", cfg.HTTPServer.Address)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)

	assert.Panics(t, func() { MustLoadByPath(filepath.Join(t.TempDir(), "nope.yaml")) })
}

func TestPostgresDSN(t *testing.T) {
	c := PostgresConfig{Host: "db", Port: 5432, Username: "app", Password: "p@ss", Database: "futures", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss@db:5432/futures?sslmode=disable", c.DSN())
}
