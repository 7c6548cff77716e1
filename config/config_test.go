package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "SIM-001", cfg.Account.ID)
	assert.Equal(t, 100000.0, cfg.Account.Balance)

	d, err := cfg.Market.ParseTickInterval()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)

	// Empty instrument list falls back to the built-in universe.
	universe := cfg.Market.Universe()
	assert.NotEmpty(t, universe)
	symbols := make(map[string]bool)
	for _, in := range universe {
		symbols[in.Symbol] = true
	}
	for _, want := range []string{"RELIANCE", "TCS", "INFY", "HDFC", "ICICI", "WIPRO", "BHARTI", "ITC"} {
		assert.True(t, symbols[want], "default universe missing %s", want)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty_account_id", func(c *Config) { c.Account.ID = "" }},
		{"zero_balance", func(c *Config) { c.Account.Balance = 0 }},
		{"bad_interval", func(c *Config) { c.Market.TickInterval = "five seconds" }},
		{"move_pct_too_big", func(c *Config) { c.Market.MaxMovePct = 1.0 }},
		{"negative_rate", func(c *Config) { c.Pricing.RiskFreeRate = -0.01 }},
		{"loss_pct_over_one", func(c *Config) { c.Risk.MaxLossPct = 1.5 }},
		{"csv_missing_files", func(c *Config) { c.Journal = JournalConfig{Type: "csv"} }},
		{"sqlite_missing_path", func(c *Config) { c.Journal = JournalConfig{Type: "sqlite"} }},
		{"unknown_journal_type", func(c *Config) { c.Journal.Type = "kafka" }},
		{"instrument_no_symbol", func(c *Config) {
			c.Market.Instruments = []InstrumentConfig{{Spot: 100, Vol: 0.2}}
		}},
		{"instrument_zero_vol", func(c *Config) {
			c.Market.Instruments = []InstrumentConfig{{Symbol: "ACME", Spot: 100}}
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sim.yaml")
	doc := `
account:
  id: SIM-042
  currency: INR
  balance: 250000
market:
  tick_interval: 1s
  seed: 7
  instruments:
    - symbol: ACME
      spot: 2500
      vol: 0.3
      lot_size: 25
      strike_step: 50
pricing:
  risk_free_rate: 0.06
trading:
  allow_short: true
risk:
  max_loss_pct: 0.1
journal:
  type: none
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "SIM-042", cfg.Account.ID)
	assert.Equal(t, 250000.0, cfg.Account.Balance)
	assert.Equal(t, uint64(7), cfg.Market.Seed)
	assert.True(t, cfg.Trading.AllowShort)
	assert.Equal(t, 0.06, cfg.Pricing.RiskFreeRate)

	universe := cfg.Market.Universe()
	require.Len(t, universe, 1)
	assert.Equal(t, "ACME", universe[0].Symbol)
	assert.Equal(t, 25.0, universe[0].LotSize)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("account:\n  id: X\n"), 0644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := Default()
	cfg.Account.Balance = 123456
	cfg.Trading.AllowShort = true

	for _, name := range []string{"sim.yaml", "sim.json"} {
		path := filepath.Join(dir, name)
		require.NoError(t, cfg.SaveToFile(path))

		got, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, cfg.Account.Balance, got.Account.Balance)
		assert.Equal(t, cfg.Trading.AllowShort, got.Trading.AllowShort)
	}
}
