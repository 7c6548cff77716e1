package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/optionsim/market"
)

// Config represents the complete simulator configuration
type Config struct {
	Account AccountConfig `json:"account" yaml:"account"`
	Market  MarketConfig  `json:"market" yaml:"market"`
	Pricing PricingConfig `json:"pricing" yaml:"pricing"`
	Trading TradingConfig `json:"trading" yaml:"trading"`
	Risk    RiskConfig    `json:"risk" yaml:"risk"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	ID       string  `json:"id" yaml:"id"`
	Currency string  `json:"currency" yaml:"currency"`
	Balance  float64 `json:"balance" yaml:"balance"`
}

// MarketConfig drives the simulated price feed. Instruments left empty
// selects the built-in universe.
type MarketConfig struct {
	TickInterval string             `json:"tick_interval,omitempty" yaml:"tick_interval,omitempty"` // e.g. "5s", "1m"
	MaxMovePct   float64            `json:"max_move_pct,omitempty" yaml:"max_move_pct,omitempty"`
	Seed         uint64             `json:"seed,omitempty" yaml:"seed,omitempty"`
	Instruments  []InstrumentConfig `json:"instruments,omitempty" yaml:"instruments,omitempty"`
}

// InstrumentConfig is one simulated underlying
type InstrumentConfig struct {
	Symbol     string  `json:"symbol" yaml:"symbol"`
	Name       string  `json:"name,omitempty" yaml:"name,omitempty"`
	Spot       float64 `json:"spot" yaml:"spot"`
	Vol        float64 `json:"vol" yaml:"vol"`
	LotSize    float64 `json:"lot_size,omitempty" yaml:"lot_size,omitempty"`
	StrikeStep float64 `json:"strike_step,omitempty" yaml:"strike_step,omitempty"`
}

// PricingConfig contains theoretical pricing parameters
type PricingConfig struct {
	RiskFreeRate float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
}

// TradingConfig contains order handling switches
type TradingConfig struct {
	AllowShort bool `json:"allow_short" yaml:"allow_short"`
}

// RiskConfig contains per-order risk limits. Zero values disable a check.
type RiskConfig struct {
	MaxLossPct       float64 `json:"max_loss_pct,omitempty" yaml:"max_loss_pct,omitempty"`
	MaxOpenPositions int     `json:"max_open_positions,omitempty" yaml:"max_open_positions,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	FillsFile  string `json:"fills_file,omitempty" yaml:"fills_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// ParseTickInterval converts the tick interval string to a time.Duration.
// Empty means the market default.
func (m MarketConfig) ParseTickInterval() (time.Duration, error) {
	if m.TickInterval == "" {
		return 0, nil
	}
	return time.ParseDuration(m.TickInterval)
}

// Universe returns the configured instrument set, or the built-in one when
// none is configured.
func (m MarketConfig) Universe() []market.Instrument {
	if len(m.Instruments) == 0 {
		return market.DefaultInstruments()
	}
	out := make([]market.Instrument, 0, len(m.Instruments))
	for _, ic := range m.Instruments {
		lot := ic.LotSize
		if lot <= 0 {
			lot = 1
		}
		out = append(out, market.Instrument{
			Symbol:     ic.Symbol,
			Name:       ic.Name,
			Spot:       ic.Spot,
			Vol:        ic.Vol,
			LotSize:    lot,
			StrikeStep: ic.StrikeStep,
		})
	}
	return out
}

// LoadFromFile loads configuration from a file (JSON or YAML based on content)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.ID == "" {
		return fmt.Errorf("account.id is required")
	}
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}

	if _, err := c.Market.ParseTickInterval(); err != nil {
		return fmt.Errorf("market.tick_interval: %w", err)
	}
	if c.Market.MaxMovePct < 0 || c.Market.MaxMovePct >= 1 {
		return fmt.Errorf("market.max_move_pct must be in [0, 1)")
	}
	for _, ic := range c.Market.Instruments {
		if ic.Symbol == "" {
			return fmt.Errorf("market instrument missing symbol")
		}
		if ic.Spot <= 0 {
			return fmt.Errorf("instrument %s: spot must be positive", ic.Symbol)
		}
		if ic.Vol <= 0 {
			return fmt.Errorf("instrument %s: vol must be positive", ic.Symbol)
		}
	}

	if c.Pricing.RiskFreeRate < 0 {
		return fmt.Errorf("pricing.risk_free_rate must not be negative")
	}

	if c.Risk.MaxLossPct < 0 || c.Risk.MaxLossPct > 1 {
		return fmt.Errorf("risk.max_loss_pct must be between 0 and 1")
	}
	if c.Risk.MaxOpenPositions < 0 {
		return fmt.Errorf("risk.max_open_positions must not be negative")
	}

	switch c.Journal.Type {
	case "csv":
		if c.Journal.FillsFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal fills_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "none", "":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:       "SIM-001",
			Currency: "INR",
			Balance:  100000,
		},
		Market: MarketConfig{
			TickInterval: "5s",
			MaxMovePct:   0.02,
		},
		Pricing: PricingConfig{
			RiskFreeRate: 0.05,
		},
		Journal: JournalConfig{
			Type:       "csv",
			FillsFile:  "./fills.csv",
			EquityFile: "./equity.csv",
		},
	}
}
