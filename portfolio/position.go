package portfolio

import (
	"time"

	"github.com/rustyeddy/optionsim/pricing"
)

// Position is an open holding: either an option contract or underlying
// shares. Quantity is signed, positive long and negative short. Created on
// the first trade in a symbol and removed when quantity returns to zero.
type Position struct {
	ID      string
	Account string

	// Symbol is the contract key for options and the instrument symbol for
	// shares. It is the map key for the account's position set.
	Symbol string

	// Contract is nil for share positions.
	Contract *pricing.OptionContract

	Quantity      float64
	AvgEntryPrice float64
	OpenTime      time.Time
}

// Multiplier is the cash scaling of one quantity unit.
func (p *Position) Multiplier() float64 {
	if p.Contract == nil || p.Contract.Multiplier <= 0 {
		return 1
	}
	return p.Contract.Multiplier
}

// underlying returns the instrument whose spot marks this position.
func (p *Position) underlying() string {
	if p.Contract != nil {
		return p.Contract.Underlying
	}
	return p.Symbol
}
