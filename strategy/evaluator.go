// Package strategy combines option and share legs into one economic view:
// net theoretical value, net Greeks, and the payoff diagram at expiry.
package strategy

import (
	"fmt"
	"time"

	"github.com/rustyeddy/optionsim/pricing"
)

// Leg is a signed quantity of one contract or of underlying shares.
type Leg struct {
	// Contract is the option being held. Nil means the leg is underlying
	// shares, which carry delta equal to their quantity and no other Greeks.
	Contract *pricing.OptionContract

	// Quantity is signed: positive long, negative short. Lots for options,
	// shares otherwise.
	Quantity float64

	// EntryPrice is the premium (or share price) paid per unit. The payoff
	// curve is net of it.
	EntryPrice float64
}

func (l Leg) multiplier() float64 {
	if l.Contract == nil {
		return 1
	}
	if l.Contract.Multiplier <= 0 {
		return 1
	}
	return l.Contract.Multiplier
}

// Aggregate is the combined value and exposure of a set of legs.
type Aggregate struct {
	NetPrice float64
	NetDelta float64
	NetGamma float64
	NetTheta float64
	NetVega  float64
}

// Evaluate sums quantity- and lot-weighted quotes across all legs. An empty
// leg set is a valid strategy and evaluates to zero.
func Evaluate(legs []Leg, spot, sigma, r float64, now time.Time) (Aggregate, error) {
	var agg Aggregate

	for i, leg := range legs {
		if leg.Contract == nil {
			agg.NetPrice += leg.Quantity * spot
			agg.NetDelta += leg.Quantity
			continue
		}

		q, err := pricing.Price(*leg.Contract, spot, sigma, r, now)
		if err != nil {
			return Aggregate{}, fmt.Errorf("evaluate leg %d (%s): %w", i, leg.Contract.Key(), err)
		}

		w := leg.Quantity * leg.multiplier()
		agg.NetPrice += w * q.Price
		agg.NetDelta += w * q.Delta
		agg.NetGamma += w * q.Gamma
		agg.NetTheta += w * q.Theta
		agg.NetVega += w * q.Vega
	}

	return agg, nil
}
