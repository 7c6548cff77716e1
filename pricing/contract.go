package pricing

import (
	"fmt"
	"math"
	"time"
)

// OptionKind follows the NSE convention: CE for calls, PE for puts.
type OptionKind string

const (
	Call OptionKind = "CE"
	Put  OptionKind = "PE"
)

func (k OptionKind) Valid() bool {
	return k == Call || k == Put
}

// OptionContract describes a European option. Contracts are immutable once
// created and are identified by (underlying, strike, expiry, kind).
type OptionContract struct {
	Underlying string
	Strike     float64
	Expiry     time.Time
	Kind       OptionKind

	// Multiplier is the lot size: account cash moves by price * quantity * Multiplier.
	Multiplier float64
}

// Key returns the identity of the contract. Two contracts with the same key
// are the same contract regardless of how they were constructed.
func (c OptionContract) Key() string {
	return fmt.Sprintf("%s-%s-%g-%s", c.Underlying, c.Expiry.UTC().Format("20060102"), c.Strike, c.Kind)
}

const hoursPerYear = 24 * 365

// TimeToExpiry returns the remaining lifetime in years. Negative once expired.
func (c OptionContract) TimeToExpiry(now time.Time) float64 {
	return c.Expiry.Sub(now).Hours() / hoursPerYear
}

// Intrinsic is the immediate-exercise value at the given spot.
func (c OptionContract) Intrinsic(spot float64) float64 {
	if c.Kind == Call {
		return math.Max(spot-c.Strike, 0)
	}
	return math.Max(c.Strike-spot, 0)
}
