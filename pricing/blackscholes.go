package pricing

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// Quote is the theoretical value of a contract and its first-order
// sensitivities. Quotes are derived values: recompute, never mutate.
//
// Vega is per unit of volatility and Theta is per year; scaling to
// "per 1% vol" or "per day" is a display concern.
type Quote struct {
	Price float64
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
}

// unitNormal is the standard normal used for N and phi. distuv's CDF is
// erfc-based and stays accurate deep into the tails, unlike the naive
// 0.5*(1+erf) form at large |x|.
var unitNormal = distuv.UnitNormal

// Price computes the Black–Scholes value and Greeks of a European option.
//
// A contract at or past expiry prices at intrinsic value with all Greeks
// zero. Degenerate market inputs return ErrInvalidPricingInput; the engine
// never hands NaN or Inf back to a caller.
func Price(c OptionContract, spot, sigma, r float64, now time.Time) (Quote, error) {
	if !c.Kind.Valid() {
		return Quote{}, fmt.Errorf("%w: option kind %q", ErrInvalidPricingInput, c.Kind)
	}
	if !(spot > 0) || math.IsInf(spot, 0) {
		return Quote{}, fmt.Errorf("%w: spot %v", ErrInvalidPricingInput, spot)
	}
	if !(c.Strike > 0) || math.IsInf(c.Strike, 0) {
		return Quote{}, fmt.Errorf("%w: strike %v", ErrInvalidPricingInput, c.Strike)
	}

	t := c.TimeToExpiry(now)
	if t <= 0 {
		return Quote{Price: c.Intrinsic(spot)}, nil
	}

	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return Quote{}, fmt.Errorf("%w: volatility %v", ErrInvalidPricingInput, sigma)
	}
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return Quote{}, fmt.Errorf("%w: risk-free rate %v", ErrInvalidPricingInput, r)
	}

	sqrtT := math.Sqrt(t)
	d1 := (math.Log(spot/c.Strike) + (r+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	nd1 := unitNormal.CDF(d1)
	nd2 := unitNormal.CDF(d2)
	pd1 := unitNormal.Prob(d1)
	disc := math.Exp(-r * t)

	var q Quote
	q.Gamma = pd1 / (spot * sigma * sqrtT)
	q.Vega = spot * pd1 * sqrtT

	decay := -(spot * pd1 * sigma) / (2 * sqrtT)

	if c.Kind == Call {
		q.Price = spot*nd1 - c.Strike*disc*nd2
		q.Delta = nd1
		q.Theta = decay - r*c.Strike*disc*nd2
	} else {
		// Put via put-call parity: P = C - S + K*e^(-rT).
		q.Price = spot*nd1 - c.Strike*disc*nd2 - spot + c.Strike*disc
		q.Delta = nd1 - 1
		q.Theta = decay + r*c.Strike*disc*unitNormal.CDF(-d2)
	}

	if !q.finite() {
		return Quote{}, fmt.Errorf("%w: non-finite result for %s (spot=%v sigma=%v r=%v t=%v)",
			ErrInvalidPricingInput, c.Key(), spot, sigma, r, t)
	}
	return q, nil
}

func (q Quote) finite() bool {
	for _, v := range [...]float64{q.Price, q.Delta, q.Gamma, q.Theta, q.Vega} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
