package strategy

import "fmt"

// PayoffPoint is one sample of the at-expiry payoff diagram.
type PayoffPoint struct {
	Spot   float64
	Payoff float64
}

// PayoffAt is the net payoff of the legs if the underlying settles at the
// given spot: intrinsic value at settlement minus premium paid, per leg.
func PayoffAt(legs []Leg, spot float64) float64 {
	var total float64
	for _, leg := range legs {
		if leg.Contract == nil {
			total += leg.Quantity * (spot - leg.EntryPrice)
			continue
		}
		total += leg.Quantity * leg.multiplier() * (leg.Contract.Intrinsic(spot) - leg.EntryPrice)
	}
	return total
}

// PayoffCurve samples PayoffAt across [lo, hi] inclusive. It is a pure
// function of its inputs: calling it again with the same arguments yields the
// same samples. An empty leg set yields an empty curve.
func PayoffCurve(legs []Leg, lo, hi float64, samples int) ([]PayoffPoint, error) {
	if len(legs) == 0 {
		return nil, nil
	}
	if samples < 2 {
		return nil, fmt.Errorf("payoff curve: need at least 2 samples, got %d", samples)
	}
	if !(lo >= 0) || !(hi > lo) {
		return nil, fmt.Errorf("payoff curve: invalid spot range [%v, %v]", lo, hi)
	}

	step := (hi - lo) / float64(samples-1)
	curve := make([]PayoffPoint, samples)
	for i := range curve {
		s := lo + float64(i)*step
		curve[i] = PayoffPoint{Spot: s, Payoff: PayoffAt(legs, s)}
	}
	return curve, nil
}

// BreakEvens finds the spots where the sampled payoff crosses zero, linearly
// interpolating between adjacent sign-changing samples. No crossing within
// the sampled window is not an error: the result is simply empty.
func BreakEvens(curve []PayoffPoint) []float64 {
	var out []float64
	for i := 1; i < len(curve); i++ {
		a, b := curve[i-1], curve[i]

		if a.Payoff == 0 {
			out = append(out, a.Spot)
			continue
		}
		// Exact zeros are emitted once, when they come up as the left sample.
		if b.Payoff == 0 || (a.Payoff < 0) == (b.Payoff < 0) {
			continue
		}

		// Linear interpolation between the two samples.
		t := a.Payoff / (a.Payoff - b.Payoff)
		out = append(out, a.Spot+t*(b.Spot-a.Spot))
	}
	if n := len(curve); n > 0 && curve[n-1].Payoff == 0 {
		out = append(out, curve[n-1].Spot)
	}
	return out
}
