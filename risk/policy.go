// Package risk enforces per-account loss limits on proposed orders.
package risk

// Policy caps how much of an account a single order may put at risk.
type Policy struct {
	// MaxLossPct bounds the worst-case loss of one order as a fraction of
	// current balance, e.g. 0.05 for 5%. Zero disables the check.
	MaxLossPct float64

	// MaxOpenPositions bounds how many distinct positions an account may
	// hold. Zero disables the check.
	MaxOpenPositions int
}

// OrderIntent is what the executor is about to do, reduced to what the
// policy needs to judge it.
type OrderIntent struct {
	// Cost is the cash debited when the order fills. Sells have zero cost.
	Cost float64

	// WorstCaseLoss is the largest loss the filled order can realize: the
	// full premium for a long option, the order cost for shares.
	WorstCaseLoss float64

	// OpensNewPosition reports whether the fill would create a position
	// rather than add to or reduce an existing one.
	OpensNewPosition bool
}

type AccountState struct {
	Balance       float64
	OpenPositions int
}
