// Package journal is the append-only audit trail of the simulator: every
// executed fill and periodic equity marks. It is not the source of truth for
// account state; the portfolio package owns that in memory.
package journal

import "time"

// FillRecord is one executed order. Fills are always COMPLETED since
// execution is a single atomic fill at the simulated price.
type FillRecord struct {
	FillID     string
	Account    string
	Symbol     string
	Side       string
	Quantity   float64
	Price      float64
	Multiplier float64
	RealizedPL float64
	Status     string
	Time       time.Time
}

// EquitySnapshot is a point-in-time mark of one account.
type EquitySnapshot struct {
	Time          time.Time
	Account       string
	Balance       float64
	Equity        float64
	OpenPositions int
}

type Journal interface {
	RecordFill(FillRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Nop discards all records. Used in tests and when journaling is disabled.
type Nop struct{}

func (Nop) RecordFill(FillRecord) error       { return nil }
func (Nop) RecordEquity(EquitySnapshot) error { return nil }
func (Nop) Close() error                      { return nil }
