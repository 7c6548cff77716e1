package portfolio

import (
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/optionsim/market"
	"github.com/rustyeddy/optionsim/pricing"
)

// PositionView is one position marked to the current theoretical price.
// Greeks are position-level: quote sensitivities scaled by quantity and
// multiplier, with share positions carrying delta equal to their quantity.
type PositionView struct {
	Position Position

	MarkPrice    float64
	MarketValue  float64
	UnrealizedPL float64

	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
}

// AccountSnapshot is a consistent valuation of one account: every position
// is priced against the same market tick and the same clock.
type AccountSnapshot struct {
	Account Account
	Time    time.Time

	Positions []PositionView

	// Equity is balance plus the signed market value of all positions.
	Equity float64

	NetDelta float64
	NetGamma float64
	NetTheta float64
	NetVega  float64
}

// Snapshot values every open position for the account at now. Expired
// contracts remain in the set at intrinsic value until closed by an order.
func (t *Tracker) Snapshot(accountID string, now time.Time) (AccountSnapshot, error) {
	st, err := t.state(accountID)
	if err != nil {
		return AccountSnapshot{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	spots := t.market.Snapshot()
	return t.snapshotLocked(st, spots, now)
}

// snapshotLocked does the pricing work. Callers hold st.mu; spots is one
// consistent copy of the market, so no position is stale relative to another.
func (t *Tracker) snapshotLocked(st *accountState, spots map[string]market.SpotQuote, now time.Time) (AccountSnapshot, error) {
	snap := AccountSnapshot{
		Account: st.acct,
		Time:    now,
		Equity:  st.acct.Balance,
	}

	symbols := make([]string, 0, len(st.positions))
	for sym := range st.positions {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		pos := st.positions[sym]

		view, err := t.valueLocked(pos, spots, now)
		if err != nil {
			return AccountSnapshot{}, err
		}

		snap.Positions = append(snap.Positions, view)
		snap.Equity += view.MarketValue
		snap.NetDelta += view.Delta
		snap.NetGamma += view.Gamma
		snap.NetTheta += view.Theta
		snap.NetVega += view.Vega
	}

	return snap, nil
}

func (t *Tracker) valueLocked(pos *Position, spots map[string]market.SpotQuote, now time.Time) (PositionView, error) {
	sq, ok := spots[pos.underlying()]
	if !ok {
		return PositionView{}, fmt.Errorf("%w: %q", market.ErrUnknownInstrument, pos.underlying())
	}

	view := PositionView{Position: *pos}
	w := pos.Quantity * pos.Multiplier()

	if pos.Contract == nil {
		view.MarkPrice = sq.Spot
		view.Delta = pos.Quantity
	} else {
		q, err := pricing.Price(*pos.Contract, sq.Spot, sq.Vol, t.riskFree, now)
		if err != nil {
			return PositionView{}, fmt.Errorf("value %s: %w", pos.Symbol, err)
		}
		view.MarkPrice = q.Price
		view.Delta = w * q.Delta
		view.Gamma = w * q.Gamma
		view.Theta = w * q.Theta
		view.Vega = w * q.Vega
	}

	view.MarketValue = view.MarkPrice * w
	view.UnrealizedPL = (view.MarkPrice - pos.AvgEntryPrice) * w
	return view, nil
}
