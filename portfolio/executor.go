package portfolio

import (
	"fmt"
	"math"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rustyeddy/optionsim/internal/id"
	"github.com/rustyeddy/optionsim/journal"
	"github.com/rustyeddy/optionsim/pricing"
	"github.com/rustyeddy/optionsim/risk"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Order is a buy/sell instruction for an option contract or, when Contract
// is nil, for shares of Instrument.
type Order struct {
	Account    string
	Instrument string
	Contract   *pricing.OptionContract
	Side       Side
	Quantity   float64
}

// Fill is the result of an executed order: a single atomic fill at the
// current simulated price. Cost is price*quantity*multiplier, debited on
// buys and credited on sells.
type Fill struct {
	ID             string
	Account        string
	Symbol         string
	Side           Side
	Quantity       float64
	Price          float64
	Multiplier     float64
	Cost           float64
	RealizedPL     float64
	PositionClosed bool
	Time           time.Time
}

// ExecutorParams configure order handling. A nil Journal disables the audit
// trail; a nil Policy disables risk checks.
type ExecutorParams struct {
	Journal    journal.Journal
	AllowShort bool
	Policy     *risk.Policy
}

// Executor is the sole mutation path for balances and positions. Each call
// either applies completely or leaves the account untouched.
type Executor struct {
	tracker    *Tracker
	journal    journal.Journal
	allowShort bool
	policy     *risk.Policy
}

func NewExecutor(t *Tracker, p ExecutorParams) *Executor {
	j := p.Journal
	if j == nil {
		j = journal.Nop{}
	}
	return &Executor{
		tracker:    t,
		journal:    j,
		allowShort: p.AllowShort,
		policy:     p.Policy,
	}
}

// quantityEps treats position quantities within this of zero as flat.
const quantityEps = 1e-9

// Execute validates and applies one order at the current simulated price.
//
// All checks run before any mutation: on failure the balance and position
// set are exactly as they were. The account's mutex serializes the
// read-modify-write, so two orders for one account can never interleave the
// balance check with the debit.
func (e *Executor) Execute(order Order, now time.Time) (Fill, error) {
	if !(order.Quantity > 0) || math.IsInf(order.Quantity, 0) {
		return Fill{}, fmt.Errorf("%w: %v", ErrInvalidQuantity, order.Quantity)
	}
	if order.Side != Buy && order.Side != Sell {
		return Fill{}, fmt.Errorf("%w: %q", ErrInvalidSide, order.Side)
	}

	st, err := e.tracker.state(order.Account)
	if err != nil {
		return Fill{}, err
	}

	symbol, contract, price, mult, err := e.resolve(order, now)
	if err != nil {
		return Fill{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	cur := st.positions[symbol]
	var curQty float64
	if cur != nil {
		curQty = cur.Quantity
	}

	delta := order.Quantity
	if order.Side == Sell {
		delta = -order.Quantity
	}
	newQty := curQty + delta

	if order.Side == Sell && newQty < -quantityEps && !e.allowShort {
		return Fill{}, fmt.Errorf("%w: selling %v of %s with only %v held",
			ErrInsufficientHoldings, order.Quantity, symbol, curQty)
	}

	cost := price * order.Quantity * mult

	if order.Side == Buy {
		if cost > st.acct.Balance {
			return Fill{}, fmt.Errorf("%w: cost %.2f exceeds balance %.2f",
				ErrInsufficientBalance, cost, st.acct.Balance)
		}
		// Risk limits apply to orders adding long exposure; covering a
		// short reduces exposure and is never blocked.
		if e.policy != nil && curQty >= 0 {
			d := risk.Evaluate(*e.policy, risk.OrderIntent{
				Cost:             cost,
				WorstCaseLoss:    cost,
				OpensNewPosition: cur == nil,
			}, risk.AccountState{
				Balance:       st.acct.Balance,
				OpenPositions: len(st.positions),
			})
			if !d.Allowed {
				return Fill{}, fmt.Errorf("%w: %s", ErrRiskLimit, d.Violations[0].Msg)
			}
		}
	}

	// Checks done; commit the balance/position pair together.
	var (
		realized float64
		closed   bool
	)
	switch {
	case cur == nil:
		st.positions[symbol] = &Position{
			ID:            id.New(),
			Account:       order.Account,
			Symbol:        symbol,
			Contract:      contract,
			Quantity:      delta,
			AvgEntryPrice: price,
			OpenTime:      now,
		}

	case sameSign(curQty, delta):
		total := math.Abs(curQty) + order.Quantity
		cur.AvgEntryPrice = (math.Abs(curQty)*cur.AvgEntryPrice + order.Quantity*price) / total
		cur.Quantity = newQty

	default:
		closeQty := math.Min(order.Quantity, math.Abs(curQty))
		realized = (price - cur.AvgEntryPrice) * closeQty * sign(curQty) * mult

		switch {
		case math.Abs(newQty) < quantityEps:
			delete(st.positions, symbol)
			closed = true
		case sameSign(curQty, newQty):
			cur.Quantity = newQty
		default:
			// Flipped through zero: remainder is a fresh position at the
			// fill price.
			cur.Quantity = newQty
			cur.AvgEntryPrice = price
			cur.OpenTime = now
		}
	}

	if order.Side == Buy {
		st.acct.Balance -= cost
	} else {
		st.acct.Balance += cost
	}

	fill := Fill{
		ID:             id.New(),
		Account:        order.Account,
		Symbol:         symbol,
		Side:           order.Side,
		Quantity:       order.Quantity,
		Price:          price,
		Multiplier:     mult,
		Cost:           cost,
		RealizedPL:     realized,
		PositionClosed: closed,
		Time:           now,
	}

	e.recordLocked(st, fill, now)
	return fill, nil
}

// ExitAll closes every open position for the account at current prices,
// longs before shorts so sale proceeds can fund the covers. If covering a
// short would overdraw the balance, the fills applied so far stand and
// ErrInsufficientBalance is returned for the rest.
func (e *Executor) ExitAll(accountID string, now time.Time) ([]Fill, error) {
	st, err := e.tracker.state(accountID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	spots := e.tracker.market.Snapshot()

	var longs, shorts []*Position
	for _, pos := range st.positions {
		if pos.Quantity > 0 {
			longs = append(longs, pos)
		} else {
			shorts = append(shorts, pos)
		}
	}
	bySymbol := func(ps []*Position) {
		sort.Slice(ps, func(i, j int) bool { return ps[i].Symbol < ps[j].Symbol })
	}
	bySymbol(longs)
	bySymbol(shorts)

	var fills []Fill
	for _, pos := range append(longs, shorts...) {
		view, err := e.tracker.valueLocked(pos, spots, now)
		if err != nil {
			return fills, err
		}
		mark := view.MarkPrice

		qty := math.Abs(pos.Quantity)
		mult := pos.Multiplier()
		cost := mark * qty * mult

		side := Sell
		if pos.Quantity < 0 {
			side = Buy
			if cost > st.acct.Balance {
				return fills, fmt.Errorf("%w: covering %s costs %.2f with balance %.2f",
					ErrInsufficientBalance, pos.Symbol, cost, st.acct.Balance)
			}
		}

		realized := (mark - pos.AvgEntryPrice) * qty * sign(pos.Quantity) * mult

		// Signed quantity folds the credit/debit into one expression.
		st.acct.Balance += pos.Quantity * mark * mult
		delete(st.positions, pos.Symbol)

		fill := Fill{
			ID:             id.New(),
			Account:        accountID,
			Symbol:         pos.Symbol,
			Side:           side,
			Quantity:       qty,
			Price:          mark,
			Multiplier:     mult,
			Cost:           cost,
			RealizedPL:     realized,
			PositionClosed: true,
			Time:           now,
		}
		fills = append(fills, fill)

		e.recordFill(fill)
	}

	e.recordEquityLocked(st, now)
	return fills, nil
}

// resolve prices the order's asset at now against a single consistent read
// of the market.
func (e *Executor) resolve(order Order, now time.Time) (symbol string, contract *pricing.OptionContract, price, mult float64, err error) {
	if order.Contract == nil {
		sq, err := e.tracker.market.Spot(order.Instrument)
		if err != nil {
			return "", nil, 0, 0, err
		}
		return order.Instrument, nil, sq.Spot, 1, nil
	}

	c := *order.Contract
	if c.Multiplier <= 0 {
		meta, err := e.tracker.market.Instrument(c.Underlying)
		if err != nil {
			return "", nil, 0, 0, err
		}
		c.Multiplier = meta.LotSize
	}

	sq, err := e.tracker.market.Spot(c.Underlying)
	if err != nil {
		return "", nil, 0, 0, err
	}

	q, err := pricing.Price(c, sq.Spot, sq.Vol, e.tracker.riskFree, now)
	if err != nil {
		return "", nil, 0, 0, err
	}
	return c.Key(), &c, q.Price, c.Multiplier, nil
}

// recordLocked journals the fill and a fresh equity mark. Journal failures
// never roll back an executed order; they are logged and execution stands.
func (e *Executor) recordLocked(st *accountState, fill Fill, now time.Time) {
	e.recordFill(fill)
	e.recordEquityLocked(st, now)
}

func (e *Executor) recordFill(fill Fill) {
	err := e.journal.RecordFill(journal.FillRecord{
		FillID:     fill.ID,
		Account:    fill.Account,
		Symbol:     fill.Symbol,
		Side:       string(fill.Side),
		Quantity:   fill.Quantity,
		Price:      fill.Price,
		Multiplier: fill.Multiplier,
		RealizedPL: fill.RealizedPL,
		Status:     "COMPLETED",
		Time:       fill.Time,
	})
	if err != nil {
		log.WithError(err).WithField("fill", fill.ID).Warn("portfolio: journal fill failed")
	}
}

func (e *Executor) recordEquityLocked(st *accountState, now time.Time) {
	spots := e.tracker.market.Snapshot()
	snap, err := e.tracker.snapshotLocked(st, spots, now)
	if err != nil {
		log.WithError(err).WithField("account", st.acct.ID).Warn("portfolio: equity mark failed")
		return
	}
	if err := e.journal.RecordEquity(journal.EquitySnapshot{
		Time:          now,
		Account:       st.acct.ID,
		Balance:       snap.Account.Balance,
		Equity:        snap.Equity,
		OpenPositions: len(snap.Positions),
	}); err != nil {
		log.WithError(err).WithField("account", st.acct.ID).Warn("portfolio: journal equity failed")
	}
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

func sign(q float64) float64 {
	if q < 0 {
		return -1
	}
	return 1
}
