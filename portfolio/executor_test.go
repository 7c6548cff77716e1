package portfolio

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/optionsim/journal"
	"github.com/rustyeddy/optionsim/market"
	"github.com/rustyeddy/optionsim/pricing"
	"github.com/rustyeddy/optionsim/risk"
)

var testNow = time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC)

const testAccount = "SIM-001"

func testUniverse() []market.Instrument {
	return []market.Instrument{
		{Symbol: "ACME", Name: "Acme Index", Spot: 2500, Vol: 0.30, LotSize: 25, StrikeStep: 50},
		{Symbol: "RELIANCE", Name: "Reliance Industries", Spot: 2500, Vol: 0.28, LotSize: 1},
	}
}

type testEnv struct {
	model    *market.Model
	tracker  *Tracker
	executor *Executor
	journal  *captureJournal
}

type captureJournal struct {
	mu     sync.Mutex
	fills  []journal.FillRecord
	equity []journal.EquitySnapshot
}

func (j *captureJournal) RecordFill(f journal.FillRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fills = append(j.fills, f)
	return nil
}

func (j *captureJournal) RecordEquity(e journal.EquitySnapshot) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.equity = append(j.equity, e)
	return nil
}

func (j *captureJournal) Close() error { return nil }

func newTestEnv(t *testing.T, balance float64, params ExecutorParams) *testEnv {
	t.Helper()

	m, err := market.NewModel(testUniverse(), market.ModelParams{Seed: 1})
	require.NoError(t, err)

	tr := NewTracker(m, 0.05)
	_, err = tr.CreateAccount(testAccount, "INR", balance)
	require.NoError(t, err)

	cj := &captureJournal{}
	if params.Journal == nil {
		params.Journal = cj
	}

	return &testEnv{
		model:    m,
		tracker:  tr,
		executor: NewExecutor(tr, params),
		journal:  cj,
	}
}

func acmeCall(strike float64) *pricing.OptionContract {
	return &pricing.OptionContract{
		Underlying: "ACME",
		Strike:     strike,
		Expiry:     testNow.Add(90 * 24 * time.Hour), // ~0.25y
		Kind:       pricing.Call,
		Multiplier: 25,
	}
}

func TestBuySharesReducesBalanceExactly(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 100000, ExecutorParams{})

	fill, err := env.executor.Execute(Order{
		Account: testAccount, Instrument: "RELIANCE", Side: Buy, Quantity: 10,
	}, testNow)
	require.NoError(t, err)

	assert.Equal(t, 2500.0, fill.Price)
	assert.Equal(t, 25000.0, fill.Cost)

	acct, err := env.tracker.Account(testAccount)
	require.NoError(t, err)
	assert.Equal(t, 75000.0, acct.Balance)

	snap, err := env.tracker.Snapshot(testAccount, testNow)
	require.NoError(t, err)
	require.Len(t, snap.Positions, 1)
	assert.Equal(t, 10.0, snap.Positions[0].Position.Quantity)
	assert.Equal(t, 2500.0, snap.Positions[0].Position.AvgEntryPrice)
}

func TestBuyInsufficientBalanceLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 100000, ExecutorParams{})

	_, err := env.executor.Execute(Order{
		Account: testAccount, Instrument: "RELIANCE", Side: Buy, Quantity: 100,
	}, testNow)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	acct, err := env.tracker.Account(testAccount)
	require.NoError(t, err)
	assert.Equal(t, 100000.0, acct.Balance)

	snap, err := env.tracker.Snapshot(testAccount, testNow)
	require.NoError(t, err)
	assert.Empty(t, snap.Positions)
	assert.Empty(t, env.journal.fills)
}

func TestBuyOptionAtComputedPremium(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 100000, ExecutorParams{})
	c := acmeCall(2500)

	fill, err := env.executor.Execute(Order{
		Account: testAccount, Contract: c, Side: Buy, Quantity: 1,
	}, testNow)
	require.NoError(t, err)

	// ATM call, spot 2500, sigma 0.30, r 0.05, ~0.25y out.
	want, err := pricing.Price(*c, 2500, 0.30, 0.05, testNow)
	require.NoError(t, err)
	assert.Equal(t, want.Price, fill.Price)
	assert.Greater(t, fill.Price, 160.0)
	assert.Less(t, fill.Price, 170.0)
	assert.Equal(t, 25.0, fill.Multiplier)

	acct, err := env.tracker.Account(testAccount)
	require.NoError(t, err)
	assert.InDelta(t, 100000-fill.Price*25, acct.Balance, 1e-9)
}

func TestSellEntirePositionClosesIt(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 100000, ExecutorParams{})
	c := acmeCall(2500)

	_, err := env.executor.Execute(Order{Account: testAccount, Contract: c, Side: Buy, Quantity: 1}, testNow)
	require.NoError(t, err)

	fill, err := env.executor.Execute(Order{Account: testAccount, Contract: c, Side: Sell, Quantity: 1}, testNow)
	require.NoError(t, err)

	assert.True(t, fill.PositionClosed)
	assert.InDelta(t, 0, fill.RealizedPL, 1e-9, "no tick between buy and sell")

	acct, err := env.tracker.Account(testAccount)
	require.NoError(t, err)
	assert.InDelta(t, 100000.0, acct.Balance, 1e-9)

	snap, err := env.tracker.Snapshot(testAccount, testNow)
	require.NoError(t, err)
	assert.Empty(t, snap.Positions)
}

func TestRepeatBuysWeightAverageEntry(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 100000, ExecutorParams{})

	f1, err := env.executor.Execute(Order{Account: testAccount, Instrument: "RELIANCE", Side: Buy, Quantity: 10}, testNow)
	require.NoError(t, err)

	env.model.Tick(testNow.Add(5 * time.Second))

	f2, err := env.executor.Execute(Order{Account: testAccount, Instrument: "RELIANCE", Side: Buy, Quantity: 30}, testNow.Add(5*time.Second))
	require.NoError(t, err)

	snap, err := env.tracker.Snapshot(testAccount, testNow.Add(5*time.Second))
	require.NoError(t, err)
	require.Len(t, snap.Positions, 1)

	pos := snap.Positions[0].Position
	assert.Equal(t, 40.0, pos.Quantity)
	wantAvg := (10*f1.Price + 30*f2.Price) / 40
	assert.InDelta(t, wantAvg, pos.AvgEntryPrice, 1e-9)
}

func TestPartialSellKeepsAverageAndRealizes(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 100000, ExecutorParams{})

	buy, err := env.executor.Execute(Order{Account: testAccount, Instrument: "RELIANCE", Side: Buy, Quantity: 10}, testNow)
	require.NoError(t, err)

	env.model.Tick(testNow.Add(5 * time.Second))

	sell, err := env.executor.Execute(Order{Account: testAccount, Instrument: "RELIANCE", Side: Sell, Quantity: 4}, testNow.Add(5*time.Second))
	require.NoError(t, err)

	assert.InDelta(t, (sell.Price-buy.Price)*4, sell.RealizedPL, 1e-9)
	assert.False(t, sell.PositionClosed)

	snap, err := env.tracker.Snapshot(testAccount, testNow.Add(5*time.Second))
	require.NoError(t, err)
	require.Len(t, snap.Positions, 1)
	assert.Equal(t, 6.0, snap.Positions[0].Position.Quantity)
	assert.Equal(t, buy.Price, snap.Positions[0].Position.AvgEntryPrice)
}

func TestSellWithoutHoldings(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 100000, ExecutorParams{})

	_, err := env.executor.Execute(Order{Account: testAccount, Instrument: "RELIANCE", Side: Sell, Quantity: 1}, testNow)
	assert.ErrorIs(t, err, ErrInsufficientHoldings)

	acct, err := env.tracker.Account(testAccount)
	require.NoError(t, err)
	assert.Equal(t, 100000.0, acct.Balance)
}

func TestShortSellWhenEnabled(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 100000, ExecutorParams{AllowShort: true})

	fill, err := env.executor.Execute(Order{Account: testAccount, Instrument: "RELIANCE", Side: Sell, Quantity: 5}, testNow)
	require.NoError(t, err)

	acct, err := env.tracker.Account(testAccount)
	require.NoError(t, err)
	assert.Equal(t, 100000+fill.Cost, acct.Balance)

	snap, err := env.tracker.Snapshot(testAccount, testNow)
	require.NoError(t, err)
	require.Len(t, snap.Positions, 1)
	assert.Equal(t, -5.0, snap.Positions[0].Position.Quantity)

	// Cover at the same price: flat book, flat P&L.
	cover, err := env.executor.Execute(Order{Account: testAccount, Instrument: "RELIANCE", Side: Buy, Quantity: 5}, testNow)
	require.NoError(t, err)
	assert.True(t, cover.PositionClosed)
	assert.InDelta(t, 0, cover.RealizedPL, 1e-9)

	acct, err = env.tracker.Account(testAccount)
	require.NoError(t, err)
	assert.InDelta(t, 100000.0, acct.Balance, 1e-9)
}

func TestSellFlipsThroughZero(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 100000, ExecutorParams{AllowShort: true})

	buy, err := env.executor.Execute(Order{Account: testAccount, Instrument: "RELIANCE", Side: Buy, Quantity: 5}, testNow)
	require.NoError(t, err)

	sell, err := env.executor.Execute(Order{Account: testAccount, Instrument: "RELIANCE", Side: Sell, Quantity: 8}, testNow)
	require.NoError(t, err)

	// Realizes on the 5 closed, opens 3 short at the fill price.
	assert.InDelta(t, (sell.Price-buy.Price)*5, sell.RealizedPL, 1e-9)

	snap, err := env.tracker.Snapshot(testAccount, testNow)
	require.NoError(t, err)
	require.Len(t, snap.Positions, 1)
	assert.Equal(t, -3.0, snap.Positions[0].Position.Quantity)
	assert.Equal(t, sell.Price, snap.Positions[0].Position.AvgEntryPrice)
}

func TestExecuteValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 100000, ExecutorParams{})

	tests := []struct {
		name  string
		order Order
		want  error
	}{
		{"zero_quantity", Order{Account: testAccount, Instrument: "RELIANCE", Side: Buy, Quantity: 0}, ErrInvalidQuantity},
		{"negative_quantity", Order{Account: testAccount, Instrument: "RELIANCE", Side: Buy, Quantity: -2}, ErrInvalidQuantity},
		{"bad_side", Order{Account: testAccount, Instrument: "RELIANCE", Side: "HOLD", Quantity: 1}, ErrInvalidSide},
		{"unknown_account", Order{Account: "NOBODY", Instrument: "RELIANCE", Side: Buy, Quantity: 1}, ErrUnknownAccount},
		{"unknown_instrument", Order{Account: testAccount, Instrument: "DOGE", Side: Buy, Quantity: 1}, market.ErrUnknownInstrument},
		{"unknown_underlying", Order{Account: testAccount, Contract: &pricing.OptionContract{
			Underlying: "DOGE", Strike: 100, Expiry: testNow.Add(time.Hour), Kind: pricing.Call, Multiplier: 1,
		}, Side: Buy, Quantity: 1}, market.ErrUnknownInstrument},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := env.executor.Execute(tt.order, testNow)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRiskPolicyBlocksOversizedOrder(t *testing.T) {
	t.Parallel()

	policy := &risk.Policy{MaxLossPct: 0.05}
	env := newTestEnv(t, 100000, ExecutorParams{Policy: policy})

	// 10 shares cost 25000, above the 5000 limit.
	_, err := env.executor.Execute(Order{Account: testAccount, Instrument: "RELIANCE", Side: Buy, Quantity: 10}, testNow)
	assert.ErrorIs(t, err, ErrRiskLimit)

	// 2 shares cost 5000, right at the limit.
	_, err = env.executor.Execute(Order{Account: testAccount, Instrument: "RELIANCE", Side: Buy, Quantity: 2}, testNow)
	assert.NoError(t, err)
}

func TestConcurrentOrdersNeverOverdraw(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 10000, ExecutorParams{})

	// Ten concurrent buys of 2500 each against a 10000 balance: exactly
	// four can fill.
	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.executor.Execute(Order{
				Account: testAccount, Instrument: "RELIANCE", Side: Buy, Quantity: 1,
			}, testNow)
		}(i)
	}
	wg.Wait()

	var filled int
	for _, err := range errs {
		if err == nil {
			filled++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientBalance)
		}
	}
	assert.Equal(t, 4, filled)

	acct, err := env.tracker.Account(testAccount)
	require.NoError(t, err)
	assert.Equal(t, 0.0, acct.Balance)
}

func TestExitAllFlattensTheBook(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 100000, ExecutorParams{})

	_, err := env.executor.Execute(Order{Account: testAccount, Instrument: "RELIANCE", Side: Buy, Quantity: 10}, testNow)
	require.NoError(t, err)
	_, err = env.executor.Execute(Order{Account: testAccount, Contract: acmeCall(2500), Side: Buy, Quantity: 1}, testNow)
	require.NoError(t, err)

	fills, err := env.executor.ExitAll(testAccount, testNow)
	require.NoError(t, err)
	assert.Len(t, fills, 2)
	for _, f := range fills {
		assert.True(t, f.PositionClosed)
		assert.Equal(t, Sell, f.Side)
	}

	snap, err := env.tracker.Snapshot(testAccount, testNow)
	require.NoError(t, err)
	assert.Empty(t, snap.Positions)

	// Same prices in and out: the round trip is free.
	acct, err := env.tracker.Account(testAccount)
	require.NoError(t, err)
	assert.InDelta(t, 100000.0, acct.Balance, 1e-9)
}

func TestExitAllEmptyAccount(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 100000, ExecutorParams{})
	fills, err := env.executor.ExitAll(testAccount, testNow)
	require.NoError(t, err)
	assert.Empty(t, fills)
}

func TestFillsAreJournaled(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 100000, ExecutorParams{})

	fill, err := env.executor.Execute(Order{Account: testAccount, Instrument: "RELIANCE", Side: Buy, Quantity: 2}, testNow)
	require.NoError(t, err)

	require.Len(t, env.journal.fills, 1)
	rec := env.journal.fills[0]
	assert.Equal(t, fill.ID, rec.FillID)
	assert.Equal(t, "BUY", rec.Side)
	assert.Equal(t, "COMPLETED", rec.Status)
	assert.Equal(t, fill.Price, rec.Price)

	require.Len(t, env.journal.equity, 1)
	assert.Equal(t, testAccount, env.journal.equity[0].Account)
	assert.Equal(t, 1, env.journal.equity[0].OpenPositions)
}

func TestDuplicateAccount(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 100000, ExecutorParams{})
	_, err := env.tracker.CreateAccount(testAccount, "INR", 5)
	assert.ErrorIs(t, err, ErrDuplicateAccount)
}

func TestAccountsAreIndependent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 100000, ExecutorParams{})
	for i := 0; i < 4; i++ {
		_, err := env.tracker.CreateAccount(fmt.Sprintf("SIM-%03d", i+2), "INR", 50000)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			acct := fmt.Sprintf("SIM-%03d", i+2)
			for n := 0; n < 10; n++ {
				_, err := env.executor.Execute(Order{Account: acct, Instrument: "RELIANCE", Side: Buy, Quantity: 1}, testNow)
				require.NoError(t, err)
				_, err = env.executor.Execute(Order{Account: acct, Instrument: "RELIANCE", Side: Sell, Quantity: 1}, testNow)
				require.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		acct, err := env.tracker.Account(fmt.Sprintf("SIM-%03d", i+2))
		require.NoError(t, err)
		assert.InDelta(t, 50000.0, acct.Balance, 1e-9)
	}
}
