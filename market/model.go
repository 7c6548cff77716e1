package market

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultTickInterval is the cadence the simulated feed is expected to be
// driven at. The model never schedules itself; the caller owns the timer.
const DefaultTickInterval = 5 * time.Second

// DefaultMaxMovePct bounds the percentage move of one tick.
const DefaultMaxMovePct = 0.02

// volWindow is how many of the most recent log returns feed the realized
// volatility estimate. At a 5s cadence this is one hour of ticks.
const volWindow = 720

// minVolSamples is the number of returns required before the realized
// estimate replaces the configured volatility.
const minVolSamples = 12

// SpotQuote is one instrument's current simulated state. Values are copies;
// holding a SpotQuote never observes a later tick.
type SpotQuote struct {
	Symbol string
	Spot   float64
	Vol    float64
	Time   time.Time
}

// ModelParams tune the stochastic update. Zero values fall back to defaults.
type ModelParams struct {
	Interval   time.Duration
	MaxMovePct float64
	Seed       uint64
}

type instrumentState struct {
	meta    Instrument
	spot    float64
	updated time.Time
	returns []float64
}

// Model owns the simulated spot price for every tracked instrument. All spot
// state lives behind its lock: readers get either the state before or after a
// tick, never a mix across instruments.
type Model struct {
	mu       sync.RWMutex
	interval time.Duration
	step     distuv.Uniform
	states   map[string]*instrumentState
	symbols  []string
}

// NewModel registers the instrument universe. A malformed universe is a
// startup error; nothing is recoverable mid-tick.
func NewModel(instruments []Instrument, p ModelParams) (*Model, error) {
	if len(instruments) == 0 {
		return nil, fmt.Errorf("market: no instruments registered")
	}
	if p.Interval <= 0 {
		p.Interval = DefaultTickInterval
	}
	if p.MaxMovePct <= 0 {
		p.MaxMovePct = DefaultMaxMovePct
	}
	if p.MaxMovePct >= 1 {
		return nil, fmt.Errorf("market: max move %.2f must be below 1.0", p.MaxMovePct)
	}
	if p.Seed == 0 {
		p.Seed = uint64(time.Now().UnixNano())
	}

	m := &Model{
		interval: p.Interval,
		step: distuv.Uniform{
			Min: -p.MaxMovePct,
			Max: p.MaxMovePct,
			Src: rand.NewSource(p.Seed),
		},
		states: make(map[string]*instrumentState, len(instruments)),
	}

	for _, inst := range instruments {
		if inst.Symbol == "" {
			return nil, fmt.Errorf("market: instrument with empty symbol")
		}
		if _, dup := m.states[inst.Symbol]; dup {
			return nil, fmt.Errorf("market: duplicate instrument %q", inst.Symbol)
		}
		if inst.Spot <= 0 {
			return nil, fmt.Errorf("market: instrument %q has non-positive spot %v", inst.Symbol, inst.Spot)
		}
		if inst.Vol <= 0 {
			return nil, fmt.Errorf("market: instrument %q has non-positive volatility %v", inst.Symbol, inst.Vol)
		}
		if inst.LotSize <= 0 {
			inst.LotSize = 1
		}
		m.states[inst.Symbol] = &instrumentState{meta: inst, spot: inst.Spot}
		m.symbols = append(m.symbols, inst.Symbol)
	}
	sort.Strings(m.symbols)

	return m, nil
}

// Tick advances every instrument by one bounded percentage step. A bad draw
// for one instrument is logged and its previous price retained for the cycle;
// a single tick never fails the process or the rest of the market.
func (m *Model) Tick(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sym := range m.symbols {
		st := m.states[sym]

		pct := m.step.Rand()
		next := st.spot * (1 + pct)
		if !(next > 0) || math.IsNaN(next) || math.IsInf(next, 0) {
			log.WithFields(log.Fields{
				"instrument": sym,
				"spot":       st.spot,
				"step":       pct,
			}).Warn("market: discarding bad tick, retaining previous price")
			continue
		}

		st.returns = append(st.returns, math.Log(next/st.spot))
		if len(st.returns) > volWindow {
			st.returns = st.returns[len(st.returns)-volWindow:]
		}

		st.spot = next
		st.updated = now
	}
}

// Spot returns the current simulated quote for one instrument.
func (m *Model) Spot(symbol string) (SpotQuote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.states[symbol]
	if !ok {
		return SpotQuote{}, fmt.Errorf("%w: %q", ErrUnknownInstrument, symbol)
	}
	return m.quoteLocked(st), nil
}

// Snapshot copies every quote under one read lock, so callers pricing a whole
// portfolio see a single consistent tick.
func (m *Model) Snapshot() map[string]SpotQuote {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]SpotQuote, len(m.states))
	for sym, st := range m.states {
		out[sym] = m.quoteLocked(st)
	}
	return out
}

// quoteLocked snapshots one instrument. Vol is the configured annualized
// estimate: the per-tick walk is far noisier than any listed option market,
// so the realized figure is a diagnostic (RealizedVol), not a pricing input.
func (m *Model) quoteLocked(st *instrumentState) SpotQuote {
	return SpotQuote{
		Symbol: st.meta.Symbol,
		Spot:   st.spot,
		Vol:    st.meta.Vol,
		Time:   st.updated,
	}
}

// volLocked annualizes the sample stddev of the recent log returns. Until the
// window has enough samples the configured estimate stands in.
func (m *Model) volLocked(st *instrumentState) float64 {
	if len(st.returns) < minVolSamples {
		return st.meta.Vol
	}
	sd, err := stats.StandardDeviationSample(st.returns)
	if err != nil || sd <= 0 {
		return st.meta.Vol
	}
	ticksPerYear := float64(365*24*time.Hour) / float64(m.interval)
	return sd * math.Sqrt(ticksPerYear)
}

// RealizedVol exposes the annualized realized volatility estimate directly.
func (m *Model) RealizedVol(symbol string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.states[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownInstrument, symbol)
	}
	return m.volLocked(st), nil
}

// Instrument returns the static reference data for a symbol.
func (m *Model) Instrument(symbol string) (Instrument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.states[symbol]
	if !ok {
		return Instrument{}, fmt.Errorf("%w: %q", ErrUnknownInstrument, symbol)
	}
	return st.meta, nil
}

// Symbols lists the registered universe in sorted order.
func (m *Model) Symbols() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.symbols))
	copy(out, m.symbols)
	return out
}

// Interval reports the tick cadence the model annualizes against.
func (m *Model) Interval() time.Duration {
	return m.interval
}
