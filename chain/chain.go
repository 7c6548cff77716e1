// Package chain generates the listed option grid for an underlying: strikes
// on the exchange step around spot, for the current weekly, next weekly and
// monthly expiries.
package chain

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/optionsim/pricing"
)

// DefaultWidth is how many strikes are listed on each side of ATM.
const DefaultWidth = 5

// expiryCutoffHour rolls the current weekly forward once the session is past
// 15:00 on expiry day, matching exchange behavior.
const expiryCutoffHour = 15

// Expiry pairs a settlement time with the tag used in contract symbols:
// W## for weeklies (day of month), MN for the monthly.
type Expiry struct {
	Time time.Time
	Tag  string
}

// Row is one listed contract along with its display symbol.
type Row struct {
	Symbol   string
	Contract pricing.OptionContract
	Expiry   Expiry
}

// Expiries returns the current weekly (Thursday), the following weekly, and
// the last Thursday of the month, all settling 15:30 local. A monthly that
// coincides with a listed weekly is dropped rather than listed twice.
func Expiries(now time.Time) []Expiry {
	days := (int(time.Thursday) - int(now.Weekday()) + 7) % 7
	if days == 0 && now.Hour() >= expiryCutoffHour {
		days = 7
	}

	weekly := settlement(now.AddDate(0, 0, days))
	nextWeekly := settlement(weekly.AddDate(0, 0, 7))

	monthly := lastThursday(now.Year(), now.Month(), now.Location())
	if !monthly.After(now) {
		y, m := now.Year(), now.Month()+1
		monthly = lastThursday(y, m, now.Location())
	}

	out := []Expiry{
		{Time: weekly, Tag: fmt.Sprintf("W%02d", weekly.Day())},
		{Time: nextWeekly, Tag: fmt.Sprintf("W%02d", nextWeekly.Day())},
	}
	if !monthly.Equal(weekly) && !monthly.Equal(nextWeekly) {
		out = append(out, Expiry{Time: monthly, Tag: "MN"})
	}
	return out
}

func settlement(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 15, 30, 0, 0, day.Location())
}

func lastThursday(year int, month time.Month, loc *time.Location) time.Time {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, loc)
	offset := (int(lastDay.Weekday()) - int(time.Thursday) + 7) % 7
	return settlement(lastDay.AddDate(0, 0, -offset))
}

// Strikes returns 2*width+1 strikes on the exchange grid centered on spot.
func Strikes(spot, step float64, width int) []float64 {
	atm := math.Round(spot/step) * step
	out := make([]float64, 0, 2*width+1)
	for i := -width; i <= width; i++ {
		out = append(out, atm+float64(i)*step)
	}
	return out
}

// Build lists calls and puts for every strike and expiry. Step and lot must
// be positive: an underlying without a strike step has no chain.
func Build(underlying string, spot, step, lot float64, now time.Time, width int) ([]Row, error) {
	if step <= 0 {
		return nil, fmt.Errorf("chain: %s has no strike step", underlying)
	}
	if lot <= 0 {
		return nil, fmt.Errorf("chain: %s has non-positive lot size %v", underlying, lot)
	}
	if spot <= 0 {
		return nil, fmt.Errorf("chain: non-positive spot %v for %s", spot, underlying)
	}
	if width <= 0 {
		width = DefaultWidth
	}

	expiries := Expiries(now)
	strikes := Strikes(spot, step, width)

	rows := make([]Row, 0, len(expiries)*len(strikes)*2)
	for _, exp := range expiries {
		for _, strike := range strikes {
			for _, kind := range []pricing.OptionKind{pricing.Call, pricing.Put} {
				c := pricing.OptionContract{
					Underlying: underlying,
					Strike:     strike,
					Expiry:     exp.Time,
					Kind:       kind,
					Multiplier: lot,
				}
				rows = append(rows, Row{
					Symbol:   Symbol(c, exp.Tag),
					Contract: c,
					Expiry:   exp,
				})
			}
		}
	}
	return rows, nil
}

// Symbol renders the display symbol, e.g. NIFTY062724500W27CE.
func Symbol(c pricing.OptionContract, tag string) string {
	return fmt.Sprintf("%s%s%d%s%s", c.Underlying, c.Expiry.Format("0102"), int(c.Strike), tag, c.Kind)
}
