package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/optionsim/config"
	"github.com/rustyeddy/optionsim/market"
	"github.com/rustyeddy/optionsim/pricing"
	"github.com/rustyeddy/optionsim/strategy"
)

var payoffCmd = &cobra.Command{
	Use:   "payoff",
	Short: "Evaluate a straddle on an underlying",
	Long: `Price an at-the-money straddle on the underlying and show its net
Greeks, expiry payoff curve and break-even points.

Example:
  optionsim payoff --symbol NIFTY --days 30`,
	RunE: runPayoff,
}

var (
	payoffSymbol  string
	payoffDays    float64
	payoffSamples int
)

func init() {
	rootCmd.AddCommand(payoffCmd)

	payoffCmd.Flags().StringVarP(&payoffSymbol, "symbol", "s", "NIFTY", "underlying symbol")
	payoffCmd.Flags().Float64Var(&payoffDays, "days", 30, "days to expiry")
	payoffCmd.Flags().IntVar(&payoffSamples, "samples", 21, "payoff curve samples")
}

func runPayoff(cmd *cobra.Command, args []string) error {
	cfg := config.Default()

	m, err := market.NewModel(cfg.Market.Universe(), market.ModelParams{})
	if err != nil {
		return fmt.Errorf("build market: %w", err)
	}
	meta, err := m.Instrument(payoffSymbol)
	if err != nil {
		return err
	}

	now := time.Now()
	expiry := now.Add(time.Duration(payoffDays * 24 * float64(time.Hour)))
	call := pricing.OptionContract{
		Underlying: meta.Symbol, Strike: meta.Spot, Expiry: expiry,
		Kind: pricing.Call, Multiplier: meta.LotSize,
	}
	put := call
	put.Kind = pricing.Put

	cq, err := pricing.Price(call, meta.Spot, meta.Vol, cfg.Pricing.RiskFreeRate, now)
	if err != nil {
		return err
	}
	pq, err := pricing.Price(put, meta.Spot, meta.Vol, cfg.Pricing.RiskFreeRate, now)
	if err != nil {
		return err
	}

	legs := []strategy.Leg{
		{Contract: &call, Quantity: 1, EntryPrice: cq.Price},
		{Contract: &put, Quantity: 1, EntryPrice: pq.Price},
	}

	agg, err := strategy.Evaluate(legs, meta.Spot, meta.Vol, cfg.Pricing.RiskFreeRate, now)
	if err != nil {
		return err
	}
	fmt.Printf("%s %.0f straddle, %s expiry\n", meta.Symbol, meta.Spot, expiry.Format("2006-01-02"))
	fmt.Printf("  net premium %.2f  Δ %.2f  Γ %.4f  Θ %.2f  V %.2f\n\n",
		agg.NetPrice, agg.NetDelta, agg.NetGamma, agg.NetTheta, agg.NetVega)

	lo, hi := meta.Spot*0.8, meta.Spot*1.2
	curve, err := strategy.PayoffCurve(legs, lo, hi, payoffSamples)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Spot", "Payoff"})
	for _, pt := range curve {
		table.Append([]string{
			fmt.Sprintf("%.2f", pt.Spot),
			fmt.Sprintf("%+.2f", pt.Payoff),
		})
	}
	table.Render()

	bes := strategy.BreakEvens(curve)
	if len(bes) == 0 {
		fmt.Println("\nno break-evens in window")
		return nil
	}
	fmt.Print("\nbreak-evens:")
	for _, be := range bes {
		fmt.Printf(" %.2f", be)
	}
	fmt.Println()
	return nil
}
