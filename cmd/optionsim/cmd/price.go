package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/optionsim/pricing"
)

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Price a single option contract",
	Long: `Compute the Black-Scholes theoretical price and Greeks for one contract.

Example:
  optionsim price --spot 2500 --strike 2500 --vol 0.30 --rate 0.05 --days 90 --kind CE`,
	RunE: runPrice,
}

var (
	priceSpot   float64
	priceStrike float64
	priceVol    float64
	priceRate   float64
	priceDays   float64
	priceKind   string
)

func init() {
	rootCmd.AddCommand(priceCmd)

	priceCmd.Flags().Float64Var(&priceSpot, "spot", 0, "underlying spot price (required)")
	priceCmd.Flags().Float64Var(&priceStrike, "strike", 0, "strike price (required)")
	priceCmd.Flags().Float64Var(&priceVol, "vol", 0.30, "annualized volatility")
	priceCmd.Flags().Float64Var(&priceRate, "rate", 0.05, "annualized risk-free rate")
	priceCmd.Flags().Float64Var(&priceDays, "days", 30, "days to expiry")
	priceCmd.Flags().StringVar(&priceKind, "kind", "CE", "option kind: CE (call) or PE (put)")
	priceCmd.MarkFlagRequired("spot")
	priceCmd.MarkFlagRequired("strike")
}

func runPrice(cmd *cobra.Command, args []string) error {
	var kind pricing.OptionKind
	switch priceKind {
	case "CE", "ce":
		kind = pricing.Call
	case "PE", "pe":
		kind = pricing.Put
	default:
		return fmt.Errorf("unknown option kind %q (want CE or PE)", priceKind)
	}

	now := time.Now()
	c := pricing.OptionContract{
		Underlying: "SPOT",
		Strike:     priceStrike,
		Expiry:     now.Add(time.Duration(priceDays * 24 * float64(time.Hour))),
		Kind:       kind,
		Multiplier: 1,
	}

	q, err := pricing.Price(c, priceSpot, priceVol, priceRate, now)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Price", "Delta", "Gamma", "Theta", "Vega"})
	table.Append([]string{
		fmt.Sprintf("%.4f", q.Price),
		fmt.Sprintf("%.4f", q.Delta),
		fmt.Sprintf("%.6f", q.Gamma),
		fmt.Sprintf("%.4f", q.Theta),
		fmt.Sprintf("%.4f", q.Vega),
	})
	table.Render()
	return nil
}
