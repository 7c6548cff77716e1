package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/optionsim/chain"
	"github.com/rustyeddy/optionsim/config"
	"github.com/rustyeddy/optionsim/market"
	"github.com/rustyeddy/optionsim/pricing"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the option chain for an underlying",
	Long: `Build and price the listed option chain for one underlying: strikes on
the exchange grid around spot, for the current weekly, next weekly and
monthly expiries.

Example:
  optionsim chain --symbol NIFTY --width 5`,
	RunE: runChain,
}

var (
	chainSymbol string
	chainWidth  int
	chainConfig string
)

func init() {
	rootCmd.AddCommand(chainCmd)

	chainCmd.Flags().StringVarP(&chainSymbol, "symbol", "s", "NIFTY", "underlying symbol")
	chainCmd.Flags().IntVarP(&chainWidth, "width", "w", chain.DefaultWidth, "strikes on each side of ATM")
	chainCmd.Flags().StringVarP(&chainConfig, "config", "f", "", "path to config file (optional)")
}

func runChain(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if chainConfig != "" {
		var err error
		cfg, err = config.LoadFromFile(chainConfig)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	m, err := market.NewModel(cfg.Market.Universe(), market.ModelParams{Seed: cfg.Market.Seed})
	if err != nil {
		return fmt.Errorf("build market: %w", err)
	}

	meta, err := m.Instrument(chainSymbol)
	if err != nil {
		return err
	}

	now := time.Now()
	rows, err := chain.Build(meta.Symbol, meta.Spot, meta.StrikeStep, meta.LotSize, now, chainWidth)
	if err != nil {
		return err
	}

	fmt.Printf("%s  spot %.2f  vol %.0f%%  lot %d\n\n",
		meta.Symbol, meta.Spot, meta.Vol*100, int(meta.LotSize))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Symbol", "Expiry", "Strike", "Kind", "Price", "Delta", "Theta"})
	for _, row := range rows {
		q, err := pricing.Price(row.Contract, meta.Spot, meta.Vol, cfg.Pricing.RiskFreeRate, now)
		if err != nil {
			return fmt.Errorf("price %s: %w", row.Symbol, err)
		}
		table.Append([]string{
			row.Symbol,
			row.Expiry.Time.Format("2006-01-02"),
			fmt.Sprintf("%.0f", row.Contract.Strike),
			string(row.Contract.Kind),
			fmt.Sprintf("%.2f", q.Price),
			fmt.Sprintf("%.3f", q.Delta),
			fmt.Sprintf("%.2f", q.Theta),
		})
	}
	table.Render()
	return nil
}
