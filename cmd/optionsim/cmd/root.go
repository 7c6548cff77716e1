package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "optionsim",
	Short: "An options trading simulator with Black-Scholes pricing",
	Long: `Optionsim is an options trading simulator written in Go.

It provides tools for:
  - Simulating a live price feed over a configurable stock universe
  - Pricing European options with the Black-Scholes model and full Greeks
  - Building weekly and monthly option chains around spot
  - Evaluating multi-leg strategies: payoff curves and break-evens
  - Tracking portfolio equity, P&L and net Greeks in real time
  - Journaling fills and equity marks to CSV or SQLite

Complete documentation is available at https://github.com/rustyeddy/optionsim`,
}

var verbose bool

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cobra.OnInitialize(func() {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
	})
}
