package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/optionsim/chain"
	"github.com/rustyeddy/optionsim/config"
	"github.com/rustyeddy/optionsim/journal"
	"github.com/rustyeddy/optionsim/market"
	"github.com/rustyeddy/optionsim/portfolio"
	"github.com/rustyeddy/optionsim/risk"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the live simulation",
	Long: `Run the simulator: the market model ticks on its interval, marking every
open position to the fresh prices, until the duration elapses or the
process is interrupted.

With --demo, one at-the-money call on --symbol is bought at the start and
the whole book is flattened at the end, exercising the full order path.

Example:
  optionsim run --config simulation.yaml --duration 1m --demo`,
	RunE: runRun,
}

var (
	runConfigPath string
	runDuration   time.Duration
	runDemo       bool
	runSymbol     string
	runReportEach int
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	runCmd.Flags().DurationVarP(&runDuration, "duration", "d", 0, "how long to run (0 = until interrupted)")
	runCmd.Flags().BoolVar(&runDemo, "demo", false, "buy one ATM call at start, exit all at end")
	runCmd.Flags().StringVarP(&runSymbol, "symbol", "s", "NIFTY", "underlying for the demo trade")
	runCmd.Flags().IntVar(&runReportEach, "report-every", 12, "print the account snapshot every N ticks")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if runConfigPath != "" {
		var err error
		cfg, err = config.LoadFromFile(runConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	interval, err := cfg.Market.ParseTickInterval()
	if err != nil {
		return fmt.Errorf("tick interval: %w", err)
	}

	m, err := market.NewModel(cfg.Market.Universe(), market.ModelParams{
		Interval:   interval,
		MaxMovePct: cfg.Market.MaxMovePct,
		Seed:       cfg.Market.Seed,
	})
	if err != nil {
		return fmt.Errorf("build market: %w", err)
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer j.Close()

	tracker := portfolio.NewTracker(m, cfg.Pricing.RiskFreeRate)
	if _, err := tracker.CreateAccount(cfg.Account.ID, cfg.Account.Currency, cfg.Account.Balance); err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	var policy *risk.Policy
	if cfg.Risk.MaxLossPct > 0 || cfg.Risk.MaxOpenPositions > 0 {
		policy = &risk.Policy{
			MaxLossPct:       cfg.Risk.MaxLossPct,
			MaxOpenPositions: cfg.Risk.MaxOpenPositions,
		}
	}
	executor := portfolio.NewExecutor(tracker, portfolio.ExecutorParams{
		Journal:    j,
		AllowShort: cfg.Trading.AllowShort,
		Policy:     policy,
	})

	fmt.Printf("Account %s: %.2f %s, %d instruments, tick %s\n\n",
		cfg.Account.ID, cfg.Account.Balance, cfg.Account.Currency,
		len(m.Symbols()), m.Interval())

	if runDemo {
		if err := placeDemoTrade(m, executor, cfg.Account.ID); err != nil {
			return err
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	var deadline <-chan time.Time
	if runDuration > 0 {
		deadline = time.After(runDuration)
	}

	ticker := time.NewTicker(m.Interval())
	defer ticker.Stop()

	var ticks int
loop:
	for {
		select {
		case now := <-ticker.C:
			m.Tick(now)
			ticks++
			if runReportEach > 0 && ticks%runReportEach == 0 {
				if err := printSnapshot(tracker, cfg.Account.ID, now); err != nil {
					log.WithError(err).Warn("snapshot failed")
				}
			}
		case <-deadline:
			break loop
		case <-sig:
			fmt.Println("\ninterrupted")
			break loop
		}
	}

	now := time.Now()
	if runDemo {
		fills, err := executor.ExitAll(cfg.Account.ID, now)
		if err != nil {
			return fmt.Errorf("exit all: %w", err)
		}
		for _, f := range fills {
			fmt.Printf("closed %s: %.2f x %v (realized %+.2f)\n",
				f.Symbol, f.Price, f.Quantity, f.RealizedPL)
		}
	}

	if err := printSnapshot(tracker, cfg.Account.ID, now); err != nil {
		return err
	}

	acct, err := tracker.Account(cfg.Account.ID)
	if err != nil {
		return err
	}
	fmt.Printf("\nFinal balance: %.2f %s (P&L %+.2f)\n",
		acct.Balance, acct.Currency, acct.Balance-cfg.Account.Balance)
	return nil
}

// placeDemoTrade buys one lot of the nearest ATM call on the demo symbol.
func placeDemoTrade(m *market.Model, ex *portfolio.Executor, account string) error {
	meta, err := m.Instrument(runSymbol)
	if err != nil {
		return err
	}

	now := time.Now()
	rows, err := chain.Build(meta.Symbol, meta.Spot, meta.StrikeStep, meta.LotSize, now, 1)
	if err != nil {
		return fmt.Errorf("build chain: %w", err)
	}

	// Middle strike of the nearest expiry, call side.
	var pick *chain.Row
	for i, row := range rows {
		if row.Contract.Kind != "CE" {
			continue
		}
		if pick == nil || (row.Expiry.Time.Equal(pick.Expiry.Time) &&
			abs(row.Contract.Strike-meta.Spot) < abs(pick.Contract.Strike-meta.Spot)) {
			pick = &rows[i]
		}
	}
	if pick == nil {
		return fmt.Errorf("no call listed for %s", meta.Symbol)
	}

	fill, err := ex.Execute(portfolio.Order{
		Account:  account,
		Contract: &pick.Contract,
		Side:     portfolio.Buy,
		Quantity: 1,
	}, now)
	if err != nil {
		return fmt.Errorf("demo trade: %w", err)
	}
	fmt.Printf("bought %s @ %.2f (cost %.2f)\n\n", pick.Symbol, fill.Price, fill.Cost)
	return nil
}

func printSnapshot(tracker *portfolio.Tracker, account string, now time.Time) error {
	snap, err := tracker.Snapshot(account, now)
	if err != nil {
		return err
	}

	fmt.Printf("\n[%s] equity %.2f  balance %.2f  Δ %.2f  Γ %.4f  Θ %.2f  V %.2f\n",
		now.Format("15:04:05"), snap.Equity, snap.Account.Balance,
		snap.NetDelta, snap.NetGamma, snap.NetTheta, snap.NetVega)

	if len(snap.Positions) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Symbol", "Qty", "Avg", "Mark", "Value", "UPL", "Delta"})
	for _, v := range snap.Positions {
		table.Append([]string{
			v.Position.Symbol,
			fmt.Sprintf("%v", v.Position.Quantity),
			fmt.Sprintf("%.2f", v.Position.AvgEntryPrice),
			fmt.Sprintf("%.2f", v.MarkPrice),
			fmt.Sprintf("%.2f", v.MarketValue),
			fmt.Sprintf("%+.2f", v.UnrealizedPL),
			fmt.Sprintf("%.2f", v.Delta),
		})
	}
	table.Render()
	return nil
}

func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "csv":
		return journal.NewCSV(jc.FillsFile, jc.EquityFile)
	case "sqlite":
		return journal.NewSQLite(jc.DBPath)
	default:
		return journal.Nop{}, nil
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
