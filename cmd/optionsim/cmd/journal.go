package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/optionsim/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the fill journal",
	Long: `Query and display fill records from a SQLite journal database.

Example:
  optionsim journal fills SIM-001 --db ./optionsim.sqlite`,
}

var journalFillsCmd = &cobra.Command{
	Use:   "fills <account-id>",
	Short: "List an account's fills in execution order",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalFills,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalFillsCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./optionsim.sqlite", "path to SQLite journal DB")
}

func runJournalFills(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	recs, err := j.ListFills(args[0])
	if err != nil {
		return fmt.Errorf("query fills: %w", err)
	}
	if len(recs) == 0 {
		fmt.Printf("no fills for account %s\n", args[0])
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Symbol", "Side", "Qty", "Price", "Realized"})
	for _, r := range recs {
		table.Append([]string{
			r.Time.Format("2006-01-02 15:04:05"),
			r.Symbol,
			r.Side,
			fmt.Sprintf("%v", r.Quantity),
			fmt.Sprintf("%.2f", r.Price),
			fmt.Sprintf("%+.2f", r.RealizedPL),
		})
	}
	table.Render()
	return nil
}
