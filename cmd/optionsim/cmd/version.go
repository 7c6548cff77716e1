package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the optionsim CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("optionsim version %s\n", version)
		fmt.Println("An options trading simulator with Black-Scholes pricing")
		fmt.Println("https://github.com/rustyeddy/optionsim")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
