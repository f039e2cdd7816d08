// Command nitrosamine-monitor screens a manufacturer's product list against
// the FDA and EMA nitrosamine acceptable-intake tables.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nitrosamine-monitor",
	Short: "Nitrosamine impurity monitor",
	Long: `Matches the manufacturer's API product list against the regulatory nitrosamine
tables published by the US FDA and the EMA, flags entries absent from a previous report
and exports the result as an xlsx workbook.`,
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
