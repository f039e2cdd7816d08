package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/giygas/nitrosamine-monitor/config"
	"github.com/giygas/nitrosamine-monitor/entities"
	"github.com/giygas/nitrosamine-monitor/logging"
	"github.com/giygas/nitrosamine-monitor/monitor"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run one screening and write the report workbook",
	Long: `Loads the product list (from --products, else scraped from the manufacturer site),
screens it against the FDA and EMA tables and writes the report to --out. With --history,
records absent from that previous report are flagged NEW.`,
	RunE: runScreeningCmd,
}

var (
	runProducts string
	runHistory  string
	runOut      string
)

func init() {
	runCommand.Flags().StringVarP(&runProducts, "products", "p", "", "Product list file (.csv or .xlsx); scraped when empty")
	runCommand.Flags().StringVar(&runHistory, "history", "", "Previous report (.xlsx) for change detection")
	runCommand.Flags().StringVarP(&runOut, "out", "o", "", "Report file to write (.xlsx)")
	_ = runCommand.MarkFlagRequired("out")

	rootCmd.AddCommand(runCommand)
}

func runScreeningCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	closeLog := setupLogging(cfg)
	defer func() { _ = closeLog() }()

	run, err := screen(cmd.Context(), newApp(cfg), runProducts, runHistory, runOut)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printSummary(out, run)
	fmt.Fprintf(out, "Report written to %s\n", runOut)
	return nil
}

// screen loads the inputs, runs once and writes the report to out.
func screen(ctx context.Context, a *app, productsPath, historyPath, out string) (*entities.RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if productsPath != "" {
		content, err := os.ReadFile(productsPath) // #nosec G304 -- path given by the operator
		if err != nil {
			return nil, fmt.Errorf("read product list: %w", err)
		}
		if _, err := a.runner.UploadProducts(filepath.Base(productsPath), content); err != nil {
			return nil, err
		}
	} else if _, err := a.runner.ScrapeProducts(ctx); err != nil {
		return nil, fmt.Errorf("scrape product list: %w", err)
	}

	if historyPath != "" {
		content, err := os.ReadFile(historyPath) // #nosec G304 -- path given by the operator
		if err != nil {
			return nil, fmt.Errorf("read history: %w", err)
		}
		if _, err := a.runner.LoadHistory(content); err != nil {
			return nil, err
		}
	}

	run, err := a.runner.Run(ctx)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(out) // #nosec G304 -- path given by the operator
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	if err := monitor.WriteReport(f, run); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close report: %w", err)
	}
	logging.Info("Report written", "path", out, "records", len(run.Records))
	return run, nil
}

func printSummary(w io.Writer, run *entities.RunResult) {
	fmt.Fprintf(w, "Run %s: %d products, %d matches, %d new\n", run.ID, run.Products, len(run.Records), run.NewRecords)
	for _, s := range run.Sources {
		status := "ok"
		if s.Failure != "" {
			status = s.Failure + " failure"
		}
		fmt.Fprintf(w, "  %-6s updated %-10s rows %-5d matches %-4d %s\n", s.Origin, s.Updated, s.Rows, s.Matches, status)
	}
	for _, d := range run.Diagnostics {
		fmt.Fprintf(w, "  - %s\n", d)
	}
}
