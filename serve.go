package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/giygas/nitrosamine-monitor/config"
	"github.com/giygas/nitrosamine-monitor/logging"
	"github.com/giygas/nitrosamine-monitor/scheduler"
	"github.com/giygas/nitrosamine-monitor/server"
)

var serveCommand = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the HTTP API. The product list is loaded by POST /products/scrape or
POST /products/upload; runs are started with POST /runs or daily at SCHEDULE_AT.`,
	RunE: serveCmd,
}

var serveScrapeOnStart bool

func init() {
	serveCommand.Flags().BoolVar(&serveScrapeOnStart, "scrape", false, "Scrape the product list before accepting requests")
	rootCmd.AddCommand(serveCommand)
}

func serveCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	closeLog := setupLogging(cfg)
	defer func() {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "close log: %v\n", err)
		}
	}()

	a := newApp(cfg)
	a.store.SetServerStartTime(time.Now())

	if serveScrapeOnStart {
		if _, err := a.runner.ScrapeProducts(cmd.Context()); err != nil {
			logging.Warn("Initial product scrape failed, waiting for an upload", "error", err)
		}
	}

	if cfg.ScheduleAt != "" {
		sched := scheduler.NewScheduler(a.store, a.runner, cfg.ScheduleAt)
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
	}

	srv := server.NewServer(cfg, a.store, a.runner, a.health)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logging.Error("Server failed to start", "error", err)
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
