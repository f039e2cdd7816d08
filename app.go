package main

import (
	"github.com/giygas/nitrosamine-monitor/config"
	"github.com/giygas/nitrosamine-monitor/data"
	"github.com/giygas/nitrosamine-monitor/health"
	"github.com/giygas/nitrosamine-monitor/interfaces"
	"github.com/giygas/nitrosamine-monitor/logging"
	"github.com/giygas/nitrosamine-monitor/monitor"
	"github.com/giygas/nitrosamine-monitor/sources"
)

// app holds the wired dependencies shared by the commands.
type app struct {
	cfg    *config.Config
	store  *data.DataContainer
	runner *monitor.Runner
	health *health.HealthCheckerImpl
}

func newApp(cfg *config.Config) *app {
	fetcher := sources.NewFetcher(sources.FetcherOptions{
		Timeout:   cfg.FetchTimeout,
		UserAgent: cfg.UserAgent,
	})
	references := []interfaces.ReferenceSource{
		sources.NewFDA(fetcher, cfg.FDAURL),
		sources.NewEMA(fetcher, cfg.EMAURL),
	}
	products := sources.NewProductScraper(fetcher, cfg.ProductPageURL, cfg.ProductFallbackURL)

	store := data.NewDataContainer()
	runner := monitor.NewRunner(store, products, references, monitor.Options{
		ProductTTL:   cfg.ProductListTTL,
		ReferenceTTL: cfg.ReferenceTTL,
	})

	return &app{
		cfg:    cfg,
		store:  store,
		runner: runner,
		health: health.NewHealthChecker(store),
	}
}

// setupLogging installs the logger from the configuration.
func setupLogging(cfg *config.Config) func() error {
	return logging.InitLogger(logging.Options{
		Dir:            cfg.LogDir,
		Level:          logging.ParseLevel(cfg.LogLevel),
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
}
