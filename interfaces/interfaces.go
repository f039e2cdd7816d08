// Package interfaces defines the contracts between the screening core, its
// external sources and the HTTP surface.
package interfaces

import (
	"context"
	"time"

	"github.com/giygas/nitrosamine-monitor/entities"
	"github.com/giygas/nitrosamine-monitor/sources"
)

// StateStore holds the application state with atomic snapshot semantics.
type StateStore interface {
	// State returns a snapshot; callers must not mutate its slices.
	State() entities.AppState
	SetProducts(products []entities.ProductEntry, origin string)
	SetHistory(records []entities.MatchRecord)
	SetLastRun(run *entities.RunResult)
	Reset()

	// BeginRun reports whether a run may start; EndRun releases it.
	BeginRun() bool
	EndRun()
	IsRunning() bool

	GetServerStartTime() time.Time
}

// ReferenceSource yields the candidate tables of one regulatory source.
type ReferenceSource interface {
	Origin() entities.Origin
	Fetch(ctx context.Context) (sources.SourceData, error)
}

// ProductSource yields the manufacturer product list.
type ProductSource interface {
	Fetch(ctx context.Context) (sources.ProductList, error)
}

// Runner loads inputs and executes screening runs.
type Runner interface {
	ScrapeProducts(ctx context.Context) (sources.ProductList, error)
	UploadProducts(filename string, content []byte) (sources.ProductList, error)
	LoadHistory(content []byte) (int, error)
	Run(ctx context.Context) (*entities.RunResult, error)
	// RunSources is Run restricted to the given origins; nil means all.
	RunSources(ctx context.Context, only []entities.Origin) (*entities.RunResult, error)
	// RefreshReferences drops cached reference data so the next run refetches.
	RefreshReferences()
	Reset(clearCaches bool)
}

// Scheduler triggers periodic runs.
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker reports service health.
type HealthChecker interface {
	HealthCheck() (status string, details map[string]any, httpStatus int)
}
