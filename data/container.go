// Package data holds the application state behind atomic pointers so the
// HTTP surface reads consistent snapshots while runs and uploads replace it.
package data

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/giygas/nitrosamine-monitor/entities"
	"github.com/giygas/nitrosamine-monitor/interfaces"
	"github.com/giygas/nitrosamine-monitor/logging"
)

// Compile-time check to ensure DataContainer implements StateStore
var _ interfaces.StateStore = (*DataContainer)(nil)

// DataContainer stores the current AppState. Writers build a new state and
// swap it in; readers never see a partial update.
type DataContainer struct {
	state           atomic.Pointer[entities.AppState]
	running         atomic.Bool
	serverStartTime atomic.Value // time.Time

	// serializes read-modify-write of state
	mu sync.Mutex
}

// NewDataContainer creates a container with an empty state.
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.state.Store(&entities.AppState{})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

// State returns the current snapshot.
func (dc *DataContainer) State() entities.AppState {
	if s := dc.state.Load(); s != nil {
		return *s
	}
	logging.Warn("Application state is not initialized")
	return entities.AppState{}
}

func (dc *DataContainer) update(fn func(next *entities.AppState)) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	next := dc.State()
	fn(&next)
	dc.state.Store(&next)
}

// SetProducts replaces the product list. The previous run no longer
// describes the list, so it is dropped.
func (dc *DataContainer) SetProducts(products []entities.ProductEntry, origin string) {
	dc.update(func(s *entities.AppState) {
		s.Products = products
		s.ProductOrigin = origin
		s.ProductsAt = time.Now()
		s.LastRun = nil
	})
}

// SetHistory installs the previous report used for change detection.
func (dc *DataContainer) SetHistory(records []entities.MatchRecord) {
	dc.update(func(s *entities.AppState) {
		s.History = records
		s.HistoryLoaded = true
	})
}

// SetLastRun stores the latest run result.
func (dc *DataContainer) SetLastRun(run *entities.RunResult) {
	dc.update(func(s *entities.AppState) {
		s.LastRun = run
	})
}

// Reset discards products, history and the last run.
func (dc *DataContainer) Reset() {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.state.Store(&entities.AppState{})
}

// BeginRun marks the start of a run.
// Returns true if the run can proceed, false if another run is in progress.
func (dc *DataContainer) BeginRun() bool {
	return dc.running.CompareAndSwap(false, true)
}

// EndRun marks the end of a run.
func (dc *DataContainer) EndRun() {
	dc.running.Store(false)
}

// IsRunning returns true while a run is in progress.
func (dc *DataContainer) IsRunning() bool {
	return dc.running.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v, ok := dc.serverStartTime.Load().(time.Time); ok {
		return v
	}
	return time.Time{}
}
