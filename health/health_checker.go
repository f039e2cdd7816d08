// Package health derives the service health from the loaded state and the
// outcome of the last screening run.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/giygas/nitrosamine-monitor/entities"
	"github.com/giygas/nitrosamine-monitor/interfaces"
)

// Thresholds on the age of the last run.
const (
	StaleAfter    = 25 * time.Hour
	UnhealthyAfter = 72 * time.Hour
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	store interfaces.StateStore
	now   func() time.Time
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(store interfaces.StateStore) *HealthCheckerImpl {
	return &HealthCheckerImpl{store: store, now: time.Now}
}

// HealthCheck reports "idle" until a product list is loaded, "unhealthy"
// when every source failed or the last run is very old, "degraded" when a
// source failed or the last run is stale, and "healthy" otherwise.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	state := h.store.State()
	now := h.now()
	isRunning := h.store.IsRunning()

	data = map[string]any{
		"uptime_hours":   hours(now.Sub(h.store.GetServerStartTime())),
		"products":       len(state.Products),
		"product_origin": state.ProductOrigin,
		"history_loaded": state.HistoryLoaded,
		"is_running":     isRunning,
	}

	run := state.LastRun
	var runAge time.Duration
	if run != nil {
		runAge = now.Sub(run.FinishedAt)
		data["last_run"] = run.FinishedAt.Format(time.RFC3339)
		data["last_run_id"] = run.ID
		data["last_run_age_hours"] = hours(runAge)
		data["sources"] = sourceDetails(run.Sources)
	}

	failed := 0
	if run != nil {
		for _, s := range run.Sources {
			if s.Failure != "" {
				failed++
			}
		}
	}

	switch {
	case len(state.Products) == 0:
		status, httpStatus = "idle", http.StatusOK

	case run == nil:
		status, httpStatus = "healthy", http.StatusOK

	case len(run.Sources) > 0 && failed == len(run.Sources):
		status, httpStatus = "unhealthy", http.StatusServiceUnavailable

	case runAge > UnhealthyAfter:
		status, httpStatus = "unhealthy", http.StatusServiceUnavailable

	case failed > 0 || runAge > StaleAfter:
		status, httpStatus = "degraded", http.StatusServiceUnavailable

	default:
		status, httpStatus = "healthy", http.StatusOK
	}

	return status, data, httpStatus
}

func sourceDetails(summaries []entities.SourceSummary) map[string]any {
	out := make(map[string]any, len(summaries))
	for _, s := range summaries {
		detail := map[string]any{
			"rows":    s.Rows,
			"matches": s.Matches,
			"updated": s.Updated,
			"cached":  s.Cached,
		}
		if s.Failure != "" {
			detail["failure"] = s.Failure
		}
		out[string(s.Origin)] = detail
	}
	return out
}

func hours(d time.Duration) float64 {
	return math.Round(d.Hours()*10) / 10
}
