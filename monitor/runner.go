// Package monitor runs the screening pipeline: it loads the product list,
// fetches and normalizes each reference source through a TTL cache, matches
// products against every reference row and flags records absent from the
// previous report.
package monitor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/giygas/nitrosamine-monitor/cache"
	"github.com/giygas/nitrosamine-monitor/entities"
	"github.com/giygas/nitrosamine-monitor/interfaces"
	"github.com/giygas/nitrosamine-monitor/logging"
	"github.com/giygas/nitrosamine-monitor/matcher"
	"github.com/giygas/nitrosamine-monitor/metrics"
	"github.com/giygas/nitrosamine-monitor/normalizer"
	"github.com/giygas/nitrosamine-monitor/report"
	"github.com/giygas/nitrosamine-monitor/sources"
	"github.com/giygas/nitrosamine-monitor/validation"
)

// Compile-time check to ensure Runner implements interfaces.Runner
var _ interfaces.Runner = (*Runner)(nil)

var (
	// ErrRunInProgress is returned when a run is requested during another.
	ErrRunInProgress = errors.New("a screening run is already in progress")
	// ErrNoProducts is returned when no product list has been loaded.
	ErrNoProducts = errors.New("no product list loaded")
)

const productsCacheKey = "products"

// Options configures a Runner.
type Options struct {
	ProductTTL   time.Duration
	ReferenceTTL time.Duration
	// StopWords overrides matcher.StopWords.
	StopWords matcher.StopWordSet
	// Now overrides time.Now, also for the caches.
	Now func() time.Time
}

// Runner executes screening runs against a state store.
type Runner struct {
	store      interfaces.StateStore
	products   interfaces.ProductSource
	references []interfaces.ReferenceSource

	productCache   *cache.Cache[sources.ProductList]
	referenceCache *cache.Cache[sources.SourceData]

	stop matcher.StopWordSet
	now  func() time.Time
}

// NewRunner wires a Runner. References are fetched in the given order.
func NewRunner(store interfaces.StateStore, products interfaces.ProductSource, references []interfaces.ReferenceSource, opts Options) *Runner {
	if opts.ProductTTL <= 0 {
		opts.ProductTTL = time.Hour
	}
	if opts.ReferenceTTL <= 0 {
		opts.ReferenceTTL = 24 * time.Hour
	}
	if opts.StopWords == nil {
		opts.StopWords = matcher.StopWords
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{
		store:          store,
		products:       products,
		references:     references,
		productCache:   cache.New(opts.ProductTTL, cache.WithClock[sources.ProductList](opts.Now)),
		referenceCache: cache.New(opts.ReferenceTTL, cache.WithClock[sources.SourceData](opts.Now)),
		stop:           opts.StopWords,
		now:            opts.Now,
	}
}

// ScrapeProducts loads the product list from the manufacturer site, reusing
// a list scraped within the product TTL. A failed scrape leaves the current
// list untouched.
func (r *Runner) ScrapeProducts(ctx context.Context) (sources.ProductList, error) {
	var failed sources.ProductList
	list, hit, err := r.productCache.GetOrFetch(ctx, productsCacheKey, func(ctx context.Context) (sources.ProductList, error) {
		l, err := r.products.Fetch(ctx)
		if err != nil {
			failed = l
		}
		return l, err
	})
	if err != nil {
		metrics.SourceFetches.WithLabelValues(productsCacheKey, failureKind(err)).Inc()
		logging.Warn("Product list scrape failed", "error", err, "kind", failureKind(err))
		return failed, err
	}

	result := "ok"
	if hit {
		result = "cached"
	}
	metrics.SourceFetches.WithLabelValues(productsCacheKey, result).Inc()
	r.setProducts(list)
	logging.Info("Product list loaded", "origin", list.Origin, "products", len(list.Entries), "cached", hit)
	return list, nil
}

// UploadProducts replaces the product list with an uploaded file.
func (r *Runner) UploadProducts(filename string, content []byte) (sources.ProductList, error) {
	list, err := sources.ReadUpload(filename, content)
	if err != nil {
		logging.Warn("Product list upload rejected", "file", filename, "error", err)
		return list, err
	}
	r.setProducts(list)
	logging.Info("Product list uploaded", "file", filename, "products", len(list.Entries))
	return list, nil
}

func (r *Runner) setProducts(list sources.ProductList) {
	r.store.SetProducts(list.Entries, list.Origin)
	metrics.Products.Set(float64(len(list.Entries)))
}

// LoadHistory installs a previously exported report for change detection
// and returns how many records it holds.
func (r *Runner) LoadHistory(content []byte) (int, error) {
	records, err := report.ReadHistory(bytes.NewReader(content))
	if err != nil {
		return 0, &sources.Error{Kind: sources.UserInputFailure, Source: "history", Op: "read", Err: err}
	}
	r.store.SetHistory(records)
	logging.Info("History loaded", "records", len(records))
	return len(records), nil
}

// RefreshReferences drops the cached reference sources.
func (r *Runner) RefreshReferences() {
	r.referenceCache.Invalidate("")
	logging.Info("Reference cache cleared")
}

// Reset clears the application state and, when asked, the fetch caches.
func (r *Runner) Reset(clearCaches bool) {
	r.store.Reset()
	metrics.Products.Set(0)
	if clearCaches {
		r.productCache.Invalidate("")
		r.referenceCache.Invalidate("")
	}
	logging.Info("State reset", "caches_cleared", clearCaches)
}

// Run screens the loaded product list against every reference source.
// Source failures never abort the run; they leave that source empty and add
// a diagnostic.
func (r *Runner) Run(ctx context.Context) (*entities.RunResult, error) {
	return r.RunSources(ctx, nil)
}

// RunSources is Run restricted to the given origins; nil means all.
func (r *Runner) RunSources(ctx context.Context, only []entities.Origin) (*entities.RunResult, error) {
	if !r.store.BeginRun() {
		metrics.RunsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrRunInProgress
	}
	defer r.store.EndRun()

	state := r.store.State()
	if len(state.Products) == 0 {
		metrics.RunsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrNoProducts
	}

	run := &entities.RunResult{
		ID:            uuid.NewString(),
		StartedAt:     r.now(),
		Products:      len(state.Products),
		HistoryLoaded: state.HistoryLoaded,
	}
	logging.Info("Screening run started", "run_id", run.ID, "products", run.Products)

	prepared := matcher.PrepareProducts(state.Products, r.stop)
	var records []entities.MatchRecord
	for _, ref := range r.references {
		if !selected(ref.Origin(), only) {
			continue
		}
		matched := r.screen(ctx, run, ref, prepared)
		records = append(records, matched...)
	}

	records = matcher.Dedupe(records)
	if state.HistoryLoaded {
		records = matcher.Annotate(records, state.History)
	} else {
		matcher.SortRecords(records)
	}
	for _, rec := range records {
		if rec.Status == entities.StatusNew {
			run.NewRecords++
		}
	}

	run.Records = records
	run.FinishedAt = r.now()
	r.store.SetLastRun(run)

	outcome := "ok"
	if run.Failed() {
		outcome = "degraded"
	}
	metrics.RunsTotal.WithLabelValues(outcome).Inc()
	metrics.RunDuration.Observe(run.FinishedAt.Sub(run.StartedAt).Seconds())
	metrics.MatchRecords.WithLabelValues("all").Set(float64(len(records)))
	metrics.MatchRecords.WithLabelValues("new").Set(float64(run.NewRecords))

	logging.Info("Screening run finished",
		"run_id", run.ID,
		"records", len(records),
		"new", run.NewRecords,
		"outcome", outcome,
		"duration", run.FinishedAt.Sub(run.StartedAt).String(),
	)
	return run, nil
}

// screen fetches, normalizes and matches one reference source.
func (r *Runner) screen(ctx context.Context, run *entities.RunResult, ref interfaces.ReferenceSource, products []matcher.Product) []entities.MatchRecord {
	origin := ref.Origin()
	res, hit := r.fetchReference(ctx, ref)
	data := res.Value

	summary := entities.SourceSummary{
		Origin:  origin,
		URL:     data.URL,
		Updated: data.Updated,
		Cached:  hit,
		Tables:  len(data.Tables),
	}
	if summary.Updated == "" {
		summary.Updated = sources.NoDate
	}
	r.diagnose(run, origin, data.Notes...)

	if res.Failed() {
		summary.Failure = failureKind(res.Err)
		r.fail(run, origin, res.Err)
		run.Sources = append(run.Sources, summary)
		metrics.SourceRows.WithLabelValues(string(origin)).Set(0)
		return nil
	}

	norm := normalizer.Normalize(data.Tables, normalizer.ProfileFor(origin))
	r.diagnose(run, origin, norm.Notes...)
	summary.Accepted = norm.Accepted
	summary.Rows = norm.Table.Len()
	r.setRaw(run, origin, norm.Raw)
	metrics.SourceRows.WithLabelValues(string(origin)).Set(float64(summary.Rows))

	if norm.Accepted == 0 {
		err := &sources.Error{Kind: sources.ParseFailure, Source: string(origin), Op: "normalize", Err: fmt.Errorf("no nitrosamine table among %d candidates", len(data.Tables))}
		summary.Failure = string(sources.ParseFailure)
		r.fail(run, origin, err)
		run.Sources = append(run.Sources, summary)
		return nil
	}

	validation.ReportTableQuality(origin, norm.Table)
	matched := matcher.Join(origin, products, norm.Table, summary.Updated)
	summary.Matches = len(matched)
	run.Sources = append(run.Sources, summary)
	r.diagnose(run, origin, fmt.Sprintf("%d reference rows, %d matches", summary.Rows, summary.Matches))
	return matched
}

func (r *Runner) fetchReference(ctx context.Context, ref interfaces.ReferenceSource) (sources.Result[sources.SourceData], bool) {
	origin := ref.Origin()
	var failed sources.SourceData
	data, hit, err := r.referenceCache.GetOrFetch(ctx, string(origin), func(ctx context.Context) (sources.SourceData, error) {
		d, err := ref.Fetch(ctx)
		if err != nil {
			failed = d
			failed.Tables = nil
		}
		return d, err
	})
	if err != nil {
		metrics.SourceFetches.WithLabelValues(string(origin), failureKind(err)).Inc()
		return sources.Result[sources.SourceData]{Value: failed, Err: err}, false
	}

	result := "ok"
	if hit {
		result = "cached"
	}
	metrics.SourceFetches.WithLabelValues(string(origin), result).Inc()
	return sources.Ok(data), hit
}

func (r *Runner) setRaw(run *entities.RunResult, origin entities.Origin, raw entities.RawTable) {
	switch origin {
	case entities.OriginFDA:
		run.FDARaw = raw
	case entities.OriginEMA:
		run.EMARaw = raw
	}
}

func (r *Runner) diagnose(run *entities.RunResult, origin entities.Origin, notes ...string) {
	for _, n := range notes {
		run.Diagnostics = append(run.Diagnostics, fmt.Sprintf("[%s] %s", origin, n))
		logging.Debug(n, "run_id", run.ID, "source", origin)
	}
}

func (r *Runner) fail(run *entities.RunResult, origin entities.Origin, err error) {
	run.Diagnostics = append(run.Diagnostics, fmt.Sprintf("[%s] %s", origin, err))
	logging.Warn("Reference source failed", "run_id", run.ID, "source", origin, "kind", failureKind(err), "error", err)
}

func selected(o entities.Origin, only []entities.Origin) bool {
	if len(only) == 0 {
		return true
	}
	for _, s := range only {
		if s == o {
			return true
		}
	}
	return false
}

// WriteReport renders a run as the report workbook.
func WriteReport(w io.Writer, run *entities.RunResult) error {
	return report.Write(w, report.Report{Records: run.Records, FDARaw: run.FDARaw, EMARaw: run.EMARaw})
}

// failureKind labels err by its source kind; unclassified errors such as a
// cancelled context count as network failures.
func failureKind(err error) string {
	if k := sources.KindOf(err); k != "" {
		return string(k)
	}
	return string(sources.NetworkFailure)
}
