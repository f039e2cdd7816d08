package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giygas/nitrosamine-monitor/config"
	"github.com/giygas/nitrosamine-monitor/entities"
	"github.com/giygas/nitrosamine-monitor/report"
)

const fdaPage = `<html><body>
<p>Content current as of:</p><p>03/14/2025</p>
<table>
  <thead><tr><th>Nitrosamine</th><th>Recommended AI Limit (ng/day)</th><th>Source</th></tr></thead>
  <tbody>
    <tr><td>N-nitroso-drugname</td><td>26.5</td><td>Drugname</td></tr>
    <tr><td>NDMA</td><td>96</td><td>Valsartan</td></tr>
  </tbody>
</table>
</body></html>`

func testApp(t *testing.T) *app {
	t.Helper()
	fda := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(fdaPage))
	}))
	ema := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	t.Cleanup(fda.Close)
	t.Cleanup(ema.Close)

	return newApp(&config.Config{
		FetchTimeout:       15 * time.Second,
		ProductListTTL:     time.Hour,
		ReferenceTTL:       time.Hour,
		FDAURL:             fda.URL,
		EMAURL:             ema.URL,
		ProductPageURL:     ema.URL,
		ProductFallbackURL: ema.URL + "/list.pdf",
	})
}

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestScreenWritesReport(t *testing.T) {
	dir := t.TempDir()
	products := writeFile(t, dir, "products.csv", []byte("SPT No.,Product\nSPT-001,Drugname Hydrochloride\n"))
	out := filepath.Join(dir, "report.xlsx")

	run, err := screen(context.Background(), testApp(t), products, "", out)
	require.NoError(t, err)

	require.Len(t, run.Records, 1)
	assert.Equal(t, "SPT-001", run.Records[0].Product.TrackingID)
	assert.Equal(t, "26.5", run.Records[0].LimitValue)
	assert.Equal(t, "03/14/2025", run.Records[0].UpdatedDate)
	require.Len(t, run.Sources, 2)
	assert.Equal(t, "network", run.Sources[1].Failure)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	records, err := report.ReadHistory(f)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestScreenWithHistoryFlagsNewRecords(t *testing.T) {
	dir := t.TempDir()
	products := writeFile(t, dir, "products.csv", []byte("SPT No.,Product\nSPT-001,Drugname Hydrochloride\nSPT-002,Valsartan\n"))

	var prev bytes.Buffer
	require.NoError(t, report.Write(&prev, report.Report{Records: []entities.MatchRecord{{
		Origin:       entities.OriginFDA,
		Product:      entities.ProductEntry{Name: "Valsartan", TrackingID: "SPT-002"},
		ImpurityName: "NDMA",
	}}}))
	history := writeFile(t, dir, "previous.xlsx", prev.Bytes())

	run, err := screen(context.Background(), testApp(t), products, history, filepath.Join(dir, "report.xlsx"))
	require.NoError(t, err)

	require.Len(t, run.Records, 2)
	assert.Equal(t, 1, run.NewRecords)
	assert.Equal(t, entities.StatusNew, run.Records[0].Status)
	assert.Equal(t, "SPT-001", run.Records[0].Product.TrackingID)
}

func TestScreenRejectsBadInputs(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "report.xlsx")

	_, err := screen(context.Background(), testApp(t), filepath.Join(dir, "missing.csv"), "", out)
	assert.Error(t, err)

	empty := writeFile(t, dir, "empty.csv", []byte("Product\nnan\n"))
	_, err = screen(context.Background(), testApp(t), empty, "", out)
	assert.Error(t, err)

	products := writeFile(t, dir, "products.csv", []byte("Product\nValsartan\n"))
	garbage := writeFile(t, dir, "history.xlsx", []byte("not a workbook"))
	_, err = screen(context.Background(), testApp(t), products, garbage, out)
	assert.Error(t, err)

	// Scraping fails: the product page is down.
	_, err = screen(context.Background(), testApp(t), "", "", out)
	assert.Error(t, err)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &entities.RunResult{
		ID:       "run-1",
		Products: 2,
		Sources: []entities.SourceSummary{
			{Origin: entities.OriginFDA, Updated: "03/14/2025", Rows: 2, Matches: 1},
			{Origin: entities.OriginEMA, Updated: "N/A", Failure: "network"},
		},
		Diagnostics: []string{"[EMA] EMA fetch page: network failure"},
	})

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Run run-1: 2 products, 0 matches, 0 new"))
	assert.Contains(t, out, "network failure")
	assert.Contains(t, out, "[EMA]")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["run"])
	assert.NotNil(t, runCommand.Flags().Lookup("out"))
}
