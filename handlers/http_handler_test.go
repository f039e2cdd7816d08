package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giygas/nitrosamine-monitor/data"
	"github.com/giygas/nitrosamine-monitor/entities"
	"github.com/giygas/nitrosamine-monitor/health"
	"github.com/giygas/nitrosamine-monitor/monitor"
	"github.com/giygas/nitrosamine-monitor/report"
	"github.com/giygas/nitrosamine-monitor/sources"
)

type mockRunner struct {
	store *data.DataContainer

	scrapeErr  error
	uploadErr  error
	historyErr error
	runErr     error

	uploaded  string
	only      []entities.Origin
	refreshed bool
	reset     *bool
}

func (m *mockRunner) ScrapeProducts(ctx context.Context) (sources.ProductList, error) {
	if m.scrapeErr != nil {
		return sources.ProductList{}, m.scrapeErr
	}
	list := sources.ProductList{
		Entries: []entities.ProductEntry{{Name: "VALSARTAN", TrackingID: "N/A"}},
		Origin:  "scrape",
	}
	m.store.SetProducts(list.Entries, list.Origin)
	return list, nil
}

func (m *mockRunner) UploadProducts(filename string, content []byte) (sources.ProductList, error) {
	m.uploaded = filename
	if m.uploadErr != nil {
		return sources.ProductList{}, m.uploadErr
	}
	return sources.ProductList{Entries: []entities.ProductEntry{{Name: string(content)}}, Origin: "upload"}, nil
}

func (m *mockRunner) LoadHistory(content []byte) (int, error) {
	if m.historyErr != nil {
		return 0, m.historyErr
	}
	return 3, nil
}

func (m *mockRunner) Run(ctx context.Context) (*entities.RunResult, error) {
	return m.RunSources(ctx, nil)
}

func (m *mockRunner) RunSources(ctx context.Context, only []entities.Origin) (*entities.RunResult, error) {
	m.only = only
	if m.runErr != nil {
		return nil, m.runErr
	}
	run := &entities.RunResult{ID: "run-1", FinishedAt: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
	m.store.SetLastRun(run)
	return run, nil
}

func (m *mockRunner) RefreshReferences() { m.refreshed = true }

func (m *mockRunner) Reset(clearCaches bool) {
	m.reset = &clearCaches
	m.store.Reset()
}

func newHandler(maxUpload int64) (*HTTPHandlerImpl, *mockRunner, *data.DataContainer) {
	store := data.NewDataContainer()
	store.SetServerStartTime(time.Now())
	runner := &mockRunner{store: store}
	return NewHTTPHandler(store, runner, health.NewHealthChecker(store), maxUpload), runner, store
}

func multipartRequest(t *testing.T, target, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(UploadField, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestScrapeProducts(t *testing.T) {
	h, _, store := newHandler(0)

	rr := httptest.NewRecorder()
	h.ScrapeProducts(rr, httptest.NewRequest(http.MethodPost, "/products/scrape", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[ProductsResponse](t, rr)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "scrape", resp.Origin)
	assert.Len(t, store.State().Products, 1)
}

func TestScrapeProductsSourceFailureIsBadGateway(t *testing.T) {
	h, runner, _ := newHandler(0)
	runner.scrapeErr = &sources.Error{Kind: sources.FormatFailure, Source: "products", Op: "download", Err: errors.New("not a PDF")}

	rr := httptest.NewRecorder()
	h.ScrapeProducts(rr, httptest.NewRequest(http.MethodPost, "/products/scrape", nil))

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	resp := decode[ErrorResponse](t, rr)
	assert.Equal(t, "format", resp.Kind)
	assert.Contains(t, resp.Message, "not a PDF")
}

func TestUploadProducts(t *testing.T) {
	h, runner, _ := newHandler(1 << 20)

	rr := httptest.NewRecorder()
	h.UploadProducts(rr, multipartRequest(t, "/products/upload", "products.csv", []byte("Name\nValsartan\n")))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "products.csv", runner.uploaded)
	assert.Equal(t, 1, decode[ProductsResponse](t, rr).Count)
}

func TestUploadProductsRejections(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		wantCode int
		wantMsg  string
	}{
		{"unsupported extension", "products.pdf", []byte("%PDF-"), http.StatusBadRequest, "unsupported file type"},
		{"shell expansion", "products$(id).csv", []byte("Name\nA\n"), http.StatusBadRequest, "dangerous"},
		{"empty file", "products.csv", nil, http.StatusBadRequest, "empty"},
		{"too large", "products.csv", bytes.Repeat([]byte("x"), 4096), http.StatusRequestEntityTooLarge, "too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, runner, _ := newHandler(1024)

			rr := httptest.NewRecorder()
			h.UploadProducts(rr, multipartRequest(t, "/products/upload", tt.filename, tt.content))

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Contains(t, strings.ToLower(decode[ErrorResponse](t, rr).Message), tt.wantMsg)
			assert.Empty(t, runner.uploaded)
		})
	}
}

func TestUploadProductsWithoutFile(t *testing.T) {
	h, _, _ := newHandler(0)

	rr := httptest.NewRecorder()
	h.UploadProducts(rr, httptest.NewRequest(http.MethodPost, "/products/upload", strings.NewReader("name=x")))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUploadProductsUnreadableIsBadRequest(t *testing.T) {
	h, runner, _ := newHandler(0)
	runner.uploadErr = &sources.Error{Kind: sources.UserInputFailure, Source: "upload", Op: "parse", Err: errors.New("no usable product names")}

	rr := httptest.NewRecorder()
	h.UploadProducts(rr, multipartRequest(t, "/products/upload", "products.xlsx", []byte("PK")))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "user_input", decode[ErrorResponse](t, rr).Kind)
}

func TestUploadHistory(t *testing.T) {
	h, runner, _ := newHandler(0)

	rr := httptest.NewRecorder()
	h.UploadHistory(rr, multipartRequest(t, "/history/upload", "Nitrosamine_Report_20250101.xlsx", []byte("PK")))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.EqualValues(t, 3, decode[map[string]any](t, rr)["records"])

	rr = httptest.NewRecorder()
	h.UploadHistory(rr, multipartRequest(t, "/history/upload", "history.csv", []byte("a,b")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	runner.historyErr = &sources.Error{Kind: sources.UserInputFailure, Source: "history", Op: "read", Err: report.ErrNoImpurityColumn}
	rr = httptest.NewRecorder()
	h.UploadHistory(rr, multipartRequest(t, "/history/upload", "history.xlsx", []byte("PK")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStartRun(t *testing.T) {
	h, runner, _ := newHandler(0)

	rr := httptest.NewRecorder()
	h.StartRun(rr, httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(`{"sources":["EMA"],"refresh":true}`)))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, []entities.Origin{entities.OriginEMA}, runner.only)
	assert.True(t, runner.refreshed)
	assert.Equal(t, "run-1", decode[entities.RunResult](t, rr).ID)
}

func TestStartRunEmptyBodyRunsAllSources(t *testing.T) {
	h, runner, _ := newHandler(0)

	rr := httptest.NewRecorder()
	h.StartRun(rr, httptest.NewRequest(http.MethodPost, "/runs", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, runner.only)
	assert.False(t, runner.refreshed)
}

func TestStartRunRejectsInvalidRequests(t *testing.T) {
	bodies := map[string]string{
		"malformed JSON":  `{"sources":`,
		"unknown field":   `{"source":"EMA"}`,
		"unknown source":  `{"sources":["PMDA"]}`,
		"too many":        `{"sources":["EMA","USFDA","EMA"]}`,
		"duplicate entry": `{"sources":["EMA","EMA"]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			h, runner, _ := newHandler(0)

			rr := httptest.NewRecorder()
			h.StartRun(rr, httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(body)))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Nil(t, runner.only)
		})
	}
}

func TestStartRunErrors(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{monitor.ErrRunInProgress, http.StatusConflict},
		{monitor.ErrNoProducts, http.StatusPreconditionFailed},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		h, runner, _ := newHandler(0)
		runner.runErr = tt.err

		rr := httptest.NewRecorder()
		h.StartRun(rr, httptest.NewRequest(http.MethodPost, "/runs", nil))
		assert.Equal(t, tt.code, rr.Code, tt.err.Error())
	}
}

func TestLatestRunAndReport(t *testing.T) {
	h, _, store := newHandler(0)

	rr := httptest.NewRecorder()
	h.LatestRun(rr, httptest.NewRequest(http.MethodGet, "/runs/latest", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	h.LatestReport(rr, httptest.NewRequest(http.MethodGet, "/runs/latest/report.xlsx", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	store.SetLastRun(&entities.RunResult{
		ID:         "run-7",
		FinishedAt: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
		Records: []entities.MatchRecord{{
			Status:       entities.StatusNew,
			Origin:       entities.OriginFDA,
			Product:      entities.ProductEntry{Name: "DRUGNAME HYDROCHLORIDE", TrackingID: "SPT-001"},
			ImpurityName: "N-NITROSO-DRUGNAME",
			LimitValue:   "26.5",
		}},
	})

	rr = httptest.NewRecorder()
	h.LatestRun(rr, httptest.NewRequest(http.MethodGet, "/runs/latest", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "run-7", decode[entities.RunResult](t, rr).ID)

	rr = httptest.NewRecorder()
	h.LatestReport(rr, httptest.NewRequest(http.MethodGet, "/runs/latest/report.xlsx", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, ReportContentType, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "Nitrosamine_Report_20250314.xlsx")

	records, err := report.ReadHistory(rr.Body)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "26.5", records[0].LimitValue)
}

func TestResetState(t *testing.T) {
	h, runner, store := newHandler(0)
	store.SetProducts([]entities.ProductEntry{{Name: "VALSARTAN"}}, "upload")

	rr := httptest.NewRecorder()
	h.ResetState(rr, httptest.NewRequest(http.MethodDelete, "/state?caches=true", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, runner.reset)
	assert.True(t, *runner.reset)
	assert.Empty(t, store.State().Products)

	rr = httptest.NewRecorder()
	h.ResetState(rr, httptest.NewRequest(http.MethodDelete, "/state?caches=maybe", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	require.True(t, store.BeginRun())
	rr = httptest.NewRecorder()
	h.ResetState(rr, httptest.NewRequest(http.MethodDelete, "/state", nil))
	assert.Equal(t, http.StatusConflict, rr.Code)
	store.EndRun()
}

func TestGetProducts(t *testing.T) {
	h, _, store := newHandler(0)

	rr := httptest.NewRecorder()
	h.GetProducts(rr, httptest.NewRequest(http.MethodGet, "/products", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"products":[]`)

	store.SetProducts([]entities.ProductEntry{{Name: "VALSARTAN", TrackingID: "SPT-002"}}, "upload")
	rr = httptest.NewRecorder()
	h.GetProducts(rr, httptest.NewRequest(http.MethodGet, "/products", nil))
	resp := decode[ProductsResponse](t, rr)
	assert.Equal(t, "upload", resp.Origin)
	assert.Equal(t, "SPT-002", resp.Products[0].TrackingID)
}

func TestHealthCheck(t *testing.T) {
	h, _, _ := newHandler(0)

	rr := httptest.NewRecorder()
	h.HealthCheck(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[map[string]any](t, rr)
	assert.Equal(t, "idle", resp["status"])
	assert.Contains(t, resp, "data")
}
