package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/giygas/nitrosamine-monitor/entities"
	"github.com/giygas/nitrosamine-monitor/interfaces"
	"github.com/giygas/nitrosamine-monitor/logging"
	"github.com/giygas/nitrosamine-monitor/monitor"
	"github.com/giygas/nitrosamine-monitor/validation"
)

// UploadField is the multipart form field carrying uploaded files.
const UploadField = "file"

// ReportContentType is the media type of the report workbook.
const ReportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HTTPHandlerImpl serves the monitor endpoints.
type HTTPHandlerImpl struct {
	store     interfaces.StateStore
	runner    interfaces.Runner
	health    interfaces.HealthChecker
	maxUpload int64
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(store interfaces.StateStore, runner interfaces.Runner, health interfaces.HealthChecker, maxUpload int64) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		store:     store,
		runner:    runner,
		health:    health,
		maxUpload: maxUpload,
	}
}

// ProductsResponse describes the loaded product list.
type ProductsResponse struct {
	Origin   string                  `json:"origin"`
	Count    int                     `json:"count"`
	Products []entities.ProductEntry `json:"products"`
	Notes    []string                `json:"notes,omitempty"`
}

// RunRequest is the optional body of POST /runs.
type RunRequest struct {
	Sources []string `json:"sources" validate:"omitempty,max=2,unique,dive,oneof=USFDA EMA"`
	// Refresh refetches the reference sources instead of using the cache.
	Refresh bool `json:"refresh"`
}

// ScrapeProducts loads the product list from the manufacturer site.
func (h *HTTPHandlerImpl) ScrapeProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.runner.ScrapeProducts(r.Context())
	if err != nil {
		respondWithFailure(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, ProductsResponse{
		Origin:   list.Origin,
		Count:    len(list.Entries),
		Products: list.Entries,
		Notes:    list.Notes,
	})
}

// UploadProducts replaces the product list with an uploaded CSV or XLSX file.
func (h *HTTPHandlerImpl) UploadProducts(w http.ResponseWriter, r *http.Request) {
	name, content, ok := h.readUpload(w, r, validation.ProductListExtensions)
	if !ok {
		return
	}

	list, err := h.runner.UploadProducts(name, content)
	if err != nil {
		respondWithFailure(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, ProductsResponse{
		Origin:   list.Origin,
		Count:    len(list.Entries),
		Products: list.Entries,
		Notes:    list.Notes,
	})
}

// GetProducts returns the loaded product list.
func (h *HTTPHandlerImpl) GetProducts(w http.ResponseWriter, r *http.Request) {
	state := h.store.State()
	products := state.Products
	if products == nil {
		products = []entities.ProductEntry{}
	}
	RespondWithJSON(w, http.StatusOK, ProductsResponse{
		Origin:   state.ProductOrigin,
		Count:    len(products),
		Products: products,
	})
}

// UploadHistory installs a previous report for change detection.
func (h *HTTPHandlerImpl) UploadHistory(w http.ResponseWriter, r *http.Request) {
	_, content, ok := h.readUpload(w, r, validation.HistoryExtensions)
	if !ok {
		return
	}

	n, err := h.runner.LoadHistory(content)
	if err != nil {
		respondWithFailure(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]any{"records": n})
}

// StartRun runs the screening synchronously and returns its result.
func (h *HTTPHandlerImpl) StartRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	body, err := io.ReadAll(r.Body)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			logging.Warn("Unusual user input", "error", err)
			RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON body: %v", err))
			return
		}
	}
	if err := validation.Struct(req); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Refresh {
		h.runner.RefreshReferences()
	}

	var only []entities.Origin
	for _, s := range req.Sources {
		only = append(only, entities.Origin(s))
	}

	run, err := h.runner.RunSources(r.Context(), only)
	if err != nil {
		respondWithFailure(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, run)
}

// LatestRun returns the result of the last run.
func (h *HTTPHandlerImpl) LatestRun(w http.ResponseWriter, r *http.Request) {
	run := h.store.State().LastRun
	if run == nil {
		RespondWithError(w, http.StatusNotFound, "No run has completed since the product list was loaded")
		return
	}
	RespondWithJSON(w, http.StatusOK, run)
}

// LatestReport streams the last run as the report workbook.
func (h *HTTPHandlerImpl) LatestReport(w http.ResponseWriter, r *http.Request) {
	run := h.store.State().LastRun
	if run == nil {
		RespondWithError(w, http.StatusNotFound, "No run has completed since the product list was loaded")
		return
	}

	var buf bytes.Buffer
	if err := monitor.WriteReport(&buf, run); err != nil {
		logging.Error("Failed to render report", "run_id", run.ID, "error", err)
		RespondWithError(w, http.StatusInternalServerError, "Failed to render report")
		return
	}

	filename := fmt.Sprintf("Nitrosamine_Report_%s.xlsx", run.FinishedAt.Format("20060102"))
	w.Header().Set("Content-Type", ReportContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logging.Warn("Failed to write report", "run_id", run.ID, "error", err)
	}
}

// ResetState clears products, history and the last run; caches=true also
// clears the fetch caches.
func (h *HTTPHandlerImpl) ResetState(w http.ResponseWriter, r *http.Request) {
	clearCaches := false
	if v := r.URL.Query().Get("caches"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, "caches must be a boolean")
			return
		}
		clearCaches = b
	}
	if h.store.IsRunning() {
		respondWithFailure(w, monitor.ErrRunInProgress)
		return
	}

	h.runner.Reset(clearCaches)
	RespondWithJSON(w, http.StatusOK, map[string]any{"status": "reset", "caches_cleared": clearCaches})
}

// HealthCheck reports service health.
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, code := h.health.HealthCheck()
	RespondWithJSON(w, code, map[string]any{
		"status": status,
		"data":   details,
	})
}

// readUpload reads the multipart file field, enforcing the file name rules
// and the upload size. It writes the error response itself.
func (h *HTTPHandlerImpl) readUpload(w http.ResponseWriter, r *http.Request, allowed []string) (string, []byte, bool) {
	if h.maxUpload > 0 {
		if r.ContentLength > h.maxUpload {
			RespondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload too large. Maximum allowed size is %d bytes", h.maxUpload))
			return "", nil, false
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	file, header, err := r.FormFile(UploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload too large. Maximum allowed size is %d bytes", h.maxUpload))
			return "", nil, false
		}
		RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Expected a multipart file in field %q", UploadField))
		return "", nil, false
	}
	defer file.Close()

	if err := validation.ValidateFilename(header.Filename, allowed); err != nil {
		logging.Warn("Rejected upload", "file", header.Filename, "error", err)
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return "", nil, false
	}
	if err := validation.ValidateUploadSize(header.Size, h.maxUpload); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return "", nil, false
	}

	content, err := io.ReadAll(file)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return "", nil, false
	}
	return header.Filename, content, true
}
