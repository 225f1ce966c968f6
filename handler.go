package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/go-chi/chi/v5"

	"marketbrief/observability"
	"marketbrief/report"
	"marketbrief/services"
)

// APIHandler handles HTTP requests for the report site and its API
type APIHandler struct {
	app     *App
	archive *report.Archive
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(app *App, archive *report.Archive) *APIHandler {
	return &APIHandler{app: app, archive: archive}
}

var (
	datedReportPattern = regexp.MustCompile(`^report_\d{8}\.html$`)
	chartPattern       = regexp.MustCompile(`^\d{8}_[A-Za-z0-9.\-]+_(daily|extended|intraday)\.html$`)
)

// handleIndex serves the current report, or a short notice before the first
// run has completed.
func (h *APIHandler) handleIndex(w http.ResponseWriter, r *http.Request) {
	path := h.archive.CurrentPath()
	if _, err := os.Stat(path); err != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html><body><p>尚未產生報告，請稍後再試。</p></body></html>"))
		return
	}
	http.ServeFile(w, r, path)
}

// handleDatedReport serves an archived snapshot by file name
func (h *APIHandler) handleDatedReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !datedReportPattern.MatchString(name) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.archive.Dir(), name))
}

// handleChart serves a chart artifact by file name
func (h *APIHandler) handleChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !chartPattern.MatchString(name) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.archive.ChartsDir(), name))
}

// handleHealth returns service health, the last run outcome, and the state
// of the external-service circuit breakers.
func (h *APIHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	lastRun, lastStatus := h.app.LastRun()

	status := map[string]interface{}{
		"status":   "ok",
		"breakers": services.GetGlobalRegistry().Status(),
	}
	if lastRun.IsZero() {
		status["last_run"] = nil
	} else {
		status["last_run"] = lastRun
		status["last_run_status"] = lastStatus
		if lastStatus != "ok" {
			status["status"] = "degraded"
		}
	}

	h.jsonResponse(w, status)
}

// handleRun triggers a report run in the background. The run outlives the
// request, so it gets a fresh context rather than the request's.
func (h *APIHandler) handleRun(w http.ResponseWriter, r *http.Request) {
	go func() {
		if err := h.app.RunReport(context.Background()); err != nil {
			observability.Error("Triggered report run failed", "error", err)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "accepted"}); err != nil {
		observability.Error("Failed to encode JSON response", "error", err)
	}
}

func (h *APIHandler) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		observability.Error("Failed to encode JSON response", "error", err)
	}
}
