// Package server exposes the checking pipeline over a local JSON API so the
// operator UI can trigger checks and browse history without shelling out.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"swcheck/internal/audit"
	"swcheck/internal/checker"
	"swcheck/internal/config"
	"swcheck/internal/extract"
	"swcheck/internal/resolve"
	"swcheck/internal/types"
	"swcheck/internal/watch"
)

// Error codes returned in the "error" field. The UI keys its translated
// messages on these, so they are part of the API contract.
const (
	errReportNotFound   = "report_not_found"
	errSettingsNotFound = "settings_not_found"
	errInvalidReport    = "invalid_report_xml"
	errInvalidWorkbook  = "invalid_workbook"
	errPathsNotSet      = "paths_not_set"
	errBadRequest       = "bad_request"
	errInternal         = "internal_error"
)

// Checks is the slice of the checking service the API needs. Satisfied by
// checker.Service.
type Checks interface {
	RunManualCheck(ctx context.Context, identifier string) (types.CheckVerdict, error)
	RunPDICheck(ctx context.Context) (types.CheckVerdict, error)
	History(from, to time.Time) ([]audit.Record, error)
	Stats() (checker.Stats, error)
}

// WatcherStatus reports the state of the report watcher for /api/status.
type WatcherStatus interface {
	IsWatching() bool
	GetStats() watch.Stats
}

// Server handles the JSON API. The configuration lives in a config.Store
// shared with the checking service, so the settings endpoint can replace it
// while checks are in flight.
type Server struct {
	store     *config.Store
	checks    Checks
	watcher   WatcherStatus // optional
	auditPath string
	log       *zap.Logger
}

// New builds a server. watcher may be nil when serving without auto-checks.
func New(store *config.Store, checks Checks, watcher WatcherStatus, auditPath string, log *zap.Logger) *Server {
	return &Server{
		store:     store,
		checks:    checks,
		watcher:   watcher,
		auditPath: auditPath,
		log:       log,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/run-check", s.handleRunCheck)
	mux.HandleFunc("POST /api/pdi-check", s.handlePDICheck)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("POST /api/config", s.handleSetConfig)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	return mux
}

func (s *Server) handleRunCheck(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DMC string `json:"dmc"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.DMC) == "" {
		s.writeError(w, http.StatusBadRequest, errBadRequest, "dmc is required")
		return
	}

	if code, msg := s.readiness(false); code != "" {
		s.writeError(w, http.StatusConflict, code, msg)
		return
	}

	v, err := s.checks.RunManualCheck(r.Context(), strings.TrimSpace(req.DMC))
	if err != nil {
		s.writeCheckError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "verdict": v})
}

func (s *Server) handlePDICheck(w http.ResponseWriter, r *http.Request) {
	if code, msg := s.readiness(true); code != "" {
		s.writeError(w, http.StatusConflict, code, msg)
		return
	}

	v, err := s.checks.RunPDICheck(r.Context())
	if err != nil {
		s.writeCheckError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "verdict": v})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	from, err := parseTime(r.URL.Query().Get("from"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errBadRequest, "invalid from date")
		return
	}
	to, err := parseTime(r.URL.Query().Get("to"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errBadRequest, "invalid to date")
		return
	}

	records, err := s.checks.History(from, to)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, errInternal, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(records),
		"records": historyRows(records),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.checks.Stats()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, errInternal, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "stats": stats})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "config": s.store.Snapshot()})
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var incoming config.Config
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		s.writeError(w, http.StatusBadRequest, errBadRequest, "invalid config payload")
		return
	}

	if err := s.store.Replace(incoming); err != nil {
		s.writeError(w, http.StatusInternalServerError, errInternal, err.Error())
		return
	}

	s.log.Info("configuration updated", zap.String("path", s.store.Path()))
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "config": s.store.Snapshot()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cfg := s.store.Snapshot()
	missing := cfg.Missing()

	resp := map[string]any{
		"success":   true,
		"ready":     len(missing) == 0,
		"missing":   missing,
		"auditFile": s.auditPath,
	}
	if s.watcher != nil {
		stats := s.watcher.GetStats()
		resp["watcher"] = map[string]any{
			"running":         s.watcher.IsWatching(),
			"reportsSeen":     stats.ReportsSeen,
			"checksTriggered": stats.ChecksTriggered,
			"errors":          stats.Errors,
			"lastReport":      stats.LastReport,
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// readiness reports the error code and message when required paths are not
// configured yet. Manual checks need the settings and reports folders; PDI
// checks need the settings folder and the workbook.
func (s *Server) readiness(pdi bool) (code, msg string) {
	cfg := s.store.Snapshot()

	for _, m := range cfg.Missing() {
		switch {
		case m == "Excel File" && !pdi:
			continue
		case m == "Reports Folder" && pdi:
			continue
		}
		return errPathsNotSet, m + " is not configured"
	}
	return "", ""
}

func (s *Server) writeCheckError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, resolve.ErrIdentifierNotFound),
		errors.Is(err, resolve.ErrReportNotFound):
		s.writeError(w, http.StatusNotFound, errReportNotFound, err.Error())
	case errors.Is(err, extract.ErrReferenceNotFound):
		s.writeError(w, http.StatusNotFound, errSettingsNotFound, err.Error())
	case errors.Is(err, extract.ErrReportMalformed),
		errors.Is(err, extract.ErrSNRNotFound):
		s.writeError(w, http.StatusUnprocessableEntity, errInvalidReport, err.Error())
	case errors.Is(err, extract.ErrWorkbookNotFound),
		errors.Is(err, extract.ErrWorkbookMalformed),
		errors.Is(err, extract.ErrSheetMissing):
		s.writeError(w, http.StatusUnprocessableEntity, errInvalidWorkbook, err.Error())
	default:
		s.log.Error("check failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, errInternal, err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, msg string) {
	s.writeJSON(w, status, map[string]any{
		"success": false,
		"error":   code,
		"message": msg,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("writing response", zap.Error(err))
	}
}

// historyRow is the JSON shape of one audit record.
type historyRow struct {
	Timestamp     string               `json:"timestamp"`
	CheckID       string               `json:"checkId"`
	Source        types.SourceKind     `json:"source"`
	DMC           string               `json:"dmc,omitempty"`
	SNR           string               `json:"snr"`
	Overall       types.Verdict        `json:"overall"`
	Fields        []types.FieldVerdict `json:"fields"`
	ReportFile    string               `json:"reportFile,omitempty"`
	ReferenceFile string               `json:"referenceFile,omitempty"`
}

func historyRows(records []audit.Record) []historyRow {
	rows := make([]historyRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, historyRow{
			Timestamp:     rec.Timestamp.Format("2006-01-02 15:04:05"),
			CheckID:       rec.CheckID,
			Source:        rec.Source,
			DMC:           rec.Identifier,
			SNR:           rec.SNR,
			Overall:       rec.Overall,
			Fields:        rec.Fields,
			ReportFile:    rec.ReportFile,
			ReferenceFile: rec.ReferenceFile,
		})
	}
	return rows
}

// parseTime accepts a date or a date-time; empty means an open bound.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognized time format")
}
