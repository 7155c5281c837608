// Package checker runs complete checks end to end: locate the observed
// values, load the matching reference, evaluate, persist, and alert. It is
// the only package that sequences the others.
package checker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"swcheck/internal/audit"
	"swcheck/internal/config"
	"swcheck/internal/extract"
	"swcheck/internal/notify"
	"swcheck/internal/resolve"
	"swcheck/internal/types"
	"swcheck/internal/verdict"
)

// Service wires the extraction, evaluation, audit, and alerting layers
// together. All check entry points funnel through complete, so the
// persist-then-notify ordering holds for every source kind. Each check takes
// one configuration snapshot up front; a concurrent settings update applies
// to the next check, never to one in flight.
type Service struct {
	Config   *config.Store
	Audit    *audit.Log
	Notifier notify.Notifier
	Log      *zap.Logger
}

// Stats summarizes the audit history for the reporting surfaces.
type Stats struct {
	Total      int                          `json:"total"`
	OK         int                          `json:"ok"`
	NOK        int                          `json:"nok"`
	Mismatches map[types.ComponentField]int `json:"mismatches"`
	BySource   map[types.SourceKind]int     `json:"bySource"`
	LastCheck  time.Time                    `json:"lastCheck,omitempty"`
}

// RunManualCheck resolves the newest report for an operator-entered DMC and
// checks it.
func (s *Service) RunManualCheck(ctx context.Context, identifier string) (types.CheckVerdict, error) {
	cfg := s.Config.Snapshot()
	reportPath, err := resolve.Resolve(identifier, cfg.ReportsFolder)
	if err != nil {
		return types.CheckVerdict{}, err
	}
	obs, err := extract.ExtractReport(reportPath)
	if err != nil {
		return types.CheckVerdict{}, err
	}
	return s.complete(ctx, cfg, obs, identifier, types.SourceManual)
}

// RunCheckForReport checks one specific report file. The watcher calls this
// directly with the path it saw appear.
func (s *Service) RunCheckForReport(ctx context.Context, reportPath, identifier string, source types.SourceKind) (types.CheckVerdict, error) {
	obs, err := extract.ExtractReport(reportPath)
	if err != nil {
		return types.CheckVerdict{}, err
	}
	return s.complete(ctx, s.Config.Snapshot(), obs, identifier, source)
}

// RunPDICheck checks the configured pre-installation workbook.
func (s *Service) RunPDICheck(ctx context.Context) (types.CheckVerdict, error) {
	cfg := s.Config.Snapshot()
	obs, err := extract.ExtractPDICells(cfg.ExcelFilePath, extract.DefaultCellMap)
	if err != nil {
		return types.CheckVerdict{}, err
	}
	return s.complete(ctx, cfg, obs, "", types.SourcePDI)
}

// complete loads the reference for the observed variant, evaluates, and
// persists the verdict. The audit row is written before any notification is
// attempted, and notification failures are logged, never returned: by then
// the check itself has succeeded.
func (s *Service) complete(ctx context.Context, cfg config.Config, obs *types.ObservedRecord, identifier string, source types.SourceKind) (types.CheckVerdict, error) {
	ref, err := extract.LoadReference(cfg.SettingsFolder, obs.SNR)
	if err != nil {
		return types.CheckVerdict{}, fmt.Errorf("variant %s: %w", obs.SNR, err)
	}

	v := verdict.Evaluate(ref, obs, types.Fields())
	v.ID = uuid.NewString()
	v.Identifier = identifier
	v.Source = source
	v.Timestamp = time.Now()
	v.ReportFile = obs.File
	v.ReferenceFile = ref.File

	if err := s.Audit.Append(v); err != nil {
		return types.CheckVerdict{}, fmt.Errorf("persisting verdict: %w", err)
	}
	s.Log.Info("check completed",
		zap.String("check_id", v.ID),
		zap.String("snr", v.SNR),
		zap.String("source", string(source)),
		zap.String("overall", string(v.Overall)))

	if notify.ShouldNotify(v) {
		nctx, cancel := context.WithTimeout(ctx, notify.DefaultMailTimeout)
		defer cancel()
		if err := s.Notifier.Notify(nctx, v, cfg.MailRecipients); err != nil {
			s.Log.Warn("alert delivery failed",
				zap.String("check_id", v.ID),
				zap.Error(err))
		}
	}
	return v, nil
}

// History returns audit records within the given range, newest first. Zero
// bounds are open.
func (s *Service) History(from, to time.Time) ([]audit.Record, error) {
	records, err := s.Audit.ReadRange(from, to)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// Stats aggregates the full audit history.
func (s *Service) Stats() (Stats, error) {
	records, err := s.Audit.ReadAll()
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Mismatches: make(map[types.ComponentField]int),
		BySource:   make(map[types.SourceKind]int),
	}
	for _, rec := range records {
		stats.Total++
		if rec.Overall == types.VerdictOK {
			stats.OK++
		} else {
			stats.NOK++
		}
		stats.BySource[rec.Source]++
		for _, fv := range rec.Fields {
			if !fv.Match {
				stats.Mismatches[fv.Field]++
			}
		}
		if rec.Timestamp.After(stats.LastCheck) {
			stats.LastCheck = rec.Timestamp
		}
	}
	return stats, nil
}
