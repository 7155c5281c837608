// Package audit persists every completed check as one row of an append-only
// CSV file. The file is the system's durable record: rows are never mutated
// or deleted, writers are fully serialized, and readers always see a
// consistent prefix even while appends are in flight.
package audit

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"swcheck/internal/types"
)

const timeLayout = "2006-01-02 15:04:05"

// header defines the column order of the audit file. Consumers key on these
// names, so the order is part of the persisted contract.
var header = []string{
	"timestamp", "check_id", "source", "dmc", "snr", "overall",
	"hwel_observed", "hwel_expected", "hwel_result",
	"btld_observed", "btld_expected", "btld_result",
	"swfl_observed", "swfl_expected", "swfl_result",
	"report_file", "settings_file",
}

// Record is one parsed audit row: a flattened CheckVerdict plus provenance.
type Record struct {
	Timestamp     time.Time
	CheckID       string
	Source        types.SourceKind
	Identifier    string
	SNR           string
	Overall       types.Verdict
	Fields        []types.FieldVerdict
	ReportFile    string
	ReferenceFile string
}

// Log owns the audit file. The mutex serializes writers within the process;
// the file lock serializes against other processes sharing the same CSV.
// Acquisition is released on every exit path, including failed appends.
type Log struct {
	mu   sync.Mutex
	path string
	flk  *flock.Flock
}

// New opens an audit log at path. A directory path gets the default file name
// appended, matching how the tool has always been configured.
func New(path string) (*Log, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, "results.csv")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating audit log directory: %w", err)
	}
	return &Log{
		path: path,
		flk:  flock.New(path + ".lock"),
	}, nil
}

// Path returns the audit file location.
func (l *Log) Path() string { return l.path }

// Append durably writes one verdict as a single row. The header is written
// when the file is empty. The row is encoded first and written with one
// O_APPEND write, so concurrent appends never interleave and a crash can only
// cost the row being written, never the integrity of earlier rows.
func (l *Log) Append(v types.CheckVerdict) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Blocks until acquired; contention is never surfaced to the caller.
	if err := l.flk.Lock(); err != nil {
		return fmt.Errorf("locking audit log: %w", err)
	}
	defer l.flk.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat audit log: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	if err := w.Write(row(v)); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("appending audit row: %w", err)
	}
	return f.Sync()
}

// ReadAll returns every fully-written record in insertion order. A trailing
// partially-written row (crash mid-append) is ignored rather than failing
// the whole read.
func (l *Log) ReadAll() ([]Record, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var records []Record
	first := true
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Torn or corrupt row: everything before it is still a
			// consistent prefix.
			break
		}
		if first {
			first = false
			if len(row) > 0 && row[0] == header[0] {
				continue
			}
		}
		rec, ok := parseRow(row)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadRange returns the records whose timestamp falls within [from, to].
// Zero bounds are open.
func (l *Log) ReadRange(from, to time.Time) ([]Record, error) {
	all, err := l.ReadAll()
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, rec := range all {
		if !from.IsZero() && rec.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && rec.Timestamp.After(to) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func row(v types.CheckVerdict) []string {
	byField := make(map[types.ComponentField]types.FieldVerdict, len(v.Fields))
	for _, fv := range v.Fields {
		byField[fv.Field] = fv
	}

	out := []string{
		v.Timestamp.Format(timeLayout),
		v.ID,
		string(v.Source),
		v.Identifier,
		v.SNR,
		string(v.Overall),
	}
	for _, field := range types.Fields() {
		fv := byField[field]
		out = append(out, fv.Observed, fv.Expected, string(fv.Reason))
	}
	return append(out, v.ReportFile, v.ReferenceFile)
}

func parseRow(row []string) (Record, bool) {
	if len(row) != len(header) {
		return Record{}, false
	}
	ts, err := time.ParseInLocation(timeLayout, row[0], time.Local)
	if err != nil {
		return Record{}, false
	}

	rec := Record{
		Timestamp:     ts,
		CheckID:       row[1],
		Source:        types.SourceKind(row[2]),
		Identifier:    row[3],
		SNR:           row[4],
		Overall:       types.Verdict(row[5]),
		ReportFile:    row[15],
		ReferenceFile: row[16],
	}
	for i, field := range types.Fields() {
		base := 6 + i*3
		reason := types.MatchReason(row[base+2])
		rec.Fields = append(rec.Fields, types.FieldVerdict{
			Field:    field,
			Observed: row[base],
			Expected: row[base+1],
			Match:    reason == types.ReasonMatch,
			Reason:   reason,
		})
	}
	return rec, true
}
