// Package types defines the shared data model for software checks:
// component fields, extracted records, and verdicts.
package types

import (
	"time"

	"swcheck/internal/normalize"
)

// ComponentField identifies one of the fixed software/hardware identifiers
// validated on every unit.
type ComponentField string

const (
	FieldHWEL ComponentField = "HWEL" // hardware element
	FieldBTLD ComponentField = "BTLD" // bootloader
	FieldSWFL ComponentField = "SWFL" // software fill
)

// Fields returns the component fields in their conventional domain order.
// Verdicts and audit rows always follow this order, not an alphabetical one.
func Fields() []ComponentField {
	return []ComponentField{FieldHWEL, FieldBTLD, FieldSWFL}
}

// SourceKind says where the observed values of a check came from.
type SourceKind string

const (
	SourceManual SourceKind = "manual" // operator-entered DMC, report-sourced
	SourcePDI    SourceKind = "pdi"    // pre-installation workbook
	SourceAuto   SourceKind = "auto"   // watcher-detected report file
)

// Verdict is the overall outcome of a completed check.
type Verdict string

const (
	VerdictOK  Verdict = "OK"
	VerdictNOK Verdict = "NOK"
)

// MatchReason explains a single FieldVerdict. Only ReasonMatch counts as a
// pass; every other reason makes the overall verdict NOK.
type MatchReason string

const (
	ReasonMatch           MatchReason = "match"
	ReasonMismatch        MatchReason = "mismatch"
	ReasonMissingExpected MatchReason = "missing-expected"
	ReasonMissingObserved MatchReason = "missing-observed"
	ReasonUnparseable     MatchReason = "unparseable"
)

// FieldValue is one extracted value: the raw source text plus its normalized
// form. Err is set when the raw text held no recognizable integer; such a
// value still flows into the verdict engine, where it becomes unparseable.
type FieldValue struct {
	Raw   string
	Value normalize.Value
	Err   error
}

// Display returns the canonical rendering for verdict rows and audit columns:
// the hex form when the value parsed, the raw text otherwise.
func (fv FieldValue) Display() string {
	if fv.Err != nil {
		return fv.Raw
	}
	return fv.Value.Hex
}

// ReferenceRecord holds the expected values for one product variant, loaded
// fresh from the settings source on every check.
type ReferenceRecord struct {
	SNR    string
	File   string
	Values map[ComponentField]FieldValue
}

// ObservedRecord holds the values extracted from a unit report or workbook.
// It lives for a single check and is discarded after the verdict is logged.
type ObservedRecord struct {
	SNR    string
	File   string
	Values map[ComponentField]FieldValue
}

// FieldVerdict is the immutable comparison result for one component field.
type FieldVerdict struct {
	Field    ComponentField `json:"field"`
	Expected string         `json:"expected"`
	Observed string         `json:"observed"`
	Match    bool           `json:"match"`
	Reason   MatchReason    `json:"reason"`
}

// CheckVerdict is the immutable result of one completed check. It is
// persisted exactly once to the audit log, before any notification attempt.
type CheckVerdict struct {
	ID            string         `json:"id"`
	Identifier    string         `json:"identifier,omitempty"` // DMC, empty for PDI checks
	SNR           string         `json:"snr"`
	Source        SourceKind     `json:"source"`
	Timestamp     time.Time      `json:"timestamp"`
	Fields        []FieldVerdict `json:"fields"`
	Overall       Verdict        `json:"overall"`
	ReportFile    string         `json:"reportFile,omitempty"` // unit report or workbook path
	ReferenceFile string         `json:"referenceFile,omitempty"`
}
