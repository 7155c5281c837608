package extract

import "errors"

var (
	// ErrReferenceNotFound reports that no settings document matches the
	// requested product variant.
	ErrReferenceNotFound = errors.New("no settings found for variant")
	// ErrReferenceMalformed reports a settings document that exists but
	// cannot be parsed.
	ErrReferenceMalformed = errors.New("settings document malformed")
	// ErrReportMalformed reports a structurally invalid unit report.
	ErrReportMalformed = errors.New("unit report malformed")
	// ErrSNRNotFound reports a unit report or workbook that carries no part
	// number, so no reference can be looked up for it.
	ErrSNRNotFound = errors.New("part number not found")
	// ErrWorkbookNotFound reports a missing PDI workbook file.
	ErrWorkbookNotFound = errors.New("workbook not found")
	// ErrWorkbookMalformed reports a workbook file that cannot be opened as
	// a spreadsheet.
	ErrWorkbookMalformed = errors.New("workbook malformed")
	// ErrSheetMissing reports a workbook without the expected sheet.
	ErrSheetMissing = errors.New("worksheet missing")
)
