package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"swcheck/internal/normalize"
	"swcheck/internal/types"
)

// CellMap fixes which workbook cell carries which component field. It is a
// configuration constant of the system, not user-editable data.
type CellMap map[types.ComponentField]string

// DefaultCellMap and SNRCell mirror the PDI workbook layout: the part number
// in M5 and the hex identifier of each component below it.
var DefaultCellMap = CellMap{
	types.FieldHWEL: "M8",
	types.FieldBTLD: "M14",
	types.FieldSWFL: "M16",
}

const SNRCell = "M5"

// ExtractPDICells reads the fixed cells from the first sheet of the PDI
// workbook. The workbook is opened read-only and never re-saved. An empty or
// unreadable cell is not fatal; the field is simply absent from the record
// and becomes a missing-observed verdict.
func ExtractPDICells(workbookPath string, cells CellMap) (*types.ObservedRecord, error) {
	wb, err := excelize.OpenFile(workbookPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrWorkbookNotFound, workbookPath)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrWorkbookMalformed, workbookPath, err)
	}
	defer wb.Close()

	sheet := wb.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: %s", ErrSheetMissing, workbookPath)
	}

	snr, err := wb.GetCellValue(sheet, SNRCell)
	if err != nil {
		return nil, fmt.Errorf("%w: cell %s: %v", ErrWorkbookMalformed, SNRCell, err)
	}
	snr = strings.TrimSpace(snr)
	if snr == "" {
		return nil, fmt.Errorf("%w: cell %s empty in %s", ErrSNRNotFound, SNRCell, workbookPath)
	}

	obs := &types.ObservedRecord{
		SNR:    snr,
		File:   workbookPath,
		Values: make(map[types.ComponentField]types.FieldValue),
	}
	for _, field := range types.Fields() {
		cell, ok := cells[field]
		if !ok {
			continue
		}
		raw, err := wb.GetCellValue(sheet, cell)
		if err != nil {
			continue // unreadable cell -> missing-observed
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue // empty cell -> missing-observed
		}
		// PDI cells hold the hex identifier part, so digits-only values
		// like "12" still mean 0x12.
		v, nerr := normalize.Normalize(raw, normalize.FormatHex)
		obs.Values[field] = types.FieldValue{Raw: raw, Value: v, Err: nerr}
	}
	return obs, nil
}
