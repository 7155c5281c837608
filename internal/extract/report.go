package extract

import (
	"encoding/xml"
	"fmt"
	"os"
	"regexp"
	"strings"

	"swcheck/internal/normalize"
	"swcheck/internal/types"
)

// byteRun finds grouped hex byte values like "00 1A 2B" inside step text;
// such runs are always hexadecimal even when no letter appears in them.
var byteRun = regexp.MustCompile(`\b[0-9A-Fa-f]{2}(?:\s+[0-9A-Fa-f]{2})+\b`)

type infoNode struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
}

type teststepNode struct {
	Name string `xml:"name,attr"`
	Text string `xml:",chardata"`
}

// ExtractReport parses a unit's XML report into an ObservedRecord. The part
// number comes from the info element named "PartNumber"; field values come
// from teststep elements whose name attribute (or leading text token) names a
// component field. A missing field is not an error here — it becomes a
// missing-observed verdict downstream. A structurally invalid document aborts
// with ErrReportMalformed.
func ExtractReport(path string) (*types.ObservedRecord, error) {
	var (
		snr   string
		steps []teststepNode
	)

	err := walkElements(path, "info", func(d *xml.Decoder, start xml.StartElement) error {
		var info infoNode
		if err := d.DecodeElement(&info, &start); err != nil {
			return err
		}
		if snr == "" && strings.Contains(info.Name, "PartNumber") {
			snr = strings.TrimSpace(info.Description)
		}
		return nil
	})
	if err != nil {
		return nil, reportErr(path, err)
	}

	err = walkElements(path, "teststep", func(d *xml.Decoder, start xml.StartElement) error {
		var step teststepNode
		if err := d.DecodeElement(&step, &start); err != nil {
			return err
		}
		steps = append(steps, step)
		return nil
	})
	if err != nil {
		return nil, reportErr(path, err)
	}

	if snr == "" {
		return nil, fmt.Errorf("%w: no PartNumber info in %s", ErrSNRNotFound, path)
	}

	obs := &types.ObservedRecord{
		SNR:    snr,
		File:   path,
		Values: make(map[types.ComponentField]types.FieldValue),
	}
	for _, field := range types.Fields() {
		for _, step := range steps {
			raw, ok := stepValue(step, field)
			if !ok {
				continue
			}
			hint := normalize.FormatAuto
			if run := byteRun.FindString(raw); run != "" {
				raw, hint = run, normalize.FormatHex
			}
			v, err := normalize.Normalize(raw, hint)
			obs.Values[field] = types.FieldValue{Raw: raw, Value: v, Err: err}
			break
		}
	}
	return obs, nil
}

// stepValue extracts the raw value a teststep holds for a field: either the
// step is named after the field, or its text starts with the field token
// (the original report layout embeds "HWEL 00 1A ..." in free text).
func stepValue(step teststepNode, field types.ComponentField) (string, bool) {
	text := strings.TrimSpace(step.Text)
	name := string(field)

	if step.Name == name || strings.HasPrefix(step.Name, name+"_") {
		return strings.TrimSpace(strings.TrimPrefix(text, name)), true
	}

	idx := strings.Index(text, name)
	if idx < 0 {
		return "", false
	}
	rest := strings.TrimSpace(text[idx+len(name):])
	rest = strings.TrimLeft(rest, ":=")
	// Cut at the next field token so one free-text step can carry several.
	for _, other := range types.Fields() {
		if other == field {
			continue
		}
		if j := strings.Index(rest, string(other)); j >= 0 {
			rest = strings.TrimSpace(rest[:j])
		}
	}
	return strings.TrimSpace(rest), true
}

func reportErr(path string, err error) error {
	if os.IsNotExist(err) {
		return fmt.Errorf("report %s: %w", path, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrReportMalformed, path, err)
}
