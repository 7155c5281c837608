// Package extract reads the three value sources of a check — settings XML,
// unit report XML, and the PDI workbook — into the shared record shape, with
// normalization applied once at extraction time.
package extract

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"swcheck/internal/normalize"
	"swcheck/internal/types"
)

// errFound stops an XML walk once the wanted element was consumed.
var errFound = errors.New("found")

// hardwareNode is one product variant inside a settings document. The value
// of a te entry lives either in an explicit value attribute or encoded in the
// long id form PREFIX_<hex>_<version>.
type hardwareNode struct {
	SNR string `xml:"snr,attr"`
	TEs []struct {
		ID    string `xml:"id,attr"`
		Value string `xml:"value,attr"`
	} `xml:"te"`
}

// LoadReference scans the settings folder for the newest document containing
// the variant and returns its expected values. The scan order is newest
// modification time first, name as tie-break, so edits to settings files take
// effect on the next check without any caching. Unparseable files are skipped;
// they only surface as ErrReferenceNotFound when nothing else matches.
func LoadReference(settingsDir, snr string) (*types.ReferenceRecord, error) {
	if snr == "" {
		return nil, fmt.Errorf("%w: empty variant key", ErrReferenceNotFound)
	}

	files, err := settingsFiles(settingsDir)
	if err != nil {
		return nil, err
	}

	for _, path := range files {
		ref, err := LoadReferenceFile(path, snr)
		if err != nil {
			continue // malformed or variant not in this file
		}
		return ref, nil
	}
	return nil, fmt.Errorf("%w: snr %s in %s", ErrReferenceNotFound, snr, settingsDir)
}

// LoadReferenceFile reads the expected values for a variant from one settings
// document. Unrecognized fields in the source are ignored.
func LoadReferenceFile(path, snr string) (*types.ReferenceRecord, error) {
	var node *hardwareNode

	err := walkElements(path, "hardware", func(d *xml.Decoder, start xml.StartElement) error {
		if got, ok := attr(start, "snr"); !ok || got != snr {
			return nil
		}
		var hw hardwareNode
		if err := d.DecodeElement(&hw, &start); err != nil {
			return err
		}
		node = &hw
		return errFound
	})
	if err != nil && !errors.Is(err, errFound) {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrReferenceNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrReferenceMalformed, path, err)
	}
	if node == nil {
		return nil, fmt.Errorf("%w: snr %s in %s", ErrReferenceNotFound, snr, path)
	}

	ref := &types.ReferenceRecord{
		SNR:    snr,
		File:   path,
		Values: make(map[types.ComponentField]types.FieldValue),
	}
	for _, field := range types.Fields() {
		for _, te := range node.TEs {
			if te.ID != string(field) && !strings.HasPrefix(te.ID, string(field)+"_") {
				continue
			}
			raw, hint := te.Value, normalize.FormatAuto
			if raw == "" {
				raw, hint = hexFromLongID(te.ID)
			}
			v, err := normalize.Normalize(raw, hint)
			ref.Values[field] = types.FieldValue{Raw: raw, Value: v, Err: err}
			break // first matching entry wins
		}
	}
	return ref, nil
}

// hexFromLongID pulls the hex token out of the original long id form
// PREFIX_0000XXXX_YYY.YYY.YYY: the last four characters of the middle part.
func hexFromLongID(id string) (string, normalize.Format) {
	parts := strings.Split(id, "_")
	if len(parts) < 2 || parts[1] == "" {
		return "", normalize.FormatAuto
	}
	mid := parts[1]
	if len(mid) > 4 {
		mid = mid[len(mid)-4:]
	}
	return mid, normalize.FormatHex
}

// settingsFiles lists all XML files under dir, newest modification first,
// ties broken by greatest path so the order is reproducible.
func settingsFiles(dir string) ([]string, error) {
	type entry struct {
		path string
		mod  int64
	}
	var entries []entry

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".xml") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		entries = append(entries, entry{path: path, mod: info.ModTime().UnixNano()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning settings folder: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].mod != entries[j].mod {
			return entries[i].mod > entries[j].mod
		}
		return entries[i].path > entries[j].path
	})

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.path
	}
	return paths, nil
}
