// Package resolve maps a unit identifier (DMC) to the authoritative report
// file under the reports root. A unit may have been reprocessed, so several
// candidate folders can exist; only the latest attempt counts.
package resolve

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	// ErrIdentifierNotFound reports that no folder under the reports root
	// matches the identifier.
	ErrIdentifierNotFound = errors.New("identifier not found under reports root")
	// ErrReportNotFound reports that a matching folder exists but holds no
	// report document.
	ErrReportNotFound = errors.New("no report file in identifier folder")
)

// Candidate is one folder considered during resolution, reduced to the
// metadata the pick policy needs.
type Candidate struct {
	Name    string
	ModTime time.Time
}

// PickNewest selects the authoritative candidate: latest modification time,
// ties broken by lexicographically greatest name. The tie-break is a fixed
// policy so resolution is deterministic regardless of enumeration order.
func PickNewest(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		switch {
		case c.ModTime.After(best.ModTime):
			best = c
		case c.ModTime.Equal(best.ModTime) && c.Name > best.Name:
			best = c
		}
	}
	return best, true
}

// Report folders nest a timestamp-named attempt folder inside the identifier
// folder; these are the accepted name shapes.
var timestampPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[-_]\d{2}[-_]\d{2}[-_]\d{2}$`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	regexp.MustCompile(`^\d{14}$`),
}

func isTimestampFolder(name string) bool {
	if name == "" || name[0] < '0' || name[0] > '9' {
		return false
	}
	for _, p := range timestampPatterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

// Resolve finds the report file for an identifier: the newest folder whose
// name starts with the identifier, then its greatest timestamp subfolder,
// then the first XML file inside (walked in lexical order, so repeated calls
// agree).
func Resolve(identifier, reportsRoot string) (string, error) {
	entries, err := os.ReadDir(reportsRoot)
	if err != nil {
		return "", fmt.Errorf("reading reports root: %w", err)
	}

	var candidates []Candidate
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), identifier) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, Candidate{Name: e.Name(), ModTime: info.ModTime()})
	}

	best, ok := PickNewest(candidates)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrIdentifierNotFound, identifier)
	}

	attemptDir, err := newestAttempt(filepath.Join(reportsRoot, best.Name))
	if err != nil {
		return "", err
	}

	report, err := firstXML(attemptDir)
	if err != nil {
		return "", err
	}
	return report, nil
}

// newestAttempt picks the lexicographically greatest timestamp subfolder;
// timestamp names sort chronologically, so greatest means latest.
func newestAttempt(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading identifier folder: %w", err)
	}

	var attempts []string
	for _, e := range entries {
		if e.IsDir() && isTimestampFolder(e.Name()) {
			attempts = append(attempts, e.Name())
		}
	}
	if len(attempts) == 0 {
		return "", fmt.Errorf("%w: %s", ErrReportNotFound, dir)
	}
	sort.Strings(attempts)
	return filepath.Join(dir, attempts[len(attempts)-1]), nil
}

func firstXML(dir string) (string, error) {
	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".xml") {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scanning attempt folder: %w", err)
	}
	if found == "" {
		return "", fmt.Errorf("%w: %s", ErrReportNotFound, dir)
	}
	return found, nil
}
