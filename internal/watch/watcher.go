// Package watch monitors the reports root and checks new unit reports as
// they appear, so units are validated without an operator entering a DMC.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"swcheck/internal/types"
)

// Runner runs a check for one report file. Satisfied by checker.Service.
type Runner interface {
	RunCheckForReport(ctx context.Context, reportPath, identifier string, source types.SourceKind) (types.CheckVerdict, error)
}

// Stats tracks watcher activity for the status surface.
type Stats struct {
	ReportsSeen     int
	ChecksTriggered int
	Errors          int
	LastReport      string
	LastEventTime   time.Time
}

// Watcher follows the reports tree. Test stations write a report some time
// after creating the attempt folder, so events are debounced per file and a
// report is only checked once its writes have settled.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	runner      Runner
	root        string
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	started     bool
	stopped     bool
	running     bool
	log         *zap.Logger

	stats Stats
}

// New creates a watcher over the reports root.
func New(root string, runner Runner, log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:     fsw,
		runner:      runner,
		root:        root,
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		log:         log,
	}, nil
}

// Start registers the reports tree and begins processing events in a
// goroutine. fsnotify does not recurse, so every existing directory is added
// up front and new ones are added as they appear.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.running = true
	w.mu.Unlock()

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		w.log.Warn("initial watch registration incomplete", zap.Error(err))
	}
	w.log.Info("watching reports root", zap.String("root", w.root))

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to drain. Safe to call
// even after the loop already exited through context cancellation.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.log.Error("closing watcher", zap.Error(err))
	}
}

// IsWatching reports whether the event loop is live, which stops being true
// as soon as the loop exits for any reason, context cancellation included.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// GetStats returns a snapshot of watcher activity.
func (w *Watcher) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("watch error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-debounceTicker.C:
			w.processSettled(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	// New attempt folders must be watched before the report lands in them.
	// The station may create several nested folders at once, so the whole
	// subtree is registered and any report already inside it is queued.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addTree(event.Name)
			return
		}
	}

	if !strings.EqualFold(filepath.Ext(event.Name), ".xml") {
		return
	}

	w.mu.Lock()
	w.stats.ReportsSeen++
	w.stats.LastReport = event.Name
	w.stats.LastEventTime = time.Now()
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) addTree(root string) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				w.log.Warn("watching new folder failed",
					zap.String("path", path), zap.Error(err))
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".xml") {
			w.mu.Lock()
			w.stats.ReportsSeen++
			w.stats.LastReport = path
			w.stats.LastEventTime = time.Now()
			w.debounceMap[path] = time.Now()
			w.mu.Unlock()
		}
		return nil
	})
	if err != nil {
		w.log.Warn("registering folder tree failed", zap.String("path", root), zap.Error(err))
	}
}

func (w *Watcher) processSettled(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, eventTime := range w.debounceMap {
		if now.Sub(eventTime) >= w.debounceDur {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for _, path := range settled {
		w.check(ctx, path)
	}
}

func (w *Watcher) check(ctx context.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}

	identifier := w.identifierFor(path)
	w.log.Info("report detected", zap.String("report", path), zap.String("dmc", identifier))

	if _, err := w.runner.RunCheckForReport(ctx, path, identifier, types.SourceAuto); err != nil {
		w.log.Error("automatic check failed",
			zap.String("report", path), zap.Error(err))
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		return
	}
	w.mu.Lock()
	w.stats.ChecksTriggered++
	w.mu.Unlock()
}

// identifierFor derives the DMC from the report path: the first folder under
// the reports root. A report placed directly in the root has no DMC.
func (w *Watcher) identifierFor(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) < 2 {
		return ""
	}
	return parts[0]
}
