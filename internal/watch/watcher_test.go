package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"swcheck/internal/types"
)

type recordingRunner struct {
	mu    sync.Mutex
	paths []string
	ids   []string
	kinds []types.SourceKind
}

func (r *recordingRunner) RunCheckForReport(_ context.Context, path, identifier string, source types.SourceKind) (types.CheckVerdict, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	r.ids = append(r.ids, identifier)
	r.kinds = append(r.kinds, source)
	return types.CheckVerdict{Overall: types.VerdictOK}, nil
}

func (r *recordingRunner) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func startWatcher(t *testing.T, root string) (*Watcher, *recordingRunner) {
	t.Helper()
	runner := &recordingRunner{}
	w, err := New(root, runner, zap.NewNop())
	require.NoError(t, err)
	w.debounceDur = 50 * time.Millisecond

	require.NoError(t, w.Start(context.Background()))
	return w, runner
}

func TestWatcher_NewReportTriggersCheck(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	w, runner := startWatcher(t, root)
	defer w.Stop()

	// The station creates the attempt folder first, then writes the report.
	attempt := filepath.Join(root, "UNIT042_B", "2024-03-01_08-15-00")
	require.NoError(t, os.MkdirAll(attempt, 0o755))
	time.Sleep(200 * time.Millisecond) // let the new folders get registered

	report := filepath.Join(attempt, "report.xml")
	require.NoError(t, os.WriteFile(report, []byte("<report/>"), 0o644))

	require.Eventually(t, func() bool { return runner.calls() == 1 }, 5*time.Second, 20*time.Millisecond)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Equal(t, report, runner.paths[0])
	assert.Equal(t, "UNIT042_B", runner.ids[0])
	assert.Equal(t, types.SourceAuto, runner.kinds[0])

	stats := w.GetStats()
	assert.Equal(t, 1, stats.ChecksTriggered)
	assert.Equal(t, report, stats.LastReport)
}

func TestWatcher_IgnoresNonReports(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	w, runner := startWatcher(t, root)
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 0, runner.calls())
}

func TestWatcher_RapidWritesCollapseToOneCheck(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	folder := filepath.Join(root, "UNIT001")
	require.NoError(t, os.MkdirAll(folder, 0o755))

	w, runner := startWatcher(t, root)
	defer w.Stop()

	report := filepath.Join(folder, "report.xml")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(report, []byte("<report/>"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return runner.calls() >= 1 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, runner.calls())
}

func TestWatcher_ContextCancelStopsWatching(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := New(t.TempDir(), &recordingRunner{}, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	assert.True(t, w.IsWatching())

	cancel()
	require.Eventually(t, func() bool { return !w.IsWatching() }, 5*time.Second, 10*time.Millisecond)

	// Stop after a context-driven exit still releases the fsnotify handle.
	w.Stop()
}

func TestWatcher_StartStopIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := New(t.TempDir(), &recordingRunner{}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.IsWatching())

	w.Stop()
	w.Stop()
	assert.False(t, w.IsWatching())
}
