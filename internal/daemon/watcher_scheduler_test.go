package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/autopipe/internal/config"
)

type recordingReloader struct {
	got chan *config.Config
}

func (r *recordingReloader) Reload(_ context.Context, cfg *config.Config) error {
	r.got <- cfg
	return nil
}

func TestConfigWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "autopipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ci:\n  default_job_name: first\ngenerator:\n  provider: template\n"), 0o600))

	rel := &recordingReloader{got: make(chan *config.Config, 4)}
	w, err := NewConfigWatcher(path, 50*time.Millisecond, rel, discard)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() { _ = w.Stop(context.Background()) })

	require.NoError(t, os.WriteFile(path, []byte("ci:\n  default_job_name: second\ngenerator:\n  provider: template\n"), 0o600))

	select {
	case cfg := <-rel.got:
		require.Equal(t, "second", cfg.CI.DefaultJobName)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after config write")
	}
}

func TestConfigWatcherKeepsConfigOnInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "autopipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generator:\n  provider: template\n"), 0o600))

	rel := &recordingReloader{got: make(chan *config.Config, 4)}
	w, err := NewConfigWatcher(path, 20*time.Millisecond, rel, discard)
	require.NoError(t, err)
	errs := make(chan error, 4)
	w.reloaded = func(err error) { errs <- err }

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() { _ = w.Stop(context.Background()) })

	require.NoError(t, os.WriteFile(path, []byte("generator:\n  provider: [broken\n"), 0o600))

	select {
	case err := <-errs:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload attempt after config write")
	}
	require.Empty(t, rel.got)
}

func TestConfigWatcherStopIsIdempotent(t *testing.T) {
	w, err := NewConfigWatcher(filepath.Join(t.TempDir(), "autopipe.yaml"), 0, &recordingReloader{}, discard)
	require.NoError(t, err)
	require.Equal(t, config.DefaultReloadDebounce, w.debounceTime)
	require.NoError(t, w.Stop(context.Background()))
	require.NoError(t, w.Stop(context.Background()))
}

func TestScheduler_ScheduleEvery(t *testing.T) {
	t.Run("runs the task", func(t *testing.T) {
		s, err := NewScheduler(discard)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop(context.Background()) })

		var runs atomic.Int32
		id, err := s.ScheduleEvery("test", 20*time.Millisecond, func() { runs.Add(1) })
		require.NoError(t, err)
		require.NotEmpty(t, id)

		s.Start(context.Background())
		require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		s, err := NewScheduler(discard)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop(context.Background()) })

		_, err = s.ScheduleEvery("test", 0, func() {})
		require.Error(t, err)
	})
}
