package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "editor:\n  overlay_debounce_ms: 10\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	w, err := NewWatcher(cfg, nil)
	require.NoError(t, err)
	changed := make(chan *Config, 4)
	w.OnChange(func(prev, next *Config) { changed <- next })
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("editor:\n  overlay_debounce_ms: 40\n"), 0o644))

	select {
	case next := <-changed:
		assert.Equal(t, 40, next.Editor.OverlayDebounceMs)
		assert.Equal(t, 40, w.GetCurrent().Editor.OverlayDebounceMs)
	case <-time.After(3 * time.Second):
		t.Fatal("configuration was not reloaded")
	}
}

func TestWatcher_KeepsCurrentOnInvalidFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "editor:\n  default_detail_level: 2\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	w, err := NewWatcher(cfg, nil)
	require.NoError(t, err)
	var calls atomic.Int32
	w.OnChange(func(prev, next *Config) { calls.Add(1) })
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("editor:\n  default_detail_level: 42\n"), 0o644))
	time.Sleep(400 * time.Millisecond)

	assert.Zero(t, calls.Load())
	assert.Equal(t, 2, w.GetCurrent().Editor.DefaultDetailLevel)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "editor:\n  default_detail_level: 2\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	w, err := NewWatcher(cfg, nil)
	require.NoError(t, err)
	var calls atomic.Int32
	w.OnChange(func(prev, next *Config) { calls.Add(1) })
	w.Start()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o644))
	time.Sleep(300 * time.Millisecond)
	w.Stop()
	w.Stop()

	assert.Zero(t, calls.Load())
}

func TestNewWatcher_RequiresFile(t *testing.T) {
	_, err := NewWatcher(Defaults(), nil)
	assert.Error(t, err)
}
