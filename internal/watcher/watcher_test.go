package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubharthaksangharsha/morpheusAI/internal/event"
)

type recorder struct {
	mu     sync.Mutex
	events []event.FileChangedData
}

func (r *recorder) add(e event.Event) {
	data, ok := e.Data.(event.FileChangedData)
	if !ok {
		return
	}
	r.mu.Lock()
	r.events = append(r.events, data)
	r.mu.Unlock()
}

func (r *recorder) has(path, op string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Path == path && e.Op == op {
			return true
		}
	}
	return false
}

func (r *recorder) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Path)
	}
	return out
}

func startWatcher(t *testing.T, ignore ...string) (string, *recorder) {
	t.Helper()
	root := t.TempDir()
	bus := event.NewBus()
	t.Cleanup(func() { bus.Close() })

	rec := &recorder{}
	bus.Subscribe(event.FileChanged, rec.add)

	w, err := New(root, bus, ignore...)
	require.NoError(t, err)
	w.Start()
	t.Cleanup(func() { w.Stop() })
	return root, rec
}

func TestWatcher_ReportsCreate(t *testing.T) {
	root, rec := startWatcher(t)

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hi"), 0o644))

	assert.Eventually(t, func() bool { return rec.has("notes.txt", "create") },
		2*time.Second, 20*time.Millisecond)
}

func TestWatcher_FollowsNewDirectories(t *testing.T) {
	root, rec := startWatcher(t)

	sub := filepath.Join(root, "src")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.Eventually(t, func() bool { return rec.has("src", "create") },
		2*time.Second, 20*time.Millisecond)

	// Give the watcher a moment to register the new directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "main.go"), []byte("package main"), 0o644))

	assert.Eventually(t, func() bool { return rec.has("src/main.go", "create") },
		2*time.Second, 20*time.Millisecond)
}

func TestWatcher_Ignore(t *testing.T) {
	root, rec := startWatcher(t, "node_modules")

	require.NoError(t, os.Mkdir(filepath.Join(root, "node_modules"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "kept.txt"), nil, 0o644))

	require.Eventually(t, func() bool { return rec.has("kept.txt", "create") },
		2*time.Second, 20*time.Millisecond)
	assert.NotContains(t, rec.paths(), "node_modules")
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	w, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	assert.NoError(t, w.Stop())
}
