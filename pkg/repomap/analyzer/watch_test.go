package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_DetectsChangeAndTriggersRebuild(t *testing.T) {
	dir := writeSampleProject(t)
	driver := New(dir, nil)

	var mu sync.Mutex
	var rebuildCount int
	var lastErr error
	done := make(chan struct{}, 10)

	watcher, err := NewWatcher(driver, 50*time.Millisecond, func(err error) {
		mu.Lock()
		rebuildCount++
		lastErr = err
		mu.Unlock()
		done <- struct{}{}
	})
	require.NoError(t, err)
	defer watcher.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.go"), []byte(sampleGoSource+"\n// touched\n"), 0644))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watcher rebuild callback")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, rebuildCount, 1)
	assert.NoError(t, lastErr)
}

func TestWatcher_StopTerminatesLoop(t *testing.T) {
	dir := writeSampleProject(t)
	driver := New(dir, nil)

	watcher, err := NewWatcher(driver, 10*time.Millisecond, nil)
	require.NoError(t, err)

	require.NoError(t, watcher.Start(context.Background()))
	watcher.Stop()
}
