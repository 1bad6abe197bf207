package workspace

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReportsGrammarChanges(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var got []string
	w, err := NewWatcher(50*time.Millisecond, func(changed []string) {
		mu.Lock()
		got = append(got, changed...)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch(dir))

	path := filepath.Join(dir, "g.lark")
	require.NoError(t, os.WriteFile(path, []byte("start: X\n"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, uri := range got {
			if uri == PathToURI(path) {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	calls := 0
	w, err := NewWatcher(50*time.Millisecond, func([]string) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, calls)
}
