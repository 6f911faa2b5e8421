package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fsCreateEvent(name string) fsnotify.Event {
	return fsnotify.Event{Name: name, Op: fsnotify.Create}
}

func TestWatch_DebouncesBurstOfCreatesIntoOneReindex(t *testing.T) {
	root := t.TempDir()

	var reindexCount int32
	reindex := func(ctx context.Context, root string) error {
		atomic.AddInt32(&reindexCount, 1)
		return nil
	}

	w := New(root, 200*time.Millisecond, reindex)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	time.Sleep(50 * time.Millisecond)
	for i := 0; i < 5; i++ {
		path := filepath.Join(root, "file"+string(rune('0'+i))+".rs")
		require.NoError(t, os.WriteFile(path, []byte("fn main() {}\n"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(600 * time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, int32(1), atomic.LoadInt32(&reindexCount))
}

func TestQualifies_FiltersHiddenAndUnsupportedExtensions(t *testing.T) {
	w := New("/root", DefaultDebounce, nil)

	assert.False(t, w.qualifies(fsCreateEvent("/root/.git/config")))
	assert.False(t, w.qualifies(fsCreateEvent("/root/.hidden/a.go")))
	assert.False(t, w.qualifies(fsCreateEvent("/root/README")))
	assert.True(t, w.qualifies(fsCreateEvent("/root/main.go")))
}

func TestIsHiddenPath_DetectsAnyHiddenComponent(t *testing.T) {
	assert.True(t, isHiddenPath(".git/config"))
	assert.True(t, isHiddenPath("src/.cache/a.go"))
	assert.False(t, isHiddenPath("src/main.go"))
	assert.False(t, isHiddenPath("."))
}
