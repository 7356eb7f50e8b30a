package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"auto_split_minutes": 5}`), 0o644))
	f, err := Load(path)
	require.NoError(t, err)

	reloaded := make(chan *Document, 4)
	w, err := NewWatcher(f, 20*time.Millisecond, func(d *Document) { reloaded <- d })
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.NoError(t, os.WriteFile(path, []byte(`{"auto_split_minutes": 9}`), 0o644))

	select {
	case doc := <-reloaded:
		assert.Equal(t, 9, doc.AutoSplitMinutes)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not reload")
	}
	assert.Equal(t, 9*time.Minute, f.AutoSplitThreshold(), "the file the engine reads settings from follows the reload")
}

func TestWatcherKeepsLastGoodSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"auto_split_minutes": 7}`), 0o644))
	f, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"auto_split_minutes": "broken"}`), 0o644))
	assert.Error(t, f.Reload())
	assert.Equal(t, 7*time.Minute, f.AutoSplitThreshold())
}
