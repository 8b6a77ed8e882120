package am

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigWatcherReloads(t *testing.T) {
	home, _ := isolate(t)
	path := filepath.Join(home, ".gallery", "am.toml")
	writeFile(t, path, "[gallery]\nedit_workers = 2\n")

	cw, err := NewConfigWatcher(path)
	require.NoError(t, err)
	t.Cleanup(func() { cw.Stop() })
	cw.SetDebounce(20 * time.Millisecond)

	reloaded := make(chan *Config, 4)
	cw.OnReload(func(c *Config) error {
		reloaded <- c
		return nil
	})
	cw.Start()

	writeFile(t, path, "[gallery]\nedit_workers = 9\n")

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 9, cfg.Gallery.EditWorkers)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}

func TestConfigWatcherOwnWrite(t *testing.T) {
	cw, err := NewConfigWatcher(filepath.Join(t.TempDir(), "am.toml"))
	require.NoError(t, err)
	defer cw.Stop()

	assert.False(t, cw.checkOwnWrite())
	cw.MarkOwnWrite()
	assert.True(t, cw.checkOwnWrite())
	assert.False(t, cw.checkOwnWrite(), "flag is cleared after one check")
}

func TestGlobalWatcher(t *testing.T) {
	cw, err := NewConfigWatcher(filepath.Join(t.TempDir(), "am.toml"))
	require.NoError(t, err)
	defer cw.Stop()

	SetGlobalWatcher(cw)
	t.Cleanup(func() { SetGlobalWatcher(nil) })
	assert.Same(t, cw, GetGlobalWatcher())
}

func TestIsBackupFile(t *testing.T) {
	assert.True(t, isBackupFile("/etc/gallery/am.toml.back1"))
	assert.True(t, isBackupFile("am.toml.back3"))
	assert.False(t, isBackupFile("/etc/gallery/am.toml"))
	assert.False(t, isBackupFile("am.toml.back"))
}

func TestConfigWatcherCustomLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	writeFile(t, path, "[log]\nlevel = \"info\"\n")

	cw, err := NewConfigWatcher(path)
	require.NoError(t, err)
	t.Cleanup(func() { cw.Stop() })
	cw.SetDebounce(20 * time.Millisecond)
	cw.SetLoader(func() (*Config, error) { return LoadFromFile(path) })

	reloaded := make(chan *Config, 4)
	cw.OnReload(func(c *Config) error {
		reloaded <- c
		return nil
	})
	cw.Start()

	writeFile(t, path, "[log]\nlevel = \"debug\"\n")

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "debug", cfg.Log.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}
