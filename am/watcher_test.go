package am

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "am.toml")
	require.NoError(t, os.WriteFile(path, []byte("[layout]\ncharge_strength = -1000.0\n"), 0644))

	cw, err := NewConfigWatcher(path)
	require.NoError(t, err)
	cw.debouncePeriod = 10 * time.Millisecond
	cw.load = func() (*Config, error) { return LoadFromFile(path) }

	var charge atomic.Value
	cw.OnReload(func(cfg *Config) error {
		charge.Store(cfg.Layout.ChargeStrength)
		return nil
	})
	cw.Start()
	defer cw.Stop()

	require.NoError(t, os.WriteFile(path, []byte("[layout]\ncharge_strength = -200.0\n"), 0644))

	assert.Eventually(t, func() bool {
		v, ok := charge.Load().(float64)
		return ok && v == -200.0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConfigWatcher_IgnoresOwnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "am.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 9000\n"), 0644))

	cw, err := NewConfigWatcher(path)
	require.NoError(t, err)
	cw.debouncePeriod = 10 * time.Millisecond
	cw.load = func() (*Config, error) { return LoadFromFile(path) }

	var reloads atomic.Int32
	cw.OnReload(func(*Config) error {
		reloads.Add(1)
		return nil
	})
	cw.Start()
	defer cw.Stop()

	require.NoError(t, Set(path, "server.port", "9001", cw))

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), reloads.Load())
}
