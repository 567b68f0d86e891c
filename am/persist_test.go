package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_CreatesAndUpdates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "am.toml")

	require.NoError(t, Set(path, "layout.charge_strength", "-250", nil))
	require.NoError(t, Set(path, "api.base_url", "http://localhost:8000", nil))
	require.NoError(t, Set(path, "api.block_private_ip", "true", nil))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, -250.0, cfg.Layout.ChargeStrength)
	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.True(t, cfg.API.BlockPrivateIP)
}

func TestSet_RotatesBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "am.toml")

	for i := 0; i < 5; i++ {
		require.NoError(t, Set(path, "server.port", "900"+string(rune('0'+i)), nil))
	}

	for n := 1; n <= backupCount; n++ {
		_, err := os.Stat(backupName(path, n))
		assert.NoError(t, err, "backup %d should exist", n)
	}
	_, err := os.Stat(backupName(path, backupCount+1))
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(backupName(path, 1))
	require.NoError(t, err)
	var doc map[string]map[string]int64
	require.NoError(t, toml.Unmarshal(data, &doc))
	assert.Equal(t, int64(9003), doc["server"]["port"])
}

func TestSet_RejectsScalarAsTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "am.toml")
	require.NoError(t, Set(path, "cache", "memory", nil))

	err := Set(path, "cache.backend", "memory", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a table")

	assert.Error(t, Set(path, "", "x", nil))
	assert.Error(t, Set(path, "layout.", "x", nil))
}

func TestRender_RoundTrip(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Layout.ChargeStrength = -42

	data, err := Render(cfg)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "am.toml")
	require.NoError(t, os.WriteFile(path, data, 0644))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestIsBackupFile(t *testing.T) {
	assert.True(t, isBackupFile("/x/am.toml.back1"))
	assert.True(t, isBackupFile("am.toml.back3"))
	assert.False(t, isBackupFile("am.toml"))
}
