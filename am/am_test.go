package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadWithViper(v)
	require.NoError(t, err)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := defaultConfig(t)

	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	assert.Equal(t, -1000.0, cfg.Layout.ChargeStrength)
	assert.Equal(t, 100.0, cfg.Layout.LinkDistance)
	assert.Equal(t, 0.4, cfg.Layout.VelocityDecay)
	assert.Equal(t, 0.3, cfg.Layout.DragAlphaTarget)
	assert.Equal(t, 5.0, cfg.Layout.DefaultRadius)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "am.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[api]
base_url = "http://localhost:9000/api"

[cache]
backend = "memory"

[layout]
charge_strength = -300.0
`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/api", cfg.API.BaseURL)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, -300.0, cfg.Layout.ChargeStrength)
	// untouched keys keep defaults
	assert.Equal(t, 100.0, cfg.Layout.LinkDistance)
}

func TestMergeConfigFiles_LaterWins(t *testing.T) {
	dir := t.TempDir()
	system := filepath.Join(dir, "system.toml")
	project := filepath.Join(dir, "project.toml")
	require.NoError(t, os.WriteFile(system, []byte("[server]\nport = 9000\n[cache]\npath = \"sys.db\"\n"), 0644))
	require.NoError(t, os.WriteFile(project, []byte("[server]\nport = 9100\n"), 0644))

	v := viper.New()
	SetDefaults(v)
	mergeConfigFiles(v, []string{system, filepath.Join(dir, "missing.toml"), project})

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "sys.db", cfg.Cache.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }, "api.base_url cannot be empty"},
		{"relative base url", func(c *Config) { c.API.BaseURL = "/api" }, "absolute URL"},
		{"zero timeout", func(c *Config) { c.API.TimeoutSeconds = 0 }, "api.timeout_seconds"},
		{"negative rate", func(c *Config) { c.API.MaxRequestsPerMinute = -1 }, "max_requests_per_minute"},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "redis" }, "cache.backend"},
		{"memory backend needs no path", func(c *Config) { c.Cache.Backend = "memory"; c.Cache.Path = "" }, ""},
		{"sqlite backend needs path", func(c *Config) { c.Cache.Path = "" }, "cache.path"},
		{"alpha min out of range", func(c *Config) { c.Layout.AlphaMin = 1 }, "layout.alpha_min"},
		{"radius range inverted", func(c *Config) { c.Layout.MinRadius = 30 }, "radius range"},
		{"zero tick interval", func(c *Config) { c.Layout.TickIntervalMS = 0 }, "tick_interval_ms"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
