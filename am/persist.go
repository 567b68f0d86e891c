package am

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/opengamedata/ogdviz/errors"
)

const backupCount = 3

// UserConfigPath returns ~/.ogdviz/am.toml.
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ogdviz", "am.toml")
}

// Set writes one dotted key (e.g. "layout.charge_strength") into the TOML
// file at configPath, keeping rotating backups. The raw value is stored as a
// number or bool when it parses as one.
func Set(configPath, key, raw string, watcher *ConfigWatcher) error {
	if key == "" || strings.HasPrefix(key, ".") || strings.HasSuffix(key, ".") {
		return errors.Newf("invalid config key %q", key)
	}

	doc := make(map[string]interface{})
	if data, err := os.ReadFile(configPath); err == nil {
		if err := toml.Unmarshal(data, &doc); err != nil {
			return errors.Wrapf(err, "failed to parse %s", configPath)
		}
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to read %s", configPath)
	}

	if err := setNested(doc, strings.Split(key, "."), parseScalar(raw)); err != nil {
		return err
	}

	data, err := toml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.MkdirAll(filepath.Dir(configPath), DefaultDirPermissions); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	if err := rotateBackups(configPath); err != nil {
		return err
	}
	if watcher != nil {
		watcher.MarkOwnWrite()
	}
	if err := os.WriteFile(configPath, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", configPath)
	}
	return nil
}

// Render marshals cfg to TOML with the same keys the loader reads.
func Render(cfg *Config) ([]byte, error) {
	data, err := toml.Marshal(cfg.asMap())
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return data, nil
}

func setNested(doc map[string]interface{}, path []string, value interface{}) error {
	for i, part := range path[:len(path)-1] {
		next, ok := doc[part]
		if !ok {
			child := make(map[string]interface{})
			doc[part] = child
			doc = child
			continue
		}
		child, ok := next.(map[string]interface{})
		if !ok {
			return errors.Newf("config key %q is not a table", strings.Join(path[:i+1], "."))
		}
		doc = child
	}
	doc[path[len(path)-1]] = value
	return nil
}

func parseScalar(raw string) interface{} {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// rotateBackups shifts path.backN up by one and copies path to path.back1.
func rotateBackups(path string) error {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	_ = os.Remove(backupName(path, backupCount))
	for n := backupCount - 1; n >= 1; n-- {
		if _, err := os.Stat(backupName(path, n)); err == nil {
			if err := os.Rename(backupName(path, n), backupName(path, n+1)); err != nil {
				return errors.Wrapf(err, "failed to rotate backup %d", n)
			}
		}
	}
	if err := os.WriteFile(backupName(path, 1), content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to write backup")
	}
	return nil
}

func backupName(path string, n int) string {
	return path + ".back" + strconv.Itoa(n)
}

func (c *Config) asMap() map[string]interface{} {
	return map[string]interface{}{
		"api": map[string]interface{}{
			"base_url":                c.API.BaseURL,
			"timeout_seconds":         c.API.TimeoutSeconds,
			"max_requests_per_minute": c.API.MaxRequestsPerMinute,
			"block_private_ip":        c.API.BlockPrivateIP,
		},
		"cache": map[string]interface{}{
			"backend": c.Cache.Backend,
			"path":    c.Cache.Path,
		},
		"layout": map[string]interface{}{
			"charge_strength":   c.Layout.ChargeStrength,
			"link_distance":     c.Layout.LinkDistance,
			"link_strength":     c.Layout.LinkStrength,
			"alpha_min":         c.Layout.AlphaMin,
			"alpha_decay":       c.Layout.AlphaDecay,
			"velocity_decay":    c.Layout.VelocityDecay,
			"drag_alpha_target": c.Layout.DragAlphaTarget,
			"tick_interval_ms":  c.Layout.TickIntervalMS,
			"width":             c.Layout.Width,
			"height":            c.Layout.Height,
			"min_radius":        c.Layout.MinRadius,
			"max_radius":        c.Layout.MaxRadius,
			"default_radius":    c.Layout.DefaultRadius,
		},
		"server": map[string]interface{}{
			"port":            c.Server.Port,
			"allowed_origins": c.Server.AllowedOrigins,
		},
		"catalog": map[string]interface{}{
			"path": c.Catalog.Path,
		},
	}
}
