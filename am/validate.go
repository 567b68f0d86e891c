package am

import (
	"net/url"

	"github.com/opengamedata/ogdviz/errors"
)

// Validate rejects configurations that would fail at first use.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url cannot be empty")
	}
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Newf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	if c.API.TimeoutSeconds <= 0 {
		return errors.Newf("api.timeout_seconds must be > 0, got %d", c.API.TimeoutSeconds)
	}
	if c.API.MaxRequestsPerMinute < 0 {
		return errors.Newf("api.max_requests_per_minute must be >= 0, got %d", c.API.MaxRequestsPerMinute)
	}

	switch c.Cache.Backend {
	case "memory":
	case "sqlite":
		if c.Cache.Path == "" {
			return errors.New("cache.path cannot be empty for the sqlite backend")
		}
	default:
		return errors.Newf("cache.backend must be \"sqlite\" or \"memory\", got %q", c.Cache.Backend)
	}

	l := c.Layout
	if l.LinkDistance <= 0 {
		return errors.Newf("layout.link_distance must be > 0, got %f", l.LinkDistance)
	}
	if l.AlphaMin <= 0 || l.AlphaMin >= 1 {
		return errors.Newf("layout.alpha_min must be in (0, 1), got %f", l.AlphaMin)
	}
	if l.AlphaDecay < 0 || l.AlphaDecay >= 1 {
		return errors.Newf("layout.alpha_decay must be in [0, 1), got %f", l.AlphaDecay)
	}
	if l.VelocityDecay < 0 || l.VelocityDecay > 1 {
		return errors.Newf("layout.velocity_decay must be in [0, 1], got %f", l.VelocityDecay)
	}
	if l.TickIntervalMS <= 0 {
		return errors.Newf("layout.tick_interval_ms must be > 0, got %d", l.TickIntervalMS)
	}
	if l.MinRadius <= 0 || l.MaxRadius < l.MinRadius {
		return errors.Newf("layout radius range [%f, %f] is invalid", l.MinRadius, l.MaxRadius)
	}
	if l.DefaultRadius <= 0 {
		return errors.Newf("layout.default_radius must be > 0, got %f", l.DefaultRadius)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Newf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	return nil
}
