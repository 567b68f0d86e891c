package am

import (
	"github.com/spf13/viper"
)

// SetDefaults registers a default for every configuration key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.timeout_seconds", 60)
	v.SetDefault("api.max_requests_per_minute", 30)
	v.SetDefault("api.block_private_ip", false)

	v.SetDefault("cache.backend", "sqlite")
	v.SetDefault("cache.path", "ogdviz_cache.db")

	// d3-force defaults
	v.SetDefault("layout.charge_strength", -1000.0)
	v.SetDefault("layout.link_distance", 100.0)
	v.SetDefault("layout.link_strength", 1.0)
	v.SetDefault("layout.alpha_min", 0.001)
	v.SetDefault("layout.alpha_decay", 0.0)
	v.SetDefault("layout.velocity_decay", 0.4)
	v.SetDefault("layout.drag_alpha_target", 0.3)
	v.SetDefault("layout.tick_interval_ms", 16)
	v.SetDefault("layout.width", 800.0)
	v.SetDefault("layout.height", 450.0)
	v.SetDefault("layout.min_radius", 3.0)
	v.SetDefault("layout.max_radius", 20.0)
	v.SetDefault("layout.default_radius", 5.0)

	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"http://127.0.0.1",
	})

	v.SetDefault("catalog.path", "")
}

// BindEnvVars binds keys whose env names do not follow the OGDVIZ_SECTION_KEY pattern.
func BindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("api.base_url", "OGDVIZ_API_BASE_URL", "OGD_API_URL")
	_ = v.BindEnv("cache.path", "OGDVIZ_CACHE_PATH", "OGDVIZ_DB_PATH")
	_ = v.BindEnv("server.port", "OGDVIZ_SERVER_PORT", "PORT")
}
