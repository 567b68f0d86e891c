// Package am ("as configured") loads ogdviz configuration from TOML files,
// environment variables and built-in defaults.
package am

// Config is the full ogdviz configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Layout  LayoutConfig  `mapstructure:"layout"`
	Server  ServerConfig  `mapstructure:"server"`
	Catalog CatalogConfig `mapstructure:"catalog"`
}

// APIConfig configures the upstream OpenGameData metrics service.
type APIConfig struct {
	BaseURL              string `mapstructure:"base_url"`
	TimeoutSeconds       int    `mapstructure:"timeout_seconds"`
	MaxRequestsPerMinute int    `mapstructure:"max_requests_per_minute"` // 0 = unlimited
	BlockPrivateIP       bool   `mapstructure:"block_private_ip"`
}

// CacheConfig selects where fetched payloads are kept.
type CacheConfig struct {
	Backend string `mapstructure:"backend"` // "sqlite" or "memory"
	Path    string `mapstructure:"path"`
}

// LayoutConfig holds force simulation and rendering parameters.
type LayoutConfig struct {
	ChargeStrength  float64 `mapstructure:"charge_strength"`
	LinkDistance    float64 `mapstructure:"link_distance"`
	LinkStrength    float64 `mapstructure:"link_strength"`
	AlphaMin        float64 `mapstructure:"alpha_min"`
	AlphaDecay      float64 `mapstructure:"alpha_decay"` // 0 = derive from alpha_min over 300 ticks
	VelocityDecay   float64 `mapstructure:"velocity_decay"`
	DragAlphaTarget float64 `mapstructure:"drag_alpha_target"`
	TickIntervalMS  int     `mapstructure:"tick_interval_ms"`
	Width           float64 `mapstructure:"width"`
	Height          float64 `mapstructure:"height"`
	MinRadius       float64 `mapstructure:"min_radius"`
	MaxRadius       float64 `mapstructure:"max_radius"`
	DefaultRadius   float64 `mapstructure:"default_radius"`
}

// ServerConfig configures the render server started by `ogdviz serve`.
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CatalogConfig points at an optional games catalogue overriding the embedded one.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

const (
	DefaultServerPort = 8740
	DefaultBaseURL    = "https://fieldday-web.ad.education.wisc.edu/opengamedata/api"
)

const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)
