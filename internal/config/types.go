package config

// Config represents the complete application configuration
type Config struct {
	Admin       AdminConfig       `mapstructure:"admin" yaml:"admin"`
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	MediaServer MediaServerConfig `mapstructure:"media_server" yaml:"media_server"`
	Player      PlayerConfig      `mapstructure:"player" yaml:"player"`
	Cache       CacheConfig       `mapstructure:"cache" yaml:"cache"`
}

// AdminConfig holds admin user credentials. Password accepts either a
// bcrypt hash or a plain value.
type AdminConfig struct {
	Username    string `mapstructure:"username" yaml:"username"`
	Password    string `mapstructure:"password" yaml:"password"`
	DisableAuth bool   `mapstructure:"disable_auth" yaml:"disable_auth"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// MediaServerConfig holds the connection settings for the backend catalog
type MediaServerConfig struct {
	URL     string `mapstructure:"url" yaml:"url"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	Timeout string `mapstructure:"timeout" yaml:"timeout"`
}

// PlayerConfig holds playback progress persistence settings
type PlayerConfig struct {
	// ProgressFlushInterval is how often playback progress is written back
	// to the media server while a player is active
	ProgressFlushInterval string `mapstructure:"progress_flush_interval" yaml:"progress_flush_interval"`
}

// CacheConfig holds API response cache settings
type CacheConfig struct {
	// ListTTL is how long sorted/filtered list responses are memoized
	ListTTL string `mapstructure:"list_ttl" yaml:"list_ttl"`
}
