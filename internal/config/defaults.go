package config

// DefaultConfig returns a Config struct with all default values
func DefaultConfig() *Config {
	return &Config{
		Admin: AdminConfig{
			Username: "admin",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 9710,
		},
		MediaServer: MediaServerConfig{
			Timeout: "30s",
		},
		Player: PlayerConfig{
			ProgressFlushInterval: "3s",
		},
		Cache: CacheConfig{
			ListTTL: "30s",
		},
	}
}

// SetDefaults applies default values to missing config fields
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Admin.Username == "" {
		cfg.Admin.Username = defaults.Admin.Username
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = defaults.Server.Host
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}

	if cfg.MediaServer.Timeout == "" {
		cfg.MediaServer.Timeout = defaults.MediaServer.Timeout
	}

	if cfg.Player.ProgressFlushInterval == "" {
		cfg.Player.ProgressFlushInterval = defaults.Player.ProgressFlushInterval
	}

	if cfg.Cache.ListTTL == "" {
		cfg.Cache.ListTTL = defaults.Cache.ListTTL
	}
}
