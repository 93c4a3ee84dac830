package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/nicbou/homeserver/internal/config"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// ConfigHandler handles configuration management requests
type ConfigHandler struct{}

// NewConfigHandler creates a new ConfigHandler
func NewConfigHandler() *ConfigHandler {
	return &ConfigHandler{}
}

// SanitizedConfig represents a sanitized version of the config (without secrets)
type SanitizedConfig struct {
	Admin       SanitizedAdminConfig       `json:"admin"`
	Server      config.ServerConfig        `json:"server"`
	MediaServer SanitizedMediaServerConfig `json:"media_server"`
	Player      config.PlayerConfig        `json:"player"`
	Cache       config.CacheConfig         `json:"cache"`
}

// SanitizedAdminConfig holds admin config without password
type SanitizedAdminConfig struct {
	Username    string `json:"username"`
	DisableAuth bool   `json:"disable_auth"`
}

// SanitizedMediaServerConfig holds media server config without the API key
type SanitizedMediaServerConfig struct {
	URL       string `json:"url"`
	HasAPIKey bool   `json:"has_api_key"`
	Timeout   string `json:"timeout"`
}

// GetConfig handles GET /api/config
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := config.Get()
	if cfg == nil {
		log.Error().Msg("Config not initialized")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Config not initialized"})
		return
	}

	sanitized := SanitizedConfig{
		Admin: SanitizedAdminConfig{
			Username:    cfg.Admin.Username,
			DisableAuth: cfg.Admin.DisableAuth,
		},
		Server: cfg.Server,
		MediaServer: SanitizedMediaServerConfig{
			URL:       cfg.MediaServer.URL,
			HasAPIKey: cfg.MediaServer.APIKey != "",
			Timeout:   cfg.MediaServer.Timeout,
		},
		Player: cfg.Player,
		Cache:  cfg.Cache,
	}

	writeJSON(w, http.StatusOK, sanitized)
}

// UpdateConfigRequest represents a config update request. Absent fields
// keep their current values.
type UpdateConfigRequest struct {
	Admin       *UpdateAdminConfig       `json:"admin,omitempty"`
	Server      *config.ServerConfig     `json:"server,omitempty"`
	MediaServer *UpdateMediaServerConfig `json:"media_server,omitempty"`
	Player      *config.PlayerConfig     `json:"player,omitempty"`
	Cache       *config.CacheConfig      `json:"cache,omitempty"`
}

// UpdateAdminConfig holds updatable admin config
type UpdateAdminConfig struct {
	Username    *string `json:"username,omitempty"`
	Password    *string `json:"password,omitempty"`
	DisableAuth *bool   `json:"disable_auth,omitempty"`
}

// UpdateMediaServerConfig holds updatable media server config
type UpdateMediaServerConfig struct {
	URL     *string `json:"url,omitempty"`
	APIKey  *string `json:"api_key,omitempty"`
	Timeout *string `json:"timeout,omitempty"`
}

// UpdateConfig handles PUT /api/config
func (h *ConfigHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req UpdateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("Failed to decode update config request")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	cfg := config.Get()
	if cfg == nil {
		log.Error().Msg("Config not initialized")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Config not initialized"})
		return
	}

	newCfg := *cfg

	if req.Admin != nil {
		if req.Admin.Username != nil {
			newCfg.Admin.Username = *req.Admin.Username
		}
		if req.Admin.Password != nil {
			newCfg.Admin.Password = *req.Admin.Password
		}
		if req.Admin.DisableAuth != nil {
			newCfg.Admin.DisableAuth = *req.Admin.DisableAuth
		}
	}

	if req.Server != nil {
		newCfg.Server = *req.Server
	}

	if req.MediaServer != nil {
		if req.MediaServer.URL != nil {
			newCfg.MediaServer.URL = *req.MediaServer.URL
		}
		if req.MediaServer.APIKey != nil {
			newCfg.MediaServer.APIKey = *req.MediaServer.APIKey
		}
		if req.MediaServer.Timeout != nil {
			newCfg.MediaServer.Timeout = *req.MediaServer.Timeout
		}
	}

	if req.Player != nil {
		newCfg.Player = *req.Player
	}

	if req.Cache != nil {
		newCfg.Cache = *req.Cache
	}

	if err := config.Validate(&newCfg); err != nil {
		log.Error().Err(err).Msg("Config validation failed")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := writeConfigToFile(&newCfg); err != nil {
		log.Error().Err(err).Msg("Failed to write config to file")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to save configuration"})
		return
	}

	if err := config.Reload(); err != nil {
		log.Error().Err(err).Msg("Failed to reload config")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to reload configuration"})
		return
	}

	log.Info().Msg("Configuration updated successfully")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Configuration updated successfully"})
}

// writeConfigToFile writes the config to the YAML file
func writeConfigToFile(cfg *config.Config) error {
	configPath := config.GetPath()
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
