// Package config handles configuration loading and management for looktony.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for looktony.
type Config struct {
	Engine    EngineConfig    `mapstructure:"engine"`
	Protocols ProtocolsConfig `mapstructure:"protocols"`
	State     StateConfig     `mapstructure:"state"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// EngineConfig holds protocol engine settings.
type EngineConfig struct {
	// EventBuffer is the capacity of the engine event channel.
	EventBuffer int `mapstructure:"event_buffer"`
	// DefaultLayer is the map layer mark_location targets.
	DefaultLayer string `mapstructure:"default_layer"`
}

// ProtocolsConfig holds protocol definition loading settings.
type ProtocolsConfig struct {
	// Dir is the directory holding protocol definition YAML files.
	Dir string `mapstructure:"dir"`
	// Watch enables hot-loading of definitions while the daemon runs.
	Watch bool `mapstructure:"watch"`
}

// StateConfig holds runtime history persistence settings.
type StateConfig struct {
	// Enabled toggles recording of activation and step execution history.
	Enabled bool `mapstructure:"enabled"`
	// Path overrides the database location. Empty means the project-local
	// default (.looktony/state.db).
	Path string `mapstructure:"path"`
}

// LoggingConfig holds debug logging settings.
type LoggingConfig struct {
	// DebugLog is the path of the engine debug log file. Empty disables it.
	DebugLog string `mapstructure:"debug_log"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (LOOKTONY_*)
// 2. Project config (.looktony.yaml in current directory or parent)
// 3. User config (~/.config/looktony/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Load user config from XDG path
	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Merge project config (takes precedence)
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	// Environment variable overrides
	v.SetEnvPrefix("LOOKTONY")
	v.AutomaticEnv()
	v.BindEnv("protocols.dir", "LOOKTONY_PROTOCOLS_DIR")
	v.BindEnv("state.path", "LOOKTONY_STATE_PATH")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	// Engine defaults
	v.SetDefault("engine.event_buffer", 100)
	v.SetDefault("engine.default_layer", "tactical")

	// Protocol loading defaults
	v.SetDefault("protocols.dir", "protocols")
	v.SetDefault("protocols.watch", true)

	// History defaults
	v.SetDefault("state.enabled", true)
	v.SetDefault("state.path", "")

	// Logging defaults
	v.SetDefault("logging.debug_log", "")
}

// getUserConfigDir returns the XDG config directory for looktony.
func getUserConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "looktony")
	}

	// Fall back to ~/.config/looktony
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "looktony")
	}
	return filepath.Join(home, ".config", "looktony")
}

// findProjectConfig searches for .looktony.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".looktony.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			EventBuffer:  100,
			DefaultLayer: "tactical",
		},
		Protocols: ProtocolsConfig{
			Dir:   "protocols",
			Watch: true,
		},
		State: StateConfig{
			Enabled: true,
		},
	}
}
