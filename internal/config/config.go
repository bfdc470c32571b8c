// Package config loads the ambient settings for the modbusd entrypoint —
// none of this is part of the protocol core (spec.md places "config
// loading" among the external collaborators this repository's core does
// not specify), but every real server in this corpus carries a config
// layer, so modbusd gets one too.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds every setting modbusd needs to construct and run a
// modbus.Server plus its ambient logging and status API.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	StatusAPI StatusAPIConfig `mapstructure:"status_api"`
}

// ServerConfig maps 1:1 onto modbus.Config.
type ServerConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	IPv6     bool   `mapstructure:"ipv6"`
	Blocking bool   `mapstructure:"blocking"`
}

// LoggerConfig configures the shared zap.Logger.
type LoggerConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// StatusAPIConfig configures the optional read-only ops HTTP surface.
type StatusAPIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load reads configuration from configPath (if non-empty) or the usual
// search locations, falling back to built-in defaults, then layers on
// MODBUSD_-prefixed environment variable overrides. It returns both the
// parsed Config and the underlying *viper.Viper so a caller can hand the
// latter to WatchLevel.
func Load(configPath string) (*Config, *viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("modbusd")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/modbusd")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, nil, fmt.Errorf("config: read: %w", err)
		}
	}

	v.SetEnvPrefix("MODBUSD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 502)
	v.SetDefault("server.ipv6", false)
	v.SetDefault("server.blocking", true)

	v.SetDefault("logger.level", "info")

	v.SetDefault("status_api.enabled", false)
	v.SetDefault("status_api.addr", "127.0.0.1:8080")
}

// WatchLevel calls onChange with the new log level whenever the backing
// config file changes and the logger.level value differs from before.
// Only the log level is hot-swapped; changes to any other setting in the
// file are not applied to a running process.
func WatchLevel(v *viper.Viper, onChange func(level string)) {
	prev := v.GetString("logger.level")
	v.OnConfigChange(func(_ fsnotify.Event) {
		level := v.GetString("logger.level")
		if level == prev {
			return
		}
		prev = level
		onChange(level)
	})
	v.WatchConfig()
}
