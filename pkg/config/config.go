// Package config holds the viper-backed settings of the sideload tool.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AppName names the config directory and the env prefix.
const AppName = "sideload"

// Config is the full configuration tree.
type Config struct {
	Bridge  BridgeConfig  `mapstructure:"bridge"`
	Log     LogConfig     `mapstructure:"log"`
	History HistoryConfig `mapstructure:"history"`
	Watch   WatchConfig   `mapstructure:"watch"`
}

// BridgeConfig locates the bridge binary and bounds its commands.
type BridgeConfig struct {
	// Dir holds the adbwindows/, adblinux/ and adbmac/ folders.
	Dir string `mapstructure:"dir"`
	// Path overrides the per-platform lookup.
	Path string `mapstructure:"path"`
	// TimeoutSeconds bounds each command; 0 disables the bound.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// Timeout returns the per-command bound, zero meaning none.
func (c BridgeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  bool   `mapstructure:"file"`
	Dir   string `mapstructure:"dir"`
}

type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Dir           string `mapstructure:"dir"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Retention returns how long journal entries are kept; zero keeps them forever.
func (c HistoryConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

type WatchConfig struct {
	IntervalMs int `mapstructure:"interval_ms"`
}

// Interval returns the device polling interval.
func (c WatchConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Bridge: BridgeConfig{
			Dir:            ".",
			TimeoutSeconds: 120,
		},
		Log: LogConfig{
			Level: "info",
			Dir:   filepath.Join(DataDir(), "logs"),
		},
		History: HistoryConfig{
			Enabled:       true,
			Dir:           DataDir(),
			RetentionDays: 30,
		},
		Watch: WatchConfig{
			IntervalMs: 2000,
		},
	}
}

// SetDefaults registers every default with viper so env overrides and
// Unmarshal see all keys even without a config file.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("bridge.dir", defaults.Bridge.Dir)
	viper.SetDefault("bridge.path", defaults.Bridge.Path)
	viper.SetDefault("bridge.timeout_seconds", defaults.Bridge.TimeoutSeconds)

	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.file", defaults.Log.File)
	viper.SetDefault("log.dir", defaults.Log.Dir)

	viper.SetDefault("history.enabled", defaults.History.Enabled)
	viper.SetDefault("history.dir", defaults.History.Dir)
	viper.SetDefault("history.retention_days", defaults.History.RetentionDays)

	viper.SetDefault("watch.interval_ms", defaults.Watch.IntervalMs)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// Watch reloads the configuration whenever the config file changes and
// hands each valid result to onChange. Invalid edits are passed to onError
// and otherwise ignored. It is a no-op when no config file was read.
func Watch(onChange func(*Config), onError func(error)) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := Load()
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	viper.WatchConfig()
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DataDir is where the journal database and log files live.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(home, ".local", "share", AppName)
}
