// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Bridge modes. Any other value is treated as a NATS server URL.
const (
	BridgeEmbedded = "embedded"
	BridgeOff      = "off"
)

// Config holds all configuration values for remindr.
type Config struct {
	ServiceURL        string  `mapstructure:"service_url" yaml:"service_url"`
	Session           string  `mapstructure:"session" yaml:"session"`
	Bridge            string  `mapstructure:"bridge" yaml:"bridge"`
	DebounceMS        int     `mapstructure:"debounce_ms" yaml:"debounce_ms"`
	TransitionDelayMS int     `mapstructure:"transition_delay_ms" yaml:"transition_delay_ms"`
	DeadlineDays      int     `mapstructure:"deadline_days" yaml:"deadline_days"`
	DateFormat        string  `mapstructure:"date_format" yaml:"date_format"`
	Preview           bool    `mapstructure:"preview" yaml:"preview"`
	LiveValidation    bool    `mapstructure:"live_validation" yaml:"live_validation"`
	Animations        bool    `mapstructure:"animations" yaml:"animations"`
	LogLevel          string  `mapstructure:"log_level" yaml:"log_level"`
	LogFile           string  `mapstructure:"log_file" yaml:"log_file"`
	Listen            string  `mapstructure:"listen" yaml:"listen"`
	RequestRate       float64 `mapstructure:"request_rate" yaml:"request_rate"`
}

// keys lists every configuration key, in the order they are bound to ENV vars.
var keys = []string{
	"service_url",
	"session",
	"bridge",
	"debounce_ms",
	"transition_delay_ms",
	"deadline_days",
	"date_format",
	"preview",
	"live_validation",
	"animations",
	"log_level",
	"log_file",
	"listen",
	"request_rate",
}

// Default returns the configuration used when no file or ENV override exists.
func Default() *Config {
	return &Config{
		ServiceURL:        "http://localhost:8484",
		Session:           "default",
		Bridge:            BridgeEmbedded,
		DebounceMS:        300,
		TransitionDelayMS: 300,
		DeadlineDays:      7,
		DateFormat:        "02/01/2006",
		Preview:           true,
		LiveValidation:    true,
		Animations:        true,
		LogLevel:          "info",
		LogFile:           "",
		Listen:            "localhost:8484",
		RequestRate:       10,
	}
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("remindr")

	d := Default()
	v.SetDefault("service_url", d.ServiceURL)
	v.SetDefault("session", d.Session)
	v.SetDefault("bridge", d.Bridge)
	v.SetDefault("debounce_ms", d.DebounceMS)
	v.SetDefault("transition_delay_ms", d.TransitionDelayMS)
	v.SetDefault("deadline_days", d.DeadlineDays)
	v.SetDefault("date_format", d.DateFormat)
	v.SetDefault("preview", d.Preview)
	v.SetDefault("live_validation", d.LiveValidation)
	v.SetDefault("animations", d.Animations)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("listen", d.Listen)
	v.SetDefault("request_rate", d.RequestRate)

	// Setup ENV binding with REMINDR_ prefix
	v.SetEnvPrefix("REMINDR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicit ENV bindings for better bool/int parsing
	for _, key := range keys {
		if err := v.BindEnv(key, "REMINDR_"+strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	// Load global config first (if exists)
	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	// Merge project config on top (if exists)
	projectPath := ProjectPath()
	if fileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail late, at first fetch.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServiceURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid service_url %q: must be an absolute http(s) URL", c.ServiceURL)
	}
	if c.DebounceMS < 0 {
		return fmt.Errorf("debounce_ms must be >= 0")
	}
	if c.TransitionDelayMS < 0 {
		return fmt.Errorf("transition_delay_ms must be >= 0")
	}
	if c.DeadlineDays < 0 {
		return fmt.Errorf("deadline_days must be >= 0")
	}
	if c.Session == "" || strings.ContainsAny(c.Session, ". *>") {
		return fmt.Errorf("invalid session %q: must be non-empty without dots, spaces or wildcards", c.Session)
	}
	return nil
}

// Debounce returns the quiet period applied to level commits and content edits.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// TransitionDelay returns the cosmetic delay before auto-advancing a step.
func (c *Config) TransitionDelay() time.Duration {
	return time.Duration(c.TransitionDelayMS) * time.Millisecond
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/remindr/remindr.yml or $XDG_CONFIG_HOME/remindr/remindr.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "remindr", "remindr.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "remindr", "remindr.yml")
}

// ProjectPath returns the project-local config path.
func ProjectPath() string {
	return "remindr.yml"
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	path := GlobalPath()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return write(path, cfg)
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	return write(ProjectPath(), cfg)
}

func write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
