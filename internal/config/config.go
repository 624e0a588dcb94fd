// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	appName    = "intake"
	envPrefix  = "INTAKE"
	configFile = "intake.yml"
)

// Config holds all configuration values for intake.
type Config struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	DataDir      string        `mapstructure:"data_dir" yaml:"data_dir"`
	LogLevel     string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat    string        `mapstructure:"log_format" yaml:"log_format"`
	LogFile      string        `mapstructure:"log_file" yaml:"log_file"`
	AdminToken   string        `mapstructure:"admin_token" yaml:"admin_token"`
	ThankYouPath string        `mapstructure:"thank_you_path" yaml:"thank_you_path"`
	SessionTTL   time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`
	Theme        string        `mapstructure:"theme" yaml:"theme"`
	ThemeVariant string        `mapstructure:"theme_variant" yaml:"theme_variant"`
}

var keys = []string{
	"addr",
	"data_dir",
	"log_level",
	"log_format",
	"log_file",
	"admin_token",
	"thank_you_path",
	"session_ttl",
	"theme",
	"theme_variant",
}

type loadOptions struct {
	flags       *pflag.FlagSet
	projectPath string
	globalPath  string
}

// LoadOption customises Load.
type LoadOption func(*loadOptions)

// WithFlags binds command flags; a flag that was set wins over every other
// source. Flag names use dashes in place of underscores.
func WithFlags(flags *pflag.FlagSet) LoadOption {
	return func(o *loadOptions) { o.flags = flags }
}

// WithProjectPath overrides ./intake.yml.
func WithProjectPath(path string) LoadOption {
	return func(o *loadOptions) { o.projectPath = path }
}

// WithGlobalPath overrides the XDG global config location.
func WithGlobalPath(path string) LoadOption {
	return func(o *loadOptions) { o.globalPath = path }
}

// Defaults returns the configuration used when no source sets a key.
func Defaults() Config {
	return Config{
		Addr:         ":8080",
		DataDir:      ".intake",
		LogLevel:     "info",
		LogFormat:    "json",
		ThankYouPath: "/thank-you",
		SessionTTL:   30 * time.Minute,
		Theme:        "intake",
		ThemeVariant: "light",
	}
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load(options ...LoadOption) (*Config, error) {
	opts := loadOptions{projectPath: ProjectPath(), globalPath: GlobalPath()}
	for _, opt := range options {
		opt(&opts)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName(appName)

	d := Defaults()
	v.SetDefault("addr", d.Addr)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("log_file", "")
	v.SetDefault("admin_token", "")
	v.SetDefault("thank_you_path", d.ThankYouPath)
	v.SetDefault("session_ttl", d.SessionTTL)
	v.SetDefault("theme", d.Theme)
	v.SetDefault("theme_variant", d.ThemeVariant)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key, envPrefix+"_"+strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	if opts.flags != nil {
		for _, key := range keys {
			flag := opts.flags.Lookup(strings.ReplaceAll(key, "_", "-"))
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("binding %s flag: %w", key, err)
			}
		}
	}

	if fileExists(opts.globalPath) {
		v.SetConfigFile(opts.globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	if fileExists(opts.projectPath) {
		v.SetConfigFile(opts.projectPath)
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

// GlobalPath returns the XDG global config path.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, configFile)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName, configFile)
}

// ProjectPath returns the project-local config path.
func ProjectPath() string {
	return configFile
}

// WriteProject writes cfg to path as YAML.
func WriteProject(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
