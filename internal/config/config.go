// Package config centralizes all workbench client configuration. Values are
// resolved once at startup (file, environment, defaults, in that order) and
// threaded explicitly through sessions and conduits.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Environment variables honored in addition to the BENCHAI_* viper bindings.
const (
	EnvSaveDir   = "BENCHAI_SAVEDIR"
	EnvAgentPath = "BENCHAI_AGENT_PATH"
)

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// AgentConfig locates the external agent and its transports.
type AgentConfig struct {
	// Path is the agent executable, overridable via BENCHAI_AGENT_PATH.
	Path string `mapstructure:"path" yaml:"path"`
	// BaseURL enables the HTTP transport when non-empty.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// HTTPTimeout bounds one HTTP round trip to the agent.
	HTTPTimeout time.Duration `mapstructure:"http_timeout" yaml:"http_timeout"`
}

// SessionConfig carries the per-session defaults and the live-protocol tuning.
type SessionConfig struct {
	// SaveRoot anchors the on-disk session tree. Defaults to ~/.cache/benchai,
	// overridable via BENCHAI_SAVEDIR.
	SaveRoot string `mapstructure:"save_root" yaml:"save_root"`
	// SessionLifetime is the default session lifetime in milliseconds.
	SessionLifetime int `mapstructure:"session_lifetime" yaml:"session_lifetime"`
	// CommandLifetime is the default per-command lifetime in milliseconds. It
	// also bounds how long a live command is awaited before giving up.
	CommandLifetime int `mapstructure:"command_lifetime" yaml:"command_lifetime"`
	// PollInterval paces the response-marker polling loop.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// Config is the root configuration object.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Agent   AgentConfig   `mapstructure:"agent" yaml:"agent"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "workbench")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	v.SetDefault("agent.path", "agent")
	v.SetDefault("agent.base_url", "")
	v.SetDefault("agent.http_timeout", "5m")

	v.SetDefault("session.save_root", "")
	v.SetDefault("session.session_lifetime", 32_766)
	v.SetDefault("session.command_lifetime", 5_000)
	v.SetDefault("session.poll_interval", "250ms")
}

// Load reads configuration from an optional file plus the environment and
// returns a validated Config. A missing config file is not an error.
func Load(cfgFile string) (*Config, error) {
	// A .env beside the binary is honored the same way the agent honors it.
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("workbench")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("BENCHAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The historical flat spellings take precedence over the nested keys.
	_ = v.BindEnv("session.save_root", EnvSaveDir)
	_ = v.BindEnv("agent.path", EnvAgentPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	return NewFromViper(v)
}

// NewFromViper unmarshals and validates a Config from a prepared viper instance.
func NewFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Session.SaveRoot == "" {
		root, err := defaultSaveRoot()
		if err != nil {
			return nil, err
		}
		cfg.Session.SaveRoot = root
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// NewDefaultConfig returns a Config populated with defaults only.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewFromViper(v)
	if err != nil {
		panic(fmt.Sprintf("failed to build default config: %v", err))
	}
	return cfg
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Agent.Path == "" {
		return fmt.Errorf("agent.path must not be empty")
	}
	if c.Session.CommandLifetime <= 0 {
		return fmt.Errorf("session.command_lifetime must be a positive number of milliseconds")
	}
	if c.Session.CommandLifetime > c.Session.SessionLifetime {
		return fmt.Errorf("session.command_lifetime cannot exceed session.session_lifetime")
	}
	if c.Session.PollInterval <= 0 {
		return fmt.Errorf("session.poll_interval must be a positive duration")
	}
	return nil
}

func defaultSaveRoot() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "benchai"), nil
}
