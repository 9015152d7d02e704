// Package config loads robonav settings from a YAML file and ROBONAV_*
// environment variables on top of built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/zeusync/robonav/internal/core/level"
	"github.com/zeusync/robonav/internal/core/movement"
	"github.com/zeusync/robonav/internal/core/observability/log"
)

// EnvPrefix prefixes every environment override, e.g. ROBONAV_SERVER_ADDR.
const EnvPrefix = "ROBONAV"

type Config struct {
	Log    log.Config        `mapstructure:"log" yaml:"log"`
	Engine EngineConfig      `mapstructure:"engine" yaml:"engine"`
	Noise  level.NoiseConfig `mapstructure:"noise" yaml:"noise"`
	Server ServerConfig      `mapstructure:"server" yaml:"server"`
}

type EngineConfig struct {
	FieldWidth  int     `mapstructure:"field_width" yaml:"field_width"`
	FieldHeight int     `mapstructure:"field_height" yaml:"field_height"`
	SpawnX      float64 `mapstructure:"spawn_x" yaml:"spawn_x"`
	SpawnY      float64 `mapstructure:"spawn_y" yaml:"spawn_y"`
	// Seed pins generated fields; 0 draws a fresh seed per field.
	Seed       int64         `mapstructure:"seed" yaml:"seed"`
	Movement   string        `mapstructure:"movement" yaml:"movement"`
	Fallback   string        `mapstructure:"fallback" yaml:"fallback"`
	TickPeriod time.Duration `mapstructure:"tick_period" yaml:"tick_period"`
	TickStep   int           `mapstructure:"tick_step" yaml:"tick_step"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	CommandRate     float64       `mapstructure:"command_rate" yaml:"command_rate"`
	CommandBurst    int           `mapstructure:"command_burst" yaml:"command_burst"`
	MaxMessageBytes int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	logDefaults := log.DefaultConfig()
	v.SetDefault("log.level", logDefaults.Level)
	v.SetDefault("log.encoding", logDefaults.Encoding)
	v.SetDefault("log.file", logDefaults.File)
	v.SetDefault("log.max_size_mb", logDefaults.MaxSizeMB)
	v.SetDefault("log.max_backups", logDefaults.MaxBackups)
	v.SetDefault("log.max_age_days", logDefaults.MaxAgeDays)
	v.SetDefault("log.compress", logDefaults.Compress)

	v.SetDefault("engine.field_width", 50)
	v.SetDefault("engine.field_height", 50)
	v.SetDefault("engine.spawn_x", 2.0)
	v.SetDefault("engine.spawn_y", 2.0)
	v.SetDefault("engine.seed", 0)
	v.SetDefault("engine.movement", movement.NameDirect)
	v.SetDefault("engine.fallback", movement.NameStraight)
	v.SetDefault("engine.tick_period", "10ms")
	v.SetDefault("engine.tick_step", 10)

	noise := level.DefaultNoiseConfig()
	v.SetDefault("noise.alpha", noise.Alpha)
	v.SetDefault("noise.beta", noise.Beta)
	v.SetDefault("noise.octaves", noise.Octaves)
	v.SetDefault("noise.frequency", noise.Frequency)
	v.SetDefault("noise.threshold", noise.Threshold)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.command_rate", 50.0)
	v.SetDefault("server.command_burst", 20)
	v.SetDefault("server.max_message_bytes", 4096)
	v.SetDefault("server.write_timeout", "5s")
	v.SetDefault("server.shutdown_timeout", "5s")
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewViper returns a viper instance with defaults, environment binding and
// the config file at path loaded. With an empty path ./robonav.yaml is read
// if it exists.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("robonav")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load reads the config file at path (optional when empty) and environment
// overrides, then validates the result.
func Load(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks for values the engine or server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Encoding != "json" && c.Log.Encoding != "console" {
		errs = append(errs, fmt.Errorf("log.encoding must be json or console, got %q", c.Log.Encoding))
	}
	if c.Engine.FieldWidth < 3 || c.Engine.FieldHeight < 3 {
		errs = append(errs, fmt.Errorf("engine field must be at least 3x3, got %dx%d", c.Engine.FieldWidth, c.Engine.FieldHeight))
	}
	if c.Engine.TickPeriod <= 0 {
		errs = append(errs, errors.New("engine.tick_period must be positive"))
	}
	if c.Engine.TickStep <= 0 {
		errs = append(errs, errors.New("engine.tick_step must be positive"))
	}
	if c.Engine.Movement == "" {
		errs = append(errs, errors.New("engine.movement is required"))
	}
	switch c.Engine.Fallback {
	case "", movement.NameDirect, movement.NameStraight:
	default:
		errs = append(errs, fmt.Errorf("engine.fallback must be %s or %s, got %q", movement.NameDirect, movement.NameStraight, c.Engine.Fallback))
	}
	if c.Noise.Octaves <= 0 {
		errs = append(errs, errors.New("noise.octaves must be positive"))
	}
	if c.Noise.Frequency <= 0 {
		errs = append(errs, errors.New("noise.frequency must be positive"))
	}
	if c.Server.CommandRate <= 0 || c.Server.CommandBurst <= 0 {
		errs = append(errs, errors.New("server.command_rate and server.command_burst must be positive"))
	}
	if c.Server.MaxMessageBytes <= 0 {
		errs = append(errs, errors.New("server.max_message_bytes must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
