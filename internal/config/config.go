// Package config loads service settings from a config file, SPACEWEGO_*
// environment variables and flags, and reloads them when the file changes.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/dstuartbryant/spacewego/internal/earthmodel"
	"github.com/dstuartbryant/spacewego/internal/ephem"
	"github.com/dstuartbryant/spacewego/internal/propagation"
	"github.com/dstuartbryant/spacewego/internal/trajectory"
)

// EnvPrefix is prepended to every environment variable, with dots in
// nested keys replaced by underscores (SPACEWEGO_PROPAGATION_WORKERS).
const EnvPrefix = "SPACEWEGO"

// PropagationConfig bounds trajectory requests.
type PropagationConfig struct {
	Workers       int           `mapstructure:"workers"`
	MaxStep       time.Duration `mapstructure:"max_step"`
	MaxSamples    int           `mapstructure:"max_samples"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxConcurrent int64         `mapstructure:"max_concurrent"`
	MinRadius     float64       `mapstructure:"min_radius"`
}

// RateLimitConfig is the per-client token bucket for trajectory endpoints.
type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute"`
	Burst     int `mapstructure:"burst"`
}

// StreamConfig controls websocket trajectory streams.
type StreamConfig struct {
	MaxConcurrentPerIP int           `mapstructure:"max_concurrent_per_ip"`
	KeepaliveInterval  time.Duration `mapstructure:"keepalive_interval"`
}

// CORSConfig lists the allowed origins.
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// Config holds all runtime configuration.
type Config struct {
	HTTPAddr    string            `mapstructure:"http_addr"`
	LogLevel    string            `mapstructure:"log_level"`
	EarthModel  string            `mapstructure:"earth_model"`
	SunModel    string            `mapstructure:"sun_model"`
	TrustProxy  bool              `mapstructure:"trust_proxy"`
	OutputDir   string            `mapstructure:"output_dir"`
	Propagation PropagationConfig `mapstructure:"propagation"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Stream      StreamConfig      `mapstructure:"stream"`
	CORS        CORSConfig        `mapstructure:"cors"`
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":5001")
	v.SetDefault("log_level", "info")
	v.SetDefault("earth_model", "EGM96")
	v.SetDefault("sun_model", "almanac")
	v.SetDefault("trust_proxy", false)
	v.SetDefault("output_dir", ".")
	v.SetDefault("propagation.workers", runtime.NumCPU())
	v.SetDefault("propagation.max_step", "10s")
	v.SetDefault("propagation.max_samples", 20000)
	v.SetDefault("propagation.timeout", "30s")
	v.SetDefault("propagation.max_concurrent", 4)
	v.SetDefault("propagation.min_radius", 0.0)
	v.SetDefault("rate_limit.per_minute", 60)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("stream.max_concurrent_per_ip", 4)
	v.SetDefault("stream.keepalive_interval", "30s")
	v.SetDefault("cors.allow_origins", []string{"*"})
}

// Init points v at the config file and environment. An empty cfgFile
// searches for spacewego.yaml in the working directory and the home
// directory. A missing config file is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("spacewego")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects nonsensical values.
func (c Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http_addr must not be empty"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := earthmodel.ByName(c.EarthModel); err != nil {
		errs = append(errs, fmt.Errorf("earth_model: %w", err))
	}
	if _, err := ephem.ByName(c.SunModel); err != nil {
		errs = append(errs, fmt.Errorf("sun_model: %w", err))
	}
	p := c.Propagation
	if p.Workers < 1 {
		errs = append(errs, fmt.Errorf("propagation.workers must be >= 1, got %d", p.Workers))
	}
	if p.MaxStep <= 0 {
		errs = append(errs, fmt.Errorf("propagation.max_step must be positive, got %s", p.MaxStep))
	}
	if p.MaxSamples < 1 {
		errs = append(errs, fmt.Errorf("propagation.max_samples must be >= 1, got %d", p.MaxSamples))
	}
	if p.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("propagation.timeout must be positive, got %s", p.Timeout))
	}
	if p.MaxConcurrent < 1 {
		errs = append(errs, fmt.Errorf("propagation.max_concurrent must be >= 1, got %d", p.MaxConcurrent))
	}
	if p.MinRadius < 0 {
		errs = append(errs, fmt.Errorf("propagation.min_radius must not be negative, got %v", p.MinRadius))
	}
	if c.RateLimit.PerMinute < 1 || c.RateLimit.Burst < 1 {
		errs = append(errs, fmt.Errorf("rate_limit.per_minute and rate_limit.burst must be >= 1"))
	}
	if c.Stream.MaxConcurrentPerIP < 1 {
		errs = append(errs, fmt.Errorf("stream.max_concurrent_per_ip must be >= 1, got %d", c.Stream.MaxConcurrentPerIP))
	}
	if c.Stream.KeepaliveInterval <= 0 {
		errs = append(errs, fmt.Errorf("stream.keepalive_interval must be positive, got %s", c.Stream.KeepaliveInterval))
	}
	if len(c.CORS.AllowOrigins) == 0 {
		errs = append(errs, errors.New("cors.allow_origins must list at least one origin"))
	}
	for _, o := range c.CORS.AllowOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			errs = append(errs, fmt.Errorf("cors.allow_origins: %q must be \"*\" or an http(s) origin", o))
		}
	}
	return errors.Join(errs...)
}

// PropConfig returns the worker pool settings.
func (c Config) PropConfig() propagation.PropConfig {
	return propagation.PropConfig{
		Workers: c.Propagation.Workers,
		MaxStep: c.Propagation.MaxStep,
	}
}

// Limits returns the bounds applied to every trajectory request.
func (c Config) Limits() trajectory.Limits {
	return trajectory.Limits{
		MaxSamples: c.Propagation.MaxSamples,
		MaxStep:    c.Propagation.MaxStep,
		MinRadius:  c.Propagation.MinRadius,
	}
}

// Model returns the configured Earth model.
func (c Config) Model() earthmodel.Model {
	m, err := earthmodel.ByName(c.EarthModel)
	if err != nil {
		return earthmodel.EGM96
	}
	return m
}

// Sun returns the configured solar ephemeris.
func (c Config) Sun() ephem.SunModel {
	s, err := ephem.ByName(c.SunModel)
	if err != nil {
		return ephem.AlmanacSun{}
	}
	return s
}

// ParseLevel parses a slog level name such as "debug" or "WARN".
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// Watch reloads the configuration when the config file changes. onChange
// receives each new configuration that validates; invalid edits are logged
// and ignored. Watch is a no-op when no config file is in use.
func Watch(v *viper.Viper, logger *slog.Logger, onChange func(Config)) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := Load(v)
		if err != nil {
			logger.Warn("config reload rejected", "file", e.Name, "error", err)
			return
		}
		logger.Info("config reloaded", "file", e.Name)
		onChange(cfg)
	})
	v.WatchConfig()
}
