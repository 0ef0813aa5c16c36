package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	defaultListenAddr      = "0.0.0.0:7171"
	defaultSrvWriteTimeout = 15 * time.Second
	defaultSrvReadTimeout  = 15 * time.Second
	defaultMatcherPeriod   = 1 * time.Second
	defaultInitialBackoff  = 2 * time.Second
	defaultMaxBackoff      = 30 * time.Second

	// SampleNodeConfigPath is the default config file name the process
	// looks for when no path is given on the command line.
	SampleNodeConfigPath = "cond-matcher.example.toml"

	// EnvPrefix namespaces the environment variables viper overlays on top
	// of the config file, e.g. COND_MATCHER_ASSETS.
	EnvPrefix = "COND_MATCHER"
)

var validate = validator.New()

// ErrEmptyConfigPath is returned when a config path argument is blank.
var ErrEmptyConfigPath = errors.New("empty configuration file path")

type (
	// Config defines all process configuration for the matcher.
	Config struct {
		ConfigDir     string   `mapstructure:"config_dir"`
		Assets        []string `mapstructure:"assets" validate:"required,gt=0,dive,required"`
		MatcherPeriod string   `mapstructure:"matcher_period"`
		Oracle        Oracle   `mapstructure:"oracle" validate:"required"`
		Server        Server   `mapstructure:"server"`
		Repository    string   `mapstructure:"repository"`
	}

	// Oracle configures the streaming client that feeds the price cache.
	Oracle struct {
		Endpoint       string `mapstructure:"endpoint" validate:"required"`
		Pair           string `mapstructure:"pair"`
		InitialBackoff string `mapstructure:"initial_backoff"`
		MaxBackoff     string `mapstructure:"max_backoff"`
	}

	// Server defines the HTTP CRUD surface configuration.
	Server struct {
		ListenAddr     string   `mapstructure:"listen_addr"`
		WriteTimeout   string   `mapstructure:"write_timeout"`
		ReadTimeout    string   `mapstructure:"read_timeout"`
		VerboseCORS    bool     `mapstructure:"verbose_cors"`
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	}
)

// Validate returns an error if the Config object is invalid.
func (c Config) Validate() error {
	if err := c.validateAssets(); err != nil {
		return err
	}
	return validate.Struct(c)
}

func (c Config) validateAssets() error {
	seen := make(map[string]struct{}, len(c.Assets))
	for _, asset := range c.Assets {
		if asset == "" {
			return fmt.Errorf("asset pair cannot be empty")
		}
		if _, ok := seen[asset]; ok {
			return fmt.Errorf("duplicate asset pair: %s", asset)
		}
		seen[asset] = struct{}{}
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = defaultListenAddr
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = defaultSrvWriteTimeout.String()
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = defaultSrvReadTimeout.String()
	}
	if c.MatcherPeriod == "" {
		c.MatcherPeriod = defaultMatcherPeriod.String()
	}
	if c.Oracle.InitialBackoff == "" {
		c.Oracle.InitialBackoff = defaultInitialBackoff.String()
	}
	if c.Oracle.MaxBackoff == "" {
		c.Oracle.MaxBackoff = defaultMaxBackoff.String()
	}
	if c.Repository == "" {
		c.Repository = "memory"
	}
}

// MatcherTickPeriod parses MatcherPeriod into a time.Duration.
func (c Config) MatcherTickPeriod() (time.Duration, error) {
	return time.ParseDuration(c.MatcherPeriod)
}

// OracleBackoffs parses the oracle client's initial and max backoff durations.
func (c Config) OracleBackoffs() (initial, max time.Duration, err error) {
	initial, err = time.ParseDuration(c.Oracle.InitialBackoff)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid oracle initial_backoff: %w", err)
	}
	max, err = time.ParseDuration(c.Oracle.MaxBackoff)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid oracle max_backoff: %w", err)
	}
	return initial, max, nil
}
