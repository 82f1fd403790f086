package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/geohop/internal/client/domain"
	"github.com/spf13/viper"
)

// Config is the client configuration.
type Config struct {
	Regions []RegionConfig `mapstructure:"regions"`

	TokenDurationSeconds int `mapstructure:"token_duration_seconds"`
	RefreshBufferSeconds int `mapstructure:"refresh_buffer_seconds"`
	ProbeTimeoutMS       int `mapstructure:"probe_timeout_ms"`
	HandshakeTimeoutMS   int `mapstructure:"handshake_timeout_ms"`

	Env       string `mapstructure:"env"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// RegionConfig is one entry of the regions list. A list rather than a map
// keeps the configured order and the case of region codes.
type RegionConfig struct {
	Code      string   `mapstructure:"code"`
	Name      string   `mapstructure:"name"`
	Endpoints []string `mapstructure:"endpoints"`
}

// Load reads path, or geohop.yaml from . or ./configs when path is empty,
// applies GEOHOP_* environment overrides and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("geohop")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix("GEOHOP")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("token_duration_seconds", 300)
	v.SetDefault("refresh_buffer_seconds", 60)
	v.SetDefault("probe_timeout_ms", 3000)
	v.SetDefault("handshake_timeout_ms", 10000)

	v.SetDefault("env", "prod")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

func (c *Config) TokenDuration() time.Duration {
	return time.Duration(c.TokenDurationSeconds) * time.Second
}

func (c *Config) RefreshBuffer() time.Duration {
	return time.Duration(c.RefreshBufferSeconds) * time.Second
}

func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutMS) * time.Millisecond
}

func (c *Config) HandshakeTimeout() time.Duration {
	return time.Duration(c.HandshakeTimeoutMS) * time.Millisecond
}

// DomainRegions converts the configured regions, keeping their order.
func (c *Config) DomainRegions() domain.Regions {
	out := make(domain.Regions, 0, len(c.Regions))
	for _, r := range c.Regions {
		name := r.Name
		if name == "" {
			name = r.Code
		}
		out = append(out, domain.Region{
			Code:      r.Code,
			Name:      name,
			Endpoints: append([]string(nil), r.Endpoints...),
		})
	}
	return out
}
