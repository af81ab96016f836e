package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	awsclient "tasnim.dev/iamsync/internal/aws"
	"tasnim.dev/iamsync/internal/constants"
	"tasnim.dev/iamsync/internal/retry"
)

const defaultTimeout = 10 * time.Second

// Config holds optional defaults loaded from ~/.config/iamsync/config.yaml.
type Config struct {
	DefaultProfile  string `yaml:"default_profile"`
	DefaultRegion   string `yaml:"default_region"`
	Endpoint        string `yaml:"endpoint"`
	Timeout         int    `yaml:"timeout"` // seconds
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	Retry           Retry  `yaml:"retry"`
}

// Retry tunes the reconcile retry loop.
type Retry struct {
	MaxAttempts    int `yaml:"max_attempts"`
	InitialDelayMS int `yaml:"initial_delay_ms"`
	MaxDelayMS     int `yaml:"max_delay_ms"`
}

// DefaultPath returns ~/.config/iamsync/config.yaml, or "" if the home
// directory cannot be resolved.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", constants.ConfigDir, "config.yaml")
}

// Load reads the default config file. Returns zero-value Config if the file doesn't exist.
func Load() (*Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads the config file at path. A missing file yields a zero-value Config.
func LoadFrom(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Merge applies CLI flag overrides. Flags take precedence over config defaults.
func (c *Config) Merge(profile, region string) (string, string) {
	p := c.DefaultProfile
	if profile != "" {
		p = profile
	}
	r := c.DefaultRegion
	if region != "" {
		r = region
	}
	return p, r
}

// RequestTimeout returns the per-request timeout, defaulting to 10s when unset
// or not positive.
func (c *Config) RequestTimeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultTimeout
	}
	return time.Duration(c.Timeout) * time.Second
}

// RetryPolicy overlays the configured retry settings on retry.DefaultPolicy.
func (c *Config) RetryPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	if c.Retry.MaxAttempts > 0 {
		p.MaxAttempts = c.Retry.MaxAttempts
	}
	if c.Retry.InitialDelayMS > 0 {
		p.InitialInterval = time.Duration(c.Retry.InitialDelayMS) * time.Millisecond
	}
	if c.Retry.MaxDelayMS > 0 {
		p.MaxInterval = time.Duration(c.Retry.MaxDelayMS) * time.Millisecond
	}
	if p.MaxInterval < p.InitialInterval {
		p.MaxInterval = p.InitialInterval
	}
	return p
}

// Profile resolves the connection profile. profile and region are CLI
// overrides; endpoint overrides the configured endpoint when non-empty.
func (c *Config) Profile(profile, region, endpoint string) awsclient.Profile {
	p, r := c.Merge(profile, region)
	if endpoint == "" {
		endpoint = c.Endpoint
	}
	return awsclient.Profile{
		Name:            p,
		Region:          r,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		SessionToken:    c.SessionToken,
		Timeout:         c.RequestTimeout(),
		Endpoint:        endpoint,
	}
}
