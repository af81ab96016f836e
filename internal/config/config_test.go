package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadFrom_MissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "", cfg.DefaultProfile)
	assert.Equal(t, "", cfg.DefaultRegion)
}

func TestLoadFrom_EmptyPath(t *testing.T) {
	cfg, err := LoadFrom("")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestLoadFrom_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `default_profile: my-profile
default_region: eu-west-1
endpoint: https://iam.example.test
timeout: 30
retry:
  max_attempts: 5
  initial_delay_ms: 200
  max_delay_ms: 2000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "my-profile", cfg.DefaultProfile)
	assert.Equal(t, "eu-west-1", cfg.DefaultRegion)
	assert.Equal(t, "https://iam.example.test", cfg.Endpoint)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())

	p := cfg.RetryPolicy()
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, p.InitialInterval)
	assert.Equal(t, 2*time.Second, p.MaxInterval)
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout: [not-a-number\n"), 0644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestConfig_DefaultTimeout(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout())

	cfg.Timeout = -5
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout())

	cfg.Timeout = 1
	assert.Equal(t, time.Second, cfg.RequestTimeout())
}

func TestConfig_RetryPolicyDefaults(t *testing.T) {
	cfg := &Config{}
	p := cfg.RetryPolicy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, time.Second, p.InitialInterval)
}

func TestConfig_RetryPolicyClampsMaxInterval(t *testing.T) {
	cfg := &Config{Retry: Retry{InitialDelayMS: 5000, MaxDelayMS: 100}}
	p := cfg.RetryPolicy()
	assert.Equal(t, 5*time.Second, p.MaxInterval)
}

func TestConfig_YAMLRoundTripKeys(t *testing.T) {
	data := []byte("access_key_id: AKIA\nsecret_access_key: s3cr3t\nsession_token: tok\n")
	var cfg Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, "AKIA", cfg.AccessKeyID)
	assert.Equal(t, "s3cr3t", cfg.SecretAccessKey)
	assert.Equal(t, "tok", cfg.SessionToken)
}

func TestMerge_CLIFlagsTakePrecedence(t *testing.T) {
	cfg := &Config{DefaultProfile: "config-profile", DefaultRegion: "us-east-1"}

	// CLI flags override
	p, r := cfg.Merge("cli-profile", "ap-south-1")
	assert.Equal(t, "cli-profile", p)
	assert.Equal(t, "ap-south-1", r)

	// Empty flags fall back to config
	p, r = cfg.Merge("", "")
	assert.Equal(t, "config-profile", p)
	assert.Equal(t, "us-east-1", r)

	// Partial override
	p, r = cfg.Merge("other", "")
	assert.Equal(t, "other", p)
	assert.Equal(t, "us-east-1", r)
}

func TestConfig_Profile(t *testing.T) {
	cfg := &Config{
		DefaultProfile: "dev",
		Endpoint:       "https://iam.config.test",
		Timeout:        5,
		AccessKeyID:    "AKIA",
	}

	p := cfg.Profile("", "us-west-2", "")
	assert.Equal(t, "dev", p.Name)
	assert.Equal(t, "us-west-2", p.Region)
	assert.Equal(t, "https://iam.config.test", p.Endpoint)
	assert.Equal(t, 5*time.Second, p.Timeout)
	assert.Equal(t, "AKIA", p.AccessKeyID)

	p = cfg.Profile("", "", "https://iam.flag.test")
	assert.Equal(t, "https://iam.flag.test", p.Endpoint)
}
