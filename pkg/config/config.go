package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for graforest-mcp.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (the RationalBloks service account key) must only come from environment
// variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8780"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Gateway is the RationalBloks provisioning gateway configuration.
	Gateway GatewayConfig `yaml:"gateway"`

	// Graph is the deployed Graph API configuration.
	Graph GraphConfig `yaml:"graph"`
}

// GatewayConfig holds the RationalBloks MCP gateway settings.
// All provisioning operations (create/deploy/list/delete graph projects) go through
// this single gateway, authenticated with the Graforest service account key.
type GatewayConfig struct {
	// URL is the base URL of the public RationalBloks MCP gateway.
	URL string `yaml:"url" env:"RATIONALBLOKS_MCP_URL" env-default:"https://logicblok.rationalbloks.com"`

	// ServiceKey is the Graforest service account key (rb_sk_...).
	// Individual Graforest users never see this key, and it must never be
	// echoed back in any tool response.
	ServiceKey string `yaml:"-" env:"GRAFOREST_RB_API_KEY"`

	// RequestTimeoutSeconds bounds each individual gateway HTTP call.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" env:"GATEWAY_REQUEST_TIMEOUT_SECONDS" env-default:"120"`

	// PollIntervalSeconds is the sleep between deployment job status polls.
	PollIntervalSeconds int `yaml:"poll_interval_seconds" env:"GATEWAY_POLL_INTERVAL_SECONDS" env-default:"3"`

	// PollMaxWaitSeconds is the wall-clock ceiling on total poll time for one
	// provisioning call. The remote job is not cancelled on timeout.
	PollMaxWaitSeconds int `yaml:"poll_max_wait_seconds" env:"GATEWAY_POLL_MAX_WAIT_SECONDS" env-default:"300"`
}

// GraphConfig holds settings for deployed Graph API endpoints.
type GraphConfig struct {
	// Host is the apex domain Graph APIs are deployed under. A project whose
	// code is "abc12345" is reachable at https://abc12345-staging.<host>
	// (staging) or https://abc12345.<host> (production).
	Host string `yaml:"host" env:"GRAPH_API_HOST" env-default:"rationalbloks.com"`

	// RequestTimeoutSeconds bounds each individual Graph API HTTP call.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" env:"GRAPH_REQUEST_TIMEOUT_SECONDS" env-default:"60"`
}

// RequestTimeout returns the gateway per-call timeout as a duration.
func (c *GatewayConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// PollInterval returns the poll sleep as a duration.
func (c *GatewayConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// PollMaxWait returns the poll ceiling as a duration.
func (c *GatewayConfig) PollMaxWait() time.Duration {
	return time.Duration(c.PollMaxWaitSeconds) * time.Second
}

// RequestTimeout returns the Graph API per-call timeout as a duration.
func (c *GraphConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv reads configuration from environment variables only, without
// requiring a config.yaml. Used by tests and container deployments that
// configure everything through the environment.
func LoadFromEnv(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate rejects configurations that would fail at first use.
func (c *Config) validate() error {
	u, err := url.Parse(c.Gateway.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("gateway url %q is not an absolute URL", c.Gateway.URL)
	}
	if c.Graph.Host == "" {
		return fmt.Errorf("graph host must not be empty")
	}
	if c.Gateway.PollIntervalSeconds <= 0 {
		return fmt.Errorf("gateway poll interval must be positive, got %d", c.Gateway.PollIntervalSeconds)
	}
	if c.Gateway.PollMaxWaitSeconds <= 0 {
		return fmt.Errorf("gateway poll max wait must be positive, got %d", c.Gateway.PollMaxWaitSeconds)
	}
	return nil
}
