package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

type (
	Config struct {
		Gateway   GatewayConfig            `yaml:"gateway"`
		Logging   LoggingConfig            `yaml:"logging"`
		Access    AccessConfig             `yaml:"access"`
		RateLimit RateLimitConfig          `yaml:"rate_limit"`
		Router    RouterConfig             `yaml:"router"`
		Channels  map[string]ChannelConfig `yaml:"channels"`
	}

	GatewayConfig struct {
		Bind                  string `yaml:"bind"`
		MaxConcurrentSessions int    `yaml:"max_concurrent_sessions"`
		RequestTimeout        int    `yaml:"request_timeout"`
		// MaintenanceSchedule is a 5-field cron expression driving the
		// periodic rate-limiter sweep and access-rule cache refresh.
		MaintenanceSchedule string `yaml:"maintenance_schedule"`
	}

	LoggingConfig struct {
		Level      string `yaml:"level"`  // debug, info, warn, error
		Format     string `yaml:"format"` // json, text
		Output     string `yaml:"output"` // stdout, file, both
		File       string `yaml:"file"`
		MaxSize    int    `yaml:"max_size"` // MB
		MaxBackups int    `yaml:"max_backups"`
		MaxAge     int    `yaml:"max_age"` // days
	}

	AccessConfig struct {
		RulesFile string `yaml:"rules_file"`
	}

	RateLimitConfig struct {
		MaxRequests     int `yaml:"max_requests"`
		WindowSeconds   int `yaml:"window_seconds"`
		CleanupInterval int `yaml:"cleanup_interval_seconds"`
	}

	RouterConfig struct {
		Type           string `yaml:"type"` // echo, http
		URL            string `yaml:"url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	}

	ChannelConfig struct {
		ID         string                 `yaml:"-"`
		Type       string                 `yaml:"type"` // whatsapp, discord
		Enabled    bool                   `yaml:"enabled"`
		Instance   string                 `yaml:"instance"`
		Connection ConnectionConfig       `yaml:"connection,omitempty"`
		Config     map[string]interface{} `yaml:"config"`
	}

	ConnectionConfig struct {
		MaxRetries       int `yaml:"max_retries"`
		FailureThreshold int `yaml:"failure_threshold"`
		RecoveryTimeout  int `yaml:"recovery_timeout"` // seconds
	}
)

// InstanceName returns the configured instance name, falling back to the
// channel's map key when unset.
func (c ChannelConfig) InstanceName() string {
	if strings.TrimSpace(c.Instance) != "" {
		return c.Instance
	}
	return c.ID
}

// UpdateByName replaces one named section of the config.
func (c *Config) UpdateByName(name string, value any) error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	normalizedName := strings.ToLower(strings.TrimSpace(name))
	if normalizedName == "" {
		return fmt.Errorf("name is required")
	}

	switch normalizedName {
	case "config":
		typed, ok := value.(*Config)
		if !ok || typed == nil {
			return fmt.Errorf("name 'config' requires *Config")
		}
		*c = *typed
	case "gateway":
		typed, ok := value.(*GatewayConfig)
		if !ok || typed == nil {
			return fmt.Errorf("name 'gateway' requires *GatewayConfig")
		}
		c.Gateway = *typed
	case "logging":
		typed, ok := value.(*LoggingConfig)
		if !ok || typed == nil {
			return fmt.Errorf("name 'logging' requires *LoggingConfig")
		}
		c.Logging = *typed
	case "access":
		typed, ok := value.(*AccessConfig)
		if !ok || typed == nil {
			return fmt.Errorf("name 'access' requires *AccessConfig")
		}
		c.Access = *typed
	case "rate_limit":
		typed, ok := value.(*RateLimitConfig)
		if !ok || typed == nil {
			return fmt.Errorf("name 'rate_limit' requires *RateLimitConfig")
		}
		c.RateLimit = *typed
	case "router":
		typed, ok := value.(*RouterConfig)
		if !ok || typed == nil {
			return fmt.Errorf("name 'router' requires *RouterConfig")
		}
		c.Router = *typed
	case "channels":
		typed, ok := value.(*map[string]ChannelConfig)
		if !ok || typed == nil {
			return fmt.Errorf("name 'channels' requires *map[string]ChannelConfig")
		}
		next := make(map[string]ChannelConfig, len(*typed))
		for k, v := range *typed {
			next[k] = v
		}
		c.Channels = next
	default:
		return fmt.Errorf("unsupported config name: %s", name)
	}

	return nil
}

// Clone .
func (c *Config) Clone() (*Config, error) {
	if c == nil {
		return nil, fmt.Errorf("config is nil")
	}

	raw, err := sonic.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	var cloned Config
	if err := sonic.Unmarshal(raw, &cloned); err != nil {
		return nil, fmt.Errorf("unmarshal config clone: %w", err)
	}

	return &cloned, nil
}

// Hash .
func (c *Config) Hash() string {
	json := sonic.Config{SortMapKeys: true, UseNumber: true}.Froze()
	raw, _ := json.Marshal(c)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
