package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	defaultMaxRequests     = 10
	defaultWindowSeconds   = 60
	defaultCleanupInterval = 300

	defaultMaxRetries       = 10
	defaultFailureThreshold = 3
	defaultRecoveryTimeout  = 300
)

// Validate normalizes and checks the whole config. Missing limits are filled
// with defaults so a minimal config file stays minimal.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config cannot be nil")
	}

	if c.RateLimit.MaxRequests <= 0 {
		c.RateLimit.MaxRequests = defaultMaxRequests
	}
	if c.RateLimit.WindowSeconds <= 0 {
		c.RateLimit.WindowSeconds = defaultWindowSeconds
	}
	if c.RateLimit.CleanupInterval <= 0 {
		c.RateLimit.CleanupInterval = defaultCleanupInterval
	}

	c.Router.Type = strings.ToLower(strings.TrimSpace(c.Router.Type))
	switch c.Router.Type {
	case "", "echo":
		c.Router.Type = "echo"
	case "http":
		if strings.TrimSpace(c.Router.URL) == "" {
			return errors.New("router.url is required when router.type=http")
		}
	default:
		return fmt.Errorf("invalid router.type: %s", c.Router.Type)
	}

	normalizedChannels := make(map[string]ChannelConfig, len(c.Channels))
	seenInstances := make(map[string]string, len(c.Channels))
	for key, one := range c.Channels {
		channelID := strings.TrimSpace(key)
		if channelID == "" {
			return errors.New("channel id cannot be empty")
		}
		one.ID = channelID

		if err := one.Validate(); err != nil {
			return fmt.Errorf("channels[%s] validation failed: %w", channelID, err)
		}

		// Socket paths derive from (type, instance); duplicates would collide.
		instKey := one.Type + ":" + one.InstanceName()
		if prev, ok := seenInstances[instKey]; ok {
			return fmt.Errorf("channels[%s] duplicates instance %q of channels[%s]", channelID, one.InstanceName(), prev)
		}
		seenInstances[instKey] = channelID

		normalizedChannels[channelID] = one
	}
	c.Channels = normalizedChannels
	return nil
}

func (c *ChannelConfig) Validate() error {
	if c == nil {
		return errors.New("channel config cannot be nil")
	}

	c.Type = strings.ToLower(strings.TrimSpace(c.Type))
	switch c.Type {
	case "whatsapp", "discord":
	default:
		return fmt.Errorf("invalid channel type: %s", c.Type)
	}

	c.Instance = strings.TrimSpace(c.Instance)

	if c.Connection.MaxRetries <= 0 {
		c.Connection.MaxRetries = defaultMaxRetries
	}
	if c.Connection.FailureThreshold <= 0 {
		c.Connection.FailureThreshold = defaultFailureThreshold
	}
	if c.Connection.RecoveryTimeout <= 0 {
		c.Connection.RecoveryTimeout = defaultRecoveryTimeout
	}
	return nil
}
