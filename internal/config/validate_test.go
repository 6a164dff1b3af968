package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Channels: map[string]ChannelConfig{
			"wa-main": {
				Type:    "whatsapp",
				Enabled: true,
				Config:  map[string]interface{}{"api_url": "http://localhost:8080", "api_key": "k"},
			},
			"dc-main": {
				Type:    "discord",
				Enabled: true,
				Config:  map[string]interface{}{"token": "t"},
			},
		},
	}
}

func TestValidate_FillsDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	if cfg.RateLimit.MaxRequests != defaultMaxRequests {
		t.Errorf("MaxRequests = %d, want %d", cfg.RateLimit.MaxRequests, defaultMaxRequests)
	}
	if cfg.RateLimit.WindowSeconds != defaultWindowSeconds {
		t.Errorf("WindowSeconds = %d, want %d", cfg.RateLimit.WindowSeconds, defaultWindowSeconds)
	}
	if cfg.Router.Type != "echo" {
		t.Errorf("Router.Type = %q, want echo", cfg.Router.Type)
	}

	one := cfg.Channels["wa-main"]
	if one.Connection.MaxRetries != defaultMaxRetries {
		t.Errorf("MaxRetries = %d, want %d", one.Connection.MaxRetries, defaultMaxRetries)
	}
	if one.Connection.FailureThreshold != defaultFailureThreshold {
		t.Errorf("FailureThreshold = %d, want %d", one.Connection.FailureThreshold, defaultFailureThreshold)
	}
	if one.Connection.RecoveryTimeout != defaultRecoveryTimeout {
		t.Errorf("RecoveryTimeout = %d, want %d", one.Connection.RecoveryTimeout, defaultRecoveryTimeout)
	}
	if one.ID != "wa-main" {
		t.Errorf("ID = %q, want wa-main", one.ID)
	}
}

func TestValidate_RouterHTTPRequiresURL(t *testing.T) {
	cfg := validConfig()
	cfg.Router.Type = "HTTP"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for http router without url")
	}

	cfg.Router.URL = "http://localhost:9000/route"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if cfg.Router.Type != "http" {
		t.Errorf("Router.Type = %q, want normalized http", cfg.Router.Type)
	}
}

func TestValidate_RejectsUnknownRouter(t *testing.T) {
	cfg := validConfig()
	cfg.Router.Type = "kafka"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown router type")
	}
}

func TestValidate_RejectsBadChannelType(t *testing.T) {
	cfg := validConfig()
	one := cfg.Channels["wa-main"]
	one.Type = "telegram"
	cfg.Channels["wa-main"] = one

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid channel type")
	}
	if !strings.Contains(err.Error(), "wa-main") {
		t.Errorf("error %q should name the offending channel", err)
	}
}

func TestValidate_RejectsDuplicateInstances(t *testing.T) {
	cfg := validConfig()
	cfg.Channels["wa-backup"] = ChannelConfig{
		Type:     "whatsapp",
		Enabled:  true,
		Instance: "wa-main", // collides with wa-main's fallback instance name
		Config:   map[string]interface{}{"api_url": "http://localhost:8081", "api_key": "k"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for duplicate (type, instance) pair")
	}
	if !strings.Contains(err.Error(), "duplicates instance") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestInstanceName_FallsBackToID(t *testing.T) {
	c := ChannelConfig{ID: "main", Type: "discord"}
	if got := c.InstanceName(); got != "main" {
		t.Errorf("InstanceName() = %q, want main", got)
	}
	c.Instance = "primary"
	if got := c.InstanceName(); got != "primary" {
		t.Errorf("InstanceName() = %q, want primary", got)
	}
}
