package whatsapp

import (
	"errors"
	"strings"
	"time"

	"github.com/bytedance/gg/gconv"
)

type Config struct {
	// APIURL is the base URL of the WhatsApp bridge service this handler
	// talks to over REST.
	APIURL  string
	APIKey  string
	Timeout time.Duration
}

func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("whatsapp api_url is required")
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}

func ParseConfig(configMap map[string]interface{}) (*Config, error) {
	cfg := &Config{
		APIURL: strings.TrimRight(gconv.To[string](configMap["api_url"]), "/"),
		APIKey: gconv.To[string](configMap["api_key"]),
	}

	if timeout := gconv.To[int](configMap["timeout"]); timeout > 0 {
		cfg.Timeout = time.Duration(timeout) * time.Second
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
