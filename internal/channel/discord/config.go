package discord

import (
	"errors"
	"time"

	"github.com/bytedance/gg/gconv"
)

type Config struct {
	Token string
	// DownloadTimeout bounds media downloads done on behalf of SendAudio.
	DownloadTimeout time.Duration
}

func (c *Config) Validate() error {
	if c.Token == "" {
		return errors.New("discord bot token cannot be empty")
	}
	if c.DownloadTimeout <= 0 {
		c.DownloadTimeout = 30 * time.Second
	}
	return nil
}

func ParseConfig(configMap map[string]interface{}) (*Config, error) {
	cfg := &Config{
		Token: gconv.To[string](configMap["token"]),
	}

	if timeout := gconv.To[int](configMap["download_timeout"]); timeout > 0 {
		cfg.DownloadTimeout = time.Duration(timeout) * time.Second
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
