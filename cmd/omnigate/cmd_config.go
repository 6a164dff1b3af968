package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/omnigate/omnigate/internal/config"
	"github.com/omnigate/omnigate/internal/consts"
)

var configHwd = &ConfigRunner{}

type ConfigRunner struct{}

func (r *ConfigRunner) cmd() *cli.Command {
	configFlag := &cli.StringFlag{
		Name:  "config",
		Value: consts.DefaultConfigPath(),
		Usage: "Path of the configuration file",
	}

	return &cli.Command{
		Name:  "config",
		Usage: "Inspect and edit the gateway configuration file",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the effective configuration with defaults applied",
				Flags:  []cli.Flag{configFlag},
				Action: r.show,
			},
			{
				Name:  "set-rate-limit",
				Usage: "Update the outbound rate limit and persist the config file",
				Flags: []cli.Flag{
					configFlag,
					&cli.IntFlag{
						Name:  "max-requests",
						Usage: "Messages allowed per window (0 keeps the current value)",
					},
					&cli.IntFlag{
						Name:  "window",
						Usage: "Window length in seconds (0 keeps the current value)",
					},
					&cli.IntFlag{
						Name:  "cleanup-interval",
						Usage: "Sweep interval in seconds (0 keeps the current value)",
					},
				},
				Action: r.setRateLimit,
			},
			{
				Name:  "set-router",
				Usage: "Update the message router and persist the config file",
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:  "type",
						Usage: "Router type: echo or http",
					},
					&cli.StringFlag{
						Name:  "url",
						Usage: "Upstream URL (required for type=http)",
					},
				},
				Action: r.setRouter,
			},
			{
				Name:  "enable-channel",
				Usage: "Enable a configured channel and persist the config file",
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{Name: "id", Usage: "Channel ID as configured under channels:"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return r.toggleChannel(cmd, true)
				},
			},
			{
				Name:  "disable-channel",
				Usage: "Disable a configured channel and persist the config file",
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{Name: "id", Usage: "Channel ID as configured under channels:"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return r.toggleChannel(cmd, false)
				},
			},
		},
	}
}

func (r *ConfigRunner) show(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	raw, err := config.MarshalYAML(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(raw))

	hash, err := config.Hash()
	if err != nil {
		return err
	}
	fmt.Printf("# hash: %s\n", hash)
	return nil
}

func (r *ConfigRunner) setRateLimit(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	next := cfg.RateLimit
	if v := int(cmd.Int("max-requests")); v > 0 {
		next.MaxRequests = v
	}
	if v := int(cmd.Int("window")); v > 0 {
		next.WindowSeconds = v
	}
	if v := int(cmd.Int("cleanup-interval")); v > 0 {
		next.CleanupInterval = v
	}
	if next == cfg.RateLimit {
		return errors.New("nothing to change; pass --max-requests, --window or --cleanup-interval")
	}

	return r.persist(cmd, "rate_limit", &next)
}

func (r *ConfigRunner) setRouter(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	next := cfg.Router
	if v := strings.TrimSpace(cmd.String("type")); v != "" {
		next.Type = v
	}
	if v := strings.TrimSpace(cmd.String("url")); v != "" {
		next.URL = v
	}
	if next == cfg.Router {
		return errors.New("nothing to change; pass --type or --url")
	}

	return r.persist(cmd, "router", &next)
}

func (r *ConfigRunner) toggleChannel(cmd *cli.Command, enabled bool) error {
	id := strings.TrimSpace(cmd.String("id"))
	if id == "" {
		return errors.New("--id is required")
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	one, ok := cfg.Channels[id]
	if !ok {
		return fmt.Errorf("unknown channel: %s", id)
	}
	one.Enabled = enabled
	cfg.Channels[id] = one

	return r.persist(cmd, "channels", &cfg.Channels)
}

// persist applies one validated section update and writes the file. A
// running gateway picks the change up on its next restart; the hash lets
// operators confirm which revision a host is on.
func (r *ConfigRunner) persist(cmd *cli.Command, name string, value any) error {
	if err := config.Apply(name, value); err != nil {
		return fmt.Errorf("apply %s: %w", name, err)
	}
	if err := config.Save(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	hash, err := config.Hash()
	if err != nil {
		return err
	}
	fmt.Printf("Updated %s in %s (hash %s)\n", name, cmd.String("config"), hash)
	return nil
}
