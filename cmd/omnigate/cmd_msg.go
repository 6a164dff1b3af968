package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/omnigate/omnigate/internal/bridge"
)

var msgHwd = &MsgRunner{}

type MsgRunner struct{}

func (r *MsgRunner) cmd() *cli.Command {
	instanceFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "channel",
			Usage: "Channel type (whatsapp, discord)",
		},
		&cli.StringFlag{
			Name:    "instance",
			Aliases: []string{"i"},
			Usage:   "Instance name the gateway runs the channel under",
		},
	}

	return &cli.Command{
		Name:  "msg",
		Usage: "Talk to a running channel instance over its command socket",
		Commands: []*cli.Command{
			{
				Name:  "send",
				Usage: "Send a text message through the running instance",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "chatId",
						Usage: "Target chat or user ID",
					},
					&cli.StringFlag{
						Name:    "content",
						Aliases: []string{"m"},
						Usage:   "Message body",
					},
				}, instanceFlags...),
				Action: r.send,
			},
			{
				Name:   "health",
				Usage:  "Show the instance's health rating",
				Flags:  instanceFlags,
				Action: r.health,
			},
			{
				Name:   "status",
				Usage:  "Show the instance's connection status",
				Flags:  instanceFlags,
				Action: r.status,
			},
		},
	}
}

func (r *MsgRunner) client(cmd *cli.Command) (*bridge.Client, error) {
	channelType := strings.TrimSpace(cmd.String("channel"))
	if channelType == "" {
		return nil, errors.New("--channel is required")
	}
	instance := strings.TrimSpace(cmd.String("instance"))
	if instance == "" {
		return nil, errors.New("--instance is required")
	}
	return bridge.NewClient(channelType, instance), nil
}

func (r *MsgRunner) send(ctx context.Context, cmd *cli.Command) error {
	chatID := strings.TrimSpace(cmd.String("chatId"))
	if chatID == "" {
		return errors.New("--chatId is required")
	}
	content := cmd.String("content")
	if strings.TrimSpace(content) == "" {
		return errors.New("--content cannot be empty")
	}

	client, err := r.client(cmd)
	if err != nil {
		return err
	}

	resp, err := client.Send(ctx, chatID, content)
	if err != nil {
		return describeBridgeErr(cmd, err)
	}

	fmt.Printf("Sent to %s via instance %s\n", resp.ChannelID, resp.Instance)
	return nil
}

func (r *MsgRunner) health(ctx context.Context, cmd *cli.Command) error {
	client, err := r.client(cmd)
	if err != nil {
		return err
	}

	resp, err := client.Health(ctx)
	if err != nil {
		return describeBridgeErr(cmd, err)
	}

	fmt.Printf("instance:  %s\n", resp.Instance)
	fmt.Printf("status:    %s\n", resp.Status)
	fmt.Printf("connected: %t\n", resp.Connected)
	fmt.Printf("latency:   %dms\n", resp.LatencyMS)
	return nil
}

func (r *MsgRunner) status(ctx context.Context, cmd *cli.Command) error {
	client, err := r.client(cmd)
	if err != nil {
		return err
	}

	resp, err := client.Status(ctx)
	if err != nil {
		return describeBridgeErr(cmd, err)
	}

	fmt.Printf("instance: %s\n", resp.InstanceName)
	fmt.Printf("status:   %s\n", resp.Status)
	fmt.Printf("guilds:   %d\n", resp.GuildCount)
	fmt.Printf("users:    %d\n", resp.UserCount)
	fmt.Printf("latency:  %dms\n", resp.LatencyMS)
	fmt.Printf("uptime:   %s\n", resp.Uptime)
	return nil
}

// describeBridgeErr turns the client's sentinel errors into actionable
// messages; everything else passes through.
func describeBridgeErr(cmd *cli.Command, err error) error {
	instance := cmd.String("instance")
	switch {
	case errors.Is(err, bridge.ErrNotRunning):
		return fmt.Errorf("instance %q is not running (no command socket). Start it with \"omnigate gateway run\"", instance)
	case errors.Is(err, bridge.ErrNotResponding):
		return fmt.Errorf("instance %q is running but did not respond in time", instance)
	default:
		return err
	}
}
