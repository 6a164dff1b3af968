package channel

import (
	"errors"
	"fmt"
)

var ErrUnsupportedOperation = errors.New("channel operation is not supported")

type Type string

const (
	WhatsApp Type = "whatsapp"

	Discord Type = "discord"
)

var SupportedChannels = []Type{
	WhatsApp,
	Discord,
}

// SendResult reports the outcome of a send operation. Reachable-but-
// unsupported features come back as Success=false with a descriptive Error,
// never as a Go error.
type SendResult struct {
	Success   bool   `json:"success"`
	Channel   Type   `json:"channel"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

func OkResult(channel Type, messageID string) SendResult {
	return SendResult{Success: true, Channel: channel, MessageID: messageID}
}

func FailResult(channel Type, format string, v ...interface{}) SendResult {
	return SendResult{Success: false, Channel: channel, Error: fmt.Sprintf(format, v...)}
}

func UnsupportedResult(channel Type, feature string) SendResult {
	return SendResult{
		Success: false,
		Channel: channel,
		Error:   fmt.Sprintf("%s not supported on %s channels", feature, channel),
	}
}
