package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/omnigate/omnigate/internal/bridge"
	"github.com/omnigate/omnigate/internal/channel"
	"github.com/omnigate/omnigate/internal/lifecycle"
)

var _ bridge.Backend = (*instanceBackend)(nil)

// instanceBackend exposes one running channel instance over its command
// socket. Sends pass through the same outbound gate as gateway-originated
// messages.
type instanceBackend struct {
	handler  channel.Handler
	manager  *lifecycle.Manager
	security *security
}

func (b *instanceBackend) Instance() string {
	return b.handler.Instance()
}

func (b *instanceBackend) Send(ctx context.Context, channelID, text string) error {
	if !b.security.admitOutbound(ctx, string(b.handler.Type()), channelID) {
		return fmt.Errorf("rate limit exceeded for %s", channelID)
	}

	res := b.handler.SendText(ctx, channelID, text)
	if !res.Success {
		metricSendErrors.WithLabelValues(string(b.handler.Type())).Inc()
		return fmt.Errorf("%s", res.Error)
	}
	metricMessages.WithLabelValues(string(b.handler.Type()), "outbound").Inc()
	return nil
}

func (b *instanceBackend) Health(ctx context.Context) bridge.HealthResponse {
	st := b.manager.Status()

	latency := int64(0)
	if info, err := b.handler.GetChannelInfo(ctx); err == nil {
		latency = info.LatencyMS
	}

	return bridge.HealthResponse{
		Status:    string(st.Health),
		Instance:  st.Instance,
		Connected: st.State == lifecycle.StateConnected,
		LatencyMS: latency,
	}
}

func (b *instanceBackend) Status(ctx context.Context) bridge.StatusResponse {
	st := b.manager.Status()

	resp := bridge.StatusResponse{
		InstanceName: st.Instance,
		Status:       st.StateName,
		Uptime:       "0s",
	}
	if st.ConnectedAt != nil {
		resp.Uptime = time.Since(*st.ConnectedAt).Truncate(time.Second).String()
	}

	if info, err := b.handler.GetChannelInfo(ctx); err == nil {
		resp.GuildCount = info.GuildCount
		resp.UserCount = info.UserCount
		resp.LatencyMS = info.LatencyMS
	}
	return resp
}
