package gateway

import (
	"context"

	"github.com/omnigate/omnigate/internal/access"
	"github.com/omnigate/omnigate/internal/canonical"
	"github.com/omnigate/omnigate/internal/pkg/logs"
	"github.com/omnigate/omnigate/internal/ratelimit"
)

// security gates the message path: admission rules on inbound senders,
// rate limiting on outbound recipients.
type security struct {
	rules   *access.Cache
	limiter *ratelimit.Limiter
}

// admitInbound reports whether a sender may get through for the given
// instance scope. Blocked messages are counted, logged and dropped.
func (s *security) admitInbound(ctx context.Context, msg *canonical.Message) bool {
	if s.rules.Check(ctx, msg.SenderID, msg.Instance) {
		return true
	}
	metricBlocked.WithLabelValues(msg.ChannelType, "access_rule").Inc()
	logs.CtxInfo(ctx, "[security] blocked sender %s on instance %s", msg.SenderID, msg.Instance)
	return false
}

// admitOutbound reports whether one more send to the recipient fits the
// rate window.
func (s *security) admitOutbound(ctx context.Context, channelType, recipient string) bool {
	if s.limiter.Allowed(recipient) {
		return true
	}
	metricBlocked.WithLabelValues(channelType, "rate_limit").Inc()
	logs.CtxWarn(ctx, "[security] rate limited recipient %s, retry in %s",
		recipient, s.limiter.RemainingTime(recipient))
	return false
}
