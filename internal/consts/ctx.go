package consts

// CtxKey is the type used for context value keys across the gateway.
type CtxKey string

const (
	CtxKeyLogID     CtxKey = "log_id"
	CtxKeyChannelID CtxKey = "channel_id"
	CtxKeyInstance  CtxKey = "instance"
	CtxKeyChatID    CtxKey = "chat_id"
)
