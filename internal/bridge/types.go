package bridge

// SendRequest asks a running instance to deliver a text message.
type SendRequest struct {
	ChannelID string `json:"channel_id"`
	Text      string `json:"text"`
}

type SendResponse struct {
	Success   bool   `json:"success"`
	Instance  string `json:"instance"`
	ChannelID string `json:"channel_id"`
	Error     string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Instance  string `json:"instance"`
	Connected bool   `json:"connected"`
	LatencyMS int64  `json:"latency_ms"`
}

type StatusResponse struct {
	InstanceName string `json:"instance_name"`
	Status       string `json:"status"`
	GuildCount   int    `json:"guild_count"`
	UserCount    int    `json:"user_count"`
	LatencyMS    int64  `json:"latency_ms"`
	Uptime       string `json:"uptime"`
}
