// Package canonical defines the channel-agnostic representations of contacts,
// chats, messages and channel info, plus one transformer per channel that maps
// native payloads into the canonical form.
//
// Transformers are pure and total: they never fail on malformed input. Missing
// or invalid fields are replaced with documented defaults ("Unknown" name,
// StatusUnknown, nil timestamp) and the original native payload is preserved
// verbatim in the entity's ChannelData bag, so the native→canonical direction
// is lossless.
package canonical

import "time"

type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "ONLINE"
	StatusOffline PresenceStatus = "OFFLINE"
	StatusAway    PresenceStatus = "AWAY"
	StatusDND     PresenceStatus = "DND"
	StatusUnknown PresenceStatus = "UNKNOWN"
)

type ChatType string

const (
	ChatDirect  ChatType = "DIRECT"
	ChatGroup   ChatType = "GROUP"
	ChatChannel ChatType = "CHANNEL"
	ChatThread  ChatType = "THREAD"
)

type MessageType string

const (
	MessageText     MessageType = "TEXT"
	MessageImage    MessageType = "IMAGE"
	MessageVideo    MessageType = "VIDEO"
	MessageAudio    MessageType = "AUDIO"
	MessageDocument MessageType = "DOCUMENT"
	MessageSticker  MessageType = "STICKER"
	MessageContact  MessageType = "CONTACT"
	MessageLocation MessageType = "LOCATION"
	MessageReaction MessageType = "REACTION"
)

// Contact is a channel-agnostic contact. Immutable after construction.
type Contact struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ChannelType string         `json:"channel_type"`
	Instance    string         `json:"instance"`
	Status      PresenceStatus `json:"status"`
	AvatarURL   string         `json:"avatar_url,omitempty"`
	ChannelData map[string]any `json:"channel_data,omitempty"`
}

// Chat is a channel-agnostic conversation.
type Chat struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	ChannelType      string         `json:"channel_type"`
	Instance         string         `json:"instance"`
	ChatType         ChatType       `json:"chat_type"`
	ParticipantCount int            `json:"participant_count,omitempty"`
	IsMuted          bool           `json:"is_muted"`
	IsArchived       bool           `json:"is_archived"`
	IsPinned         bool           `json:"is_pinned"`
	ChannelData      map[string]any `json:"channel_data,omitempty"`
}

// Message is a channel-agnostic message.
type Message struct {
	ID               string         `json:"id"`
	ChatID           string         `json:"chat_id"`
	SenderID         string         `json:"sender_id"`
	ChannelType      string         `json:"channel_type"`
	Instance         string         `json:"instance"`
	Type             MessageType    `json:"type"`
	Text             string         `json:"text,omitempty"`
	MediaURL         string         `json:"media_url,omitempty"`
	Caption          string         `json:"caption,omitempty"`
	Timestamp        *time.Time     `json:"timestamp,omitempty"`
	IsFromMe         bool           `json:"is_from_me"`
	IsReply          bool           `json:"is_reply"`
	ReplyToMessageID string         `json:"reply_to_message_id,omitempty"`
	ChannelData      map[string]any `json:"channel_data,omitempty"`
}

// ChannelInfo describes one live channel instance.
type ChannelInfo struct {
	ChannelType string         `json:"channel_type"`
	Instance    string         `json:"instance"`
	Name        string         `json:"name"`
	Identifier  string         `json:"identifier"` // bot user ID, phone number, ...
	Connected   bool           `json:"connected"`
	GuildCount  int            `json:"guild_count"`
	UserCount   int            `json:"user_count"`
	LatencyMS   int64          `json:"latency_ms"`
	ChannelData map[string]any `json:"channel_data,omitempty"`
}

// UnknownName is the fallback contact/chat display name.
const UnknownName = "Unknown"
