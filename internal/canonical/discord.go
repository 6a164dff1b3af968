package canonical

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

const ChannelTypeDiscord = "discord"

// discordChatTypes maps discord's numeric channel type codes to canonical
// chat types. Codes missing from the table fall back to ChatChannel.
var discordChatTypes = map[discordgo.ChannelType]ChatType{
	discordgo.ChannelTypeDM:                 ChatDirect,
	discordgo.ChannelTypeGroupDM:            ChatGroup,
	discordgo.ChannelTypeGuildText:          ChatChannel,
	discordgo.ChannelTypeGuildVoice:         ChatChannel,
	discordgo.ChannelTypeGuildNews:          ChatChannel,
	discordgo.ChannelTypeGuildNewsThread:    ChatThread,
	discordgo.ChannelTypeGuildPublicThread:  ChatThread,
	discordgo.ChannelTypeGuildPrivateThread: ChatThread,
}

// DiscordChatType resolves a native channel type code through the mapping
// table; unmapped codes yield ChatChannel.
func DiscordChatType(code discordgo.ChannelType) ChatType {
	if mapped, ok := discordChatTypes[code]; ok {
		return mapped
	}
	return ChatChannel
}

// DiscordPresence maps a discord presence status to the canonical enum.
// "invisible" intentionally maps to StatusUnknown, not StatusOffline.
func DiscordPresence(status discordgo.Status) PresenceStatus {
	switch status {
	case discordgo.StatusOnline:
		return StatusOnline
	case discordgo.StatusOffline:
		return StatusOffline
	case discordgo.StatusIdle:
		return StatusAway
	case discordgo.StatusDoNotDisturb:
		return StatusDND
	default:
		return StatusUnknown
	}
}

// DiscordTransformer converts discordgo entities into the canonical model.
type DiscordTransformer struct{}

func (DiscordTransformer) ToContact(user *discordgo.User, status discordgo.Status, instance string) Contact {
	if user == nil {
		return Contact{
			Name:        UnknownName,
			ChannelType: ChannelTypeDiscord,
			Instance:    instance,
			Status:      StatusUnknown,
		}
	}

	name := user.GlobalName
	if name == "" {
		name = user.Username
	}
	if name == "" {
		name = UnknownName
	}

	return Contact{
		ID:          user.ID,
		Name:        name,
		ChannelType: ChannelTypeDiscord,
		Instance:    instance,
		Status:      DiscordPresence(status),
		AvatarURL:   user.AvatarURL(""),
		ChannelData: dataBag(user),
	}
}

func (DiscordTransformer) ToChat(ch *discordgo.Channel, instance string) Chat {
	if ch == nil {
		return Chat{
			Name:        UnknownName,
			ChannelType: ChannelTypeDiscord,
			Instance:    instance,
			ChatType:    ChatChannel,
		}
	}

	name := ch.Name
	if name == "" && len(ch.Recipients) > 0 && ch.Recipients[0] != nil {
		name = ch.Recipients[0].Username
	}
	if name == "" {
		name = UnknownName
	}

	participants := len(ch.Recipients)
	if ch.MemberCount > 0 {
		participants = ch.MemberCount
	}

	return Chat{
		ID:               ch.ID,
		Name:             name,
		ChannelType:      ChannelTypeDiscord,
		Instance:         instance,
		ChatType:         DiscordChatType(ch.Type),
		ParticipantCount: participants,
		ChannelData:      dataBag(ch),
	}
}

func (DiscordTransformer) ToMessage(msg *discordgo.Message, botUserID, instance string) Message {
	if msg == nil {
		return Message{
			ChannelType: ChannelTypeDiscord,
			Instance:    instance,
			Type:        MessageText,
		}
	}

	senderID := ""
	fromMe := false
	if msg.Author != nil {
		senderID = msg.Author.ID
		fromMe = botUserID != "" && msg.Author.ID == botUserID
	}

	msgType := MessageText
	mediaURL := ""
	if len(msg.Attachments) > 0 && msg.Attachments[0] != nil {
		att := msg.Attachments[0]
		mediaURL = att.URL
		msgType = discordAttachmentType(att.ContentType)
	}
	if len(msg.StickerItems) > 0 {
		msgType = MessageSticker
	}

	replyTo := ""
	if ref := msg.MessageReference; ref != nil {
		replyTo = ref.MessageID
	}

	return Message{
		ID:               msg.ID,
		ChatID:           msg.ChannelID,
		SenderID:         senderID,
		ChannelType:      ChannelTypeDiscord,
		Instance:         instance,
		Type:             msgType,
		Text:             msg.Content,
		MediaURL:         mediaURL,
		Timestamp:        ParseTimestamp(msg.Timestamp),
		IsFromMe:         fromMe,
		IsReply:          replyTo != "",
		ReplyToMessageID: replyTo,
		ChannelData:      dataBag(msg),
	}
}

func (DiscordTransformer) ToChannelInfo(s *discordgo.Session, instance string) ChannelInfo {
	info := ChannelInfo{
		ChannelType: ChannelTypeDiscord,
		Instance:    instance,
		Name:        UnknownName,
	}
	if s == nil {
		return info
	}

	if s.State != nil && s.State.User != nil {
		info.Name = s.State.User.Username
		info.Identifier = s.State.User.ID
	}
	if s.State != nil {
		info.GuildCount = len(s.State.Guilds)
		users := 0
		for _, g := range s.State.Guilds {
			users += g.MemberCount
		}
		info.UserCount = users
	}
	info.Connected = s.DataReady
	info.LatencyMS = s.HeartbeatLatency().Milliseconds()
	return info
}

func discordAttachmentType(contentType string) MessageType {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return MessageImage
	case strings.HasPrefix(contentType, "video/"):
		return MessageVideo
	case strings.HasPrefix(contentType, "audio/"):
		return MessageAudio
	default:
		return MessageDocument
	}
}
