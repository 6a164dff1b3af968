package canonical

import "strings"

const ChannelTypeWhatsApp = "whatsapp"

// whatsAppChatTypes maps the bridge service's numeric chat type codes to
// canonical chat types. Codes missing from the table fall back to ChatChannel.
var whatsAppChatTypes = map[int]ChatType{
	0: ChatDirect,
	1: ChatGroup,
	2: ChatChannel, // broadcast / newsletter
}

// whatsAppMessageTypes maps the bridge service's message kind names to
// canonical message types. Unknown kinds fall back to MessageText.
var whatsAppMessageTypes = map[string]MessageType{
	"conversation":         MessageText,
	"extendedTextMessage":  MessageText,
	"imageMessage":         MessageImage,
	"videoMessage":         MessageVideo,
	"audioMessage":         MessageAudio,
	"documentMessage":      MessageDocument,
	"stickerMessage":       MessageSticker,
	"contactMessage":       MessageContact,
	"contactsArrayMessage": MessageContact,
	"locationMessage":      MessageLocation,
	"reactionMessage":      MessageReaction,
}

// WhatsAppTransformer converts raw JSON payloads from the WhatsApp bridge
// service into the canonical model.
type WhatsAppTransformer struct{}

func (WhatsAppTransformer) ToContact(native map[string]any, instance string) Contact {
	name := strField(native, "name", "pushName", "verifiedName", "notify")
	if name == "" {
		name = UnknownName
	}

	return Contact{
		ID:          strField(native, "id", "jid", "remoteJid"),
		Name:        name,
		ChannelType: ChannelTypeWhatsApp,
		Instance:    instance,
		Status:      whatsAppPresence(strField(native, "presence", "status")),
		AvatarURL:   strField(native, "profilePictureUrl", "profilePicUrl", "avatarUrl"),
		ChannelData: dataBag(native),
	}
}

func (WhatsAppTransformer) ToChat(native map[string]any, instance string) Chat {
	name := strField(native, "name", "subject", "pushName")
	if name == "" {
		name = UnknownName
	}

	chatType := ChatChannel
	if code, ok := intField(native, "type", "chatType"); ok {
		if mapped, found := whatsAppChatTypes[code]; found {
			chatType = mapped
		}
	}

	participants, _ := intField(native, "participantCount", "size")

	return Chat{
		ID:               strField(native, "id", "jid", "remoteJid"),
		Name:             name,
		ChannelType:      ChannelTypeWhatsApp,
		Instance:         instance,
		ChatType:         chatType,
		ParticipantCount: participants,
		IsMuted:          boolField(native, "isMuted", "muted"),
		IsArchived:       boolField(native, "isArchived", "archived"),
		IsPinned:         boolField(native, "isPinned", "pinned"),
		ChannelData:      dataBag(native),
	}
}

func (WhatsAppTransformer) ToMessage(native map[string]any, instance string) Message {
	key := mapField(native, "key")

	id := strField(native, "id", "messageId")
	chatID := strField(native, "chatId", "remoteJid")
	fromMe := boolField(native, "fromMe")
	if key != nil {
		if id == "" {
			id = strField(key, "id")
		}
		if chatID == "" {
			chatID = strField(key, "remoteJid")
		}
		if !fromMe {
			fromMe = boolField(key, "fromMe")
		}
	}

	sender := strField(native, "senderId", "participant", "sender")
	if sender == "" && !fromMe {
		sender = chatID
	}

	msgType := MessageText
	if kind := strField(native, "messageType", "type"); kind != "" {
		if mapped, ok := whatsAppMessageTypes[kind]; ok {
			msgType = mapped
		}
	}

	replyTo := strField(native, "quotedMessageId", "replyToMessageId")

	return Message{
		ID:               id,
		ChatID:           chatID,
		SenderID:         sender,
		ChannelType:      ChannelTypeWhatsApp,
		Instance:         instance,
		Type:             msgType,
		Text:             strField(native, "text", "conversation", "body"),
		MediaURL:         strField(native, "mediaUrl"),
		Caption:          strField(native, "caption"),
		Timestamp:        ParseTimestamp(firstValue(native, "messageTimestamp", "timestamp")),
		IsFromMe:         fromMe,
		IsReply:          replyTo != "",
		ReplyToMessageID: replyTo,
		ChannelData:      dataBag(native),
	}
}

func (WhatsAppTransformer) ToChannelInfo(native map[string]any, instance string) ChannelInfo {
	name := strField(native, "profileName", "name")
	if name == "" {
		name = UnknownName
	}

	state := strings.ToLower(strField(native, "state", "connectionStatus"))
	users, _ := intField(native, "contactCount", "userCount")

	return ChannelInfo{
		ChannelType: ChannelTypeWhatsApp,
		Instance:    instance,
		Name:        name,
		Identifier:  strField(native, "wuid", "number", "ownerJid"),
		Connected:   state == "open" || state == "connected",
		UserCount:   users,
		ChannelData: dataBag(native),
	}
}

func whatsAppPresence(p string) PresenceStatus {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "available", "online", "composing", "recording":
		return StatusOnline
	case "unavailable", "offline":
		return StatusOffline
	default:
		return StatusUnknown
	}
}

func firstValue(m map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return nil
}
