package canonical

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

func TestDiscordChatType_Table(t *testing.T) {
	cases := []struct {
		code discordgo.ChannelType
		want ChatType
	}{
		{discordgo.ChannelTypeDM, ChatDirect},
		{discordgo.ChannelTypeGroupDM, ChatGroup},
		{discordgo.ChannelTypeGuildText, ChatChannel},
		{discordgo.ChannelTypeGuildNews, ChatChannel},
		{discordgo.ChannelTypeGuildPublicThread, ChatThread},
		{discordgo.ChannelTypeGuildPrivateThread, ChatThread},
		{discordgo.ChannelTypeGuildNewsThread, ChatThread},
		{discordgo.ChannelType(99), ChatChannel}, // unmapped defaults to CHANNEL
	}
	for _, tc := range cases {
		if got := DiscordChatType(tc.code); got != tc.want {
			t.Errorf("code %d: got %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestDiscordPresence(t *testing.T) {
	cases := []struct {
		in   discordgo.Status
		want PresenceStatus
	}{
		{discordgo.StatusOnline, StatusOnline},
		{discordgo.StatusOffline, StatusOffline},
		{discordgo.StatusIdle, StatusAway},
		{discordgo.StatusDoNotDisturb, StatusDND},
		// invisible deliberately maps to UNKNOWN, not OFFLINE.
		{discordgo.StatusInvisible, StatusUnknown},
		{discordgo.Status("something-else"), StatusUnknown},
	}
	for _, tc := range cases {
		if got := DiscordPresence(tc.in); got != tc.want {
			t.Errorf("status %q: got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDiscordToContact_NilUser(t *testing.T) {
	var tf DiscordTransformer

	contact := tf.ToContact(nil, discordgo.StatusOnline, "bot1")
	if contact.Name != UnknownName {
		t.Errorf("name = %q, want %q", contact.Name, UnknownName)
	}
	if contact.Status != StatusUnknown {
		t.Errorf("status = %q, want UNKNOWN", contact.Status)
	}
}

func TestDiscordToChat_DMRecipientName(t *testing.T) {
	var tf DiscordTransformer

	chat := tf.ToChat(&discordgo.Channel{
		ID:         "c1",
		Type:       discordgo.ChannelTypeDM,
		Recipients: []*discordgo.User{{ID: "u1", Username: "bob"}},
	}, "bot1")

	if chat.ChatType != ChatDirect {
		t.Errorf("chat type = %q, want DIRECT", chat.ChatType)
	}
	if chat.Name != "bob" {
		t.Errorf("name = %q, want bob", chat.Name)
	}
	if chat.ParticipantCount != 1 {
		t.Errorf("participants = %d, want 1", chat.ParticipantCount)
	}
}

func TestDiscordToMessage(t *testing.T) {
	var tf DiscordTransformer

	now := time.Now()
	msg := tf.ToMessage(&discordgo.Message{
		ID:        "m1",
		ChannelID: "c1",
		Author:    &discordgo.User{ID: "u1", Username: "bob"},
		Content:   "hello",
		Timestamp: now,
		MessageReference: &discordgo.MessageReference{
			MessageID: "m0",
			ChannelID: "c1",
		},
	}, "bot-user", "bot1")

	if msg.ID != "m1" || msg.ChatID != "c1" || msg.SenderID != "u1" {
		t.Errorf("ids = %q/%q/%q", msg.ID, msg.ChatID, msg.SenderID)
	}
	if msg.IsFromMe {
		t.Error("message from another user must not be from-me")
	}
	if !msg.IsReply || msg.ReplyToMessageID != "m0" {
		t.Errorf("reply = %v/%q", msg.IsReply, msg.ReplyToMessageID)
	}
	if msg.Timestamp == nil {
		t.Fatal("expected non-nil timestamp")
	}
}

func TestDiscordToMessage_Totality(t *testing.T) {
	var tf DiscordTransformer

	msg := tf.ToMessage(nil, "", "bot1")
	if msg.Type != MessageText {
		t.Errorf("type = %q, want TEXT", msg.Type)
	}
	if msg.Timestamp != nil {
		t.Error("nil message should have nil timestamp")
	}
}

func TestDiscordAttachmentType(t *testing.T) {
	var tf DiscordTransformer

	msg := tf.ToMessage(&discordgo.Message{
		ID:        "m2",
		ChannelID: "c1",
		Author:    &discordgo.User{ID: "u1"},
		Attachments: []*discordgo.MessageAttachment{
			{URL: "https://cdn.example/x.ogg", ContentType: "audio/ogg"},
		},
	}, "", "bot1")

	if msg.Type != MessageAudio {
		t.Errorf("type = %q, want AUDIO", msg.Type)
	}
	if msg.MediaURL == "" {
		t.Error("media url should be set from the attachment")
	}
}
