package canonical

import (
	"testing"
)

func TestWhatsAppToContact_Defaults(t *testing.T) {
	var tf WhatsAppTransformer

	for _, native := range []map[string]any{nil, {}} {
		contact := tf.ToContact(native, "main")
		if contact.Name != UnknownName {
			t.Errorf("name = %q, want %q", contact.Name, UnknownName)
		}
		if contact.Status != StatusUnknown {
			t.Errorf("status = %q, want %q", contact.Status, StatusUnknown)
		}
		if contact.Instance != "main" {
			t.Errorf("instance = %q, want main", contact.Instance)
		}
	}
}

func TestWhatsAppToContact_PreservesNative(t *testing.T) {
	var tf WhatsAppTransformer

	native := map[string]any{
		"id":       "12345@s.whatsapp.net",
		"pushName": "Alice",
		"presence": "available",
		"weird":    []int{1, 2, 3},
	}
	contact := tf.ToContact(native, "main")

	if contact.ID != "12345@s.whatsapp.net" {
		t.Errorf("id = %q", contact.ID)
	}
	if contact.Name != "Alice" {
		t.Errorf("name = %q, want Alice", contact.Name)
	}
	if contact.Status != StatusOnline {
		t.Errorf("status = %q, want ONLINE", contact.Status)
	}

	raw, ok := contact.ChannelData["native"].(map[string]any)
	if !ok {
		t.Fatal("channel data should carry the native payload")
	}
	if _, ok := raw["weird"]; !ok {
		t.Error("native payload should be preserved verbatim")
	}
}

func TestWhatsAppToChat_TypeMapping(t *testing.T) {
	var tf WhatsAppTransformer

	cases := []struct {
		code int
		want ChatType
	}{
		{0, ChatDirect},
		{1, ChatGroup},
		{2, ChatChannel},
		{99, ChatChannel}, // unmapped code defaults to CHANNEL
		{-1, ChatChannel},
	}
	for _, tc := range cases {
		chat := tf.ToChat(map[string]any{"id": "x", "type": tc.code}, "main")
		if chat.ChatType != tc.want {
			t.Errorf("code %d: chat type = %q, want %q", tc.code, chat.ChatType, tc.want)
		}
	}

	// Missing code is treated as unmapped.
	chat := tf.ToChat(map[string]any{"id": "x"}, "main")
	if chat.ChatType != ChatChannel {
		t.Errorf("missing code: chat type = %q, want CHANNEL", chat.ChatType)
	}
}

func TestWhatsAppToMessage_Key(t *testing.T) {
	var tf WhatsAppTransformer

	native := map[string]any{
		"key": map[string]any{
			"id":        "MSG1",
			"remoteJid": "12345@s.whatsapp.net",
			"fromMe":    true,
		},
		"messageType":      "imageMessage",
		"caption":          "look",
		"mediaUrl":         "https://example.com/a.jpg",
		"messageTimestamp": int64(1700000000),
	}
	msg := tf.ToMessage(native, "main")

	if msg.ID != "MSG1" {
		t.Errorf("id = %q", msg.ID)
	}
	if msg.ChatID != "12345@s.whatsapp.net" {
		t.Errorf("chat id = %q", msg.ChatID)
	}
	if !msg.IsFromMe {
		t.Error("expected from-me message")
	}
	if msg.Type != MessageImage {
		t.Errorf("type = %q, want IMAGE", msg.Type)
	}
	if msg.Timestamp == nil || msg.Timestamp.Unix() != 1700000000 {
		t.Errorf("timestamp = %v", msg.Timestamp)
	}
}

func TestWhatsAppToMessage_Totality(t *testing.T) {
	var tf WhatsAppTransformer

	msg := tf.ToMessage(nil, "main")
	if msg.Type != MessageText {
		t.Errorf("type = %q, want TEXT", msg.Type)
	}
	if msg.Timestamp != nil {
		t.Errorf("timestamp = %v, want nil", msg.Timestamp)
	}

	msg = tf.ToMessage(map[string]any{"messageType": "somethingNew"}, "main")
	if msg.Type != MessageText {
		t.Errorf("unknown kind: type = %q, want TEXT", msg.Type)
	}
}

func TestWhatsAppToChannelInfo(t *testing.T) {
	var tf WhatsAppTransformer

	info := tf.ToChannelInfo(map[string]any{
		"profileName": "Gateway Bot",
		"wuid":        "12345@s.whatsapp.net",
		"state":       "open",
	}, "main")

	if !info.Connected {
		t.Error("expected connected channel info")
	}
	if info.Name != "Gateway Bot" {
		t.Errorf("name = %q", info.Name)
	}

	empty := tf.ToChannelInfo(nil, "main")
	if empty.Name != UnknownName {
		t.Errorf("name = %q, want %q", empty.Name, UnknownName)
	}
	if empty.Connected {
		t.Error("nil payload should not report connected")
	}
}
