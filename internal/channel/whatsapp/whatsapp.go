package whatsapp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/omnigate/omnigate/internal/canonical"
	"github.com/omnigate/omnigate/internal/channel"
	"github.com/omnigate/omnigate/internal/config"
	"github.com/omnigate/omnigate/internal/pkg/logs"
)

var _ channel.Handler = (*WhatsApp)(nil)

// WhatsApp adapts an external WhatsApp bridge service to the channel
// handler port. Listings come from the bridge's REST API; inbound messages
// arrive as webhook payloads pushed through HandleWebhook.
type WhatsApp struct {
	id       string
	instance string
	config   Config
	client   *client

	transformer canonical.WhatsAppTransformer

	mu      sync.RWMutex
	handler func(ctx context.Context, msg *canonical.Message) error
}

func NewHandler(chanID string, chCfg *config.ChannelConfig) (*WhatsApp, error) {
	cfg, err := ParseConfig(chCfg.Config)
	if err != nil {
		return nil, fmt.Errorf("parse whatsapp config: %w", err)
	}

	return &WhatsApp{
		id:       chanID,
		instance: chCfg.InstanceName(),
		config:   *cfg,
		client:   newClient(cfg),
	}, nil
}

func (w *WhatsApp) ID() string         { return w.id }
func (w *WhatsApp) Type() channel.Type { return channel.WhatsApp }
func (w *WhatsApp) Instance() string   { return w.instance }

// Connect asks the bridge service to bring the session up. Used by the
// lifecycle manager.
func (w *WhatsApp) Connect(ctx context.Context) error {
	if err := w.client.connectInstance(ctx); err != nil {
		return fmt.Errorf("connect whatsapp instance %s: %w", w.instance, err)
	}
	return nil
}

func (w *WhatsApp) Disconnect(ctx context.Context) error {
	return w.client.disconnectInstance(ctx)
}

func (w *WhatsApp) GetContacts(ctx context.Context, q channel.ContactQuery) (channel.Page[canonical.Contact], error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)

	resp, err := w.client.fetchContacts(ctx, page, pageSize, q.SearchQuery)
	if err != nil {
		return channel.Page[canonical.Contact]{}, fmt.Errorf("fetch contacts: %w", err)
	}

	contacts := make([]canonical.Contact, 0, len(resp.Items))
	for _, raw := range resp.Items {
		contacts = append(contacts, w.transformer.ToContact(raw, w.instance))
	}

	out := channel.Page[canonical.Contact]{Items: contacts, TotalCount: resp.Total}

	// The bridge cannot filter by presence server-side. Filter here and keep
	// the pre-filter total so callers can tell the page may run short.
	if q.StatusFilter != "" {
		filtered := contacts[:0]
		for _, c := range contacts {
			if c.Status == q.StatusFilter {
				filtered = append(filtered, c)
			}
		}
		out.Items = filtered
		out.FilteredLocally = true
	}
	return out, nil
}

func (w *WhatsApp) GetChats(ctx context.Context, q channel.ChatQuery) (channel.Page[canonical.Chat], error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)

	resp, err := w.client.fetchChats(ctx, page, pageSize, q.Archived)
	if err != nil {
		return channel.Page[canonical.Chat]{}, fmt.Errorf("fetch chats: %w", err)
	}

	chats := make([]canonical.Chat, 0, len(resp.Items))
	for _, raw := range resp.Items {
		chats = append(chats, w.transformer.ToChat(raw, w.instance))
	}

	out := channel.Page[canonical.Chat]{Items: chats, TotalCount: resp.Total}

	if q.ChatTypeFilter != "" {
		filtered := chats[:0]
		for _, c := range chats {
			if c.ChatType == q.ChatTypeFilter {
				filtered = append(filtered, c)
			}
		}
		out.Items = filtered
		out.FilteredLocally = true
	}
	return out, nil
}

func (w *WhatsApp) GetMessages(ctx context.Context, q channel.MessageQuery) (channel.Page[canonical.Message], error) {
	if q.ChatID == "" {
		return channel.Page[canonical.Message]{}, fmt.Errorf("chat id is required")
	}
	page, pageSize := normalizePage(q.Page, q.PageSize)

	resp, err := w.client.fetchMessages(ctx, q.ChatID, page, pageSize, q.BeforeMessageID)
	if err != nil {
		return channel.Page[canonical.Message]{}, fmt.Errorf("fetch messages: %w", err)
	}

	msgs := make([]canonical.Message, 0, len(resp.Items))
	for _, raw := range resp.Items {
		msgs = append(msgs, w.transformer.ToMessage(raw, w.instance))
	}
	return channel.Page[canonical.Message]{Items: msgs, TotalCount: resp.Total}, nil
}

func (w *WhatsApp) GetChannelInfo(ctx context.Context) (canonical.ChannelInfo, error) {
	state, err := w.client.fetchInstanceState(ctx)
	if err != nil {
		return canonical.ChannelInfo{}, fmt.Errorf("fetch instance state: %w", err)
	}
	info := w.transformer.ToChannelInfo(state, w.instance)
	// WhatsApp has no guild concept.
	info.GuildCount = 0
	return info, nil
}

func (w *WhatsApp) SendText(ctx context.Context, recipient, text string) channel.SendResult {
	id, err := w.client.sendText(ctx, recipient, text)
	if err != nil {
		return channel.FailResult(channel.WhatsApp, "send text: %v", err)
	}
	return channel.OkResult(channel.WhatsApp, id)
}

func (w *WhatsApp) SendMedia(ctx context.Context, recipient, mediaURL, caption string) channel.SendResult {
	id, err := w.client.sendMedia(ctx, recipient, mediaURL, caption)
	if err != nil {
		return channel.FailResult(channel.WhatsApp, "send media: %v", err)
	}
	return channel.OkResult(channel.WhatsApp, id)
}

func (w *WhatsApp) SendAudio(ctx context.Context, recipient, audioURL string) channel.SendResult {
	id, err := w.client.sendAudio(ctx, recipient, audioURL)
	if err != nil {
		return channel.FailResult(channel.WhatsApp, "send audio: %v", err)
	}
	return channel.OkResult(channel.WhatsApp, id)
}

func (w *WhatsApp) SendSticker(ctx context.Context, recipient, stickerURL string) channel.SendResult {
	id, err := w.client.sendSticker(ctx, recipient, stickerURL)
	if err != nil {
		return channel.FailResult(channel.WhatsApp, "send sticker: %v", err)
	}
	return channel.OkResult(channel.WhatsApp, id)
}

func (w *WhatsApp) SendReaction(ctx context.Context, recipient, messageID, emoji string) channel.SendResult {
	id, err := w.client.sendReaction(ctx, recipient, messageID, emoji)
	if err != nil {
		return channel.FailResult(channel.WhatsApp, "send reaction: %v", err)
	}
	return channel.OkResult(channel.WhatsApp, id)
}

func (w *WhatsApp) RegisterMessageHandler(handler func(ctx context.Context, msg *canonical.Message) error) error {
	if handler == nil {
		return fmt.Errorf("message handler cannot be nil")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handler = handler
	return nil
}

// HandleWebhook ingests one webhook event pushed by the bridge service.
// Only message events reach the registered handler; everything else is
// logged and dropped.
func (w *WhatsApp) HandleWebhook(ctx context.Context, payload map[string]any) error {
	event := strings.ToLower(fmt.Sprint(payload["event"]))
	switch event {
	case "messages.upsert", "message", "messages":
	default:
		logs.CtxDebug(ctx, "[channel:whatsapp] ignoring webhook event %q", event)
		return nil
	}

	data, _ := payload["data"].(map[string]any)
	if data == nil {
		data = payload
	}

	msg := w.transformer.ToMessage(data, w.instance)

	w.mu.RLock()
	handler := w.handler
	w.mu.RUnlock()
	if handler == nil {
		logs.CtxWarn(ctx, "[channel:whatsapp] message dropped, no handler registered")
		return nil
	}
	return handler(ctx, &msg)
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	return page, pageSize
}
