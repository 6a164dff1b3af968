package discord

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/omnigate/omnigate/internal/canonical"
	"github.com/omnigate/omnigate/internal/channel"
	"github.com/omnigate/omnigate/internal/config"
	"github.com/omnigate/omnigate/internal/lifecycle"
	"github.com/omnigate/omnigate/internal/pkg/logs"
)

// maxMessageLen is discord's hard limit per message.
const maxMessageLen = 2000

var _ channel.Handler = (*Discord)(nil)

// Discord adapts a discordgo gateway session to the channel handler port.
// Guild channels and DMs surface as chats; guild members as contacts.
type Discord struct {
	id       string
	instance string
	config   Config
	session  *discordgo.Session
	download *http.Client

	transformer canonical.DiscordTransformer

	mu           sync.RWMutex
	botUserID    string
	handler      func(ctx context.Context, msg *canonical.Message) error
	onDisconnect func()
	onBeat       func()
}

func NewHandler(chanID string, chCfg *config.ChannelConfig) (*Discord, error) {
	cfg, err := ParseConfig(chCfg.Config)
	if err != nil {
		return nil, fmt.Errorf("parse discord config: %w", err)
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildPresences |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent
	session.StateEnabled = true
	// Reconnection belongs to the lifecycle manager, not the library.
	session.ShouldReconnectOnError = false

	d := &Discord{
		id:       chanID,
		instance: chCfg.InstanceName(),
		config:   *cfg,
		session:  session,
		download: &http.Client{Timeout: cfg.DownloadTimeout},
	}

	session.AddHandler(d.handleReady)
	session.AddHandler(d.handleMessageCreate)
	session.AddHandler(d.handleDisconnect)

	return d, nil
}

func (d *Discord) ID() string         { return d.id }
func (d *Discord) Type() channel.Type { return channel.Discord }
func (d *Discord) Instance() string   { return d.instance }

// Session exposes the underlying gateway session for status reporting.
func (d *Discord) Session() *discordgo.Session { return d.session }

// SetLifecycleHooks wires the disconnect and heartbeat callbacks the
// lifecycle manager listens on. Must be called before Connect.
func (d *Discord) SetLifecycleHooks(onDisconnect, onBeat func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onDisconnect = onDisconnect
	d.onBeat = onBeat
}

// Connect opens the gateway session. A rejected token is reported as a
// permanent failure so the retry loop gives up instead of hammering the API.
func (d *Discord) Connect(ctx context.Context) error {
	if err := d.session.Open(); err != nil {
		if isAuthError(err) {
			return fmt.Errorf("discord: %v: %w", err, lifecycle.ErrAuthFailed)
		}
		return fmt.Errorf("open discord session: %w", err)
	}
	return nil
}

func (d *Discord) Disconnect(ctx context.Context) error {
	return d.session.Close()
}

func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// Close code 4004 is the gateway's authentication failure.
	return strings.Contains(msg, "authentication failed") ||
		strings.Contains(msg, "4004") ||
		strings.Contains(msg, "401")
}

func (d *Discord) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	d.mu.Lock()
	d.botUserID = r.User.ID
	beat := d.onBeat
	d.mu.Unlock()

	logs.Info("[channel:discord] instance %s ready as %s (%d guilds)",
		d.instance, r.User.Username, len(r.Guilds))
	if beat != nil {
		beat()
	}
}

func (d *Discord) handleDisconnect(s *discordgo.Session, _ *discordgo.Disconnect) {
	d.mu.RLock()
	notify := d.onDisconnect
	d.mu.RUnlock()

	logs.Warn("[channel:discord] instance %s gateway connection lost", d.instance)
	if notify != nil {
		notify()
	}
}

func (d *Discord) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	d.mu.RLock()
	handler := d.handler
	botUserID := d.botUserID
	beat := d.onBeat
	d.mu.RUnlock()

	if beat != nil {
		beat()
	}
	if handler == nil {
		return
	}
	if m.Author != nil && (m.Author.ID == botUserID || m.Author.Bot) {
		return
	}

	msg := d.transformer.ToMessage(m.Message, botUserID, d.instance)
	if err := handler(context.Background(), &msg); err != nil {
		logs.Error("[channel:discord] handle message %s: %v", msg.ID, err)
	}
}

func (d *Discord) RegisterMessageHandler(handler func(ctx context.Context, msg *canonical.Message) error) error {
	if handler == nil {
		return fmt.Errorf("message handler cannot be nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = handler
	return nil
}

// GetContacts lists members across all guilds in the session state. The
// full set is available locally, so filters produce exact totals.
func (d *Discord) GetContacts(ctx context.Context, q channel.ContactQuery) (channel.Page[canonical.Contact], error) {
	state := d.session.State
	if state == nil {
		return channel.Page[canonical.Contact]{}, fmt.Errorf("session state unavailable")
	}

	presences := make(map[string]discordgo.Status)
	seen := make(map[string]bool)
	var contacts []canonical.Contact

	state.RLock()
	for _, g := range state.Guilds {
		for _, p := range g.Presences {
			if p.User != nil {
				presences[p.User.ID] = p.Status
			}
		}
	}
	for _, g := range state.Guilds {
		for _, m := range g.Members {
			if m.User == nil || seen[m.User.ID] {
				continue
			}
			seen[m.User.ID] = true
			status := discordgo.StatusOffline
			if s, ok := presences[m.User.ID]; ok {
				status = s
			}
			contacts = append(contacts, d.transformer.ToContact(m.User, status, d.instance))
		}
	}
	state.RUnlock()

	if q.SearchQuery != "" {
		needle := strings.ToLower(q.SearchQuery)
		filtered := contacts[:0]
		for _, c := range contacts {
			if strings.Contains(strings.ToLower(c.Name), needle) {
				filtered = append(filtered, c)
			}
		}
		contacts = filtered
	}
	if q.StatusFilter != "" {
		filtered := contacts[:0]
		for _, c := range contacts {
			if c.Status == q.StatusFilter {
				filtered = append(filtered, c)
			}
		}
		contacts = filtered
	}

	return channel.Page[canonical.Contact]{
		Items:      channel.Paginate(contacts, q.Page, q.PageSize),
		TotalCount: len(contacts),
	}, nil
}

// GetChats lists guild channels and open DMs. Discord has no archived
// concept, so the Archived filter is ignored.
func (d *Discord) GetChats(ctx context.Context, q channel.ChatQuery) (channel.Page[canonical.Chat], error) {
	state := d.session.State
	if state == nil {
		return channel.Page[canonical.Chat]{}, fmt.Errorf("session state unavailable")
	}

	var chats []canonical.Chat

	state.RLock()
	for _, g := range state.Guilds {
		for _, ch := range g.Channels {
			if ch.Type == discordgo.ChannelTypeGuildCategory {
				continue
			}
			chats = append(chats, d.transformer.ToChat(ch, d.instance))
		}
	}
	for _, ch := range state.PrivateChannels {
		chats = append(chats, d.transformer.ToChat(ch, d.instance))
	}
	state.RUnlock()

	if q.ChatTypeFilter != "" {
		filtered := chats[:0]
		for _, c := range chats {
			if c.ChatType == q.ChatTypeFilter {
				filtered = append(filtered, c)
			}
		}
		chats = filtered
	}

	return channel.Page[canonical.Chat]{
		Items:      channel.Paginate(chats, q.Page, q.PageSize),
		TotalCount: len(chats),
	}, nil
}

// GetMessages pages through a channel's history with before-ID cursoring.
// Discord does not report a history total, so TotalCount reflects the
// returned page only.
func (d *Discord) GetMessages(ctx context.Context, q channel.MessageQuery) (channel.Page[canonical.Message], error) {
	if q.ChatID == "" {
		return channel.Page[canonical.Message]{}, fmt.Errorf("chat id is required")
	}

	limit := q.PageSize
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	native, err := d.session.ChannelMessages(q.ChatID, limit, q.BeforeMessageID, "", "", discordgo.WithContext(ctx))
	if err != nil {
		return channel.Page[canonical.Message]{}, fmt.Errorf("fetch messages: %w", err)
	}

	d.mu.RLock()
	botUserID := d.botUserID
	d.mu.RUnlock()

	msgs := make([]canonical.Message, 0, len(native))
	for _, m := range native {
		msgs = append(msgs, d.transformer.ToMessage(m, botUserID, d.instance))
	}
	return channel.Page[canonical.Message]{Items: msgs, TotalCount: len(msgs)}, nil
}

func (d *Discord) GetChannelInfo(ctx context.Context) (canonical.ChannelInfo, error) {
	return d.transformer.ToChannelInfo(d.session, d.instance), nil
}

// SendText delivers text, splitting at newline boundaries when it exceeds
// discord's per-message limit. The last chunk's ID is reported.
func (d *Discord) SendText(ctx context.Context, recipient, text string) channel.SendResult {
	lastID := ""
	for _, chunk := range splitMessage(text, maxMessageLen) {
		msg, err := d.session.ChannelMessageSend(recipient, chunk, discordgo.WithContext(ctx))
		if err != nil {
			return channel.FailResult(channel.Discord, "send text: %v", err)
		}
		lastID = msg.ID
	}
	return channel.OkResult(channel.Discord, lastID)
}

func (d *Discord) SendMedia(ctx context.Context, recipient, mediaURL, caption string) channel.SendResult {
	msg, err := d.session.ChannelMessageSendComplex(recipient, &discordgo.MessageSend{
		Content: caption,
		Embeds: []*discordgo.MessageEmbed{
			{Image: &discordgo.MessageEmbedImage{URL: mediaURL}},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return channel.FailResult(channel.Discord, "send media: %v", err)
	}
	return channel.OkResult(channel.Discord, msg.ID)
}

// SendAudio uploads the file itself: discord renders audio only as an
// attachment, not as an embed URL.
func (d *Discord) SendAudio(ctx context.Context, recipient, audioURL string) channel.SendResult {
	body, name, err := d.fetchAttachment(ctx, audioURL)
	if err != nil {
		return channel.FailResult(channel.Discord, "download audio: %v", err)
	}
	defer body.Close()

	msg, err := d.session.ChannelFileSend(recipient, name, body, discordgo.WithContext(ctx))
	if err != nil {
		return channel.FailResult(channel.Discord, "send audio: %v", err)
	}
	return channel.OkResult(channel.Discord, msg.ID)
}

// SendSticker is not available to bots for arbitrary sticker content.
func (d *Discord) SendSticker(ctx context.Context, recipient, stickerURL string) channel.SendResult {
	return channel.UnsupportedResult(channel.Discord, "stickers")
}

func (d *Discord) SendReaction(ctx context.Context, recipient, messageID, emoji string) channel.SendResult {
	if err := d.session.MessageReactionAdd(recipient, messageID, emoji, discordgo.WithContext(ctx)); err != nil {
		return channel.FailResult(channel.Discord, "send reaction: %v", err)
	}
	// Reactions have no message ID of their own.
	return channel.OkResult(channel.Discord, messageID)
}

func (d *Discord) fetchAttachment(ctx context.Context, url string) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := d.download.Do(req)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, "", fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	name := path.Base(req.URL.Path)
	if name == "/" || name == "." {
		name = "audio"
	}
	return resp.Body, name, nil
}

// splitMessage splits text into chunks at newline boundaries, respecting
// maxLen.
func splitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			chunks = append(chunks, text)
			break
		}
		cutAt := maxLen
		if idx := strings.LastIndex(text[:maxLen], "\n"); idx > 0 {
			cutAt = idx + 1
		}
		chunks = append(chunks, text[:cutAt])
		text = text[cutAt:]
	}
	return chunks
}
