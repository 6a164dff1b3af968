package whatsapp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bytedance/sonic"

	"github.com/omnigate/omnigate/internal/lifecycle"
	"github.com/omnigate/omnigate/internal/pkg/utils"
)

// client is a thin REST client for the WhatsApp bridge service. Every
// response body is decoded into raw maps; normalization into the canonical
// model happens in the handler, not here.
type client struct {
	base   string
	apiKey string
	http   *http.Client
}

func newClient(cfg *Config) *client {
	return &client{
		base:   cfg.APIURL,
		apiKey: cfg.APIKey,
		http:   &http.Client{Timeout: cfg.Timeout},
	}
}

// listResponse is the bridge service's paging envelope.
type listResponse struct {
	Items []map[string]any `json:"items"`
	Total int              `json:"total"`
}

type sendResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error,omitempty"`
}

func (c *client) fetchContacts(ctx context.Context, page, pageSize int, search string) (*listResponse, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))
	if search != "" {
		q.Set("search", search)
	}
	return c.fetchList(ctx, "/contacts", q)
}

func (c *client) fetchChats(ctx context.Context, page, pageSize int, archived *bool) (*listResponse, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))
	if archived != nil {
		q.Set("archived", strconv.FormatBool(*archived))
	}
	return c.fetchList(ctx, "/chats", q)
}

func (c *client) fetchMessages(ctx context.Context, chatID string, page, pageSize int, beforeID string) (*listResponse, error) {
	q := url.Values{}
	q.Set("chat_id", chatID)
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))
	if beforeID != "" {
		q.Set("before", beforeID)
	}
	return c.fetchList(ctx, "/messages", q)
}

func (c *client) fetchInstanceState(ctx context.Context) (map[string]any, error) {
	data, err := c.do(ctx, http.MethodGet, "/instance/state", nil)
	if err != nil {
		return nil, err
	}
	var state map[string]any
	if err := sonic.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode instance state: %w", err)
	}
	return state, nil
}

func (c *client) connectInstance(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/instance/connect", nil)
	return err
}

func (c *client) disconnectInstance(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/instance/logout", nil)
	return err
}

func (c *client) sendText(ctx context.Context, recipient, text string) (string, error) {
	return c.send(ctx, "/message/text", map[string]any{
		"number": recipient,
		"text":   text,
	})
}

func (c *client) sendMedia(ctx context.Context, recipient, mediaURL, caption string) (string, error) {
	return c.send(ctx, "/message/media", map[string]any{
		"number":    recipient,
		"media_url": mediaURL,
		"caption":   caption,
	})
}

func (c *client) sendAudio(ctx context.Context, recipient, audioURL string) (string, error) {
	return c.send(ctx, "/message/audio", map[string]any{
		"number":    recipient,
		"audio_url": audioURL,
	})
}

func (c *client) sendSticker(ctx context.Context, recipient, stickerURL string) (string, error) {
	return c.send(ctx, "/message/sticker", map[string]any{
		"number":      recipient,
		"sticker_url": stickerURL,
	})
}

func (c *client) sendReaction(ctx context.Context, recipient, messageID, emoji string) (string, error) {
	return c.send(ctx, "/message/reaction", map[string]any{
		"number":     recipient,
		"message_id": messageID,
		"emoji":      emoji,
	})
}

func (c *client) fetchList(ctx context.Context, route string, q url.Values) (*listResponse, error) {
	data, err := c.do(ctx, http.MethodGet, route+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var resp listResponse
	if err := sonic.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", route, err)
	}
	return &resp, nil
}

func (c *client) send(ctx context.Context, route string, payload map[string]any) (string, error) {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return "", err
	}
	data, err := c.do(ctx, http.MethodPost, route, body)
	if err != nil {
		return "", err
	}

	var resp sendResponse
	if err := sonic.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decode %s response: %w", route, err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("bridge service: %s", resp.Error)
	}
	return resp.MessageID, nil
}

func (c *client) do(ctx context.Context, method, route string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+route, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// A rejected API key never heals on retry.
		return nil, fmt.Errorf("%s %s: status %d: %s: %w",
			method, route, resp.StatusCode, utils.Truncate(string(data), 200), lifecycle.ErrAuthFailed)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%s %s: status %d: %s", method, route, resp.StatusCode, utils.Truncate(string(data), 200))
	}
	return data, nil
}
