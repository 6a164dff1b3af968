package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/omnigate/omnigate/internal/canonical"
	"github.com/omnigate/omnigate/internal/config"
)

// Router decides the reply for an inbound message. An empty reply means
// nothing is sent back.
type Router interface {
	Route(ctx context.Context, msg *canonical.Message) (string, error)
}

func newRouter(cfg config.RouterConfig) (Router, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", "echo":
		return echoRouter{}, nil
	case "http":
		if cfg.URL == "" {
			return nil, fmt.Errorf("http router requires a url")
		}
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		return &httpRouter{
			url:  cfg.URL,
			http: &http.Client{Timeout: timeout},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported router type: %s", cfg.Type)
	}
}

// echoRouter replies with the inbound text. Useful for wiring checks and as
// the default when no upstream is configured.
type echoRouter struct{}

func (echoRouter) Route(_ context.Context, msg *canonical.Message) (string, error) {
	return msg.Text, nil
}

// httpRouter forwards the canonical message to an upstream service and
// relays its reply.
type httpRouter struct {
	url  string
	http *http.Client
}

type routerReply struct {
	Reply string `json:"reply"`
}

func (r *httpRouter) Route(ctx context.Context, msg *canonical.Message) (string, error) {
	body, err := sonic.Marshal(msg)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("router upstream: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("router upstream status %d", resp.StatusCode)
	}

	var out routerReply
	if err := sonic.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode router reply: %w", err)
	}
	return out.Reply, nil
}
