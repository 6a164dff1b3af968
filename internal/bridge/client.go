package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/bytedance/sonic"
)

const clientTimeout = 5 * time.Second

var (
	// ErrNotRunning means no instance owns the socket (the socket file is
	// missing or nothing is listening).
	ErrNotRunning = errors.New("instance is not running")
	// ErrNotResponding means an instance holds the socket but did not
	// answer within the client timeout.
	ErrNotResponding = errors.New("instance is not responding")
)

// Client talks to a running instance's command socket from another
// process, typically a CLI invocation.
type Client struct {
	path string
	http *http.Client
}

func NewClient(channelType, instance string) *Client {
	path := SocketPath(channelType, instance)
	return &Client{
		path: path,
		http: &http.Client{
			Timeout: clientTimeout,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", path)
				},
			},
		},
	}
}

// Send delivers text to a channel through the running instance.
func (c *Client) Send(ctx context.Context, channelID, text string) (*SendResponse, error) {
	body, err := sonic.Marshal(SendRequest{ChannelID: channelID, Text: text})
	if err != nil {
		return nil, err
	}

	var resp SendResponse
	if err := c.do(ctx, http.MethodPost, "/send", body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return &resp, fmt.Errorf("send failed: %s", resp.Error)
	}
	return &resp, nil
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.do(ctx, http.MethodGet, "/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, route string, body []byte, out interface{}) error {
	if _, err := os.Stat(c.path); os.IsNotExist(err) {
		return ErrNotRunning
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	// The host is a placeholder; the dialer always connects to the socket.
	req, err := http.NewRequestWithContext(ctx, method, "http://omnigate"+route, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyDialError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return sonic.Unmarshal(data, out)
}

func classifyDialError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrNotResponding
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrNotResponding
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		// Connection refused on an orphaned socket file.
		return ErrNotRunning
	}
	return err
}
