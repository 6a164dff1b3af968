package bridge

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
)

func testClient(path string) *Client {
	return &Client{
		path: path,
		http: &http.Client{
			Timeout: time.Second,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", path)
				},
			},
		},
	}
}

func TestClientMissingSocket(t *testing.T) {
	c := testClient(filepath.Join(t.TempDir(), "discord-main.sock"))

	if _, err := c.Health(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("err = %v, want ErrNotRunning", err)
	}
	if _, err := c.Send(context.Background(), "123", "hi"); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("err = %v, want ErrNotRunning", err)
	}
}

func TestClientOrphanedSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discord-main.sock")

	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	ln.Close() // leaves the socket file behind with no listener

	c := testClient(path)
	if _, err := c.Health(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("err = %v, want ErrNotRunning for orphaned socket", err)
	}
}

func TestClientRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discord-main.sock")

	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		data, _ := sonic.Marshal(HealthResponse{
			Status: "healthy", Instance: "main", Connected: true, LatencyMS: 42,
		})
		w.Write(data)
	})
	mux.HandleFunc("/send", func(w http.ResponseWriter, r *http.Request) {
		var req SendRequest
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := sonic.Marshal(SendResponse{
			Success: true, Instance: "main", ChannelID: req.ChannelID,
		})
		w.Write(data)
	})

	srv := &http.Server{Handler: mux}
	go srv.Serve(ln)
	defer srv.Close()

	c := testClient(path)

	health, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if !health.Connected || health.Instance != "main" || health.LatencyMS != 42 {
		t.Fatalf("unexpected health response: %+v", health)
	}

	sent, err := c.Send(context.Background(), "chan-1", "hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !sent.Success || sent.ChannelID != "chan-1" {
		t.Fatalf("unexpected send response: %+v", sent)
	}
}

func TestRestrictSocketOwnerOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discord-main.sock")

	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	if err := restrictSocket(path); err != nil {
		t.Fatalf("restrictSocket: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("socket mode = %o, want 600", perm)
	}
}

func TestPrepareSocketRemovesStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whatsapp-main.sock")

	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	ln.Close()

	if err := prepareSocket(path); err != nil {
		t.Fatalf("prepareSocket on stale socket: %v", err)
	}

	// A live listener must not be clobbered.
	ln, err = net.Listen("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	if err := prepareSocket(path); err == nil {
		t.Fatal("prepareSocket must refuse a socket that is in use")
	}
}
