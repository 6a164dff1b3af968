package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/omnigate/omnigate/internal/canonical"
	"github.com/omnigate/omnigate/internal/config"
)

func TestNewRouterDefaultsToEcho(t *testing.T) {
	r, err := newRouter(config.RouterConfig{})
	if err != nil {
		t.Fatal(err)
	}

	reply, err := r.Route(context.Background(), &canonical.Message{Text: "ping"})
	if err != nil {
		t.Fatal(err)
	}
	if reply != "ping" {
		t.Fatalf("echo reply = %q, want ping", reply)
	}
}

func TestNewRouterRejectsUnknownType(t *testing.T) {
	if _, err := newRouter(config.RouterConfig{Type: "grpc"}); err == nil {
		t.Fatal("unknown router type must be rejected")
	}
	if _, err := newRouter(config.RouterConfig{Type: "http"}); err == nil {
		t.Fatal("http router without url must be rejected")
	}
}

func TestHTTPRouterRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg canonical.Message
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Fatal(err)
		}
		if msg.Text != "hello" || msg.SenderID != "u1" {
			t.Errorf("unexpected forwarded message: %+v", msg)
		}
		data, _ := sonic.Marshal(routerReply{Reply: "hi " + msg.SenderID})
		w.Write(data)
	}))
	defer srv.Close()

	r, err := newRouter(config.RouterConfig{Type: "http", URL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	reply, err := r.Route(context.Background(), &canonical.Message{SenderID: "u1", Text: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if reply != "hi u1" {
		t.Fatalf("reply = %q, want hi u1", reply)
	}
}

func TestHTTPRouterUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r, err := newRouter(config.RouterConfig{Type: "http", URL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Route(context.Background(), &canonical.Message{Text: "x"}); err == nil {
		t.Fatal("upstream error must surface")
	}
}
