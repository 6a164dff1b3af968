package config

import (
	"os"
	"path/filepath"
	"testing"
)

const minimalYAML = `
router:
  type: echo
channels:
  wa-main:
    type: whatsapp
    enabled: true
    config:
      api_url: http://localhost:8080
      api_key: k
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInstanceManager_ApplySaveRoundTrip(t *testing.T) {
	path := writeConfigFile(t, minimalYAML)

	ins := &InstanceManager{}
	if _, err := ins.Load(path); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	before, err := ins.Hash()
	if err != nil {
		t.Fatal(err)
	}

	next := RateLimitConfig{MaxRequests: 25, WindowSeconds: 30, CleanupInterval: 120}
	if err := ins.Apply("rate_limit", &next); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	after, err := ins.Hash()
	if err != nil {
		t.Fatal(err)
	}
	if after == before {
		t.Fatal("hash must change after a section update")
	}

	if err := ins.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// A fresh manager reading the file back sees the persisted values.
	reread := &InstanceManager{}
	cfg, err := reread.Load(path)
	if err != nil {
		t.Fatalf("reload error: %v", err)
	}
	if cfg.RateLimit != next {
		t.Errorf("persisted rate limit = %+v, want %+v", cfg.RateLimit, next)
	}

	// The lock file must not outlive the save.
	if _, err := os.Stat(path + ".lock"); !os.IsNotExist(err) {
		t.Errorf("lock file left behind: %v", err)
	}
}

func TestInstanceManager_ApplyRejectsInvalidDraft(t *testing.T) {
	path := writeConfigFile(t, minimalYAML)

	ins := &InstanceManager{}
	if _, err := ins.Load(path); err != nil {
		t.Fatal(err)
	}
	before, _ := ins.Hash()

	bad := RouterConfig{Type: "http"} // missing url
	if err := ins.Apply("router", &bad); err == nil {
		t.Fatal("Apply must reject a draft that fails validation")
	}

	after, _ := ins.Hash()
	if after != before {
		t.Error("failed Apply must leave the loaded config untouched")
	}
}

func TestInstanceManager_ApplyRequiresLoad(t *testing.T) {
	ins := &InstanceManager{}
	if err := ins.Apply("rate_limit", &RateLimitConfig{MaxRequests: 1}); err == nil {
		t.Fatal("Apply before Load must fail")
	}
	if err := ins.Save(); err == nil {
		t.Fatal("Save before Load must fail")
	}
}

func TestUpdateByName_Router(t *testing.T) {
	var cfg Config
	next := RouterConfig{Type: "http", URL: "http://localhost:9000/route"}
	if err := cfg.UpdateByName("router", &next); err != nil {
		t.Fatalf("UpdateByName(router) error: %v", err)
	}
	if cfg.Router != next {
		t.Errorf("Router = %+v, want %+v", cfg.Router, next)
	}

	if err := cfg.UpdateByName("router", &RateLimitConfig{}); err == nil {
		t.Fatal("wrong value type must be rejected")
	}
	if err := cfg.UpdateByName("bogus", &next); err == nil {
		t.Fatal("unknown section must be rejected")
	}
}

func TestMarshalYAML_SingleTrailingNewline(t *testing.T) {
	raw, err := MarshalYAML(&Config{Router: RouterConfig{Type: "echo"}})
	if err != nil {
		t.Fatal(err)
	}
	s := string(raw)
	if len(s) == 0 || s[len(s)-1] != '\n' {
		t.Fatal("output must end with a newline")
	}
	if len(s) > 1 && s[len(s)-2] == '\n' {
		t.Fatal("output must not end with a blank line")
	}
}
