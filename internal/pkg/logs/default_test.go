package logs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		in   string
		want logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{" ERROR ", logrus.ErrorLevel},
		{"", logrus.InfoLevel},
		{"verbose", logrus.InfoLevel},
	}
	for _, c := range cases {
		if got := parseLogLevel(c.in); got != c.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestShortFilePath(t *testing.T) {
	if got := shortFilePath("/a/b/gateway/gateway.go"); got != "gateway/gateway.go" {
		t.Errorf("shortFilePath = %q", got)
	}
	if got := shortFilePath("main.go"); got != "main.go" {
		t.Errorf("shortFilePath = %q", got)
	}
}

func TestStripANSI(t *testing.T) {
	in := []byte("\x1b[32mINFO\x1b[0m hello")
	if got := string(stripANSI(in)); got != "INFO hello" {
		t.Errorf("stripANSI = %q", got)
	}
}

func TestBuildWriterRejectsUnknownOutput(t *testing.T) {
	if _, err := buildWriter(Options{}, "syslog"); err == nil {
		t.Fatal("unknown output must be rejected")
	}
	if _, err := buildWriter(Options{}, "file"); err == nil {
		t.Fatal("file output without a file path must be rejected")
	}
}

func TestConfiguredLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "omnigate.log")

	l, err := newConfiguredLogger(Options{Level: "info", Output: "file", File: path})
	if err != nil {
		t.Fatalf("newConfiguredLogger: %v", err)
	}

	l.Info("started instance %s", "main")
	l.Debug("suppressed at info level")

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(raw)
	if !strings.Contains(out, "started instance main") {
		t.Errorf("log output missing info line: %q", out)
	}
	if strings.Contains(out, "suppressed") {
		t.Errorf("debug line must not pass an info-level logger: %q", out)
	}
}

func TestLogIDFlowsThroughFormatter(t *testing.T) {
	ctx := SetLogID(context.Background(), "trace-42")

	var f customFormatter
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Context: ctx,
		Level:   logrus.InfoLevel,
		Message: "hello",
	}
	out, err := f.Format(entry)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "trace-42") {
		t.Errorf("formatted line missing log id: %q", out)
	}
}
