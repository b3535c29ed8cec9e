package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestInitAndShutdown(t *testing.T) {
	var buf bytes.Buffer

	if err := Init(Config{Level: LevelInfo, Writer: &buf}); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	defer Shutdown()

	if err := Init(Config{Level: LevelInfo, Writer: &buf}); err == nil {
		t.Error("double init must fail")
	}

	Get().Info("hello", "key", "value")
	if !strings.Contains(buf.String(), "hello") || !strings.Contains(buf.String(), "key=value") {
		t.Errorf("unexpected log output: %s", buf.String())
	}

	if err := Shutdown(); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if err := Shutdown(); err != nil {
		t.Errorf("repeated shutdown must be a no-op, got %v", err)
	}
}

func TestGet_BeforeInitReturnsNullLogger(t *testing.T) {
	if _, ok := Get().(*NullLogger); !ok {
		t.Errorf("expected NullLogger before init, got %T", Get())
	}
	// Must not panic.
	Get().Info("ignored")
	With("key", "value").Debug("ignored")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	log, err := NewSlogLogger(Config{Level: LevelWarn, Writer: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.Info("quiet")
	log.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Error("info must be filtered at warn level")
	}
	if !strings.Contains(out, "loud") {
		t.Error("warn must pass at warn level")
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer

	log, err := NewSlogLogger(Config{Level: LevelInfo, Format: FormatJSON, Writer: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.Info("structured", "count", 3)
	if !strings.Contains(buf.String(), `"msg":"structured"`) {
		t.Errorf("expected JSON output, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		s    string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"Warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}

	for _, tc := range cases {
		if got := ParseLevel(tc.s); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.s, got, tc.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("json") != FormatJSON {
		t.Error("expected FormatJSON")
	}
	if ParseFormat("text") != FormatText || ParseFormat("") != FormatText {
		t.Error("expected FormatText")
	}
}
