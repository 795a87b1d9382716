package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	if got := parseLevel("DEBUG"); got != zapcore.DebugLevel {
		t.Fatalf("got %v", got)
	}
	if got := parseLevel(""); got != zapcore.InfoLevel {
		t.Fatalf("empty level should default to info, got %v", got)
	}
	if got := parseLevel("nonsense"); got != zapcore.InfoLevel {
		t.Fatalf("unknown level should default to info, got %v", got)
	}
}

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l := New(Config{FilePath: path, Level: "info", IsProd: true})
	Module(l, "test").Info("hello", zap.String("k", "v"))
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(raw)
	if !strings.Contains(line, `"message":"hello"`) || !strings.Contains(line, `"module":"test"`) {
		t.Fatalf("unexpected log line: %s", line)
	}
}

func TestModuleToleratesNil(t *testing.T) {
	Module(nil, "x").Info("discarded")
}
