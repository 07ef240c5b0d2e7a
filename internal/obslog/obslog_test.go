package obslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetLoggerSwapsGlobal(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	prev := SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(prev) })

	L().Info("rps_game_start", zap.String("host", "creator"))
	if logs.FilterMessage("rps_game_start").Len() != 1 {
		t.Fatalf("expected one rps_game_start entry, got %d", logs.Len())
	}

	SetLogger(nil)
	if L() == nil {
		t.Fatalf("SetLogger(nil) must install a Nop logger")
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_TO_FILE", "true")
	t.Setenv("LOG_FILE", "x/y.log")
	t.Setenv("LOG_FORMAT", "JSON")
	opts := OptionsFromEnv()
	if opts.Level != zapcore.WarnLevel || opts.File != "x/y.log" || opts.Format != "json" {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestBuildWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "rps.log")
	l, err := Build(Options{Level: zapcore.InfoLevel, File: path, Format: "json"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	l.Info("hello", zap.String("k", "v"))
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(raw), `"msg":"hello"`) {
		t.Fatalf("log file missing entry: %s", raw)
	}
}
