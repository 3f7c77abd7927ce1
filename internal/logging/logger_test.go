package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLogger_Levels(t *testing.T) {
	cases := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"WARN":    logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"info":    logrus.InfoLevel,
		"trace":   logrus.TraceLevel,
		"warning": logrus.WarnLevel,
		"":        logrus.InfoLevel,
		"verbose": logrus.InfoLevel,
	}
	for in, want := range cases {
		if got := NewLogger(in, "text", "").GetLevel(); got != want {
			t.Errorf("level %q: expected %s, got %s", in, want, got)
		}
	}
}

func TestNewLogger_JSONFormat(t *testing.T) {
	logger := NewLogger("info", "json", "")
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("expected JSON formatter, got %T", logger.Formatter)
	}
}

func TestNewLogger_WritesToDirectory(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger("info", "text", dir)
	logger.Info("hello from the till")

	files, err := filepath.Glob(filepath.Join(dir, "pos_server_*.log"))
	if err != nil || len(files) != 1 {
		t.Fatalf("expected one log file, got %v (%v)", files, err)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected log output in file")
	}
}
