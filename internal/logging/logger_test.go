package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "dmtui.log")
	logger, err := New(path, "main", "debug", false)
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	line := string(data)
	for _, want := range []string{`"msg":"hello"`, `"profile":"main"`, `"pid":`, `"ts":`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %s", line, want)
		}
	}
}

func TestNewLevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dmtui.log")
	logger, err := New(path, "main", "warn", false)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("quiet")
	logger.Warn("loud")
	_ = logger.Sync()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "quiet") {
		t.Error("info entry written at warn level")
	}
	if !strings.Contains(string(data), "loud") {
		t.Error("warn entry missing")
	}
}
