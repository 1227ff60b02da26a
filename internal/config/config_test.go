package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.DefaultProfile = "work"
	cfg.UserID = "42"
	cfg.PageSize = 25
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultProfile != "work" {
		t.Errorf("DefaultProfile = %q, want %q", loaded.DefaultProfile, "work")
	}
	if loaded.UserID != "42" || loaded.PageSize != 25 {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoadOrDefaultMissing(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if *cfg != *Default() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "user_id = \"7\"\npage_size = -3\nsearch_debounce_ms = 0\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		got  any
		want any
	}{
		{"user_id", cfg.UserID, "7"},
		{"page_size", cfg.PageSize, DefaultPageSize},
		{"bulk_fetch_limit", cfg.BulkFetchLimit, DefaultBulkFetchLimit},
		{"messages_per_load", cfg.MessagesPerLoad, DefaultMessagesPerLoad},
		{"debounce", cfg.SearchDebounce(), 300 * time.Millisecond},
		{"stacked_max_width", cfg.StackedMaxWidth, DefaultStackedMaxWidth},
		{"log_level", cfg.LogLevel, "info"},
		{"default_profile", cfg.DefaultProfile, "main"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"page larger than bulk", func(c *Config) { c.PageSize = 600 }, true},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"debug level", func(c *Config) { c.LogLevel = "debug" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "cfg", "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
