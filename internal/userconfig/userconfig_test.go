package userconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.AllowlistCheck {
		t.Error("expected AllowlistCheck to default to false")
	}
	if cfg.Concurrency != 0 || cfg.ProbeTimeout != "" {
		t.Error("expected probe settings to be unset by default")
	}
}

func TestLoadMissingFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AllowlistCheck {
		t.Error("expected default AllowlistCheck=false when file missing")
	}
}

func TestLoadExistingFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	content := `allowlist_check = true
probe_timeout = "45s"
concurrency = 2
cache_path = "/var/cache/rpr"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.AllowlistCheck {
		t.Error("expected AllowlistCheck=true from file")
	}
	if cfg.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want 2", cfg.Concurrency)
	}
	if cfg.CachePath != "/var/cache/rpr" {
		t.Errorf("CachePath = %q", cfg.CachePath)
	}
	d, ok := cfg.Timeout()
	if !ok || d != 45*time.Second {
		t.Errorf("Timeout() = (%v, %v), want (45s, true)", d, ok)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad toml", "this is not valid toml [[["},
		{"bad timeout", `probe_timeout = "soon"`},
		{"concurrency too high", "concurrency = 99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write test file: %v", err)
			}
			if _, err := loadFromPath(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "subdir", "config.toml")

	cfg := &Config{AllowlistCheck: true, Concurrency: 4, RulesFile: "/etc/rules.toml"}
	if err := cfg.saveToPath(path); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	loaded, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("loaded %+v, want %+v", *loaded, *cfg)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "probe_timeout") {
		t.Error("unset probe_timeout should be omitted from the file")
	}
}

func TestGetSet(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"allowlist_check", "true"},
		{"probe_timeout", "1m0s"},
		{"concurrency", "3"},
		{"cache_path", "/tmp/kernels"},
		{"rules_file", "/tmp/rules.toml"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := cfg.Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set(%q, %q) error: %v", tt.key, tt.value, err)
			}
			got, ok := cfg.Get(tt.key)
			if !ok {
				t.Fatalf("Get(%q) reported unknown key", tt.key)
			}
			if got != tt.value {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.value)
			}
		})
	}
}

func TestGetCaseInsensitive(t *testing.T) {
	cfg := &Config{AllowlistCheck: true}
	val, ok := cfg.Get("ALLOWLIST_CHECK")
	if !ok || val != "true" {
		t.Errorf("Get(ALLOWLIST_CHECK) = (%q, %v)", val, ok)
	}
}

func TestGetUnknownKey(t *testing.T) {
	cfg := DefaultConfig()
	if _, ok := cfg.Get("telemetry"); ok {
		t.Error("expected unknown key to return false")
	}
}

func TestSetInvalid(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr string
	}{
		{"allowlist_check", "maybe", "must be true or false"},
		{"probe_timeout", "fast", "must be a duration"},
		{"probe_timeout", "-5s", "must be a duration"},
		{"concurrency", "0", "between 1 and 17"},
		{"concurrency", "18", "between 1 and 17"},
		{"concurrency", "two", "between 1 and 17"},
		{"nope", "1", "unknown config key"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := DefaultConfig()
			err := cfg.Set(tt.key, tt.value)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSetEmptyClears(t *testing.T) {
	cfg := &Config{Concurrency: 4, ProbeTimeout: "10s"}
	if err := cfg.Set("concurrency", ""); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Set("probe_timeout", ""); err != nil {
		t.Fatal(err)
	}
	if cfg.Concurrency != 0 || cfg.ProbeTimeout != "" {
		t.Errorf("expected cleared settings, got %+v", *cfg)
	}
	if _, ok := cfg.Timeout(); ok {
		t.Error("Timeout() should report unset")
	}
}

func TestAvailableKeys(t *testing.T) {
	keys := AvailableKeys()
	cfg := DefaultConfig()
	for key, desc := range keys {
		if desc == "" {
			t.Errorf("key %q has no description", key)
		}
		if _, ok := cfg.Get(key); !ok {
			t.Errorf("AvailableKeys lists %q but Get does not know it", key)
		}
	}

	sorted := SortedKeys()
	if len(sorted) != len(keys) {
		t.Fatalf("SortedKeys() has %d entries, want %d", len(sorted), len(keys))
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1] > sorted[i] {
			t.Errorf("SortedKeys() not sorted: %v", sorted)
		}
	}
}

func TestLoadUsesHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("RPRCHECK_HOME", home)

	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte("concurrency = 5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Concurrency != 5 {
		t.Errorf("Concurrency = %d, want 5", cfg.Concurrency)
	}

	cfg.AllowlistCheck = true
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	reloaded, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !reloaded.AllowlistCheck {
		t.Error("expected AllowlistCheck to persist")
	}
}
