package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tsukumogami/rprcheck/internal/config"
)

// envOverrides are cleared by NewTestConfig so the host environment does
// not leak into tests.
var envOverrides = []string{
	config.EnvRulesFile,
	config.EnvProbeTimeout,
	config.EnvProbeConcurrency,
	config.EnvAllowlistCheck,
}

// NewTestConfig points RPRCHECK_HOME at a temporary directory, clears every
// other RPRCHECK_ override and returns the resulting config with its
// directories created.
func NewTestConfig(t *testing.T) *config.Config {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	for _, env := range envOverrides {
		t.Setenv(env, "")
	}

	cfg, err := config.DefaultConfig()
	if err != nil {
		t.Fatalf("failed to build config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("failed to create directories: %v", err)
	}
	return cfg
}

// WriteFile writes content to dir/name and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// DeviceFile writes a device file with one [[device]] entry per slot and
// returns its path. Slots are written in the order given.
func DeviceFile(t *testing.T, dir string, devices ...Device) string {
	t.Helper()
	var b []byte
	for _, d := range devices {
		b = append(b, "[[device]]\n"...)
		b = append(b, "slot = "+quote(d.Slot)+"\n"...)
		b = append(b, "name = "+quote(d.Name)+"\n"...)
		if d.Create != "" {
			b = append(b, "create = "+quote(d.Create)+"\n"...)
		}
		b = append(b, '\n')
	}
	return WriteFile(t, dir, "devices.toml", string(b))
}

// Device is one entry written by DeviceFile. An empty Create means success.
type Device struct {
	Slot   string
	Name   string
	Create string
}

func quote(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(append(out, '"'))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// AssertFileExists checks if a file exists at the given path
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if !FileExists(path) {
		t.Errorf("file does not exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does NOT exist at the given path
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if FileExists(path) {
		t.Errorf("file should not exist: %s", path)
	}
}
