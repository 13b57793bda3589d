// Package userconfig provides user configuration management for rprcheck.
// Configuration is stored in ~/.rprcheck/config.toml and can be modified
// via the `rprcheck config` command.
package userconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/tsukumogami/rprcheck/internal/config"
	"github.com/tsukumogami/rprcheck/internal/device"
)

// Config represents user-configurable settings. Zero values mean "not set";
// environment variables and flags take precedence over every field.
type Config struct {
	// AllowlistCheck vetoes devices missing from the allowlist.
	// Default is false.
	AllowlistCheck bool `toml:"allowlist_check"`

	// ProbeTimeout bounds a single probe, as a Go duration string.
	ProbeTimeout string `toml:"probe_timeout,omitempty"`

	// Concurrency is how many slots are probed at once.
	Concurrency int `toml:"concurrency,omitempty"`

	// CachePath is the kernel cache directory handed to the runtime.
	CachePath string `toml:"cache_path,omitempty"`

	// RulesFile replaces the built-in rule table.
	RulesFile string `toml:"rules_file,omitempty"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{}
}

// Load reads the config file and returns the configuration.
// Returns default values if the file doesn't exist.
// Returns an error only for file parsing issues, not missing files.
func Load() (*Config, error) {
	cfg, err := config.DefaultConfig()
	if err != nil {
		return DefaultConfig(), nil
	}

	return loadFromPath(cfg.ConfigFile)
}

// loadFromPath reads config from a specific file path (for testing).
func loadFromPath(path string) (*Config, error) {
	userCfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return userCfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	md, err := toml.Decode(string(data), userCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		fmt.Fprintf(os.Stderr, "Warning: unknown keys in %s: %v\n", path, undecoded)
	}
	if err := userCfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return userCfg, nil
}

// Save writes the configuration to the config file.
func (c *Config) Save() error {
	cfg, err := config.DefaultConfig()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	return c.saveToPath(cfg.ConfigFile)
}

// saveToPath writes config to a specific file path (for testing).
func (c *Config) saveToPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) validate() error {
	if c.ProbeTimeout != "" {
		if _, err := time.ParseDuration(c.ProbeTimeout); err != nil {
			return fmt.Errorf("probe_timeout: %w", err)
		}
	}
	if c.Concurrency < 0 || c.Concurrency > device.NumSlots {
		return fmt.Errorf("concurrency: must be between 1 and %d", device.NumSlots)
	}
	return nil
}

// Timeout returns ProbeTimeout as a duration. The second result is false
// when no timeout is configured.
func (c *Config) Timeout() (time.Duration, bool) {
	if c.ProbeTimeout == "" {
		return 0, false
	}
	d, err := time.ParseDuration(c.ProbeTimeout)
	if err != nil {
		return 0, false
	}
	return d, true
}

// Get returns the value of a config key as a string.
// Returns empty string and false if the key doesn't exist.
func (c *Config) Get(key string) (string, bool) {
	switch strings.ToLower(key) {
	case "allowlist_check":
		return strconv.FormatBool(c.AllowlistCheck), true
	case "probe_timeout":
		return c.ProbeTimeout, true
	case "concurrency":
		if c.Concurrency == 0 {
			return "", true
		}
		return strconv.Itoa(c.Concurrency), true
	case "cache_path":
		return c.CachePath, true
	case "rules_file":
		return c.RulesFile, true
	default:
		return "", false
	}
}

// Set updates a config value from a string. An empty value clears the key.
// Returns an error if the key doesn't exist or the value is invalid.
func (c *Config) Set(key, value string) error {
	switch strings.ToLower(key) {
	case "allowlist_check":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for allowlist_check: must be true or false")
		}
		c.AllowlistCheck = b
	case "probe_timeout":
		if value != "" {
			d, err := time.ParseDuration(value)
			if err != nil || d < 0 {
				return fmt.Errorf("invalid value for probe_timeout: must be a duration such as 30s")
			}
		}
		c.ProbeTimeout = value
	case "concurrency":
		if value == "" {
			c.Concurrency = 0
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > device.NumSlots {
			return fmt.Errorf("invalid value for concurrency: must be between 1 and %d", device.NumSlots)
		}
		c.Concurrency = n
	case "cache_path":
		c.CachePath = value
	case "rules_file":
		c.RulesFile = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// AvailableKeys returns a list of all configurable keys with descriptions.
func AvailableKeys() map[string]string {
	return map[string]string{
		"allowlist_check": "Reject devices missing from the allowlist (true/false)",
		"probe_timeout":   "Maximum time for one device probe (e.g. 30s)",
		"concurrency":     fmt.Sprintf("Slots probed at once (1-%d, default 1)", device.NumSlots),
		"cache_path":      "Kernel cache directory passed to the renderer",
		"rules_file":      "TOML rule file replacing the built-in tables",
	}
}

// SortedKeys returns the names of AvailableKeys in alphabetical order.
func SortedKeys() []string {
	keys := make([]string, 0, len(AvailableKeys()))
	for k := range AvailableKeys() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
