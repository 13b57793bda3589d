package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tsukumogami/rprcheck/internal/device"
)

const (
	// EnvHome overrides the default rprcheck home directory
	EnvHome = "RPRCHECK_HOME"

	// EnvProbeTimeout bounds a single device probe
	EnvProbeTimeout = "RPRCHECK_PROBE_TIMEOUT"

	// EnvProbeConcurrency sets how many slots are probed at once
	EnvProbeConcurrency = "RPRCHECK_PROBE_CONCURRENCY"

	// EnvRulesFile points at a TOML rule file replacing the built-in table
	EnvRulesFile = "RPRCHECK_RULES_FILE"

	// EnvAllowlistCheck enables or disables the allowlist veto
	EnvAllowlistCheck = "RPRCHECK_ALLOWLIST_CHECK"

	// DefaultProbeTimeout is the default bound on one probe (30 seconds)
	DefaultProbeTimeout = 30 * time.Second

	// DefaultProbeConcurrency serializes probes, since the runtime is not
	// documented as reentrant
	DefaultProbeConcurrency = 1

	minProbeTimeout = 1 * time.Second
	maxProbeTimeout = 10 * time.Minute
)

// GetProbeTimeout returns the probe timeout from RPRCHECK_PROBE_TIMEOUT.
// If not set or invalid, returns DefaultProbeTimeout. Values are clamped to
// 1s..10m. "0" disables the timeout.
func GetProbeTimeout() time.Duration {
	envValue := os.Getenv(EnvProbeTimeout)
	if envValue == "" {
		return DefaultProbeTimeout
	}
	if envValue == "0" {
		return 0
	}

	duration, err := time.ParseDuration(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			EnvProbeTimeout, envValue, DefaultProbeTimeout)
		return DefaultProbeTimeout
	}
	return ClampProbeTimeout(EnvProbeTimeout, duration)
}

// ClampProbeTimeout limits d to the supported range, warning on stderr
// under the given source name. Zero passes through unchanged.
func ClampProbeTimeout(source string, d time.Duration) time.Duration {
	if d == 0 {
		return 0
	}
	if d < minProbeTimeout {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum %v\n", source, d, minProbeTimeout)
		return minProbeTimeout
	}
	if d > maxProbeTimeout {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum %v\n", source, d, maxProbeTimeout)
		return maxProbeTimeout
	}
	return d
}

// GetProbeConcurrency returns the probe concurrency from
// RPRCHECK_PROBE_CONCURRENCY. If not set or invalid, returns
// DefaultProbeConcurrency. Values are clamped to 1..NumSlots.
func GetProbeConcurrency() int {
	envValue := os.Getenv(EnvProbeConcurrency)
	if envValue == "" {
		return DefaultProbeConcurrency
	}

	n, err := strconv.Atoi(strings.TrimSpace(envValue))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %d\n",
			EnvProbeConcurrency, envValue, DefaultProbeConcurrency)
		return DefaultProbeConcurrency
	}
	if n < 1 {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%d), using minimum 1\n", EnvProbeConcurrency, n)
		return 1
	}
	if n > device.NumSlots {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%d), using maximum %d\n",
			EnvProbeConcurrency, n, device.NumSlots)
		return device.NumSlots
	}
	return n
}

// GetAllowlistCheck reports whether RPRCHECK_ALLOWLIST_CHECK enables the
// allowlist veto. The second result is false when the variable is unset or
// invalid, so callers can fall back to the user config.
func GetAllowlistCheck() (bool, bool) {
	envValue := os.Getenv(EnvAllowlistCheck)
	if envValue == "" {
		return false, false
	}

	switch strings.ToLower(envValue) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	default:
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, ignoring\n", EnvAllowlistCheck, envValue)
		return false, false
	}
}

// DefaultHomeOverride can be set by the binary's main package to change the
// default home directory. RPRCHECK_HOME still takes precedence.
var DefaultHomeOverride string

// Config holds rprcheck paths
type Config struct {
	HomeDir    string // $RPRCHECK_HOME
	CacheDir   string // $RPRCHECK_HOME/cache (kernel cache passed to probes)
	ConfigFile string // $RPRCHECK_HOME/config.toml
	RulesFile  string // $RPRCHECK_RULES_FILE, else $RPRCHECK_HOME/rules.toml
}

// DefaultConfig returns the default configuration
func DefaultConfig() (*Config, error) {
	home := os.Getenv(EnvHome)
	if home == "" {
		if DefaultHomeOverride != "" {
			home = DefaultHomeOverride
		} else {
			userHome, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get user home directory: %w", err)
			}
			home = filepath.Join(userHome, ".rprcheck")
		}
	}

	rulesFile := os.Getenv(EnvRulesFile)
	if rulesFile == "" {
		rulesFile = filepath.Join(home, "rules.toml")
	}

	return &Config{
		HomeDir:    home,
		CacheDir:   filepath.Join(home, "cache"),
		ConfigFile: filepath.Join(home, "config.toml"),
		RulesFile:  rulesFile,
	}, nil
}

// EnsureDirectories creates all necessary directories
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.HomeDir, c.CacheDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// HasRulesFile reports whether RulesFile exists.
func (c *Config) HasRulesFile() bool {
	info, err := os.Stat(c.RulesFile)
	return err == nil && !info.IsDir()
}
