package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tsukumogami/rprcheck/internal/config"
	"github.com/tsukumogami/rprcheck/internal/errmsg"
	"github.com/tsukumogami/rprcheck/internal/rules"
	"github.com/tsukumogami/rprcheck/internal/userconfig"
)

// printInfof prints a formatted informational message unless quiet mode is enabled
func printInfof(format string, a ...interface{}) {
	if !quietFlag {
		fmt.Printf(format, a...)
	}
}

// writeJSON marshals the given value as indented JSON to w
func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printError prints an error to w with suggestions if available.
func printError(w io.Writer, err error, path string) {
	var ctx *errmsg.ErrorContext
	if path != "" {
		ctx = &errmsg.ErrorContext{Path: path}
	}
	errmsg.FprintContext(w, err, ctx)
}

// ruleSource names where a rule table comes from. An empty Path is the
// built-in table.
type ruleSource struct {
	Path   string
	Origin string // "flag", "env", "config", "home" or "built-in"
}

func (s ruleSource) String() string {
	if s.Path == "" {
		return "built-in"
	}
	return fmt.Sprintf("%s (%s)", s.Path, s.Origin)
}

// resolveRuleSource applies precedence: --rules flag, RPRCHECK_RULES_FILE,
// rules_file in config.toml, $RPRCHECK_HOME/rules.toml if present, and
// finally the built-in table.
func resolveRuleSource(flagPath string, userCfg *userconfig.Config) ruleSource {
	if flagPath != "" {
		return ruleSource{Path: flagPath, Origin: "flag"}
	}
	if env := os.Getenv(config.EnvRulesFile); env != "" {
		return ruleSource{Path: env, Origin: "env"}
	}
	if userCfg != nil && userCfg.RulesFile != "" {
		return ruleSource{Path: userCfg.RulesFile, Origin: "config"}
	}
	if cfg, err := config.DefaultConfig(); err == nil && cfg.HasRulesFile() {
		return ruleSource{Path: cfg.RulesFile, Origin: "home"}
	}
	return ruleSource{Origin: "built-in"}
}

// loadRuleTable loads the table named by src.
func loadRuleTable(src ruleSource) (*rules.Table, error) {
	if src.Path == "" {
		return rules.Default(), nil
	}
	return rules.LoadFile(src.Path)
}

// loadRulesOrExit resolves and loads the rule table, exiting with
// ExitRulesInvalid when the file cannot be used.
func loadRulesOrExit(flagPath string, userCfg *userconfig.Config) (*rules.Table, ruleSource) {
	src := resolveRuleSource(flagPath, userCfg)
	table, err := loadRuleTable(src)
	if err != nil {
		printError(os.Stderr, err, src.Path)
		exitWithCode(ExitRulesInvalid)
	}
	return table, src
}

// loadUserConfig loads config.toml, falling back to defaults with a warning.
func loadUserConfig() *userconfig.Config {
	cfg, err := userconfig.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v; using defaults\n", err)
		return userconfig.DefaultConfig()
	}
	return cfg
}

// probeSettings are the resolved batch options for classify.
type probeSettings struct {
	Timeout        time.Duration
	Concurrency    int
	CachePath      string
	AllowlistCheck bool
}

// resolveProbeSettings merges user config, environment and flags. Flags win
// over environment variables, which win over config.toml.
func resolveProbeSettings(userCfg *userconfig.Config, flags classifyFlags, changed func(string) bool) probeSettings {
	s := probeSettings{
		Timeout:     config.DefaultProbeTimeout,
		Concurrency: config.DefaultProbeConcurrency,
	}

	if d, ok := userCfg.Timeout(); ok {
		s.Timeout = config.ClampProbeTimeout("probe_timeout", d)
	}
	if userCfg.Concurrency > 0 {
		s.Concurrency = userCfg.Concurrency
	}
	s.CachePath = userCfg.CachePath
	s.AllowlistCheck = userCfg.AllowlistCheck

	if os.Getenv(config.EnvProbeTimeout) != "" {
		s.Timeout = config.GetProbeTimeout()
	}
	if os.Getenv(config.EnvProbeConcurrency) != "" {
		s.Concurrency = config.GetProbeConcurrency()
	}
	if v, ok := config.GetAllowlistCheck(); ok {
		s.AllowlistCheck = v
	}

	if changed("timeout") {
		s.Timeout = config.ClampProbeTimeout("--timeout", flags.timeout)
	}
	if changed("concurrency") && flags.concurrency > 0 {
		s.Concurrency = flags.concurrency
	}
	if changed("cache-path") {
		s.CachePath = flags.cachePath
	}
	if changed("no-allowlist") && flags.noAllowlist {
		s.AllowlistCheck = false
	}
	if changed("allowlist") && flags.allowlist {
		s.AllowlistCheck = true
	}

	if s.CachePath == "" {
		if cfg, err := config.DefaultConfig(); err == nil {
			s.CachePath = cfg.CacheDir
		}
	}
	return s
}
