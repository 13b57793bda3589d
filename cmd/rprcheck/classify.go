package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"
	"github.com/tsukumogami/rprcheck/internal/compat"
	"github.com/tsukumogami/rprcheck/internal/device"
	"github.com/tsukumogami/rprcheck/internal/log"
	"github.com/tsukumogami/rprcheck/internal/platform"
	"github.com/tsukumogami/rprcheck/internal/probe"
	"github.com/tsukumogami/rprcheck/internal/progress"
)

// classifyFlags holds the classify command line.
type classifyFlags struct {
	devices     string
	slots       string
	os          string
	rules       string
	extraFlags  string
	cachePath   string
	apiVersion  string
	plugins     []int
	concurrency int
	timeout     time.Duration
	allowlist   bool
	noAllowlist bool
	json        bool
}

var classifyOpts classifyFlags

var classifyCmd = &cobra.Command{
	Use:   "classify --devices <file.toml>",
	Short: "Probe device slots and report which are compatible",
	Long: `Classify device slots by probing each one with a trial session.

The devices are described by a TOML device file, one [[device]] entry per
populated slot:

  [[device]]
  slot = "gpu0"
  name = "AMD Radeon Pro WX 7100 Graphics"

  [[device]]
  slot = "gpu1"
  name = "GeForce GTX 1080"
  create = "unsupported"

Slots that are not listed report the device as unsupported. Exits with
status 4 when no requested slot is compatible.

Examples:
  rprcheck classify --devices devices.toml
  rprcheck classify --devices devices.toml --slots gpu0,gpu1,cpu --allowlist
  rprcheck classify --devices devices.toml --os macos --json
  rprcheck classify --devices devices.toml --api-version 3.0.0`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		code := runClassify(cmd.Context(), classifyOpts, cmd.Flags().Changed, os.Stdout, os.Stderr)
		if code != ExitSuccess {
			exitWithCode(code)
		}
	},
}

func init() {
	f := classifyCmd.Flags()
	f.StringVar(&classifyOpts.devices, "devices", "", "TOML device file describing the slots (required)")
	f.StringVar(&classifyOpts.slots, "slots", "all", "Slots to classify: comma list (gpu0,cpu), 'gpus' or 'all'")
	f.StringVar(&classifyOpts.os, "os", "", "Target operating system (windows, linux, macos); default is the host")
	f.StringVar(&classifyOpts.rules, "rules", "", "TOML rule file replacing the built-in table")
	f.StringVar(&classifyOpts.extraFlags, "flags", "", "Extra creation flags: gl_interop, metal, hip, opencl, debug")
	f.StringVar(&classifyOpts.cachePath, "cache-path", "", "Kernel cache directory (default $RPRCHECK_HOME/cache)")
	f.StringVar(&classifyOpts.apiVersion, "api-version", probe.DefaultAPIVersion.String(), "Renderer API version requested by each probe")
	f.IntSliceVar(&classifyOpts.plugins, "plugins", []int{1}, "Registered renderer plugin handles")
	f.IntVar(&classifyOpts.concurrency, "concurrency", 0, fmt.Sprintf("Slots probed at once (1-%d, default 1)", device.NumSlots))
	f.DurationVar(&classifyOpts.timeout, "timeout", 0, "Per-probe timeout (default 30s, 0 disables)")
	f.BoolVar(&classifyOpts.allowlist, "allowlist", false, "Reject devices missing from the allowlist")
	f.BoolVar(&classifyOpts.noAllowlist, "no-allowlist", false, "Skip the allowlist check even if enabled in config")
	f.BoolVar(&classifyOpts.json, "json", false, "Output in JSON format")
	_ = classifyCmd.MarkFlagRequired("devices")
	classifyCmd.MarkFlagsMutuallyExclusive("allowlist", "no-allowlist")
	_ = classifyCmd.RegisterFlagCompletionFunc("os", completeOS)
	_ = classifyCmd.RegisterFlagCompletionFunc("slots", completeSlots)
	_ = classifyCmd.RegisterFlagCompletionFunc("flags", completeCreationFlags)
}

// classifyOutput is the --json document.
type classifyOutput struct {
	OS         platform.OS     `json:"os"`
	Rules      string          `json:"rules"`
	Requested  string          `json:"requested"`
	Compatible string          `json:"compatible"`
	Slots      []compat.Report `json:"slots"`
}

// runClassify executes classify and returns the process exit code.
func runClassify(ctx context.Context, cf classifyFlags, changed func(string) bool, stdout, stderr io.Writer) int {
	if ctx == nil {
		ctx = context.Background()
	}

	slots, err := device.ParseSelector(cf.slots)
	if err != nil {
		printError(stderr, err, "")
		return ExitUsage
	}
	extra, err := device.ParseFlags(cf.extraFlags)
	if err != nil {
		printError(stderr, err, "")
		return ExitUsage
	}
	targetOS := platform.Current()
	if cf.os != "" {
		if targetOS, err = platform.ParseOS(cf.os); err != nil {
			printError(stderr, err, "")
			return ExitUsage
		}
	}
	if changed("concurrency") && (cf.concurrency < 1 || cf.concurrency > device.NumSlots) {
		fmt.Fprintf(stderr, "Error: --concurrency must be between 1 and %d\n", device.NumSlots)
		return ExitUsage
	}
	apiVersion := probe.DefaultAPIVersion
	if cf.apiVersion != "" {
		if apiVersion, err = semver.NewVersion(cf.apiVersion); err != nil {
			fmt.Fprintf(stderr, "Error: invalid --api-version %q: %v\n", cf.apiVersion, err)
			return ExitUsage
		}
	}
	plugins := make([]probe.PluginID, 0, len(cf.plugins))
	for _, p := range cf.plugins {
		plugins = append(plugins, probe.PluginID(p))
	}

	rt, err := probe.LoadScript(cf.devices)
	if err != nil {
		printError(stderr, err, cf.devices)
		return ExitGeneral
	}

	userCfg := loadUserConfig()
	src := resolveRuleSource(cf.rules, userCfg)
	table, err := loadRuleTable(src)
	if err != nil {
		printError(stderr, err, src.Path)
		return ExitRulesInvalid
	}
	ps := resolveProbeSettings(userCfg, cf, changed)

	logger := log.Default()
	logger.Debug("classify settings",
		"os", targetOS, "rules", src, "slots", slots,
		"concurrency", ps.Concurrency, "timeout", ps.Timeout, "allowlist", ps.AllowlistCheck,
		"api_version", apiVersion)
	for _, d := range rt.Describe() {
		logger.Debug("scripted device", "device", d)
	}

	c := compat.New(rt, table,
		compat.WithLogger(logger),
		compat.WithConcurrency(ps.Concurrency),
		compat.WithProbeTimeout(ps.Timeout),
		compat.WithAPIVersion(apiVersion),
	)
	defer c.Wait()

	var tracker *progress.Tracker
	var onDone func(compat.Report)
	if !cf.json && !quietFlag {
		tracker = progress.NewTracker(stderr, "Probing", slots.Len())
		tracker.Start()
		onDone = func(r compat.Report) {
			tracker.Done(r.SlotName + " " + r.Outcome.String())
		}
	}

	passed, reports := c.ClassifyAllReport(ctx, compat.Settings{
		Plugins:        plugins,
		CachePath:      ps.CachePath,
		OS:             targetOS,
		AllowlistCheck: ps.AllowlistCheck,
		ExtraFlags:     extra,
	}, slots, onDone)

	if tracker != nil {
		tracker.Finish()
	}

	if cf.json {
		out := classifyOutput{
			OS:         targetOS,
			Rules:      src.String(),
			Requested:  slots.String(),
			Compatible: passed.String(),
			Slots:      reports,
		}
		if err := writeJSON(stdout, out); err != nil {
			fmt.Fprintf(stderr, "Error encoding JSON: %v\n", err)
			return ExitGeneral
		}
	} else {
		printReports(stdout, reports)
		fmt.Fprintf(stdout, "\nCompatible: %s\n", passed)
	}

	if ctx.Err() != nil {
		fmt.Fprintln(stderr, "Interrupted: remaining slots were not probed")
		return ExitGeneral
	}
	if passed.Empty() {
		return ExitIncompatible
	}
	return ExitSuccess
}

func printReports(w io.Writer, reports []compat.Report) {
	for _, r := range reports {
		name := r.DeviceName
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%-6s %-26s %-40s %s\n", r.SlotName, r.Outcome, name, r.Reason)
	}
}
