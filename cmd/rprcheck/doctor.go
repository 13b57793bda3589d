package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tsukumogami/rprcheck/internal/config"
	"github.com/tsukumogami/rprcheck/internal/platform"
	"github.com/tsukumogami/rprcheck/internal/userconfig"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the rprcheck environment is configured correctly",
	Long: `Verify that the rprcheck environment is healthy: the configuration
file parses, the active rule table loads, and the kernel cache directory is
writable. Also lists the display adapters found on this host.

Exits with a non-zero status if any check fails, making it suitable
for use as a gate in scripts and CI:

  rprcheck doctor || exit 1`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.DefaultConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to get config: %v\n", err)
			exitWithCode(ExitGeneral)
		}
		if !runDoctor(os.Stdout, cfg, platform.DetectAdapters()) {
			exitWithCode(ExitGeneral)
		}
	},
}

// runDoctor prints each check and reports whether all passed.
func runDoctor(w io.Writer, cfg *config.Config, adapters []platform.Adapter) bool {
	fmt.Fprintln(w, "Checking rprcheck environment...")
	ok := true

	fmt.Fprintf(w, "  Config file: %s", cfg.ConfigFile)
	userCfg, err := userconfig.Load()
	if err != nil {
		fmt.Fprintln(w, " ... FAIL")
		fmt.Fprintf(w, "    %v\n", err)
		userCfg = userconfig.DefaultConfig()
		ok = false
	} else {
		fmt.Fprintln(w, " ... ok")
	}

	src := resolveRuleSource("", userCfg)
	fmt.Fprintf(w, "  Rules: %s", src)
	if table, err := loadRuleTable(src); err != nil {
		fmt.Fprintln(w, " ... FAIL")
		fmt.Fprintf(w, "    %v\n", err)
		ok = false
	} else {
		fmt.Fprintf(w, " ... ok (%d rules)\n", len(table.Rules()))
	}

	cacheDir := userCfg.CachePath
	if cacheDir == "" {
		cacheDir = cfg.CacheDir
	}
	fmt.Fprintf(w, "  Kernel cache: %s", cacheDir)
	if err := checkWritable(cacheDir); err != nil {
		fmt.Fprintln(w, " ... FAIL")
		fmt.Fprintf(w, "    %v\n", err)
		ok = false
	} else {
		fmt.Fprintln(w, " ... ok")
	}

	if rel := platform.KernelRelease(); rel != "" {
		fmt.Fprintf(w, "  Host: %s (kernel %s)\n", platform.Current(), rel)
	} else {
		fmt.Fprintf(w, "  Host: %s\n", platform.Current())
	}
	if len(adapters) == 0 {
		fmt.Fprintln(w, "  Display adapters: none found")
	} else {
		fmt.Fprintln(w, "  Display adapters:")
		for _, a := range adapters {
			note := ""
			if a.Vendor == "intel" {
				note = " (denylisted by default)"
			}
			fmt.Fprintf(w, "    %s%s\n", a, note)
		}
	}

	if ok {
		fmt.Fprintln(w, "\nAll checks passed.")
	} else {
		fmt.Fprintln(w, "\nSome checks failed.")
	}
	return ok
}

// checkWritable creates dir if needed and verifies a file can be written in it.
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".rprcheck-doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(filepath.Clean(name))
}
