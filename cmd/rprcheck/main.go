package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tsukumogami/rprcheck/internal/buildinfo"
	"github.com/tsukumogami/rprcheck/internal/log"
)

var (
	quietFlag   bool
	verboseFlag bool
	debugFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "rprcheck",
	Short: "Decide which render devices are usable",
	Long: `rprcheck classifies the device slots exposed by the renderer runtime.

Each slot (GPU0..GPU15 and CPU) is probed with a trial session. Devices
that fail to start, are missing from the allowlist, or match the denylist
are reported as incompatible.

Device descriptions are read from a TOML device file so that rule tables
can be checked offline and in CI.`,
	Version:       buildinfo.Version(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetDefault(log.NewText(os.Stderr, determineLogLevel()))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Only log errors")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log classification decisions")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Log every probe step")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(slotsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

// determineLogLevel picks the slog level from flags, then environment.
// Flags win over environment variables; within each source debug beats
// verbose beats quiet. The default is WARN.
func determineLogLevel() slog.Level {
	switch {
	case debugFlag:
		return slog.LevelDebug
	case verboseFlag:
		return slog.LevelInfo
	case quietFlag:
		return slog.LevelError
	}

	switch {
	case isTruthy(os.Getenv("RPRCHECK_DEBUG")):
		return slog.LevelDebug
	case isTruthy(os.Getenv("RPRCHECK_VERBOSE")):
		return slog.LevelInfo
	case isTruthy(os.Getenv("RPRCHECK_QUIET")):
		return slog.LevelError
	}
	return slog.LevelWarn
}

// isTruthy reports whether an environment value means "on".
func isTruthy(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitWithCode(ExitUsage)
	}
}
