package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tsukumogami/rprcheck/internal/platform"
	"github.com/tsukumogami/rprcheck/internal/rules"
)

var (
	rulesFileFlag string
	rulesListOS   string
	rulesOutput   string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate rule tables",
	Long: `Inspect the allowlist and denylist used for classification.

The active table is, in order of precedence: the --rules flag,
$RPRCHECK_RULES_FILE, rules_file in config.toml, $RPRCHECK_HOME/rules.toml,
and finally the built-in table.`,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the active allowlist and denylist",
	Long: `List the active allowlist rules in evaluation order (exact, substring,
regex) followed by the denylist.

With --os, only the allowlist rules that apply on that operating system
are shown.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		var filter platform.OS
		if rulesListOS != "" {
			var err error
			if filter, err = platform.ParseOS(rulesListOS); err != nil {
				printError(os.Stderr, err, "")
				exitWithCode(ExitUsage)
			}
		}

		table, src := loadRulesOrExit(rulesFileFlag, loadUserConfig())
		printInfof("Rules: %s\n\n", src)
		printRuleTable(os.Stdout, table, filter)
	},
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a TOML rule file",
	Long: `Load a TOML rule file and report the first problem found.

Exits with status 3 when the file is invalid.

Examples:
  rprcheck rules validate ./rules.toml`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]
		table, err := rules.LoadFile(path)
		if err != nil {
			printError(os.Stderr, err, path)
			exitWithCode(ExitRulesInvalid)
		}
		deny := table.Denylist()
		fmt.Printf("%s: ok (%d allowlist rules, %d denylist entries)\n",
			path, len(table.Rules()), len(deny.Substrings))
	},
}

var rulesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the active rule table as TOML",
	Long: `Write the active rule table as a TOML rule file. The output can be
edited and passed back with --rules or RPRCHECK_RULES_FILE.

Examples:
  rprcheck rules export > rules.toml
  rprcheck rules export -o ~/.rprcheck/rules.toml`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		table, _ := loadRulesOrExit(rulesFileFlag, loadUserConfig())

		var w io.Writer = os.Stdout
		if rulesOutput != "" {
			f, err := os.Create(rulesOutput)
			if err != nil {
				printError(os.Stderr, err, rulesOutput)
				exitWithCode(ExitGeneral)
			}
			defer f.Close()
			w = f
		}

		if err := rules.Encode(w, table); err != nil {
			printError(os.Stderr, err, "")
			exitWithCode(ExitGeneral)
		}
	},
}

func init() {
	rulesCmd.PersistentFlags().StringVar(&rulesFileFlag, "rules", "", "TOML rule file replacing the built-in table")
	rulesListCmd.Flags().StringVar(&rulesListOS, "os", "", "Only show rules that apply on this operating system")
	rulesExportCmd.Flags().StringVarP(&rulesOutput, "output", "o", "", "Write to a file instead of stdout")
	_ = rulesListCmd.RegisterFlagCompletionFunc("os", completeOS)

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesExportCmd)
}

// printRuleTable writes the allowlist and denylist. An empty filter shows
// every rule.
func printRuleTable(w io.Writer, t *rules.Table, filter platform.OS) {
	fmt.Fprintln(w, "Allowlist:")
	for _, r := range t.Rules() {
		if filter != "" && !r.AppliesTo(filter) {
			continue
		}
		fmt.Fprintf(w, "  %s\n", r)
	}

	deny := t.Denylist()
	mode := "case-sensitive"
	if !deny.CaseSensitive {
		mode = "case-insensitive"
	}
	fmt.Fprintf(w, "\nDenylist (%s):\n", mode)
	if len(deny.Substrings) == 0 {
		fmt.Fprintln(w, "  (empty)")
	}
	for _, s := range deny.Substrings {
		fmt.Fprintf(w, "  %q\n", s)
	}
}
