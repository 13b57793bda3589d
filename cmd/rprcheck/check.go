package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tsukumogami/rprcheck/internal/platform"
	"github.com/tsukumogami/rprcheck/internal/rules"
)

var (
	checkOS    string
	checkRules string
	checkJSON  bool
)

var checkCmd = &cobra.Command{
	Use:   "check <device name>...",
	Short: "Check device names against the allowlist and denylist",
	Long: `Check one or more device names against the rule table without probing.

A name is accepted when an allowlist rule for the target operating system
matches it and no denylist entry is contained in it. Exits with status 4
if any name is rejected.

Examples:
  rprcheck check "AMD Radeon Pro WX 7100 Graphics"
  rprcheck check --os macos "Quadro M6000"
  rprcheck check --rules ./rules.toml "Radeon RX 580" "Intel(R) UHD Graphics 630"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		targetOS := platform.Current()
		if checkOS != "" {
			var err error
			if targetOS, err = platform.ParseOS(checkOS); err != nil {
				printError(os.Stderr, err, "")
				exitWithCode(ExitUsage)
			}
		}

		table, _ := loadRulesOrExit(checkRules, loadUserConfig())

		results := make([]checkResult, 0, len(args))
		for _, name := range args {
			results = append(results, checkName(table, name, targetOS))
		}

		if checkJSON {
			if err := writeJSON(os.Stdout, results); err != nil {
				fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
				exitWithCode(ExitGeneral)
			}
		} else {
			printCheckResults(os.Stdout, results)
		}

		for _, r := range results {
			if !r.Accepted {
				exitWithCode(ExitIncompatible)
			}
		}
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkOS, "os", "", "Target operating system (windows, linux, macos); default is the host")
	checkCmd.Flags().StringVar(&checkRules, "rules", "", "TOML rule file replacing the built-in table")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Output in JSON format")
	_ = checkCmd.RegisterFlagCompletionFunc("os", completeOS)
}

// checkResult is the static verdict for one device name.
type checkResult struct {
	Name        string      `json:"name"`
	OS          platform.OS `json:"os"`
	Accepted    bool        `json:"accepted"`
	Allowlisted bool        `json:"allowlisted"`
	Rule        string      `json:"rule,omitempty"`
	Denylisted  string      `json:"denylisted,omitempty"`
}

// Reason explains a rejection; it is empty for accepted names.
func (r checkResult) Reason() string {
	switch {
	case !r.Allowlisted:
		return "not on the allowlist for " + r.OS.String()
	case r.Denylisted != "":
		return "denylisted: " + r.Denylisted
	}
	return ""
}

func checkName(table *rules.Table, name string, target platform.OS) checkResult {
	res := checkResult{Name: name, OS: target}
	if r, ok := table.Match(name, target); ok {
		res.Allowlisted = true
		res.Rule = r.String()
	}
	if sub, ok := table.DenyMatch(name); ok {
		res.Denylisted = sub
	}
	res.Accepted = res.Allowlisted && res.Denylisted == ""
	return res
}

func printCheckResults(w io.Writer, results []checkResult) {
	for _, r := range results {
		if r.Accepted {
			fmt.Fprintf(w, "%s: accepted on %s (%s)\n", r.Name, r.OS, r.Rule)
			continue
		}
		reasons := []string{r.Reason()}
		if !r.Allowlisted && r.Denylisted != "" {
			reasons = append(reasons, "denylisted: "+r.Denylisted)
		}
		fmt.Fprintf(w, "%s: rejected on %s (%s)\n", r.Name, r.OS, strings.Join(reasons, "; "))
	}
}
