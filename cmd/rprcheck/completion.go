package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tsukumogami/rprcheck/internal/device"
	"github.com/tsukumogami/rprcheck/internal/platform"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for rprcheck. Completions cover
commands, flags, and the values of --os, --slots and --flags.

To load completions:

Bash:
  $ source <(rprcheck completion bash)
  # Or, to load completions for each session:
  $ rprcheck completion bash > ~/.bash_completion.d/rprcheck

Zsh:
  # If shell completion is not already enabled in your environment:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  $ source <(rprcheck completion zsh)
  # Or, to load completions for each session:
  $ rprcheck completion zsh > "${fpath[1]}/_rprcheck"

Fish:
  $ rprcheck completion fish | source
  # Or, to load completions for each session:
  $ rprcheck completion fish > ~/.config/fish/completions/rprcheck.fish
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			_ = cmd.Root().GenBashCompletionV2(os.Stdout, true)
		case "zsh":
			_ = cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			_ = cmd.Root().GenFishCompletion(os.Stdout, true)
		}
	},
}

// completeOS offers the canonical operating system names.
func completeOS(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	names := make([]string, 0, len(platform.ValidOSes))
	for _, o := range platform.ValidOSes {
		names = append(names, o.String())
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeSlots completes the last element of a comma-separated slot list.
func completeSlots(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	candidates := []string{"all", "gpus"}
	for _, s := range device.AllSlots() {
		candidates = append(candidates, strings.ToLower(s.String()))
	}
	return completeList(toComplete, candidates), cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

// completeCreationFlags completes the last element of a --flags list.
func completeCreationFlags(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completeList(toComplete, device.FlagNames()), cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

// completeList returns candidates for the element after the last comma in
// toComplete, each prefixed with the elements already typed. Elements
// already present are not offered again.
func completeList(toComplete string, candidates []string) []string {
	prefix := ""
	partial := toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
		partial = toComplete[i+1:]
	}
	used := map[string]bool{}
	for _, p := range strings.Split(prefix, ",") {
		used[strings.ToLower(p)] = true
	}

	var out []string
	for _, c := range candidates {
		if used[c] || !strings.HasPrefix(c, strings.ToLower(partial)) {
			continue
		}
		out = append(out, prefix+c)
	}
	return out
}
