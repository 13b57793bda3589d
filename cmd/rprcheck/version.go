package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tsukumogami/rprcheck/internal/buildinfo"
	"github.com/tsukumogami/rprcheck/internal/probe"
	"github.com/tsukumogami/rprcheck/internal/rules"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		info := buildinfo.Read()
		fmt.Println(info)
		if info.Revision != "" {
			fmt.Printf("  revision:         %s\n", info.Revision)
		}
		fmt.Printf("  renderer API:     %s\n", probe.DefaultAPIVersion)
		fmt.Printf("  rule file schema: %s\n", rules.SchemaVersion)
	},
}
