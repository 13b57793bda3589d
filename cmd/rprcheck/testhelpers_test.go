package main

import (
	"testing"

	"github.com/tsukumogami/rprcheck/internal/testutil"
)

// isolateHome points RPRCHECK_HOME at a temp dir and clears every
// environment override so tests see only what they set up.
func isolateHome(t *testing.T) string {
	t.Helper()
	return testutil.NewTestConfig(t).HomeDir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	return testutil.WriteFile(t, dir, name, content)
}

// changedSet returns a Flags().Changed replacement reporting the given names.
func changedSet(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}
