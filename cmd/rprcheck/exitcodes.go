package main

import "os"

// Exit codes for different error types.
// These enable scripts to distinguish between failure modes.
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0

	// ExitGeneral indicates a general error
	ExitGeneral = 1

	// ExitUsage indicates invalid arguments or usage error
	ExitUsage = 2

	// ExitRulesInvalid indicates the rule file could not be loaded
	ExitRulesInvalid = 3

	// ExitIncompatible indicates the device (or every requested slot)
	// was rejected
	ExitIncompatible = 4
)

// exitWithCode exits with the specified exit code
func exitWithCode(code int) {
	os.Exit(code)
}
