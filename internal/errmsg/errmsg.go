// Package errmsg provides enhanced error message formatting with actionable suggestions.
package errmsg

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/tsukumogami/rprcheck/internal/device"
	"github.com/tsukumogami/rprcheck/internal/platform"
	"github.com/tsukumogami/rprcheck/internal/rules"
)

// ErrorContext provides additional context for error formatting
type ErrorContext struct {
	Path string // The file being read (rule file, device file, config file)
}

// Fprint writes the formatted error to w, followed by a newline.
func Fprint(w io.Writer, err error) {
	FprintContext(w, err, nil)
}

// FprintContext is Fprint with context for the suggestions.
func FprintContext(w io.Writer, err error, ctx *ErrorContext) {
	if err == nil {
		return
	}
	msg := Format(err, ctx)
	fmt.Fprintf(w, "Error: %s", msg)
	if !strings.HasSuffix(msg, "\n") {
		fmt.Fprintln(w)
	}
}

// Format returns a formatted error message with possible causes and suggestions.
// The context parameter is optional - pass nil for generic formatting.
func Format(err error, ctx *ErrorContext) string {
	if err == nil {
		return ""
	}

	var parseErr *rules.ParseError
	switch {
	case errors.Is(err, rules.ErrUnsupportedSchema):
		return formatSchemaError(err, ctx)
	case errors.As(err, &parseErr):
		return formatRuleParseError(err, parseErr, ctx)
	case errors.Is(err, platform.ErrUnknownOS):
		return formatUnknownOSError(err)
	case errors.Is(err, device.ErrUnknownSlot):
		return formatUnknownSlotError(err)
	case errors.Is(err, fs.ErrNotExist):
		return formatNotFoundError(err, ctx)
	case errors.Is(err, fs.ErrPermission) || isPermissionError(err.Error()):
		return formatPermissionError(err, ctx)
	}

	return err.Error()
}

func formatSchemaError(err error, ctx *ErrorContext) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - The rule file was written for a newer rprcheck\n")
	sb.WriteString("  - schema_version is missing or misspelled\n")

	sb.WriteString("\nSuggestions:\n")
	fmt.Fprintf(&sb, "  - Set schema_version = %q at the top of the file\n", rules.SchemaVersion)
	sb.WriteString("  - Run 'rprcheck rules export' to see a file this build accepts\n")
	if ctx != nil && ctx.Path != "" {
		fmt.Fprintf(&sb, "  - Run 'rprcheck rules validate %s' after editing\n", ctx.Path)
	}

	return sb.String()
}

func formatRuleParseError(err error, pe *rules.ParseError, ctx *ErrorContext) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	switch pe.Section {
	case "regex":
		sb.WriteString("  - The pattern is not a valid regular expression\n")
		sb.WriteString("  - The entry has no pattern\n")
	case "denylist":
		sb.WriteString("  - The denylist contains an empty substring\n")
	default:
		sb.WriteString("  - The entry has no name\n")
		sb.WriteString("  - only_os or exclude_os names an unknown operating system\n")
	}

	sb.WriteString("\nSuggestions:\n")
	fmt.Fprintf(&sb, "  - Fix entry %d of the [[%s]] section\n", pe.Index+1, pe.Section)
	sb.WriteString("  - Valid operating systems: windows, linux, macos\n")
	if ctx != nil && ctx.Path != "" {
		fmt.Fprintf(&sb, "  - Run 'rprcheck rules validate %s' after editing\n", ctx.Path)
	}

	return sb.String()
}

func formatUnknownOSError(err error) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Use one of: windows, linux, macos\n")
	sb.WriteString("  - Omit --os to classify for the host operating system\n")

	return sb.String()
}

func formatUnknownSlotError(err error) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Slots are GPU0 through GPU15 and CPU\n")
	sb.WriteString("  - Use 'all' or 'gpus' to select several slots\n")
	sb.WriteString("  - Run 'rprcheck slots' to list every slot\n")

	return sb.String()
}

func formatNotFoundError(err error, ctx *ErrorContext) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - Typo in the file path\n")
	sb.WriteString("  - RPRCHECK_RULES_FILE or rules_file points at a removed file\n")

	sb.WriteString("\nSuggestions:\n")
	if ctx != nil && ctx.Path != "" {
		fmt.Fprintf(&sb, "  - Check that %s exists\n", ctx.Path)
	}
	sb.WriteString("  - Run 'rprcheck config get rules_file' to see the configured rule file\n")

	return sb.String()
}

func formatPermissionError(err error, ctx *ErrorContext) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - Insufficient permissions on $RPRCHECK_HOME directory\n")
	sb.WriteString("  - The kernel cache directory is owned by a different user\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Check permissions on ~/.rprcheck directory\n")
	sb.WriteString("  - Pass --cache-path to use a writable cache directory\n")

	return sb.String()
}

// isPermissionError checks if the error message indicates a permission issue
func isPermissionError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "permission denied") ||
		strings.Contains(lower, "access denied") ||
		strings.Contains(lower, "operation not permitted")
}
