package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsukumogami/rprcheck/internal/platform"
	"github.com/tsukumogami/rprcheck/internal/rules"
)

func TestPrintRuleTable(t *testing.T) {
	table, err := rules.NewTable([]rules.Rule{
		rules.Exact("Quadro M6000").Except(platform.MacOS),
		rules.Substring("Apple M1").Only(platform.MacOS),
		rules.Regex(`Radeon Pro WX \d{4}`),
	}, rules.Denylist{Substrings: []string{"Intel"}, CaseSensitive: true})
	require.NoError(t, err)

	var buf bytes.Buffer
	printRuleTable(&buf, table, "")
	out := buf.String()
	assert.Contains(t, out, `exact "Quadro M6000" except=[macos]`)
	assert.Contains(t, out, `substring "Apple M1" only=[macos]`)
	assert.Contains(t, out, `regex "Radeon Pro WX \\d{4}"`)
	assert.Contains(t, out, "Denylist (case-sensitive):")
	assert.Contains(t, out, `"Intel"`)

	buf.Reset()
	printRuleTable(&buf, table, platform.MacOS)
	out = buf.String()
	assert.NotContains(t, out, "Quadro M6000")
	assert.Contains(t, out, "Apple M1")

	buf.Reset()
	printRuleTable(&buf, table, platform.Linux)
	assert.NotContains(t, buf.String(), "Apple M1")
}

func TestPrintRuleTable_EmptyDenylist(t *testing.T) {
	table, err := rules.NewTable(nil, rules.Denylist{})
	require.NoError(t, err)

	var buf bytes.Buffer
	printRuleTable(&buf, table, "")
	assert.True(t, strings.HasSuffix(buf.String(), "Denylist (case-insensitive):\n  (empty)\n"))
}

func TestExportedDefaultRulesValidate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, rules.Encode(&buf, rules.Default()))

	table, err := rules.Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, len(rules.Default().Rules()), len(table.Rules()))
}
