package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsukumogami/rprcheck/internal/platform"
	"github.com/tsukumogami/rprcheck/internal/rules"
)

func TestCheckName(t *testing.T) {
	table := rules.Default()

	tests := []struct {
		name        string
		device      string
		os          platform.OS
		accepted    bool
		allowlisted bool
		denylisted  string
	}{
		{"exact match", "Quadro M6000", platform.Linux, true, true, ""},
		{"os exclusion", "Quadro M6000", platform.MacOS, false, false, ""},
		{"regex family", "AMD Radeon Pro WX 7100 Graphics", platform.MacOS, true, true, ""},
		{"substring", "AMD Radeon RX 580 Series", platform.Windows, true, true, ""},
		{"unknown device", "Matrox G200", platform.Linux, false, false, ""},
		{"denylisted only", "Intel(R) UHD Graphics 630", platform.Windows, false, false, "Intel"},
		{"lower-case denylist entry does not match", "intel hd graphics", platform.Linux, false, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := checkName(table, tt.device, tt.os)
			assert.Equal(t, tt.accepted, res.Accepted)
			assert.Equal(t, tt.allowlisted, res.Allowlisted)
			assert.Equal(t, tt.denylisted, res.Denylisted)
			if res.Accepted {
				assert.NotEmpty(t, res.Rule)
				assert.Empty(t, res.Reason())
			} else {
				assert.NotEmpty(t, res.Reason())
			}
		})
	}
}

func TestCheckName_AllowlistedButDenylisted(t *testing.T) {
	table, err := rules.NewTable(
		[]rules.Rule{rules.Substring("Graphics")},
		rules.DefaultDenylist,
	)
	assert.NoError(t, err)

	res := checkName(table, "Intel Iris Graphics", platform.Linux)
	assert.False(t, res.Accepted)
	assert.True(t, res.Allowlisted)
	assert.Equal(t, "Intel", res.Denylisted)
	assert.Equal(t, "denylisted: Intel", res.Reason())
}

func TestPrintCheckResults(t *testing.T) {
	var buf bytes.Buffer
	printCheckResults(&buf, []checkResult{
		{Name: "Quadro M6000", OS: platform.Linux, Accepted: true, Allowlisted: true, Rule: `exact "Quadro M6000" except=[macos]`},
		{Name: "Intel Iris", OS: platform.Linux, Denylisted: "Intel"},
	})

	assert.Equal(t,
		"Quadro M6000: accepted on linux (exact \"Quadro M6000\" except=[macos])\n"+
			"Intel Iris: rejected on linux (not on the allowlist for linux; denylisted: Intel)\n",
		buf.String())
}
