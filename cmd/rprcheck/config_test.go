package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsukumogami/rprcheck/internal/userconfig"
)

func TestPrintConfig(t *testing.T) {
	cfg := &userconfig.Config{AllowlistCheck: true, Concurrency: 2}

	var buf bytes.Buffer
	printConfig(&buf, cfg)
	out := buf.String()

	assert.Contains(t, out, "allowlist_check  true\n")
	assert.Contains(t, out, "concurrency      2\n")
	assert.Contains(t, out, "rules_file       (unset)\n")
	assert.Equal(t, len(userconfig.AvailableKeys()), strings.Count(out, "\n"))
}

func TestPrintAvailableKeys(t *testing.T) {
	var buf bytes.Buffer
	printAvailableKeys(&buf)

	for key := range userconfig.AvailableKeys() {
		assert.Contains(t, buf.String(), "  "+key+" - ")
	}
}
