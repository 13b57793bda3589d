package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsukumogami/rprcheck/internal/config"
	"github.com/tsukumogami/rprcheck/internal/platform"
)

func TestRunDoctor_Healthy(t *testing.T) {
	isolateHome(t)
	cfg, err := config.DefaultConfig()
	require.NoError(t, err)

	adapters := []platform.Adapter{
		{Address: "0000:00:02.0", Vendor: "intel", VendorID: "0x8086", DeviceID: "0x3e92"},
		{Address: "0000:01:00.0", Vendor: "amd", VendorID: "0x1002", DeviceID: "0x67df"},
	}

	var buf bytes.Buffer
	ok := runDoctor(&buf, cfg, adapters)
	out := buf.String()

	assert.True(t, ok, out)
	assert.Contains(t, out, "Rules: built-in ... ok")
	assert.Contains(t, out, "0000:00:02.0 intel (0x8086:0x3e92) (denylisted by default)")
	assert.Contains(t, out, "0000:01:00.0 amd (0x1002:0x67df)\n")
	assert.Contains(t, out, "All checks passed.")

	info, err := os.Stat(cfg.CacheDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRunDoctor_BadRulesAndConfig(t *testing.T) {
	home := isolateHome(t)
	writeFile(t, home, "config.toml", "concurrency = 99\n")
	writeFile(t, home, "rules.toml", "schema_version = \"0.1.0\"\n")
	cfg, err := config.DefaultConfig()
	require.NoError(t, err)

	var buf bytes.Buffer
	ok := runDoctor(&buf, cfg, nil)
	out := buf.String()

	assert.False(t, ok)
	assert.Contains(t, out, "Config file: "+filepath.Join(home, "config.toml")+" ... FAIL")
	assert.Contains(t, out, "(home) ... FAIL")
	assert.Contains(t, out, "Display adapters: none found")
	assert.Contains(t, out, "Some checks failed.")
}
