package probe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsukumogami/rprcheck/internal/device"
)

const sampleScript = `
[[device]]
slot = "gpu0"
name = "AMD Radeon Pro WX 4100 Graphics"

[[device]]
slot = "gpu1"
name = "Intel Iris Xe Graphics"

[[device]]
slot = "gpu2"
create = "unsupported"

[[device]]
slot = "cpu"
name = "AMD Ryzen Threadripper"
destroy = "internal_error"
delay = "1ms"
`

func TestParseScript(t *testing.T) {
	rt, err := ParseScript([]byte(sampleScript))
	require.NoError(t, err)

	assert.Equal(t, device.Of(device.GPU0, device.GPU1, device.GPU2, device.CPU), rt.Slots())
	assert.Equal(t, []string{
		`GPU0: "AMD Radeon Pro WX 4100 Graphics" (create=success)`,
		`GPU1: "Intel Iris Xe Graphics" (create=success)`,
		`GPU2: "" (create=unsupported)`,
		`CPU: "AMD Ryzen Threadripper" (create=success)`,
	}, rt.Describe())

	assert.Equal(t, StatusUnsupported, rt.devices[device.GPU2].CreateStatus)
	assert.Equal(t, StatusInternalError, rt.devices[device.CPU].DestroyStatus)
	assert.Equal(t, time.Millisecond, rt.devices[device.CPU].Delay)
}

func TestParseScriptErrors(t *testing.T) {
	tests := map[string]string{
		"bad slot":      "[[device]]\nslot = \"gpu42\"\n",
		"duplicate":     "[[device]]\nslot = \"gpu0\"\n[[device]]\nslot = \"GPU0\"\n",
		"bad status":    "[[device]]\nslot = \"gpu0\"\ncreate = \"meh\"\n",
		"bad delay":     "[[device]]\nslot = \"gpu0\"\ndelay = \"soon\"\n",
		"malformed doc": "[[device]\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScript([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleScript), 0o644))

	rt, err := LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, 4, rt.Slots().Len())

	_, err = LoadScript(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestScriptedRequiresSingleSlot(t *testing.T) {
	rt := NewScripted(map[device.Slot]ScriptedDevice{device.GPU0: {Name: "x"}, device.GPU1: {Name: "y"}})
	ctx := context.Background()

	_, st := rt.CreateSession(ctx, SessionRequest{Plugins: []PluginID{0}, Flags: device.Of(device.GPU0, device.GPU1).Flags()})
	assert.Equal(t, StatusInvalidParameter, st)

	_, st = rt.CreateSession(ctx, SessionRequest{Plugins: []PluginID{0}, Flags: device.FlagMetal})
	assert.Equal(t, StatusInvalidParameter, st)

	_, st = rt.CreateSession(ctx, SessionRequest{Flags: device.Of(device.GPU0).Flags()})
	assert.Equal(t, StatusInvalidParameter, st)

	s, st := rt.CreateSession(ctx, SessionRequest{Plugins: []PluginID{0}, Flags: device.Of(device.GPU1).Flags() | device.FlagMetal})
	require.Equal(t, StatusSuccess, st)
	assert.Equal(t, StatusSuccess, s.Destroy())
	assert.Equal(t, StatusInvalidParameter, s.Destroy(), "second destroy is rejected")

	stats := rt.Stats()
	assert.Equal(t, 4, stats.Creates)
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, stats.Destroyed)
}

func TestScriptedAPIVersion(t *testing.T) {
	rt := NewScripted(map[device.Slot]ScriptedDevice{device.GPU0: {Name: "x"}})
	flags := device.Of(device.GPU0).Flags()

	tests := []struct {
		version string
		want    Status
	}{
		{"", StatusSuccess},
		{"3.0.0", StatusSuccess},
		{"3.9.2", StatusSuccess},
		{"2.2.9", StatusInvalidAPIVersion},
		{"4.0.0", StatusInvalidAPIVersion},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			req := SessionRequest{Plugins: []PluginID{0}, Flags: flags}
			if tt.version != "" {
				req.APIVersion = semver.MustParse(tt.version)
			}
			s, st := rt.CreateSession(context.Background(), req)
			assert.Equal(t, tt.want, st)
			if s != nil {
				assert.Equal(t, StatusSuccess, s.Destroy())
			}
		})
	}
	assert.Equal(t, 0, rt.Stats().Live())
}

func TestScriptedCancellation(t *testing.T) {
	rt := NewScripted(map[device.Slot]ScriptedDevice{device.GPU0: {Name: "x", Delay: time.Hour}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, st := rt.CreateSession(ctx, SessionRequest{Plugins: []PluginID{0}, Flags: device.Of(device.GPU0).Flags()})
	assert.Nil(t, s)
	assert.Equal(t, StatusInternalError, st)
	assert.Zero(t, rt.Stats().Created)
}

func TestDeviceName(t *testing.T) {
	rt := NewScripted(map[device.Slot]ScriptedDevice{device.GPU3: {Name: "Radeon RX 580"}})
	s, st := rt.CreateSession(context.Background(), SessionRequest{Plugins: []PluginID{0}, Flags: device.Of(device.GPU3).Flags()})
	require.Equal(t, StatusSuccess, st)
	defer s.Destroy()

	b, _ := device.Bind(device.GPU3)
	n, st := s.InfoSize(b.NameKey)
	require.Equal(t, StatusSuccess, st)
	assert.Equal(t, len("Radeon RX 580")+1, n, "size includes the terminator")

	name, st := DeviceName(s, b.NameKey)
	require.Equal(t, StatusSuccess, st)
	assert.Equal(t, "Radeon RX 580", name)

	other, _ := device.Bind(device.GPU0)
	_, st = DeviceName(s, other.NameKey)
	assert.Equal(t, StatusInvalidParameter, st)

	assert.Equal(t, StatusInvalidParameter, s.Info(b.NameKey, make([]byte, 3)), "short buffer")
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "unsupported", StatusUnsupported.String())
	assert.Equal(t, "status(-99)", Status(-99).String())
	assert.True(t, StatusSuccess.OK())
	assert.False(t, StatusUnsupported.OK())

	for _, name := range []string{"", "ok", "success", " SUCCESS "} {
		st, err := ParseStatus(name)
		require.NoError(t, err, name)
		assert.Equal(t, StatusSuccess, st)
	}
	st, err := ParseStatus("out_of_video_memory")
	require.NoError(t, err)
	assert.Equal(t, StatusOutOfVideoMemory, st)

	_, err = ParseStatus("catastrophic")
	assert.Error(t, err)
}
