package probe

import (
	"context"
	"fmt"
	"math/bits"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/tsukumogami/rprcheck/internal/device"
)

// ScriptedDevice describes how a scripted slot behaves when probed.
type ScriptedDevice struct {
	Name string
	// CreateStatus is returned by CreateSession for this slot.
	CreateStatus Status
	// NameStatus is returned by the name queries.
	NameStatus Status
	// DestroyStatus is returned by Destroy. The session counts as
	// destroyed either way.
	DestroyStatus Status
	// Delay is spent inside CreateSession, ignoring cancellation when
	// IgnoreContext is set.
	Delay         time.Duration
	IgnoreContext bool
}

// ScriptStats counts session lifecycle calls.
type ScriptStats struct {
	Created   int // sessions returned to a caller
	Destroyed int // Destroy calls on live sessions
	Creates   int // CreateSession calls, successful or not
}

// Live returns the number of sessions not yet destroyed.
func (s ScriptStats) Live() int {
	return s.Created - s.Destroyed
}

// Scripted is a Runtime whose devices are described up front. It is safe
// for concurrent use.
type Scripted struct {
	devices map[device.Slot]ScriptedDevice

	mu    sync.Mutex
	stats ScriptStats
	seen  []SessionRequest
}

// NewScripted returns a runtime exposing devs. Slots without an entry
// report StatusUnsupported.
func NewScripted(devs map[device.Slot]ScriptedDevice) *Scripted {
	cp := make(map[device.Slot]ScriptedDevice, len(devs))
	for k, v := range devs {
		cp[k] = v
	}
	return &Scripted{devices: cp}
}

// Stats returns a snapshot of the lifecycle counters.
func (s *Scripted) Stats() ScriptStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Requests returns every request passed to CreateSession, in call order.
func (s *Scripted) Requests() []SessionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SessionRequest(nil), s.seen...)
}

// Slots returns the scripted slots.
func (s *Scripted) Slots() device.Selector {
	var sel device.Selector
	for slot := range s.devices {
		sel = sel.With(slot)
	}
	return sel
}

// CreateSession implements Runtime. Exactly one slot flag must be set and
// the requested API version must share DefaultAPIVersion's major version.
func (s *Scripted) CreateSession(ctx context.Context, req SessionRequest) (Session, Status) {
	s.mu.Lock()
	s.stats.Creates++
	s.seen = append(s.seen, req)
	s.mu.Unlock()

	if !CompatibleAPIVersion(req.APIVersion) {
		return nil, StatusInvalidAPIVersion
	}
	if len(req.Plugins) == 0 {
		return nil, StatusInvalidParameter
	}

	slot, ok := requestedSlot(req.Flags)
	if !ok {
		return nil, StatusInvalidParameter
	}
	dev, ok := s.devices[slot]
	if !ok {
		return nil, StatusUnsupported
	}

	if dev.Delay > 0 {
		if dev.IgnoreContext {
			time.Sleep(dev.Delay)
		} else {
			t := time.NewTimer(dev.Delay)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return nil, StatusInternalError
			}
		}
	}

	if !dev.CreateStatus.OK() {
		return nil, dev.CreateStatus
	}

	s.mu.Lock()
	s.stats.Created++
	s.mu.Unlock()

	binding, _ := device.Bind(slot)
	return &scriptedSession{rt: s, dev: dev, key: binding.NameKey}, StatusSuccess
}

// requestedSlot finds the single slot enabled in flags.
func requestedSlot(flags device.CreationFlag) (device.Slot, bool) {
	var found []device.Slot
	for f := flags; f != 0; f &= f - 1 {
		bit := device.CreationFlag(1) << bits.TrailingZeros32(uint32(f))
		if slot, ok := device.SlotForFlag(bit); ok {
			found = append(found, slot)
		}
	}
	if len(found) != 1 {
		return 0, false
	}
	return found[0], true
}

type scriptedSession struct {
	rt  *Scripted
	dev ScriptedDevice
	key device.InfoKey

	mu        sync.Mutex
	destroyed bool
}

func (ss *scriptedSession) InfoSize(key device.InfoKey) (int, Status) {
	if st := ss.check(key); !st.OK() {
		return 0, st
	}
	return len(ss.dev.Name) + 1, StatusSuccess
}

func (ss *scriptedSession) Info(key device.InfoKey, buf []byte) Status {
	if st := ss.check(key); !st.OK() {
		return st
	}
	if len(buf) < len(ss.dev.Name)+1 {
		return StatusInvalidParameter
	}
	n := copy(buf, ss.dev.Name)
	buf[n] = 0
	return StatusSuccess
}

func (ss *scriptedSession) check(key device.InfoKey) Status {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	switch {
	case ss.destroyed:
		return StatusInvalidParameter
	case key != ss.key:
		return StatusInvalidParameter
	default:
		return ss.dev.NameStatus
	}
}

func (ss *scriptedSession) Destroy() Status {
	ss.mu.Lock()
	if ss.destroyed {
		ss.mu.Unlock()
		return StatusInvalidParameter
	}
	ss.destroyed = true
	ss.mu.Unlock()

	ss.rt.mu.Lock()
	ss.rt.stats.Destroyed++
	ss.rt.mu.Unlock()
	return ss.dev.DestroyStatus
}

// scriptFile is the TOML layout read by LoadScript:
//
//	[[device]]
//	slot = "gpu0"
//	name = "AMD Radeon Pro WX 4100 Graphics"
//	create = "success"     # or "unsupported", "invalid_parameter", ...
//	name_status = "success"
//	destroy = "success"
//	delay = "50ms"
type scriptFile struct {
	Devices []scriptEntry `toml:"device"`
}

type scriptEntry struct {
	Slot       string `toml:"slot"`
	Name       string `toml:"name"`
	Create     string `toml:"create"`
	NameStatus string `toml:"name_status"`
	Destroy    string `toml:"destroy"`
	Delay      string `toml:"delay"`
}

// LoadScript reads a scripted runtime description from a TOML file.
func LoadScript(path string) (*Scripted, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read device file: %w", err)
	}
	return ParseScript(data)
}

// ParseScript parses a scripted runtime description.
func ParseScript(data []byte) (*Scripted, error) {
	var f scriptFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("failed to parse device file: %w", err)
	}

	devs := make(map[device.Slot]ScriptedDevice, len(f.Devices))
	for i, e := range f.Devices {
		slot, err := device.ParseSlot(e.Slot)
		if err != nil {
			return nil, fmt.Errorf("device[%d]: %w", i, err)
		}
		if _, dup := devs[slot]; dup {
			return nil, fmt.Errorf("device[%d]: slot %s listed twice", i, slot)
		}

		var d ScriptedDevice
		d.Name = e.Name
		for _, p := range []struct {
			field string
			value string
			dst   *Status
		}{
			{"create", e.Create, &d.CreateStatus},
			{"name_status", e.NameStatus, &d.NameStatus},
			{"destroy", e.Destroy, &d.DestroyStatus},
		} {
			st, err := ParseStatus(p.value)
			if err != nil {
				return nil, fmt.Errorf("device[%d].%s: %w", i, p.field, err)
			}
			*p.dst = st
		}
		if e.Delay != "" {
			if d.Delay, err = time.ParseDuration(e.Delay); err != nil {
				return nil, fmt.Errorf("device[%d].delay: %w", i, err)
			}
		}
		devs[slot] = d
	}
	return NewScripted(devs), nil
}

// Describe lists the scripted devices in slot order, for diagnostics.
func (s *Scripted) Describe() []string {
	slots := make([]device.Slot, 0, len(s.devices))
	for slot := range s.devices {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })

	out := make([]string, 0, len(slots))
	for _, slot := range slots {
		d := s.devices[slot]
		out = append(out, fmt.Sprintf("%s: %q (create=%s)", slot, d.Name, d.CreateStatus))
	}
	return out
}
