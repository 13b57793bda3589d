package device

import (
	"errors"
	"fmt"
	"strings"
)

// CreationFlag is a bit in the renderer's context creation flags.
type CreationFlag uint32

// InfoKey is a context info query key.
type InfoKey uint32

// Creation flags that do not enable a slot.
const (
	FlagGLInterop CreationFlag = 1 << 5
	FlagMetal     CreationFlag = 1 << 10
	FlagHIP       CreationFlag = 1 << 19
	FlagOpenCL    CreationFlag = 1 << 20
	FlagDebug     CreationFlag = 1 << 31
)

// Binding ties a slot to the renderer API values that address it.
type Binding struct {
	Slot Slot
	// Flag enables the slot when passed at context creation.
	Flag CreationFlag
	// NameKey queries the slot's device name from a created context.
	NameKey InfoKey
}

// bindings is indexed by Slot. The flag bits are not contiguous: bits 4, 5
// and 10 were assigned to CPU, GL interop and Metal before GPU4 existed.
var bindings = [NumSlots]Binding{
	{GPU0, 1 << 0, 0x150},
	{GPU1, 1 << 1, 0x151},
	{GPU2, 1 << 2, 0x152},
	{GPU3, 1 << 3, 0x153},
	{GPU4, 1 << 6, 0x155},
	{GPU5, 1 << 7, 0x156},
	{GPU6, 1 << 8, 0x157},
	{GPU7, 1 << 9, 0x158},
	{GPU8, 1 << 11, 0x159},
	{GPU9, 1 << 12, 0x15A},
	{GPU10, 1 << 13, 0x15B},
	{GPU11, 1 << 14, 0x15C},
	{GPU12, 1 << 15, 0x15D},
	{GPU13, 1 << 16, 0x15E},
	{GPU14, 1 << 17, 0x15F},
	{GPU15, 1 << 18, 0x160},
	{CPU, 1 << 4, 0x154},
}

// Bind returns the API binding for s. ok is false for invalid slots.
func Bind(s Slot) (b Binding, ok bool) {
	if !s.Valid() {
		return Binding{}, false
	}
	return bindings[s], true
}

// Bindings returns a copy of the full slot table in slot order.
func Bindings() []Binding {
	out := make([]Binding, NumSlots)
	copy(out, bindings[:])
	return out
}

// Flags returns the creation flags that enable every slot in sel.
func (sel Selector) Flags() CreationFlag {
	var f CreationFlag
	for _, s := range sel.Slots() {
		f |= bindings[s].Flag
	}
	return f
}

// SlotForFlag returns the slot enabled by a single creation flag bit.
func SlotForFlag(f CreationFlag) (Slot, bool) {
	for _, b := range bindings {
		if b.Flag == f {
			return b.Slot, true
		}
	}
	return 0, false
}

// ErrUnknownFlag is returned by ParseFlags for unrecognized flag names.
var ErrUnknownFlag = errors.New("unknown creation flag")

// flagNames lists the creation flags a caller may add to a probe.
var flagNames = []struct {
	name string
	flag CreationFlag
}{
	{"gl_interop", FlagGLInterop},
	{"metal", FlagMetal},
	{"hip", FlagHIP},
	{"opencl", FlagOpenCL},
	{"debug", FlagDebug},
}

// FlagNames returns the names accepted by ParseFlags.
func FlagNames() []string {
	out := make([]string, len(flagNames))
	for i, f := range flagNames {
		out[i] = f.name
	}
	return out
}

// ParseFlags parses a comma-separated list of non-slot creation flag names
// such as "hip,debug". Names are case-insensitive and "-" may stand for "_".
// An empty string yields no flags.
func ParseFlags(s string) (CreationFlag, error) {
	var out CreationFlag
	for _, part := range strings.Split(s, ",") {
		name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(part)), "-", "_")
		if name == "" {
			continue
		}
		found := false
		for _, f := range flagNames {
			if f.name == name {
				out |= f.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownFlag, part, strings.Join(FlagNames(), ", "))
		}
	}
	return out, nil
}
