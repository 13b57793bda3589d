// Package device models the renderer's logical device slots.
//
// A slot is one addressable compute device (GPU0 through GPU15, or the CPU).
// Each slot maps to a distinct context creation flag that enables it and a
// distinct context info key that reports its name. The mapping table is part
// of the renderer's public API contract.
package device

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Slot is a logical device slot. GPU slots are numbered 0..15; CPU follows.
type Slot int

const (
	GPU0 Slot = iota
	GPU1
	GPU2
	GPU3
	GPU4
	GPU5
	GPU6
	GPU7
	GPU8
	GPU9
	GPU10
	GPU11
	GPU12
	GPU13
	GPU14
	GPU15
	CPU

	// NumGPUSlots is the number of addressable GPU slots.
	NumGPUSlots = 16

	// NumSlots is the total number of slots including the CPU.
	NumSlots = NumGPUSlots + 1
)

// ErrUnknownSlot is returned when a slot name or index is outside the
// supported range.
var ErrUnknownSlot = errors.New("unknown device slot")

// Valid reports whether s names a supported slot.
func (s Slot) Valid() bool {
	return s >= GPU0 && s <= CPU
}

// IsGPU reports whether s is one of the GPU slots.
func (s Slot) IsGPU() bool {
	return s >= GPU0 && s < CPU
}

func (s Slot) String() string {
	switch {
	case s == CPU:
		return "CPU"
	case s.IsGPU():
		return "GPU" + strconv.Itoa(int(s))
	default:
		return fmt.Sprintf("Slot(%d)", int(s))
	}
}

// ParseSlot parses a slot name such as "gpu3" or "CPU".
func ParseSlot(s string) (Slot, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "cpu" {
		return CPU, nil
	}
	if rest, ok := strings.CutPrefix(name, "gpu"); ok {
		n, err := strconv.Atoi(rest)
		if err == nil && n >= 0 && n < NumGPUSlots {
			return Slot(n), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSlot, s)
}

// AllSlots returns every slot in evaluation order (GPU0..GPU15, CPU).
func AllSlots() []Slot {
	slots := make([]Slot, 0, NumSlots)
	for s := GPU0; s <= CPU; s++ {
		slots = append(slots, s)
	}
	return slots
}
