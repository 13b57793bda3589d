package device

import (
	"fmt"
	"strings"
)

// Selector is a set of slots. The zero value is the empty set.
type Selector uint32

const (
	// AllGPUs selects GPU0 through GPU15.
	AllGPUs Selector = 1<<NumGPUSlots - 1

	// All selects every slot including the CPU.
	All Selector = AllGPUs | 1<<CPU
)

// Of returns a selector containing the given slots. Invalid slots are ignored.
func Of(slots ...Slot) Selector {
	var sel Selector
	for _, s := range slots {
		sel = sel.With(s)
	}
	return sel
}

// Has reports whether s is in the set.
func (sel Selector) Has(s Slot) bool {
	return s.Valid() && sel&(1<<s) != 0
}

// With returns the set with s added.
func (sel Selector) With(s Slot) Selector {
	if !s.Valid() {
		return sel
	}
	return sel | 1<<s
}

// Without returns the set with s removed.
func (sel Selector) Without(s Slot) Selector {
	if !s.Valid() {
		return sel
	}
	return sel &^ (1 << s)
}

// Slots returns the members in evaluation order.
func (sel Selector) Slots() []Slot {
	var slots []Slot
	for s := GPU0; s <= CPU; s++ {
		if sel.Has(s) {
			slots = append(slots, s)
		}
	}
	return slots
}

// Len returns the number of slots in the set.
func (sel Selector) Len() int {
	n := 0
	for s := GPU0; s <= CPU; s++ {
		if sel.Has(s) {
			n++
		}
	}
	return n
}

// Empty reports whether the set has no members.
func (sel Selector) Empty() bool {
	return sel&All == 0
}

func (sel Selector) String() string {
	slots := sel.Slots()
	if len(slots) == 0 {
		return "none"
	}
	names := make([]string, len(slots))
	for i, s := range slots {
		names[i] = s.String()
	}
	return strings.Join(names, ",")
}

// ParseSelector parses a comma-separated slot list. The keywords "all" and
// "gpus" expand to every slot and every GPU slot respectively.
//
//	ParseSelector("gpu0,gpu3,cpu")
//	ParseSelector("gpus")
func ParseSelector(s string) (Selector, error) {
	var sel Selector
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch strings.ToLower(part) {
		case "all":
			sel |= All
			continue
		case "gpus":
			sel |= AllGPUs
			continue
		}
		slot, err := ParseSlot(part)
		if err != nil {
			return 0, err
		}
		sel = sel.With(slot)
	}
	if sel.Empty() {
		return 0, fmt.Errorf("%w: empty slot list %q", ErrUnknownSlot, s)
	}
	return sel, nil
}
