package compat

import (
	"fmt"

	"github.com/tsukumogami/rprcheck/internal/device"
)

// Outcome is the result of classifying one device. Exactly one value is
// produced per classification.
type Outcome int

const (
	// Compatible means the device may be enabled for rendering.
	Compatible Outcome = iota
	// IncompatibleUnknown covers internal faults: a failed name query, a
	// session that could not be released, a probe that timed out.
	IncompatibleUnknown
	// IncompatibleUncertified means the device works but is not on the
	// allowlist.
	IncompatibleUncertified
	// IncompatibleUnsupported means the runtime rejected the device, or its
	// name is denylisted.
	IncompatibleUnsupported
	// IncompatibleError means the request was invalid (bad plugin handle or
	// slot) or the trial session could not be constructed.
	IncompatibleError
)

var outcomeNames = [...]string{
	Compatible:              "compatible",
	IncompatibleUnknown:     "incompatible_unknown",
	IncompatibleUncertified: "incompatible_uncertified",
	IncompatibleUnsupported: "incompatible_unsupported",
	IncompatibleError:       "incompatible_error",
}

func (o Outcome) String() string {
	if o >= 0 && int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// IsCompatible reports whether o is Compatible.
func (o Outcome) IsCompatible() bool {
	return o == Compatible
}

// MarshalText encodes o by name so JSON reports are readable.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Report records how a slot was classified.
type Report struct {
	Slot       device.Slot `json:"-"`
	SlotName   string      `json:"slot"`
	Outcome    Outcome     `json:"outcome"`
	DeviceName string      `json:"device_name,omitempty"`
	// Reason is a short human-readable explanation of the outcome.
	Reason string `json:"reason"`
	// Rule is the allowlist rule that accepted the device, if any.
	Rule string `json:"rule,omitempty"`
}
