package rules

import (
	"sync"

	"github.com/tsukumogami/rprcheck/internal/platform"
)

// DefaultDenylist vetoes integrated Intel graphics.
var DefaultDenylist = Denylist{
	Substrings:    []string{"Intel", "Iris"},
	CaseSensitive: true,
}

// DefaultRules returns the built-in certified device list.
//
// NVIDIA consumer and workstation parts are certified on Windows and Linux
// only; the macOS driver stack for them is not supported.
func DefaultRules() []Rule {
	mac := platform.MacOS

	return []Rule{
		// AMD workstation
		Exact("AMD FirePro W2100"),
		Exact("AMD FirePro W4100"),
		Exact("AMD FirePro W4300"),
		Exact("AMD FirePro W5100"),
		Exact("AMD FirePro W7100"),
		Exact("AMD FirePro W8100"),
		Exact("AMD FirePro W9100"),
		Exact("AMD FirePro S7100X"),
		Exact("AMD FirePro S9150"),
		Exact("AMD FirePro S9170"),
		Exact("AMD Radeon (TM) Pro Duo"),
		Exact("AMD Radeon Pro Duo"),
		Exact("AMD Radeon (TM) Pro SSG"),
		Exact("AMD Radeon Vega Frontier Edition"),

		// AMD consumer
		Exact("AMD Radeon R9 200 Series"),
		Exact("AMD Radeon R9 300 Series"),
		Exact("AMD Radeon (TM) R9 Fury Series"),
		Exact("AMD Radeon R9 Fury Series"),
		Exact("AMD Radeon (TM) R9 Nano"),
		Exact("AMD Radeon R9 Nano"),
		Exact("AMD Radeon VII"),
		Exact("Radeon RX Vega"),

		// NVIDIA
		Exact("GeForce GTX 970").Except(mac),
		Exact("GeForce GTX 980").Except(mac),
		Exact("GeForce GTX 980 Ti").Except(mac),
		Exact("GeForce GTX TITAN X").Except(mac),
		Exact("GeForce GTX 1060").Except(mac),
		Exact("GeForce GTX 1070").Except(mac),
		Exact("GeForce GTX 1080").Except(mac),
		Exact("GeForce GTX 1080 Ti").Except(mac),
		Exact("TITAN X (Pascal)").Except(mac),
		Exact("TITAN Xp").Except(mac),
		Exact("TITAN V").Except(mac),
		Exact("Quadro M4000").Except(mac),
		Exact("Quadro M5000").Except(mac),
		Exact("Quadro M6000").Except(mac),
		Exact("Quadro M6000 24GB").Except(mac),
		Exact("Quadro P4000").Except(mac),
		Exact("Quadro P5000").Except(mac),
		Exact("Quadro P6000").Except(mac),
		Exact("Quadro GP100").Except(mac),
		Exact("Quadro GV100").Except(mac),

		// Partial names cover vendor prefixes and board variants.
		Substring("FirePro W8000"),
		Substring("FirePro W9000"),
		Substring("FirePro S9000"),
		Substring("FirePro S10000"),
		Substring("FirePro D500"),
		Substring("FirePro D700"),
		Substring("Radeon R9 M395"),
		Substring("Radeon R9 M390"),
		Substring("Radeon Pro 5"),
		Substring("Radeon Pro Vega"),
		Substring("Radeon RX Vega"),
		Substring("Radeon RX 470"),
		Substring("Radeon RX 480"),
		Substring("Radeon RX 570"),
		Substring("Radeon RX 580"),
		Substring("Radeon RX 590"),
		Substring("Vega 56"),
		Substring("Vega 64"),
		Substring("Apple M1"),
		Substring("Apple M2"),
		Substring("Apple M3"),
		Substring("gfx900"),
		Substring("gfx906"),

		// Families named by number.
		Regex(`(AMD )?Radeon (\(TM\) )?Pro WX ?\d{4}( Graphics)?`),
		Regex(`(AMD )?Radeon (\(TM\) )?Pro W\d{4}X?( Graphics)?`),
		Regex(`(AMD )?Radeon (\(TM\) )?RX [567]\d{3}( XT| XTX)?( Graphics)?`),
		Regex(`(AMD )?Radeon (\(TM\) )?RX \d{4}M( Graphics)?`),
		Regex(`(NVIDIA )?GeForce RTX [234]0\d0( Ti| SUPER)?( Laptop GPU)?`).Except(mac),
		Regex(`(NVIDIA )?Quadro RTX [4568]000`).Except(mac),
		Regex(`(NVIDIA )?RTX A[2456]000( Laptop GPU)?`).Except(mac),
	}
}

var defaultTable = sync.OnceValue(func() *Table {
	t, err := NewTable(DefaultRules(), DefaultDenylist)
	if err != nil {
		panic("rules: built-in table does not compile: " + err.Error())
	}
	return t
})

// Default returns the built-in table. It is constructed on first use and
// shared thereafter.
func Default() *Table {
	return defaultTable()
}
