package rules

import (
	"fmt"
	"strings"

	"github.com/tsukumogami/rprcheck/internal/platform"
	"github.com/tsukumogami/rprcheck/internal/strmatch"
)

// Denylist vetoes devices whose name contains any of Substrings.
//
// CaseSensitive defaults to true in the built-in table, so "intel" in lower
// case does not match the "Intel" entry. The allowlist is case-insensitive.
// The asymmetry is long-standing behavior and is kept until product decides
// otherwise.
type Denylist struct {
	Substrings    []string
	CaseSensitive bool
}

// Match returns the first entry contained in name.
func (d Denylist) Match(name string) (string, bool) {
	for _, sub := range d.Substrings {
		if sub == "" {
			continue
		}
		var hit bool
		if d.CaseSensitive {
			hit = strings.Contains(name, sub)
		} else {
			hit = strmatch.ContainsFold(name, sub)
		}
		if hit {
			return sub, true
		}
	}
	return "", false
}

// Table is an immutable set of allowlist rules and a denylist.
type Table struct {
	exact     []Rule
	substring []Rule
	regex     []Rule
	deny      Denylist
}

// NewTable builds a table from rules and a denylist. Regex rules are compiled
// here; an invalid pattern fails construction.
func NewTable(rules []Rule, deny Denylist) (*Table, error) {
	t := &Table{
		deny: Denylist{
			Substrings:    append([]string(nil), deny.Substrings...),
			CaseSensitive: deny.CaseSensitive,
		},
	}
	for i, r := range rules {
		if err := r.compile(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		switch r.Kind {
		case KindExact:
			t.exact = append(t.exact, r)
		case KindSubstring:
			t.substring = append(t.substring, r)
		case KindRegex:
			t.regex = append(t.regex, r)
		default:
			return nil, fmt.Errorf("rule %d: unknown kind %v", i, r.Kind)
		}
	}
	return t, nil
}

// Rules returns every allowlist rule in evaluation order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, 0, len(t.exact)+len(t.substring)+len(t.regex))
	out = append(out, t.exact...)
	out = append(out, t.substring...)
	return append(out, t.regex...)
}

// Denylist returns a copy of the table's denylist.
func (t *Table) Denylist() Denylist {
	return Denylist{
		Substrings:    append([]string(nil), t.deny.Substrings...),
		CaseSensitive: t.deny.CaseSensitive,
	}
}

// Match returns the first allowlist rule that accepts name on os.
// Exact rules are tried first, then substrings, then regexes.
func (t *Table) Match(name string, os platform.OS) (Rule, bool) {
	for _, set := range [][]Rule{t.exact, t.substring, t.regex} {
		for _, r := range set {
			if r.AppliesTo(os) && r.Matches(name) {
				return r, true
			}
		}
	}
	return Rule{}, false
}

// IsAllowlisted reports whether any allowlist rule accepts name on os.
func (t *Table) IsAllowlisted(name string, os platform.OS) bool {
	_, ok := t.Match(name, os)
	return ok
}

// DenyMatch returns the denylist entry contained in name, if any.
func (t *Table) DenyMatch(name string) (string, bool) {
	return t.deny.Match(name)
}

// IsDenylisted reports whether name contains a denylisted substring.
// The check does not depend on the operating system.
func (t *Table) IsDenylisted(name string) bool {
	_, ok := t.deny.Match(name)
	return ok
}
