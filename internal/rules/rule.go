// Package rules decides whether a device name is certified for the renderer.
//
// A Table holds three ordered allowlist rule sets (exact names, partial names
// and regular expressions) plus a denylist of substrings that veto a device
// regardless of the allowlist. Tables are built once, either from the
// compiled-in defaults or from a TOML rule file, and are read-only afterwards
// so they can be shared between goroutines.
package rules

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/tsukumogami/rprcheck/internal/platform"
	"github.com/tsukumogami/rprcheck/internal/strmatch"
)

// Kind identifies how a rule compares against a device name.
type Kind int

const (
	// KindExact matches the whole name, ignoring ASCII case.
	KindExact Kind = iota
	// KindSubstring matches the value anywhere in the name, ignoring ASCII case.
	KindSubstring
	// KindRegex matches when the pattern matches the whole name, ignoring
	// ASCII case.
	KindRegex
)

func (k Kind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindSubstring:
		return "substring"
	case KindRegex:
		return "regex"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// regexMatchTimeout bounds a single regex evaluation.
const regexMatchTimeout = 100 * time.Millisecond

// Rule is one allowlist entry.
//
// OnlyOS and ExcludeOS restrict the systems a rule applies to. An empty
// OnlyOS means every system.
type Rule struct {
	Kind      Kind
	Value     string
	OnlyOS    []platform.OS
	ExcludeOS []platform.OS

	re *regexp2.Regexp
}

// Exact returns a rule matching the whole device name.
func Exact(name string) Rule {
	return Rule{Kind: KindExact, Value: name}
}

// Substring returns a rule matching part of the device name.
func Substring(name string) Rule {
	return Rule{Kind: KindSubstring, Value: name}
}

// Regex returns a rule matching the device name against pattern. The pattern
// is compiled when the rule is added to a Table.
func Regex(pattern string) Rule {
	return Rule{Kind: KindRegex, Value: pattern}
}

// Except returns a copy of r that does not apply on the given systems.
func (r Rule) Except(oses ...platform.OS) Rule {
	r.ExcludeOS = append(slices.Clone(r.ExcludeOS), oses...)
	return r
}

// Only returns a copy of r that applies only on the given systems.
func (r Rule) Only(oses ...platform.OS) Rule {
	r.OnlyOS = append(slices.Clone(r.OnlyOS), oses...)
	return r
}

// AppliesTo reports whether the rule is considered on os.
func (r Rule) AppliesTo(os platform.OS) bool {
	if slices.Contains(r.ExcludeOS, os) {
		return false
	}
	return len(r.OnlyOS) == 0 || slices.Contains(r.OnlyOS, os)
}

// compile prepares a regex rule. Other kinds need no preparation.
//
// The pattern must parse on its own before it is anchored, so a stray
// closing parenthesis cannot split the anchor into alternatives. Letters
// are folded to ASCII lower case and the name is folded the same way at
// match time, so case is ignored only for 'A'..'Z'.
func (r *Rule) compile() error {
	if r.Kind != KindRegex || r.re != nil {
		return nil
	}
	if _, err := regexp2.Compile(r.Value, regexp2.None); err != nil {
		return fmt.Errorf("invalid pattern %q: %w", r.Value, err)
	}
	folded, err := foldPattern(r.Value)
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", r.Value, err)
	}
	re, err := regexp2.Compile(`\A(?:`+folded+`)\z`, regexp2.None)
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", r.Value, err)
	}
	re.MatchTimeout = regexMatchTimeout
	r.re = re
	return nil
}

// errInlineIgnoreCase rejects (?i), whose Unicode folding would let
// characters such as the Kelvin sign match ASCII letters.
var errInlineIgnoreCase = errors.New("inline (?i) option is not allowed; regex rules already ignore ASCII case")

// foldPattern lowers the ASCII letters of a pattern outside escapes.
// The character after a backslash is kept, as is the property name of
// \p{...} and \P{...}.
func foldPattern(p string) (string, error) {
	b := make([]byte, 0, len(p))
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c == '\\' && i+1 < len(p):
			b = append(b, c, p[i+1])
			i++
			if (p[i] == 'p' || p[i] == 'P') && i+1 < len(p) && p[i+1] == '{' {
				end := strings.IndexByte(p[i:], '}')
				if end < 0 {
					return "", fmt.Errorf("unterminated property at offset %d", i)
				}
				b = append(b, p[i+1:i+end+1]...)
				i += end
			}
		case c == '(' && strings.HasPrefix(p[i:], "(?") && inlineIgnoreCase(p[i+2:]):
			return "", errInlineIgnoreCase
		default:
			b = append(b, strmatch.ToLower(p[i:i+1])...)
		}
	}
	return string(b), nil
}

// inlineIgnoreCase reports whether the option list at the start of s
// (the text after "(?") turns on the i option.
func inlineIgnoreCase(s string) bool {
	on := true
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'i':
			if on {
				return true
			}
		case '-':
			on = false
		case 'm', 'n', 's', 'x':
		default:
			return false
		}
	}
	return false
}

// Matches reports whether name satisfies the rule, without regard to OS.
func (r Rule) Matches(name string) bool {
	switch r.Kind {
	case KindExact:
		return strmatch.EqualFold(name, r.Value)
	case KindSubstring:
		return strmatch.ContainsFold(name, r.Value)
	case KindRegex:
		if r.re == nil {
			return false
		}
		// A match timeout counts as no match.
		ok, err := r.re.MatchString(strmatch.ToLower(name))
		return err == nil && ok
	default:
		return false
	}
}

func (r Rule) String() string {
	s := fmt.Sprintf("%s %q", r.Kind, r.Value)
	if len(r.OnlyOS) > 0 {
		s += fmt.Sprintf(" only=%v", r.OnlyOS)
	}
	if len(r.ExcludeOS) > 0 {
		s += fmt.Sprintf(" except=%v", r.ExcludeOS)
	}
	return s
}
