package rules

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/tsukumogami/rprcheck/internal/platform"
)

// SchemaVersion is written to exported rule files.
const SchemaVersion = "1.0.0"

// supportedSchemas is the range of rule file versions this build reads.
const supportedSchemas = ">= 1.0.0, < 2.0.0"

// ErrUnsupportedSchema is returned for rule files outside supportedSchemas.
var ErrUnsupportedSchema = errors.New("unsupported rule file schema version")

// ParseError identifies the entry of a rule file that failed to load.
type ParseError struct {
	Section string // "exact", "substring", "regex" or "denylist"
	Index   int
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s[%d]: %v", e.Section, e.Index, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// fileRule is one [[exact]], [[substring]] or [[regex]] entry.
type fileRule struct {
	Name      string   `toml:"name,omitempty"`
	Pattern   string   `toml:"pattern,omitempty"`
	OnlyOS    []string `toml:"only_os,omitempty"`
	ExcludeOS []string `toml:"exclude_os,omitempty"`
}

type fileDenylist struct {
	Substrings    []string `toml:"substrings"`
	CaseSensitive *bool    `toml:"case_sensitive,omitempty"`
}

// fileDoc is the on-disk rule file layout.
type fileDoc struct {
	SchemaVersion string        `toml:"schema_version"`
	Exact         []fileRule    `toml:"exact,omitempty"`
	Substring     []fileRule    `toml:"substring,omitempty"`
	Regex         []fileRule    `toml:"regex,omitempty"`
	Denylist      *fileDenylist `toml:"denylist,omitempty"`
}

// LoadFile reads and compiles a TOML rule file.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rule file %s: %w", path, err)
	}
	return t, nil
}

// Parse compiles a TOML rule document. A missing [denylist] section uses
// DefaultDenylist; an explicit empty one disables the denylist.
func Parse(data []byte) (*Table, error) {
	var doc fileDoc
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rule file: %w", err)
	}

	if err := checkSchema(doc.SchemaVersion); err != nil {
		return nil, err
	}

	var all []Rule
	sections := []struct {
		name    string
		kind    Kind
		entries []fileRule
	}{
		{"exact", KindExact, doc.Exact},
		{"substring", KindSubstring, doc.Substring},
		{"regex", KindRegex, doc.Regex},
	}
	for _, sec := range sections {
		for i, fr := range sec.entries {
			r, err := fr.toRule(sec.kind)
			if err != nil {
				return nil, &ParseError{Section: sec.name, Index: i, Err: err}
			}
			if err := r.compile(); err != nil {
				return nil, &ParseError{Section: sec.name, Index: i, Err: err}
			}
			all = append(all, r)
		}
	}

	deny := DefaultDenylist
	if doc.Denylist != nil {
		deny = Denylist{Substrings: doc.Denylist.Substrings, CaseSensitive: true}
		if doc.Denylist.CaseSensitive != nil {
			deny.CaseSensitive = *doc.Denylist.CaseSensitive
		}
		for i, s := range deny.Substrings {
			if s == "" {
				return nil, &ParseError{Section: "denylist", Index: i, Err: errors.New("empty substring")}
			}
		}
	}

	return NewTable(all, deny)
}

func checkSchema(v string) error {
	if v == "" {
		return fmt.Errorf("%w: schema_version is required", ErrUnsupportedSchema)
	}
	version, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrUnsupportedSchema, v, err)
	}
	c, err := semver.NewConstraint(supportedSchemas)
	if err != nil {
		return err
	}
	if !c.Check(version) {
		return fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedSchema, version, supportedSchemas)
	}
	return nil
}

func (fr fileRule) toRule(kind Kind) (Rule, error) {
	value := fr.Name
	if kind == KindRegex {
		value = fr.Pattern
	}
	if value == "" {
		if kind == KindRegex {
			return Rule{}, errors.New("pattern is required")
		}
		return Rule{}, errors.New("name is required")
	}

	r := Rule{Kind: kind, Value: value}
	var err error
	if r.OnlyOS, err = parseOSList(fr.OnlyOS); err != nil {
		return Rule{}, err
	}
	if r.ExcludeOS, err = parseOSList(fr.ExcludeOS); err != nil {
		return Rule{}, err
	}
	return r, nil
}

func parseOSList(names []string) ([]platform.OS, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]platform.OS, 0, len(names))
	for _, n := range names {
		o, err := platform.ParseOS(n)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// Encode writes t as a TOML rule file that Parse reads back.
func Encode(w io.Writer, t *Table) error {
	doc := fileDoc{SchemaVersion: SchemaVersion}
	for _, r := range t.Rules() {
		fr := fileRule{
			OnlyOS:    osNames(r.OnlyOS),
			ExcludeOS: osNames(r.ExcludeOS),
		}
		switch r.Kind {
		case KindExact:
			fr.Name = r.Value
			doc.Exact = append(doc.Exact, fr)
		case KindSubstring:
			fr.Name = r.Value
			doc.Substring = append(doc.Substring, fr)
		case KindRegex:
			fr.Pattern = r.Value
			doc.Regex = append(doc.Regex, fr)
		}
	}
	deny := t.Denylist()
	caseSensitive := deny.CaseSensitive
	doc.Denylist = &fileDenylist{Substrings: deny.Substrings, CaseSensitive: &caseSensitive}
	if doc.Denylist.Substrings == nil {
		doc.Denylist.Substrings = []string{}
	}

	if err := toml.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("failed to write rule file: %w", err)
	}
	return nil
}

func osNames(oses []platform.OS) []string {
	if len(oses) == 0 {
		return nil
	}
	out := make([]string, len(oses))
	for i, o := range oses {
		out[i] = o.String()
	}
	return out
}
