// Package region maps free-text country labels to the supported sales
// regions and derives CRM routing and phone rules from static tables.
package region

import (
	"fmt"
	"strings"
	"unicode"
)

// Code is a canonical two-letter region code.
type Code string

// Supported regions.
const (
	GT Code = "GT"
	SV Code = "SV"
	HN Code = "HN"
	PA Code = "PA"
	DO Code = "DO"
	EC Code = "EC"
)

// Codes lists every supported region.
var Codes = []Code{GT, SV, HN, PA, DO, EC} //nolint:gochecknoglobals // fixed region set

// Target is the CRM pipeline and stage a deal is created in.
type Target struct {
	PipelineID int64
	StageID    int64
}

// PhoneRule describes how phones are written for a region.
type PhoneRule struct {
	Prefix    string
	MinDigits int
}

// Tables is the per-deployment region configuration. Alias keys are exact,
// case- and accent-sensitive matches against the trimmed, uppercased label.
type Tables struct {
	Default        Code
	Aliases        map[string]Code
	Pipelines      map[Code]int64
	Stages         map[Code]int64
	PhonePrefixes  map[Code]string
	PhoneMinDigits map[Code]int
}

// DefaultTables returns the documented fallback values.
func DefaultTables() Tables {
	return Tables{
		Default: GT,
		Aliases: map[string]Code{
			"GUATEMALA":            GT,
			"EL SALVADOR":          SV,
			"HONDURAS":             HN,
			"PANAMÁ":               PA,
			"PANAMA":               PA,
			"REPÚBLICA DOMINICANA": DO,
			"REPUBLICA DOMINICANA": DO,
			"ECUADOR":              EC,
		},
		Pipelines:      map[Code]int64{GT: 1, SV: 2, HN: 3, DO: 4, EC: 5, PA: 6},
		Stages:         map[Code]int64{GT: 6, SV: 7, HN: 13, DO: 19, EC: 25, PA: 31},
		PhonePrefixes:  map[Code]string{GT: "+502", SV: "+503", HN: "+504", PA: "+507", DO: "+1", EC: "+593"},
		PhoneMinDigits: map[Code]int{GT: 8, SV: 8, HN: 8, PA: 8, DO: 10, EC: 9},
	}
}

// Resolver answers region questions from a read-only copy of Tables.
type Resolver struct {
	t Tables
}

// NewResolver validates t and returns a Resolver over a private copy.
func NewResolver(t Tables) (*Resolver, error) {
	if !Supported(t.Default) {
		return nil, fmt.Errorf("%w: default region %q", ErrUnsupported, t.Default)
	}
	cp := Tables{
		Default:        t.Default,
		Aliases:        make(map[string]Code, len(t.Aliases)),
		Pipelines:      make(map[Code]int64, len(Codes)),
		Stages:         make(map[Code]int64, len(Codes)),
		PhonePrefixes:  make(map[Code]string, len(Codes)),
		PhoneMinDigits: make(map[Code]int, len(Codes)),
	}
	for label, code := range t.Aliases {
		if !Supported(code) {
			return nil, fmt.Errorf("%w: alias %q -> %q", ErrUnsupported, label, code)
		}
		cp.Aliases[label] = code
	}
	for _, c := range Codes {
		p, okP := t.Pipelines[c]
		s, okS := t.Stages[c]
		if !okP || !okS || p <= 0 || s <= 0 {
			return nil, fmt.Errorf("%w: %s needs pipeline and stage", ErrIncompleteTables, c)
		}
		cp.Pipelines[c], cp.Stages[c] = p, s
		cp.PhonePrefixes[c] = t.PhonePrefixes[c]
		cp.PhoneMinDigits[c] = t.PhoneMinDigits[c]
	}
	return &Resolver{t: cp}, nil
}

// Supported reports whether c is one of the six region codes.
func Supported(c Code) bool {
	for _, known := range Codes {
		if c == known {
			return true
		}
	}
	return false
}

// Resolve maps a country label to a region code. It is total: empty or
// unrecognized labels resolve to the default region.
func (r *Resolver) Resolve(label string) Code {
	c, _ := r.Lookup(label)
	return c
}

// Lookup is Resolve that also reports whether the label was recognized.
func (r *Resolver) Lookup(label string) (Code, bool) {
	x := strings.ToUpper(strings.TrimSpace(label))
	if x == "" {
		return r.t.Default, false
	}
	if c := Code(x); Supported(c) {
		return c, true
	}
	if c, ok := r.t.Aliases[x]; ok {
		return c, true
	}
	return r.t.Default, false
}

// Route returns the deal routing target for a region. Unsupported codes
// route like the default region.
func (r *Resolver) Route(c Code) Target {
	if !Supported(c) {
		c = r.t.Default
	}
	return Target{PipelineID: r.t.Pipelines[c], StageID: r.t.Stages[c]}
}

// PhoneRule returns the phone rule for a region.
func (r *Resolver) PhoneRule(c Code) PhoneRule {
	if !Supported(c) {
		c = r.t.Default
	}
	return PhoneRule{Prefix: r.t.PhonePrefixes[c], MinDigits: r.t.PhoneMinDigits[c]}
}

// FormatPhone writes raw in international form for region c. Numbers that
// already carry a "+" are kept as sent. The boolean is false when the local
// part has fewer digits than the region minimum.
func (r *Resolver) FormatPhone(c Code, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", true
	}
	rule := r.PhoneRule(c)
	local := raw
	international := strings.HasPrefix(raw, "+")
	if international {
		if rule.Prefix == "" || !strings.HasPrefix(raw, rule.Prefix) {
			return raw, true
		}
		local = strings.TrimPrefix(raw, rule.Prefix)
	}
	digits := onlyDigits(local)
	ok := len(digits) >= rule.MinDigits
	if international || rule.Prefix == "" {
		return raw, ok
	}
	return rule.Prefix + " " + digits, ok
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
