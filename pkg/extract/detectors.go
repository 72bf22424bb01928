package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/driftnet/pkg/core"
	"github.com/leapstack-labs/driftnet/pkg/pyast"
)

// Detector inspects a single node and returns the column references it
// recognizes. Detectors are pure and never stop the traversal.
type Detector struct {
	Name   string
	Detect func(n *pyast.Node) []core.Ref
}

// Detector names.
const (
	KeyedAccess   = "keyed-access"
	TabularCall   = "tabular-call"
	EmbeddedQuery = "embedded-query"
)

// DefaultDetectors returns every detector in dispatch order.
func DefaultDetectors() []Detector {
	return []Detector{
		{Name: KeyedAccess, Detect: detectKeyedAccess},
		{Name: TabularCall, Detect: detectTabularCall},
		{Name: EmbeddedQuery, Detect: detectEmbeddedQuery},
	}
}

// DetectorNames lists the names accepted by SelectDetectors.
func DetectorNames() []string {
	return []string{KeyedAccess, TabularCall, EmbeddedQuery}
}

// SelectDetectors returns the named detectors in dispatch order.
// An empty list selects all of them.
func SelectDetectors(names []string) ([]Detector, error) {
	all := DefaultDetectors()
	if len(names) == 0 {
		return all, nil
	}
	want := make(map[string]bool, len(names))
	for _, name := range names {
		want[strings.TrimSpace(name)] = true
	}
	var out []Detector
	for _, d := range all {
		if want[d.Name] {
			out = append(out, d)
			delete(want, d.Name)
		}
	}
	if len(want) > 0 {
		unknown := make([]string, 0, len(want))
		for name := range want {
			unknown = append(unknown, name)
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown detector %q (available: %s)", unknown[0], strings.Join(DetectorNames(), ", "))
	}
	return out, nil
}

// tabularMethods take column names as positional arguments.
var tabularMethods = map[string]bool{
	"groupby":         true,
	"merge":           true,
	"sort_values":     true,
	"drop":            true,
	"fillna":          true,
	"drop_duplicates": true,
}

// columnKeywords are keyword arguments of tabular methods that name columns.
var columnKeywords = map[string]bool{
	"on":       true,
	"left_on":  true,
	"right_on": true,
	"by":       true,
	"subset":   true,
	"columns":  true,
}

// querySpace is the Unicode whitespace set of Python's str.isspace.
const querySpace = `[\s\v\p{Z}\x{1c}-\x{1f}\x{85}]`

// selectPattern matches SELECT <columns> FROM <table> across lines. The
// word boundary before SELECT is checked separately by selectMatches.
var selectPattern = regexp.MustCompile(`(?is)SELECT` + querySpace + `+(.+?)` + querySpace + `+FROM` + querySpace + `+([\p{L}\p{N}_]+)`)

// detectKeyedAccess matches x['col'].
func detectKeyedAccess(n *pyast.Node) []core.Ref {
	if n.Kind != pyast.KindSubscript || n.Index == nil || n.Index.Kind != pyast.KindString {
		return nil
	}
	return []core.Ref{{Source: Resolve(n.X), Column: n.Index.Value, Line: n.Line}}
}

// detectTabularCall matches receiver.method(...) for tabular transforms and astype.
func detectTabularCall(n *pyast.Node) []core.Ref {
	if n.Kind != pyast.KindCall || n.X == nil || n.X.Kind != pyast.KindAttribute {
		return nil
	}
	method := n.X.Name
	src := Resolve(n.X.X)

	var refs []core.Ref
	add := func(cols []string) {
		for _, c := range cols {
			refs = append(refs, core.Ref{Source: src, Column: c, Line: n.Line})
		}
	}

	if tabularMethods[method] {
		for _, a := range n.Args {
			add(literalStrings(a))
		}
		for _, kw := range n.Keywords {
			if columnKeywords[kw.Name] {
				add(literalStrings(kw.X))
			}
		}
	}
	if method == "astype" {
		for _, a := range n.Args {
			if a.Kind != pyast.KindDict {
				continue
			}
			for _, k := range a.Keys {
				if k != nil && k.Kind == pyast.KindString {
					add([]string{k.Value})
				}
			}
		}
	}
	return refs
}

// literalStrings returns the value of a string literal, or the string
// literal elements of a list literal.
func literalStrings(n *pyast.Node) []string {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case pyast.KindString:
		return []string{n.Value}
	case pyast.KindList:
		var out []string
		for _, e := range n.Elts {
			if e != nil && e.Kind == pyast.KindString {
				out = append(out, e.Value)
			}
		}
		return out
	default:
		return nil
	}
}

// detectEmbeddedQuery scans string constants for SELECT ... FROM table.
func detectEmbeddedQuery(n *pyast.Node) []core.Ref {
	if n.Kind != pyast.KindString {
		return nil
	}
	var refs []core.Ref
	for _, m := range selectMatches(n.Value) {
		cols, table := strings.TrimFunc(m[0], isQuerySpace), m[1]
		if cols == "*" {
			continue
		}
		for _, piece := range strings.Split(cols, ",") {
			fields := strings.FieldsFunc(piece, isQuerySpace)
			if len(fields) == 0 {
				continue
			}
			col := fields[len(fields)-1]
			if i := strings.LastIndex(col, "."); i >= 0 {
				col = col[i+1:]
			}
			if isIdentifier(col) {
				refs = append(refs, core.Ref{Source: table, Column: col, Line: n.Line})
			}
		}
	}
	return refs
}

// selectMatches returns the column list and table of every non-overlapping
// query in s. A candidate whose SELECT directly follows a word character
// is rejected and the search resumes one rune later.
func selectMatches(s string) [][2]string {
	var out [][2]string
	for at := 0; at < len(s); {
		loc := selectPattern.FindStringSubmatchIndex(s[at:])
		if loc == nil {
			break
		}
		start := at + loc[0]
		if prev, _ := utf8.DecodeLastRuneInString(s[:start]); start > 0 && isWordRune(prev) {
			_, size := utf8.DecodeRuneInString(s[start:])
			at = start + size
			continue
		}
		out = append(out, [2]string{s[at+loc[2] : at+loc[3]], s[at+loc[4] : at+loc[5]]})
		at += loc[1]
	}
	return out
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func isQuerySpace(r rune) bool {
	return unicode.IsSpace(r) || unicode.In(r, unicode.Z) || (r >= 0x1c && r <= 0x1f)
}

// isIdentifier reports whether s is a valid Python identifier.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r) || unicode.Is(unicode.Nl, r):
		case i > 0 && (unicode.IsDigit(r) || unicode.In(r, unicode.Mn, unicode.Mc, unicode.Pc)):
		default:
			return false
		}
	}
	return true
}
