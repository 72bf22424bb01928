package pyast

import (
	"strconv"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/runenames"
)

var (
	runeNamesOnce sync.Once
	runesByName   map[string]rune
)

// nameAliases resolves the common aliases of characters whose Unicode
// name is a placeholder such as <control>.
var nameAliases = map[string]rune{
	"NULL":                  0x00,
	"NUL":                   0x00,
	"CHARACTER TABULATION":  '\t',
	"HORIZONTAL TABULATION": '\t',
	"TAB":                   '\t',
	"HT":                    '\t',
	"LINE FEED":             '\n',
	"NEW LINE":              '\n',
	"END OF LINE":           '\n',
	"LF":                    '\n',
	"NL":                    '\n',
	"EOL":                   '\n',
	"LINE TABULATION":       '\v',
	"VT":                    '\v',
	"FORM FEED":             '\f',
	"FF":                    '\f',
	"CARRIAGE RETURN":       '\r',
	"CR":                    '\r',
	"ESCAPE":                0x1b,
	"ESC":                   0x1b,
	"SP":                    ' ',
	"DELETE":                0x7f,
	"DEL":                   0x7f,
	"NEXT LINE":             0x85,
	"NEL":                   0x85,
	"NBSP":                  0xa0,
	"ZWSP":                  0x200b,
	"ZWNJ":                  0x200c,
	"ZWJ":                   0x200d,
	"BYTE ORDER MARK":       0xfeff,
	"BOM":                   0xfeff,
}

var (
	hangulLead  = []string{"G", "GG", "N", "D", "DD", "R", "M", "B", "BB", "S", "SS", "", "J", "JJ", "C", "K", "T", "P", "H"}
	hangulVowel = []string{"A", "AE", "YA", "YAE", "EO", "E", "YEO", "YE", "O", "WA", "WAE", "OE", "YO", "U", "WEO", "WE", "WI", "YU", "EU", "YI", "I"}
	hangulTail  = []string{"", "G", "GG", "GS", "N", "NJ", "NH", "D", "L", "LG", "LM", "LB", "LS", "LT", "LP", "LH", "M", "B", "BS", "S", "SS", "NG", "J", "C", "K", "T", "P", "H"}
)

// lookupRune resolves the name of a \N{...} escape. Matching ignores case.
func lookupRune(name string) (rune, bool) {
	key := strings.ToUpper(name)
	if r, ok := nameAliases[key]; ok {
		return r, true
	}
	if hex, ok := strings.CutPrefix(key, "CJK UNIFIED IDEOGRAPH-"); ok {
		if len(hex) != 4 && len(hex) != 5 {
			return 0, false
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil || !unicode.Is(unicode.Unified_Ideograph, rune(v)) {
			return 0, false
		}
		return rune(v), true
	}
	runeNamesOnce.Do(buildRuneNames)
	r, ok := runesByName[key]
	return r, ok
}

func buildRuneNames() {
	runesByName = make(map[string]rune, 1<<16)
	add := func(from, to rune) {
		for r := from; r <= to; r++ {
			name := runenames.Name(r)
			if name == "" || name[0] == '<' {
				continue
			}
			if _, dup := runesByName[name]; !dup {
				runesByName[name] = r
			}
		}
	}
	// Planes 4 to 13 are unassigned and planes 15 and 16 are private use.
	add(0, 0xd7ff)
	add(0xe000, 0x3ffff)
	add(0xe0000, 0xeffff)

	per := len(hangulVowel) * len(hangulTail)
	for i := 0; i < len(hangulLead)*per; i++ {
		name := "HANGUL SYLLABLE " + hangulLead[i/per] + hangulVowel[(i%per)/len(hangulTail)] + hangulTail[i%len(hangulTail)]
		runesByName[name] = 0xac00 + rune(i)
	}
}
