package pyast

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// literal is the raw text of one Python string token split into parts.
type literal struct {
	prefix   string
	quoteLen int
	body     string
}

func (l literal) raw() bool   { return strings.ContainsAny(l.prefix, "rR") }
func (l literal) bytes() bool { return strings.ContainsAny(l.prefix, "bB") }
func (l literal) fmt() bool   { return strings.ContainsAny(l.prefix, "fF") }

// splitLiteral splits a string token such as rb'x' into prefix, quote
// length and body.
func splitLiteral(text string) literal {
	i := strings.IndexAny(text, `'"`)
	if i < 0 {
		return literal{body: text}
	}
	q := text[i]
	quoteLen := 1
	if len(text)-i >= 6 && text[i+1] == q && text[i+2] == q {
		quoteLen = 3
	}
	end := len(text) - quoteLen
	start := i + quoteLen
	if end < start {
		return literal{prefix: text[:i], quoteLen: quoteLen}
	}
	return literal{prefix: text[:i], quoteLen: quoteLen, body: text[start:end]}
}

// unescape decodes Python backslash escapes. Unknown escapes are kept
// verbatim, as the compiler does. Truncated hex escapes, out of range code
// points and malformed \N escapes are errors; the returned string is
// still decoded as far as possible.
func unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var (
		b      strings.Builder
		errOut error
	)
	fail := func(msg string) {
		if errOut == nil {
			errOut = errors.New(msg)
		}
	}
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		e := s[i]
		switch e {
		case '\n':
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '\\', '\'', '"':
			b.WriteByte(e)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			v := 0
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				v = v*8 + int(s[j]-'0')
				j++
			}
			b.WriteRune(rune(v))
			i = j - 1
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[e]
			r, ok := parseHex(s, i+1, width)
			if !ok {
				fail(fmt.Sprintf("truncated \\%c escape", e))
				b.WriteByte('\\')
				b.WriteByte(e)
				continue
			}
			if r > unicode.MaxRune {
				fail("illegal Unicode character")
				r = utf8.RuneError
			}
			if !utf8.ValidRune(r) {
				r = utf8.RuneError
			}
			b.WriteRune(r)
			i += width
		case 'N':
			end := -1
			if i+1 < len(s) && s[i+1] == '{' {
				end = strings.IndexByte(s[i+2:], '}')
			}
			if end <= 0 {
				fail("malformed \\N character escape")
				b.WriteString(`\N`)
				continue
			}
			name := s[i+2 : i+2+end]
			// Names outside the tables (mostly formal aliases) stay verbatim.
			if r, ok := lookupRune(name); ok {
				b.WriteRune(r)
			} else {
				b.WriteString(s[i-1 : i+3+end])
			}
			i += 2 + end
		default:
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String(), errOut
}

func parseHex(s string, at, width int) (rune, bool) {
	if at+width > len(s) {
		return 0, false
	}
	var v rune
	for _, c := range []byte(s[at : at+width]) {
		var d byte
		switch {
		case c >= '0' && c <= '9':
			d = c - '0'
		case c >= 'a' && c <= 'f':
			d = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			d = c - 'A' + 10
		default:
			return 0, false
		}
		v = v<<4 | rune(d)
	}
	return v, true
}

// decodeBody decodes the body of a non-bytes literal.
func decodeBody(body string, raw, fstring bool) (string, error) {
	if fstring {
		body = strings.NewReplacer("{{", "{", "}}", "}").Replace(body)
	}
	if raw {
		return body, nil
	}
	return unescape(body)
}
