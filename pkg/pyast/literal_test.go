package pyast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitLiteral(t *testing.T) {
	tests := []struct {
		text     string
		prefix   string
		quoteLen int
		body     string
	}{
		{`'abc'`, "", 1, "abc"},
		{`rb"x"`, "rb", 1, "x"},
		{`'''a'b'''`, "", 3, "a'b"},
		{`f"""{x}"""`, "f", 3, "{x}"},
		{`''`, "", 1, ""},
		{`""""""`, "", 3, ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			lit := splitLiteral(tt.text)
			assert.Equal(t, tt.prefix, lit.prefix)
			assert.Equal(t, tt.quoteLen, lit.quoteLen)
			assert.Equal(t, tt.body, lit.body)
		})
	}
}

func TestUnescape(t *testing.T) {
	tests := map[string]string{
		`plain`:                          "plain",
		`a\nb`:                           "a\nb",
		`\101\x42`:                       "AB",
		`é`:                              "é",
		`\U0001F600`:                     "😀",
		`\q`:                             `\q`,
		`\N{BULLET}`:                     "•",
		`\N{bullet}`:                     "•",
		`\N{LINE FEED}`:                  "\n",
		`\N{NO-BREAK SPACE}`:             "\u00a0",
		`\N{CJK UNIFIED IDEOGRAPH-4E00}`: "一",
		`\N{HANGUL SYLLABLE GAG}`:        "각",
		`\N{NOT A REAL NAME}`:            `\N{NOT A REAL NAME}`,
		"line\\\nend":                    "lineend",
	}
	for in, want := range tests {
		got, err := unescape(in)
		require.NoError(t, err, "unescape(%q)", in)
		assert.Equal(t, want, got, "unescape(%q)", in)
	}
}

func TestUnescape_Errors(t *testing.T) {
	tests := map[string]string{
		`\xZZ`:       "truncated \\x escape",
		`\x4`:        "truncated \\x escape",
		`\u12`:       "truncated \\u escape",
		`\U00110000`: "illegal Unicode character",
		`\N`:         "malformed \\N character escape",
		`\N{}`:       "malformed \\N character escape",
		`\N{BULLET`:  "malformed \\N character escape",
	}
	for in, msg := range tests {
		_, err := unescape(in)
		require.Error(t, err, "unescape(%q)", in)
		assert.Equal(t, msg, err.Error(), "unescape(%q)", in)
	}
}

func TestDecodeBody(t *testing.T) {
	got, err := decodeBody("{{literal}}", false, true)
	require.NoError(t, err)
	assert.Equal(t, "{literal}", got)

	got, err = decodeBody(`\d{{x}}`, true, true)
	require.NoError(t, err)
	assert.Equal(t, `\d{x}`, got)

	got, err = decodeBody(`\x4`, true, false)
	require.NoError(t, err, "raw literals keep escapes")
	assert.Equal(t, `\x4`, got)
}
