package syntax

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestEscape(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"abc", "abc"},
		{"a+b", `a\+b`},
		{"(a)[b]{c}", `\(a\)\[b]\{c}`},
		{"a.b|c", `a\.b\|c`},
		{"^a$", `\^a\$`},
		{"100% #1", `100%\ \#1`},
		{"a\tb\nc", `a\tb\nc`},
		{"back\\slash", `back\\slash`},
		{"", ""},
	}

	for _, tt := range cases {
		assert.Equal(t, Escape(tt.in), tt.want, "input %q", tt.in)
	}
}

func TestUnescape(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"abc", "abc"},
		{`a\+b`, "a+b"},
		{`\x41\t`, "A\t"},
		{`\0`, "\x00"},
		{`\101`, "A"},
		{`\cM`, "\r"},
		{`\e`, "\x1b"},
		{`a\ b`, "a b"},
		{`\\`, `\`},
	}

	for _, tt := range cases {
		got, err := Unescape(tt.in)
		assert.NilError(t, err, "input %q", tt.in)
		assert.Equal(t, got, tt.want, "input %q", tt.in)
	}

	_, err := Unescape(`broken\`)
	assert.ErrorContains(t, err, "illegal escape")
}

func TestEscapeRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"plain",
		"a+b*c?d",
		"(paren) [class] {brace}",
		"^anchors$ and |pipes\\",
		"white\tspace\nmix\r\f here",
		"# comment chars #",
		"unicode: äöü 世界",
		"dollar $1 ${x}",
	}

	for _, s := range cases {
		back, err := Unescape(Escape(s))
		assert.NilError(t, err, "input %q", s)
		assert.Equal(t, back, s, "input %q", s)
	}
}
