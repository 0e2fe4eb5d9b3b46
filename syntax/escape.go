package syntax

import (
	"strings"
	"unicode/utf8"
)

// specialBytes contains 16 * 8 = 128 bits, where each bit represents one
// byte value. If the i-th bit is 1, the i-th byte character is a
// metacharacter, that needs to be escaped.
// This array represents the bytes of "\\*+?|{[()^$.# \t\n\r\f".
var specialBytes = [16]byte{
	0x04, 0x00, 0x00, 0x04, 0x04, 0x00, 0x00, 0x00,
	0x04, 0x05, 0x05, 0xa4, 0xa1, 0x01, 0x24, 0x08,
}

// special reports whether byte b needs to be escaped by Escape.
func special(b byte) bool {
	return b < utf8.RuneSelf && specialBytes[b%16]&(1<<(b/16)) != 0
}

// Escape returns a string with all pattern metacharacters backslashed, so
// that the result matches the argument literally. The whitespace characters
// are escaped with their letter forms.
func Escape(s string) string {
	var i int
	for i = 0; i < len(s); i++ {
		if special(s[i]) {
			break
		}
	}

	// no metacharacters, so return the original string
	if i >= len(s) {
		return s
	}

	var b strings.Builder
	b.Grow(2 * len(s))
	b.WriteString(s[:i])

	for ; i < len(s); i++ {
		c := s[i]
		if !special(c) {
			b.WriteByte(c)
			continue
		}

		b.WriteByte('\\')
		switch c {
		case '\n':
			c = 'n'
		case '\r':
			c = 'r'
		case '\t':
			c = 't'
		case '\f':
			c = 'f'
		}
		b.WriteByte(c)
	}

	return b.String()
}

// Unescape resolves all backslash escapes of the string with the character
// escape scanner of the parser, where characters without a special meaning
// represent themselves.
func Unescape(s string) (string, error) {
	i := strings.IndexByte(s, '\\')
	if i < 0 {
		return s, nil
	}

	var p parser
	p.s.init(s, 0)
	p.s.seek(i)

	var b strings.Builder
	b.Grow(len(s))
	b.WriteString(s[:i])

	for {
		c, ok := p.s.read()
		if !ok {
			break
		}

		if c == '\\' {
			c, err := p.scanCharEscape()
			if err != nil {
				return "", err
			}

			b.WriteRune(c)
			continue
		}

		b.WriteRune(c)
	}

	return b.String(), nil
}
