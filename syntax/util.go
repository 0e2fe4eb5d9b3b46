package syntax

import "strconv"

// isASCIILetter checks if a given character is an ASCII letter.
func isASCIILetter(c rune) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// isASCIILetterByte checks if a given byte is an ASCII letter.
func isASCIILetterByte(c byte) bool {
	return isASCIILetter(rune(c))
}

// isDigit checks if the given character is a decimal digit.
func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

// isDigitByte checks if the given byte is a decimal digit.
func isDigitByte(c byte) bool {
	return isDigit(rune(c))
}

// isOctDigit checks if the given character is an octal digit.
func isOctDigit(c rune) bool {
	return '0' <= c && c <= '7'
}

// isHexDigitByte checks if the given byte is a hexadecimal digit.
func isHexDigitByte(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// isHexDigit checks if the given character is a hexadecimal digit.
func isHexDigit(c rune) bool {
	return c <= 0x7f && isHexDigitByte(byte(c))
}

// toDigit returns the corresponding integer value of a character.
// The character must be a digit in the set "0123456789".
func toDigit(c rune) int {
	return int(c) - '0'
}

// toDigitByte returns the corresponding integer value of a byte representing
// a character. The byte must be a digit in the set "0123456789".
func toDigitByte(c byte) int {
	return toDigit(rune(c))
}

// parseIntRune parses a string representation of a number in the given base
// and returns the corresponding rune value. The input string is expected to
// be valid for the given base and should not overflow the int32 type.
func parseIntRune(s string, base int) rune {
	r, _ := strconv.ParseInt(s, base, 32)
	return rune(r)
}

// isWhitespace checks if a given character is a whitespace character.
func isWhitespace(c rune) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

// isWhitespaceByte checks if a given byte is a whitespace character.
func isWhitespaceByte(c byte) bool {
	return isWhitespace(rune(c))
}

// isVerbChar checks if a given character may appear in the name of a
// backtracking verb or pragma `(*NAME)`.
func isVerbChar(c rune) bool {
	return ('A' <= c && c <= 'Z') || isDigit(c) || c == '_'
}

// isWordChar checks if a given character may appear in a group name.
func isWordChar(c rune) bool {
	return isASCIILetter(c) || isDigit(c) || c == '_'
}
