package syntax

import (
	"strings"
	"unicode/utf8"
)

// source represents a reader over the pattern body.
// The attributes may only be changed by using its functions.
// Because the body is a substring of the raw user input, the reader carries
// the byte offset of the body, so that error positions always refer to the
// raw input.
type source struct {
	orig string // pattern body
	cur  string // current cursor
	base int    // offset of the body in the raw user input
}

// init initializes the reader.
func (s *source) init(body string, base int) {
	s.orig = body
	s.cur = body
	s.base = base
}

// tell returns the current read position relative to the pattern body.
func (s *source) tell() int {
	return len(s.orig) - len(s.cur)
}

// seek sets the current read position.
func (s *source) seek(pos int) {
	s.cur = s.orig[pos:]
}

// more returns, whether characters are left to read.
func (s *source) more() bool {
	return len(s.cur) > 0
}

// read reads the next UTF-8 character.
// If the current read position is at the end of the body, the second return
// value is false. If the next byte does not start a valid UTF-8 sequence,
// the single byte is returned instead.
func (s *source) read() (rune, bool) {
	if len(s.cur) == 0 {
		return 0, false
	}

	c, size := utf8.DecodeRuneInString(s.cur)
	if c == utf8.RuneError {
		c = rune(s.cur[0])
		size = 1
	}

	s.cur = s.cur[size:]

	return c, true
}

// peek determines the next UTF-8 character.
// This function is equivalent with `read()`, except, that the current read
// position is not increased.
func (s *source) peek() (rune, bool) {
	if len(s.cur) == 0 {
		return 0, false
	}

	c, _ := utf8.DecodeRuneInString(s.cur)
	if c == utf8.RuneError {
		c = rune(s.cur[0])
	}

	return c, true
}

// peekByte determines the next byte without moving the read position.
func (s *source) peekByte() (byte, bool) {
	if len(s.cur) == 0 {
		return 0, false
	}

	return s.cur[0], true
}

// skip moves the read position over the next character.
func (s *source) skip() {
	s.read()
}

// match returns, whether the next character matches the given character.
// If it does, the read position is moved to the following character.
func (s *source) match(c rune) bool {
	ch, width := utf8.DecodeRuneInString(s.cur)
	if ch == c {
		s.cur = s.cur[width:]
		return true
	}

	return false
}

// matchString returns, whether the body continues with the given string.
// If it does, the read position is moved past it.
func (s *source) matchString(str string) bool {
	if len(s.cur) < len(str) || s.cur[:len(str)] != str {
		return false
	}

	s.cur = s.cur[len(str):]

	return true
}

// skipPast skips all characters up to and including the given character and
// returns the skipped characters. If the character is not found, the read
// position does not move and the second return value is false.
func (s *source) skipPast(c rune) (string, bool) {
	pre, rest, ok := strings.Cut(s.cur, string(c))
	if !ok {
		return "", false
	}

	s.cur = rest

	return pre, true
}

// nextInt returns the decimal integer at the current read position.
// If no integer exists, the second return value is false.
// The read position is moved to the first character, that is no digit.
// On overflow of the int type, the capture range error is returned.
func (s *source) nextInt() (int, bool, error) {
	var i, prev int
	found := false

	for len(s.cur) > 0 {
		if !isDigitByte(s.cur[0]) {
			break
		}

		prev = i
		i = 10*i + toDigitByte(s.cur[0])
		if i < prev {
			return 0, false, s.errorh(ErrCaptureOutOfRange)
		}

		found = true
		s.cur = s.cur[1:]
	}

	return i, found, nil
}

// nextHex returns the hexadecimal string at the current read position, with
// a maximum length of n. The read position is moved to the first character,
// that is no hexadecimal digit.
func (s *source) nextHex(n int) string {
	return s.nextFunc(n, isHexDigitByte)
}

// nextOct returns the octal string at the current read position, with a
// maximum length of n. The read position is moved to the first character,
// that is no octal digit.
func (s *source) nextOct(n int) string {
	return s.nextFunc(n, func(r byte) bool {
		return '0' <= r && r <= '7'
	})
}

// nextFunc returns the string at the current read position, where each byte
// matches the function `fn`. The string has a maximum length of n bytes.
func (s *source) nextFunc(n int, fn func(r byte) bool) string {
	e := len(s.cur)
	for i := 0; i < len(s.cur); i++ {
		if i >= n || !fn(s.cur[i]) {
			e = i
			break
		}
	}

	res := s.cur[:e]
	s.cur = s.cur[e:]

	return res
}

// errorp returns a new error at the given position of the pattern body.
// The position is translated into an offset of the raw user input.
func (s *source) errorp(code ErrorCode, pos int) error {
	return newError(code, s.base+pos)
}

// errorh is equivalent to errorp for the current position.
func (s *source) errorh(code ErrorCode) error {
	return s.errorp(code, s.tell())
}

// erroro is equivalent to errorp for the current position minus the given
// offset.
func (s *source) erroro(code ErrorCode, offset int) error {
	return s.errorp(code, s.tell()-offset)
}

// errord is equivalent to errorh with an additional detail string.
func (s *source) errord(code ErrorCode, details string) error {
	return newErrorDetails(code, s.base+s.tell(), details)
}

// clen returns the number of bytes of the given character.
// This function can be used, to calculate the offset for an error.
func (s *source) clen(c rune) int {
	l := utf8.RuneLen(c)
	if l < 0 {
		l = 1
	}

	return l
}
