package syntax

// Options is a bit set of parsing and matching options.
// Besides the boolean flags, two small enumerations are packed into
// dedicated bit ranges: the newline convention, which defines the characters
// matched by `^`, `$` and `.`, and the convention for `\R`.
// Options values are immutable within a compilation; the parser keeps a
// stack of local overrides for inline flag groups.
type Options uint32

// Possible option flags.
const (
	IgnoreCase         Options = 1 << iota // "i"; case-insensitive matching
	Multiline                              // "m"; ^ and $ match at line breaks
	Singleline                             // "s"; . matches any character
	ExtendedWhitespace                     // "x"; ignore unescaped whitespace and # comments
	ExplicitCapture                        // "n"; plain (...) groups do not capture
	RightToLeft                            // the pattern is matched from right to left
	ECMAScript                             // ECMAScript-compatible escape semantics
	CultureInvariant                       // case folding ignores the active locale
	Anchored                               // "A"; the match must start at the search position
	DollarEndOnly                          // "D"; $ only matches at the very end
	Ungreedy                               // "U"; quantifiers are lazy unless suffixed with ?
	UTF8                                   // "u"; the pattern is interpreted as UTF-8
	Extra                                  // "X"; unknown letter escapes are errors
	DupNames                               // "J"; group names may be used more than once
)

// Bit ranges of the two packed enumerations.
const (
	newlineShift = 16
	newlineMask  = 0x7 << newlineShift

	bsrShift = 20
	bsrMask  = 0x3 << bsrShift
)

// NewlineKind is the newline convention of a pattern.
// The default convention treats only `\n` as a line terminator.
type NewlineKind uint32

// Possible newline conventions, selectable with the pragmas
// `(*CR)`, `(*LF)`, `(*CRLF)`, `(*ANYCRLF)` and `(*ANY)`.
const (
	NewlineDefault NewlineKind = iota
	NewlineCR
	NewlineLF
	NewlineCRLF
	NewlineAnyCRLF
	NewlineAny
)

// BSRKind is the convention for the `\R` escape.
// The default convention matches `\r\n`, LF, VT, FF and CR, and in UTF-8
// mode also NEL, LS and PS, which the Unicode convention always matches.
type BSRKind uint32

// Possible conventions for `\R`, selectable with the pragmas
// `(*BSR_UNICODE)` and `(*BSR_ANYCRLF)`.
const (
	BSRDefault BSRKind = iota
	BSRUnicode
	BSRAnyCRLF
)

// Newline returns the newline convention stored in the options.
func (o Options) Newline() NewlineKind {
	return NewlineKind((o & newlineMask) >> newlineShift)
}

// WithNewline returns a copy of the options with the given newline convention.
func (o Options) WithNewline(nl NewlineKind) Options {
	return (o &^ newlineMask) | Options(nl)<<newlineShift
}

// BSR returns the `\R` convention stored in the options.
func (o Options) BSR() BSRKind {
	return BSRKind((o & bsrMask) >> bsrShift)
}

// WithBSR returns a copy of the options with the given `\R` convention.
func (o Options) WithBSR(b BSRKind) Options {
	return (o &^ bsrMask) | Options(b)<<bsrShift
}

// optionFromModifier returns the option flag of a trailing modifier letter.
// Letters without an effect ('S' and 'e') map to zero.
// The second return value is false for unknown letters.
func optionFromModifier(c byte) (Options, bool) {
	switch c {
	case 'i':
		return IgnoreCase, true
	case 'm':
		return Multiline, true
	case 's':
		return Singleline, true
	case 'x':
		return ExtendedWhitespace, true
	case 'n':
		return ExplicitCapture, true
	case 'A':
		return Anchored, true
	case 'D':
		return DollarEndOnly, true
	case 'U':
		return Ungreedy, true
	case 'u':
		return UTF8, true
	case 'X':
		return Extra, true
	case 'J':
		return DupNames, true
	case 'S', 'e':
		// "S" is a study hint and "e" the deprecated eval modifier;
		// both are accepted and ignored.
		return 0, true
	default:
		return 0, false
	}
}

// optionFromInlineFlag returns the option flag of a character inside an
// inline flag group `(?imsxnUJX-imsxnUJX:...)`.
// The second return value is false for characters, that are no flags.
func optionFromInlineFlag(c rune) (Options, bool) {
	switch c {
	case 'i':
		return IgnoreCase, true
	case 'm':
		return Multiline, true
	case 's':
		return Singleline, true
	case 'x':
		return ExtendedWhitespace, true
	case 'n':
		return ExplicitCapture, true
	case 'U':
		return Ungreedy, true
	case 'J':
		return DupNames, true
	case 'X':
		return Extra, true
	default:
		return 0, false
	}
}

// lineChars returns the set of line terminator characters of the convention.
// For the CRLF convention, the two-character sequence is handled separately
// by the callers, so the returned set is empty.
func (nl NewlineKind) lineChars() []rune {
	switch nl {
	case NewlineCR:
		return []rune{'\r'}
	case NewlineDefault, NewlineLF:
		return []rune{'\n'}
	case NewlineCRLF:
		return nil
	case NewlineAnyCRLF:
		return []rune{'\r', '\n'}
	case NewlineAny:
		return []rune{'\r', '\n', '\v', '\f', '\u0085', '\u2028', '\u2029'}
	default: // should never happen
		return nil
	}
}

// hasCRLF returns, whether the convention includes the two-character
// sequence `\r\n` as a single line terminator.
func (nl NewlineKind) hasCRLF() bool {
	switch nl {
	case NewlineCRLF, NewlineAnyCRLF, NewlineAny:
		return true
	default:
		return false
	}
}
