package syntax

import "strings"

// preprocessed is the result of preprocessing a raw delimited pattern.
// It holds the pattern body, the byte offset of the body in the raw input
// and the options collected from trailing modifiers and leading pragmas.
type preprocessed struct {
	body    string
	base    int
	options Options
}

// preprocess strips the pattern delimiters, collects the trailing modifier
// letters and consumes leading `(*NAME)` sequences, that select options.
// The initial options are combined with the options found in the pattern.
func preprocess(raw string, opts Options) (*preprocessed, error) {
	// scan the trailing modifiers from the right end
	end := len(raw)
	for end > 0 {
		c := raw[end-1]
		if !isASCIILetterByte(c) && !isWhitespaceByte(c) {
			break
		}
		end--
	}

	for i := end; i < len(raw); i++ {
		c := raw[i]
		if isWhitespaceByte(c) {
			continue
		}

		o, ok := optionFromModifier(c)
		if !ok {
			return nil, newErrorDetails(ErrUnknownModifier, i, string(c))
		}

		opts |= o
	}

	// strip the delimiters
	start := 0
	for start < len(raw) && isWhitespaceByte(raw[start]) {
		start++
	}

	if start >= end {
		return nil, newError(ErrEmptyRegex, start)
	}

	open := raw[start]
	if isASCIILetterByte(open) || isDigitByte(open) || open == '\\' {
		return nil, newErrorDetails(ErrNoEndDelimiter, start, "invalid delimiter")
	}

	if end-start < 2 || raw[end-1] != closingDelimiter(open) {
		return nil, newError(ErrNoEndDelimiter, end-1)
	}

	p := &preprocessed{
		body: raw[start+1 : end-1],
		base: start + 1,
	}

	if p.body == "" {
		return nil, newError(ErrEmptyRegex, start)
	}

	// consume the leading (*NAME) sequences, that select options;
	// an unknown name ends the preprocessing, because it may be a
	// backtracking verb, that the parser handles itself
	for {
		rest, ok := strings.CutPrefix(p.body, "(*")
		if !ok {
			break
		}

		name, _, ok := strings.Cut(rest, ")")
		if !ok || !isVerbName(name) {
			break
		}

		o, ok := applyPragma(opts, name)
		if !ok {
			break
		}

		opts = o
		p.body = p.body[len(name)+len("(*)"):]
		p.base += len(name) + len("(*)")
	}

	p.options = opts

	return p, nil
}

// closingDelimiter returns the closing delimiter belonging to an opening
// delimiter. Bracket delimiters close with their mirrored counterpart, all
// others with themselves.
func closingDelimiter(open byte) byte {
	switch open {
	case '[':
		return ']'
	case '(':
		return ')'
	case '{':
		return '}'
	case '<':
		return '>'
	default:
		return open
	}
}

// isVerbName checks, whether the string is a valid pragma or verb name.
func isVerbName(name string) bool {
	if name == "" {
		return false
	}

	for _, c := range name {
		if !isVerbChar(c) {
			return false
		}
	}

	return true
}

// applyPragma applies a leading `(*NAME)` option sequence.
// The second return value is false for names, that do not select options.
func applyPragma(opts Options, name string) (Options, bool) {
	switch name {
	case "UTF8":
		return opts | UTF8, true
	case "BSR_UNICODE":
		return opts.WithBSR(BSRUnicode), true
	case "BSR_ANYCRLF":
		return opts.WithBSR(BSRAnyCRLF), true
	case "CR":
		return opts.WithNewline(NewlineCR), true
	case "LF":
		return opts.WithNewline(NewlineLF), true
	case "CRLF":
		return opts.WithNewline(NewlineCRLF), true
	case "ANYCRLF":
		return opts.WithNewline(NewlineAnyCRLF), true
	case "ANY":
		return opts.WithNewline(NewlineAny), true
	default:
		return opts, false
	}
}
