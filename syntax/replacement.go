package syntax

import (
	"strconv"
	"strings"
)

// Special replacement rule codes.
// Non-negative rules index the string table; the codes below insert match
// portions, and rules less than or equal to replSlotBase insert the capture
// of the encoded dense slot.
const (
	ReplLeftPortion  = -1 // $` ; the input left of the match
	ReplRightPortion = -2 // $' ; the input right of the match
	ReplLastGroup    = -3 // $+ ; the last matched group
	ReplWholeString  = -4 // $_ ; the whole input

	replSlotBase = -5
)

// SlotRule encodes a capture slot as a replacement rule.
func SlotRule(slot int) int {
	return replSlotBase - slot
}

// RuleSlot decodes a capture slot rule; the second return value is false
// for rules, that are no slot references.
func RuleSlot(rule int) (int, bool) {
	if rule > replSlotBase {
		return 0, false
	}

	return replSlotBase - rule, true
}

// Replacement is the parsed form of a replacement string: a list of rules,
// that an applier concatenates for every match. In right-to-left mode the
// applier walks the rules in reverse and reverses the buffer at the end.
type Replacement struct {
	Pattern string
	Rules   []int
	Strings []string
}

// ParseReplacement parses a replacement string against the capture
// bookkeeping of a compiled pattern.
// The minilanguage knows $&, $`, $', $+, $_, $N and ${name} references,
// backslash character escapes and `\N` digit backreferences; a dollar sign,
// that introduces none of these, stays literal, and so does a numeric
// reference to an undeclared slot.
func ParseReplacement(rep string, opts Options, caps map[int]int, capsize int, capnames map[string]int) (*Replacement, error) {
	p := &parser{options: opts}
	p.s.init(rep, 0)

	r := &Replacement{Pattern: rep}

	var literal strings.Builder
	stringIndex := make(map[string]int)

	flush := func() {
		if literal.Len() > 0 {
			s := literal.String()
			i, ok := stringIndex[s]
			if !ok {
				i = len(r.Strings)
				stringIndex[s] = i
				r.Strings = append(r.Strings, s)
			}
			r.Rules = append(r.Rules, i)
			literal.Reset()
		}
	}

	addSlot := func(slot int) {
		flush()
		r.Rules = append(r.Rules, SlotRule(mapSlot(slot, caps)))
	}

	for {
		c, ok := p.s.read()
		if !ok {
			break
		}

		switch c {
		case '\\':
			if b, ok := p.s.peekByte(); ok && isDigitByte(b) {
				slot, _, err := p.s.nextInt()
				if err != nil {
					return nil, err
				}

				if slotDeclared(slot, caps, capsize) {
					addSlot(slot)
				} else {
					literal.WriteByte('\\')
					literal.WriteString(strconv.Itoa(slot))
				}
				continue
			}

			ch, err := p.scanCharEscape()
			if err != nil {
				return nil, err
			}

			literal.WriteRune(ch)

		case '$':
			b, ok := p.s.peekByte()
			if !ok {
				literal.WriteByte('$')
				continue
			}

			switch {
			case b == '&':
				p.s.skip()
				addSlot(0)

			case b == '`':
				p.s.skip()
				flush()
				r.Rules = append(r.Rules, ReplLeftPortion)

			case b == '\'':
				p.s.skip()
				flush()
				r.Rules = append(r.Rules, ReplRightPortion)

			case b == '+':
				p.s.skip()
				flush()
				r.Rules = append(r.Rules, ReplLastGroup)

			case b == '_':
				p.s.skip()
				flush()
				r.Rules = append(r.Rules, ReplWholeString)

			case b == '{':
				p.s.skip()

				if d, ok := p.s.peekByte(); ok && isDigitByte(d) {
					slot, _, err := p.s.nextInt()
					if err != nil {
						return nil, err
					}
					if !p.s.match('}') {
						return nil, p.s.errorh(ErrMalformedNameRef)
					}

					if slotDeclared(slot, caps, capsize) {
						addSlot(slot)
					} else {
						literal.WriteString("${")
						literal.WriteString(strconv.Itoa(slot))
						literal.WriteByte('}')
					}
					continue
				}

				name, _, err := p.scanCapname('}')
				if err != nil {
					return nil, err
				}

				slot, ok := capnames[name]
				if !ok {
					return nil, p.s.errord(ErrUndefinedNameRef, name)
				}

				addSlot(slot)

			case isDigitByte(b):
				slot, _, err := p.s.nextInt()
				if err != nil {
					return nil, err
				}

				if slotDeclared(slot, caps, capsize) {
					addSlot(slot)
				} else {
					literal.WriteByte('$')
					literal.WriteString(strconv.Itoa(slot))
				}

			default:
				literal.WriteByte('$')
			}

		default:
			literal.WriteRune(c)
		}
	}

	flush()

	return r, nil
}

// slotDeclared checks, whether the external slot exists in the compiled
// pattern.
func slotDeclared(slot int, caps map[int]int, capsize int) bool {
	if caps != nil {
		_, ok := caps[slot]
		return ok
	}

	return slot < capsize
}

// mapSlot translates an external slot into its dense index.
func mapSlot(slot int, caps map[int]int) int {
	if caps != nil {
		return caps[slot]
	}

	return slot
}
