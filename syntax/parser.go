package syntax

import (
	"slices"
	"strings"
	"unicode"
)

// RegexTree is the parsed form of a pattern: the root node of the regex tree
// together with the capture bookkeeping collected by the prescan.
type RegexTree struct {
	root        *regexNode
	caps        map[int]int    // external slot -> position of its opening parenthesis
	capnames    map[string]int // group name -> external slot
	capnamelist []string       // group names in declaration order
	capnumlist  []int          // sorted slots; nil when contiguous
	captop      int            // one past the maximum used slot
	options     Options
}

// Options returns the resolved global options of the pattern.
func (t *RegexTree) Options() Options {
	return t.options
}

// CaptureCount returns the number of capturing slots, including the whole
// match slot zero.
func (t *RegexTree) CaptureCount() int {
	if t.capnumlist != nil {
		return len(t.capnumlist)
	}

	return t.captop
}

// CaptureNames returns the declared group names in declaration order.
func (t *RegexTree) CaptureNames() []string {
	return slices.Clone(t.capnamelist)
}

// SlotOfName returns the external slot of a group name.
func (t *RegexTree) SlotOfName(name string) (int, bool) {
	slot, ok := t.capnames[name]
	return slot, ok
}

// Dump returns an indented description of the regex tree.
func (t *RegexTree) Dump() string {
	return t.root.treeDump()
}

// branchResetFrame is the bookkeeping of an open branch-reset group `(?|...)`.
// Sibling alternatives of the group share their capture slots, so the
// auto-capture counter is reset at each top-level alternation sign and the
// running maximum is restored on close.
type branchResetFrame struct {
	startAutocap int // slot counter at entry
	maxAutocap   int // maximum slot counter over all alternatives
	depth        int // group depth of the branch-reset group
}

// parser is the state of a pattern compilation.
//
// The four node registers hold the currently assembled tree parts: the open
// group, its accumulating alternation, the current concatenation run and the
// last scanned atom, that may still receive a quantifier. Outer groups are
// saved on an explicit stack linked through the nodes' next pointers, so
// that deeply nested patterns do not consume host stack.
type parser struct {
	s       source
	options Options

	optionsStack []Options

	stack         *regexNode
	group         *regexNode
	alternation   *regexNode
	concatenation *regexNode
	unit          *regexNode

	caps        map[int]int
	capnames    map[string]int
	capnamelist []string
	capnumlist  []int
	capposlist  []capturePosition
	captop      int
	autocap     int

	branchFrames []branchResetFrame
	groupDepth   int

	ignoreNextParen bool
	lastWasQuant    bool

	// scanOnly is set during the capture prescan; scanners consume their
	// input and note capture slots, but build no nodes and skip the
	// resolution of named and numbered references.
	scanOnly bool
}

// capturePosition relates a capture slot to the position of its opening
// parenthesis; the list sorted by position resolves relative subroutine
// calls like `(?+2)`.
type capturePosition struct {
	pos  int
	slot int
}

// Parse parses a delimited pattern into a regex tree.
// The options given here are combined with the trailing modifier letters and
// the leading `(*NAME)` pragmas of the pattern.
func Parse(raw string, opts Options) (*RegexTree, error) {
	pre, err := preprocess(raw, opts)
	if err != nil {
		return nil, err
	}

	p := &parser{
		caps:     make(map[int]int),
		capnames: make(map[string]int),
		captop:   1,
		autocap:  1,
	}
	p.s.init(pre.body, pre.base)
	p.options = pre.options
	p.caps[0] = -1

	if err := p.countCaptures(); err != nil {
		return nil, err
	}
	if err := p.assignNameSlots(); err != nil {
		return nil, err
	}

	p.reset(pre.options)

	root, err := p.scanRegex()
	if err != nil {
		return nil, err
	}

	tree := &RegexTree{
		root:        root,
		caps:        p.caps,
		capnames:    p.capnames,
		capnamelist: p.capnamelist,
		capnumlist:  p.capnumlist,
		captop:      p.captop,
		options:     pre.options,
	}

	return tree, nil
}

// reset restores the scanner state for the second pass.
func (p *parser) reset(opts Options) {
	p.s.seek(0)
	p.options = opts
	p.optionsStack = p.optionsStack[:0]
	p.stack = nil
	p.group = nil
	p.alternation = nil
	p.concatenation = nil
	p.unit = nil
	p.autocap = 1
	p.branchFrames = p.branchFrames[:0]
	p.groupDepth = 0
	p.ignoreNextParen = false
	p.lastWasQuant = false
}

// option helpers

func (p *parser) useOptionX() bool {
	return p.options&ExtendedWhitespace != 0
}

func (p *parser) useOptionI() bool {
	return p.options&IgnoreCase != 0
}

func (p *parser) useOptionE() bool {
	return p.options&ECMAScript != 0
}

// pushOptions saves the current options on the options stack.
func (p *parser) pushOptions() {
	p.optionsStack = append(p.optionsStack, p.options)
}

// popOptions restores the options saved by the matching pushOptions.
func (p *parser) popOptions() {
	n := len(p.optionsStack)
	p.options = p.optionsStack[n-1]
	p.optionsStack = p.optionsStack[:n-1]
}

// popKeepOptions discards the saved options but keeps the current ones.
// This realises tail-less inline switches like `(?i)`, that modify the
// enclosing scope.
func (p *parser) popKeepOptions() {
	p.optionsStack = p.optionsStack[:len(p.optionsStack)-1]
}

// register operations

// startGroup begins assembling the given open group node.
func (p *parser) startGroup(open *regexNode) {
	p.group = open
	p.alternation = newNode(ntAlternate, p.options)
	p.concatenation = newNode(ntConcatenate, p.options)
}

// pushGroup saves the current registers on the parser stack.
func (p *parser) pushGroup() {
	p.group.next = p.stack
	p.alternation.next = p.group
	p.concatenation.next = p.alternation
	p.stack = p.concatenation
	p.groupDepth++
}

// popGroup restores the registers of the enclosing group.
// If the enclosing group is a conditional, that still misses its condition,
// the just closed group becomes the condition.
func (p *parser) popGroup() error {
	p.concatenation = p.stack
	p.alternation = p.concatenation.next
	p.group = p.alternation.next
	p.stack = p.group.next
	p.groupDepth--

	if p.group.t == ntTestgroup && p.group.childCount() == 0 {
		if p.unit == nil {
			return p.s.errorh(ErrUnrecognizedGrouping)
		}

		p.group.addChild(p.unit)
		p.unit = nil
	}

	return nil
}

// flushConcatenation finishes the current concatenation run and returns it,
// restoring the child order for right-to-left parts.
func (p *parser) flushConcatenation() *regexNode {
	c := p.concatenation
	if c.options&RightToLeft != 0 {
		c.reverseChildren()
	}

	return c.reduce()
}

// addAlternate closes the current concatenation at an alternation sign.
func (p *parser) addAlternate() {
	if p.group.t == ntTestgroup || p.group.t == ntTestref || p.group.t == ntDefine {
		p.group.addChild(p.flushConcatenation())
	} else {
		p.alternation.addChild(p.flushConcatenation())
	}

	p.concatenation = newNode(ntConcatenate, p.options)
	p.unit = nil
	p.lastWasQuant = false

	// in a branch-reset group, sibling alternatives share their slots
	if n := len(p.branchFrames); n > 0 && p.branchFrames[n-1].depth == p.groupDepth {
		f := &p.branchFrames[n-1]
		f.maxAutocap = max(f.maxAutocap, p.autocap)
		p.autocap = f.startAutocap
	}
}

// addGroup finishes the open group at a closing parenthesis or at the end of
// the pattern and leaves the assembled group as the current unit.
func (p *parser) addGroup() error {
	switch p.group.t {
	case ntTestgroup, ntTestref:
		p.group.addChild(p.flushConcatenation())

		if (p.group.t == ntTestref && p.group.childCount() > 2) || p.group.childCount() > 3 {
			return p.s.errorh(ErrTooManyAlternates)
		}
	case ntDefine:
		p.group.addChild(p.flushConcatenation())

		if p.group.childCount() > 1 {
			return p.s.errorh(ErrDefineTooManyBranches)
		}
	default:
		p.alternation.addChild(p.flushConcatenation())
		p.group.addChild(p.alternation.reduce())
	}

	// restore the shared slot maximum of a closing branch-reset group
	if n := len(p.branchFrames); n > 0 && p.branchFrames[n-1].depth == p.groupDepth {
		f := p.branchFrames[n-1]
		p.autocap = max(f.maxAutocap, p.autocap)
		p.branchFrames = p.branchFrames[:n-1]
	}

	p.unit = p.group
	return nil
}

// addUnit makes the node the current unit, that may receive a quantifier.
func (p *parser) addUnit(n *regexNode) {
	p.unit = n
}

// commitUnit attaches the current unit to the concatenation, wrapping it
// into a loop if a quantifier follows.
func (p *parser) commitUnit() error {
	if p.unit == nil {
		return nil
	}

	if p.useOptionX() {
		p.skipBlank()
	}

	c, ok := p.s.peek()
	if ok && (c == '*' || c == '+' || c == '?' || (c == '{' && p.isTrueQuantifier())) {
		p.s.skip()
		return p.scanQuantifier(c)
	}

	p.concatenation.addChild(p.unit)
	p.unit = nil
	p.lastWasQuant = false

	return nil
}

// main scan

// scanRegex is the outer parsing loop over the pattern body.
func (p *parser) scanRegex() (*regexNode, error) {
	root := newNodeMN(ntCapture, p.options, 0, -1)
	p.startGroup(root)

	for {
		if p.useOptionX() {
			p.skipBlank()
		}
		if !p.s.more() {
			break
		}

		if err := p.scanLiteralRun(); err != nil {
			return nil, err
		}

		c, ok := p.s.peek()
		if !ok {
			break
		}
		if p.useOptionX() && (isWhitespace(c) || c == '#') {
			continue
		}

		// a literal run, that consumed its quantifier or trailing blanks,
		// may be followed directly by the next literal run
		switch c {
		case '[', '(', ')', '|', '\\', '^', '$', '.', '*', '+', '?':
		case '{':
			if !p.isTrueQuantifier() {
				continue
			}
		default:
			continue
		}

		p.s.skip()

		switch c {
		case '[':
			n, err := p.scanCharClass()
			if err != nil {
				return nil, err
			}

			p.addUnit(n)
			if err := p.commitUnit(); err != nil {
				return nil, err
			}

		case '(':
			p.pushOptions()

			n, isGroup, err := p.scanGroupOpen()
			if err != nil {
				return nil, err
			}

			if isGroup {
				p.pushGroup()
				p.startGroup(n)
			} else {
				p.popKeepOptions()

				if n != nil {
					p.addUnit(n)
					if err := p.commitUnit(); err != nil {
						return nil, err
					}
				}
			}

		case ')':
			if p.stack == nil {
				return nil, p.s.erroro(ErrTooManyParens, 1)
			}

			if err := p.addGroup(); err != nil {
				return nil, err
			}
			if err := p.popGroup(); err != nil {
				return nil, err
			}
			p.popOptions()

			if err := p.commitUnit(); err != nil {
				return nil, err
			}

		case '|':
			p.addAlternate()

		case '\\':
			n, err := p.scanBackslash()
			if err != nil {
				return nil, err
			}

			p.addUnit(n)
			if err := p.commitUnit(); err != nil {
				return nil, err
			}

		case '^':
			p.addUnit(p.makeBol())
			if err := p.commitUnit(); err != nil {
				return nil, err
			}

		case '$':
			p.addUnit(p.makeEol())
			if err := p.commitUnit(); err != nil {
				return nil, err
			}

		case '.':
			p.addUnit(p.makeAnyChar())
			if err := p.commitUnit(); err != nil {
				return nil, err
			}

		case '*', '+', '?', '{':
			// a quantifier directly after an atom is consumed by
			// commitUnit, so reaching one here means there is no atom
			if p.lastWasQuant {
				return nil, p.s.erroro(ErrNestedQuantifier, 1)
			}

			return nil, p.s.erroro(ErrNothingToQuantify, 1)

		default: // should never happen
			return nil, p.s.errorh(ErrInternal)
		}
	}

	if p.stack != nil {
		return nil, p.s.errorh(ErrNotEnoughParens)
	}

	if err := p.addGroup(); err != nil {
		return nil, err
	}

	return p.unit, nil
}

// scanLiteralRun scans a run of ordinary characters and attaches it to the
// concatenation. If the run is directly followed by a quantifier, its last
// character is kept back as the quantified unit.
func (p *parser) scanLiteralRun() error {
	start := p.s.tell()

	for {
		c, ok := p.s.peek()
		if !ok {
			break
		}
		if p.useOptionX() && (isWhitespace(c) || c == '#') {
			break
		}

		switch c {
		case '\\', '[', '(', ')', '|', '^', '$', '.', '*', '+', '?':
			goto done
		case '{':
			if p.isTrueQuantifier() {
				goto done
			}
		}

		p.s.skip()
	}

done:
	end := p.s.tell()
	if end == start {
		return nil
	}

	run := p.s.orig[start:end]
	if p.useOptionI() {
		run = strings.ToLower(run)
	}

	// in x-mode a quantifier may be separated from its atom by blanks
	if p.useOptionX() {
		p.skipBlank()
	}

	c, ok := p.s.peek()
	quantifies := ok && (c == '*' || c == '+' || c == '?' || (c == '{' && p.isTrueQuantifier()))

	runes := []rune(run)
	if quantifies {
		// the quantifier binds only the last character of the run
		if len(runes) > 1 {
			p.addRunNode(runes[:len(runes)-1])
		}

		p.addUnit(newNodeCh(ntOne, p.options, runes[len(runes)-1]))
		return p.commitUnit()
	}

	p.addRunNode(runes)
	return nil
}

// addRunNode attaches a literal run to the concatenation.
func (p *parser) addRunNode(runes []rune) {
	if len(runes) == 1 {
		p.concatenation.addChild(newNodeCh(ntOne, p.options, runes[0]))
	} else {
		p.concatenation.addChild(newNodeStr(ntMulti, p.options, string(runes)))
	}

	p.lastWasQuant = false
}

// skipBlank skips whitespace and end-of-line comments in x-mode.
func (p *parser) skipBlank() {
	for {
		c, ok := p.s.peek()
		if !ok {
			return
		}

		if isWhitespace(c) {
			p.s.skip()
		} else if c == '#' {
			p.s.skip()
			p.skipToNewline()
		} else {
			return
		}
	}
}

// skipToNewline skips the rest of the current line.
func (p *parser) skipToNewline() {
	for {
		c, ok := p.s.read()
		if !ok || c == '\n' {
			return
		}
	}
}

// quantifiers

// isTrueQuantifier checks, whether the read position is at a counted
// quantifier `{n}`, `{n,}` or `{n,m}`. Any other brace is an ordinary
// character.
func (p *parser) isTrueQuantifier() bool {
	rest := p.s.cur
	if len(rest) == 0 || rest[0] != '{' {
		return false
	}

	i := 1
	for i < len(rest) && isDigitByte(rest[i]) {
		i++
	}
	if i == 1 {
		return false
	}

	if i < len(rest) && rest[i] == ',' {
		i++
		for i < len(rest) && isDigitByte(rest[i]) {
			i++
		}
	}

	return i < len(rest) && rest[i] == '}'
}

// scanQuantifier wraps the current unit into a loop node.
// The quantifier character has already been consumed. A `?` suffix makes
// the loop lazy, a `+` suffix possessive; under the Ungreedy option the
// greedy and lazy meaning is inverted unless the loop is possessive.
func (p *parser) scanQuantifier(c rune) error {
	here := p.s.tell() - 1

	var qmin, qmax int
	switch c {
	case '*':
		qmin, qmax = 0, infinite
	case '+':
		qmin, qmax = 1, infinite
	case '?':
		qmin, qmax = 0, 1
	case '{':
		n, _, err := p.s.nextInt()
		if err != nil {
			return err
		}

		qmin = n
		qmax = qmin

		if p.s.match(',') {
			if b, ok := p.s.peekByte(); ok && isDigitByte(b) {
				qmax, _, err = p.s.nextInt()
				if err != nil {
					return err
				}
			} else {
				qmax = infinite
			}
		}

		// guaranteed by isTrueQuantifier
		if !p.s.match('}') {
			return p.s.errorh(ErrInternal)
		}

		if qmax != infinite && qmin > qmax {
			return p.s.errorp(ErrIllegalRange, here)
		}
	}

	if p.useOptionX() {
		p.skipBlank()
	}

	lazy := false
	possessive := false
	if p.s.match('?') {
		lazy = true
	} else if p.s.match('+') {
		possessive = true
	}

	if p.options&Ungreedy != 0 && !possessive {
		lazy = !lazy
	}

	n := p.unit.makeQuantifier(lazy, qmin, qmax)
	if possessive {
		g := newNode(ntGreedy, p.options)
		g.addChild(n)
		n = g
	}

	p.unit = nil
	p.concatenation.addChild(n)
	p.lastWasQuant = true

	return nil
}

// groups

// scanGroupOpen scans the characters after an opening parenthesis.
// For constructs, that open a group, the returned node is the open group
// node and the second return value is true. Constructs, that form a leaf
// (verbs, named backreferences and subroutine calls), return the finished
// leaf. Comments and tail-less inline option switches return nil.
func (p *parser) scanGroupOpen() (*regexNode, bool, error) {
	start := p.s.tell() - 1

	c, ok := p.s.peek()
	if !ok || (c != '?' && c != '*') {
		return p.openCapture(start, "", -1)
	}

	if c == '*' {
		p.s.skip()

		n, err := p.scanVerb(start)
		return n, false, err
	}

	p.s.skip() // the '?'

	c, ok = p.s.read()
	if !ok {
		return nil, false, p.s.errorh(ErrUnrecognizedGrouping)
	}

	switch c {
	case ':':
		return newNode(ntGroup, p.options), true, nil

	case '=':
		p.options &^= RightToLeft
		return newNode(ntRequire, p.options), true, nil

	case '!':
		p.options &^= RightToLeft
		return newNode(ntPrevent, p.options), true, nil

	case '>':
		return newNode(ntGreedy, p.options), true, nil

	case '#':
		if _, ok := p.s.skipPast(')'); !ok {
			return nil, false, p.s.errorp(ErrUnterminatedComment, start)
		}

		return nil, false, nil

	case '|':
		p.branchFrames = append(p.branchFrames, branchResetFrame{
			startAutocap: p.autocap,
			maxAutocap:   p.autocap,
			depth:        p.groupDepth + 1,
		})

		return newNode(ntGroup, p.options), true, nil

	case '<':
		c, ok = p.s.peek()
		if !ok {
			return nil, false, p.s.errorh(ErrUnrecognizedGrouping)
		}

		if c == '=' {
			p.s.skip()
			p.options |= RightToLeft
			return newNode(ntRequire, p.options), true, nil
		}
		if c == '!' {
			p.s.skip()
			p.options |= RightToLeft
			return newNode(ntPrevent, p.options), true, nil
		}

		name, pos, err := p.scanCapname('>')
		if err != nil {
			return nil, false, err
		}

		return p.openCapture(start, name, pos)

	case '\'':
		name, pos, err := p.scanCapname('\'')
		if err != nil {
			return nil, false, err
		}

		return p.openCapture(start, name, pos)

	case 'P':
		c, ok = p.s.read()
		if !ok {
			return nil, false, p.s.errorh(ErrUnrecognizedGrouping)
		}

		switch c {
		case '<':
			name, pos, err := p.scanCapname('>')
			if err != nil {
				return nil, false, err
			}

			return p.openCapture(start, name, pos)

		case '=':
			// named backreference
			n, err := p.scanNamedRef(')')
			return n, false, err

		case '>':
			// subroutine call by name
			n, err := p.scanNamedCall(start)
			return n, false, err

		default:
			return nil, false, p.s.erroro(ErrUnrecognizedGrouping, p.s.clen(c))
		}

	case '(':
		return p.scanConditional(start)

	case '&':
		n, err := p.scanNamedCall(start)
		return n, false, err

	case 'R':
		if !p.s.match(')') {
			return nil, false, p.s.errorh(ErrUnrecognizedGrouping)
		}

		return p.makeCall(0), false, nil

	case '+', '-':
		if b, ok := p.s.peekByte(); ok && isDigitByte(b) {
			n, err := p.scanRelativeCall(start, c == '-')
			return n, false, err
		}

		if c == '+' {
			return nil, false, p.s.erroro(ErrUnrecognizedGrouping, 1)
		}

		// "(?-" starts an inline flag switch
		fallthrough

	default:
		if isDigit(c) {
			n, err := p.scanNumberedCall(start)
			return n, false, err
		}

		if _, ok := optionFromInlineFlag(c); ok || c == '-' {
			return p.scanInlineFlags(c)
		}

		return nil, false, p.s.erroro(ErrUnrecognizedGrouping, p.s.clen(c))
	}
}

// openCapture opens a capturing or plain group at a bare parenthesis or a
// named group construct.
func (p *parser) openCapture(start int, name string, namePos int) (*regexNode, bool, error) {
	if name == "" {
		if p.ignoreNextParen || p.options&ExplicitCapture != 0 {
			p.ignoreNextParen = false
			return newNode(ntGroup, p.options), true, nil
		}
	}

	slot := p.autocap
	p.autocap++

	if p.scanOnly {
		p.noteCaptureSlot(slot, start)
		if name != "" {
			if err := p.noteCaptureName(name, slot, namePos); err != nil {
				return nil, false, err
			}
		}
	}

	return newNodeMN(ntCapture, p.options, slot, -1), true, nil
}

// scanConditional scans a conditional group `(?(cond)yes|no)`.
// Numeric and named conditions are consumed inline and produce a
// conditional on a captured group; otherwise the condition is an assertion
// group, that is scanned as the first child of the conditional.
func (p *parser) scanConditional(start int) (*regexNode, bool, error) {
	if p.s.matchString("DEFINE)") {
		return newNode(ntDefine, p.options), true, nil
	}

	c, ok := p.s.peek()
	if !ok {
		return nil, false, p.s.errorh(ErrUnrecognizedGrouping)
	}

	switch {
	case isDigit(c):
		slot, _, err := p.s.nextInt()
		if err != nil {
			return nil, false, err
		}
		if !p.s.match(')') {
			return nil, false, p.s.errorh(ErrMalformedNameRef)
		}

		if slot == 0 {
			return nil, false, p.s.erroro(ErrCaptureGroupZero, 2)
		}
		if !p.scanOnly && !p.isCaptureSlot(slot) {
			return nil, false, p.s.erroro(ErrUndefinedBackref, 2)
		}

		return newNodeM(ntTestref, p.options, slot), true, nil

	case c == '<' || c == '\'' || isWordChar(c):
		var name string
		var err error

		switch c {
		case '<':
			p.s.skip()
			name, _, err = p.scanCapname('>')
		case '\'':
			p.s.skip()
			name, _, err = p.scanCapname('\'')
		default:
			name, _, err = p.scanCapname(')')
		}
		if err != nil {
			return nil, false, err
		}
		if c == '<' || c == '\'' {
			if !p.s.match(')') {
				return nil, false, p.s.errorh(ErrMalformedNameRef)
			}
		}

		slot := 0
		if !p.scanOnly {
			var ok bool
			slot, ok = p.capnames[name]
			if !ok {
				return nil, false, p.s.errord(ErrUndefinedNameRef, name)
			}
		}

		return newNodeM(ntTestref, p.options, slot), true, nil

	default:
		// an assertion condition; rewind so the condition group is
		// scanned as the first child, and keep its parenthesis from
		// capturing
		p.s.seek(p.s.tell() - 1)
		p.ignoreNextParen = true

		return newNode(ntTestgroup, p.options), true, nil
	}
}

// scanVerb scans a backtracking verb `(*NAME)`; the `(*` is consumed.
// The FAIL verb parses into a node, that matches nothing.
func (p *parser) scanVerb(start int) (*regexNode, error) {
	name, ok := p.s.skipPast(')')
	if !ok || !isVerbName(name) {
		return nil, p.s.errorp(ErrUnknownVerb, start)
	}

	switch name {
	case "ACCEPT":
		return newNodeM(ntVerb, p.options, verbAccept), nil
	case "F", "FAIL":
		return newNode(ntNothing, p.options), nil
	case "COMMIT":
		return newNodeM(ntVerb, p.options, verbCommit), nil
	case "PRUNE":
		return newNodeM(ntVerb, p.options, verbPrune), nil
	case "SKIP":
		return newNodeM(ntVerb, p.options, verbSkip), nil
	case "THEN":
		return newNodeM(ntVerb, p.options, verbThen), nil
	default:
		return nil, p.s.errorp(ErrUnknownVerb, start)
	}
}

// scanInlineFlags scans an inline option switch `(?flags-flags)` or
// `(?flags-flags:...)`. The tail-less form modifies the enclosing scope and
// returns no node.
func (p *parser) scanInlineFlags(c rune) (*regexNode, bool, error) {
	off := false

	for {
		if c == '-' {
			off = true
		} else {
			o, ok := optionFromInlineFlag(c)
			if !ok {
				return nil, false, p.s.erroro(ErrUnrecognizedGrouping, p.s.clen(c))
			}

			if off {
				p.options &^= o
			} else {
				p.options |= o
			}
		}

		var ok bool
		c, ok = p.s.read()
		if !ok {
			return nil, false, p.s.errorh(ErrUnrecognizedGrouping)
		}

		switch c {
		case ')':
			return nil, false, nil
		case ':':
			return newNode(ntGroup, p.options), true, nil
		}
	}
}

// subroutine calls

// makeCall creates a subroutine call node for a slot.
func (p *parser) makeCall(slot int) *regexNode {
	return newNodeM(ntCall, p.options, slot)
}

// scanNumberedCall scans a numeric subroutine call `(?N)`; the first digit
// has been read.
func (p *parser) scanNumberedCall(start int) (*regexNode, error) {
	p.s.seek(p.s.tell() - 1)

	slot, _, err := p.s.nextInt()
	if err != nil {
		return nil, err
	}
	if !p.s.match(')') {
		return nil, p.s.errorh(ErrUnrecognizedGrouping)
	}

	if !p.scanOnly && !p.isCaptureSlot(slot) {
		return nil, p.s.errorp(ErrUndefinedSubroutine, start)
	}

	return p.makeCall(slot), nil
}

// scanNamedCall scans a subroutine call by name, `(?&name)` or `(?P>name)`.
func (p *parser) scanNamedCall(start int) (*regexNode, error) {
	name, _, err := p.scanCapname(')')
	if err != nil {
		return nil, err
	}

	if p.scanOnly {
		return nil, nil
	}

	slot, ok := p.capnames[name]
	if !ok {
		return nil, p.s.errorp(ErrUndefinedSubroutine, start)
	}

	return p.makeCall(slot), nil
}

// scanRelativeCall scans a relative subroutine call `(?+N)` or `(?-N)`.
// The target is found by walking the recorded parenthesis positions of the
// capture slots a signed distance away from the call.
func (p *parser) scanRelativeCall(start int, backward bool) (*regexNode, error) {
	dist, _, err := p.s.nextInt()
	if err != nil {
		return nil, err
	}
	if !p.s.match(')') {
		return nil, p.s.errorh(ErrUnrecognizedGrouping)
	}

	if p.scanOnly {
		return nil, nil
	}
	if dist == 0 {
		return nil, p.s.errorp(ErrUndefinedSubroutine, start)
	}

	slot, ok := p.resolveRelative(start, dist, backward)
	if !ok {
		return nil, p.s.errorp(ErrUndefinedSubroutine, start)
	}

	return p.makeCall(slot), nil
}

// resolveRelative resolves a relative subroutine distance to a slot.
func (p *parser) resolveRelative(pos, dist int, backward bool) (int, bool) {
	if backward {
		for i := len(p.capposlist) - 1; i >= 0; i-- {
			if p.capposlist[i].pos < pos {
				dist--
				if dist == 0 {
					return p.capposlist[i].slot, true
				}
			}
		}
	} else {
		for i := 0; i < len(p.capposlist); i++ {
			if p.capposlist[i].pos > pos {
				dist--
				if dist == 0 {
					return p.capposlist[i].slot, true
				}
			}
		}
	}

	return 0, false
}

// names

// scanCapname scans a group name up to the terminator.
// A name consists of word characters and must not start with a digit.
func (p *parser) scanCapname(term rune) (string, int, error) {
	pos := p.s.tell()

	var b strings.Builder
	for {
		c, ok := p.s.read()
		if !ok {
			return "", 0, p.s.errorp(ErrMalformedNameRef, pos)
		}
		if c == term {
			break
		}
		if !isWordChar(c) {
			return "", 0, p.s.erroro(ErrMalformedNameRef, p.s.clen(c))
		}

		b.WriteRune(c)
	}

	name := b.String()
	if name == "" || isDigit(rune(name[0])) {
		return "", 0, p.s.errorp(ErrMalformedNameRef, pos)
	}

	return name, pos, nil
}

// noteCaptureSlot records the position of the opening parenthesis of a
// capture slot. In branch-reset groups the same slot may be opened several
// times; the first position wins.
func (p *parser) noteCaptureSlot(slot, pos int) {
	if _, ok := p.caps[slot]; !ok {
		p.caps[slot] = pos

		if slot >= p.captop {
			p.captop = slot + 1
		}
	}
}

// noteCaptureName records a declared group name.
// Redeclaring a name is an error unless duplicate names are allowed; then
// the name keeps referring to its first slot.
func (p *parser) noteCaptureName(name string, slot, pos int) error {
	if _, ok := p.capnames[name]; ok {
		if p.options&DupNames == 0 {
			return newErrorDetails(ErrDuplicateName, p.s.base+pos, name)
		}

		return nil
	}

	p.capnames[name] = slot
	p.capnamelist = append(p.capnamelist, name)

	return nil
}

// isCaptureSlot checks, whether the slot was declared in the pattern.
func (p *parser) isCaptureSlot(slot int) bool {
	_, ok := p.caps[slot]
	return ok
}

// assignNameSlots finishes the capture bookkeeping after the prescan.
// Distinct names, that collapse to the same slot, are rejected; the used
// slots are sorted, and the position list for relative subroutine calls is
// built.
func (p *parser) assignNameSlots() error {
	names := make(map[int]string, len(p.capnamelist))
	for _, name := range p.capnamelist {
		slot := p.capnames[name]
		if other, ok := names[slot]; ok && other != name {
			return newErrorDetails(ErrNameCollision, p.s.base+p.caps[slot], name)
		}

		names[slot] = name
	}

	list := make([]int, 0, len(p.caps))
	for slot, pos := range p.caps {
		list = append(list, slot)

		if pos >= 0 {
			p.capposlist = append(p.capposlist, capturePosition{pos: pos, slot: slot})
		}
	}

	slices.Sort(list)
	slices.SortFunc(p.capposlist, func(a, b capturePosition) int {
		return a.pos - b.pos
	})

	contiguous := len(list) == p.captop
	if !contiguous {
		p.capnumlist = list
	}

	return nil
}

// prescan

// countCaptures is the capture prescan: a full tokenisation pass over the
// body, that populates the capture bookkeeping without building any nodes.
// It mirrors the tokenisation of the main scan for escapes, character
// classes, comments and option switches, so that both passes assign the
// same slots.
func (p *parser) countCaptures() error {
	p.scanOnly = true
	defer func() { p.scanOnly = false }()

	for p.s.more() {
		c, _ := p.s.read()

		switch c {
		case '\\':
			if _, err := p.scanBackslash(); err != nil {
				return err
			}

		case '[':
			if _, err := p.scanCharClass(); err != nil {
				return err
			}

		case '#':
			if p.useOptionX() {
				p.skipToNewline()
			}

		case '|':
			if n := len(p.branchFrames); n > 0 && p.branchFrames[n-1].depth == p.groupDepth {
				f := &p.branchFrames[n-1]
				f.maxAutocap = max(f.maxAutocap, p.autocap)
				p.autocap = f.startAutocap
			}

		case ')':
			if p.groupDepth > 0 {
				if n := len(p.branchFrames); n > 0 && p.branchFrames[n-1].depth == p.groupDepth {
					f := p.branchFrames[n-1]
					p.autocap = max(f.maxAutocap, p.autocap)
					p.branchFrames = p.branchFrames[:n-1]
				}

				p.groupDepth--
				p.popOptions()
			}

		case '(':
			p.pushOptions()

			_, isGroup, err := p.scanGroupOpen()
			if err != nil {
				return err
			}

			if isGroup {
				p.groupDepth++
			} else {
				p.popKeepOptions()
			}
		}
	}

	return nil
}

// assertions and pseudo nodes

// makeBol returns the node for `^`.
// Outside of multiline mode, `^` only matches the start of the subject.
// In multiline mode under a non-default newline convention, the anchor is
// synthesised as an alternation of the subject start and a lookbehind over
// the configured line terminators.
func (p *parser) makeBol() *regexNode {
	if p.options&Multiline == 0 {
		return newNode(ntBeginning, p.options)
	}

	nl := p.options.Newline()
	if nl == NewlineDefault || nl == NewlineLF {
		return newNode(ntBol, p.options)
	}

	g := newNode(ntGroup, p.options)
	alt := newNode(ntAlternate, p.options)
	alt.addChild(newNode(ntBeginning, p.options))

	look := newNode(ntRequire, p.options|RightToLeft)
	look.addChild(p.makeNewlineAlternate(p.options | RightToLeft))
	alt.addChild(look)

	g.addChild(alt)

	return g
}

// makeEol returns the node for `$`.
// In multiline mode under a non-default newline convention, the anchor is
// synthesised as an alternation of a lookahead over the configured line
// terminators and the subject end.
func (p *parser) makeEol() *regexNode {
	if p.options&Multiline == 0 {
		if p.options&DollarEndOnly != 0 {
			return newNode(ntEnd, p.options)
		}

		return p.makeEndZ()
	}

	nl := p.options.Newline()
	if nl == NewlineDefault || nl == NewlineLF {
		return newNode(ntEol, p.options)
	}

	g := newNode(ntGroup, p.options)
	alt := newNode(ntAlternate, p.options)

	look := newNode(ntRequire, p.options&^RightToLeft)
	look.addChild(p.makeNewlineAlternate(p.options &^ RightToLeft))
	alt.addChild(look)

	alt.addChild(newNode(ntEnd, p.options))
	g.addChild(alt)

	return g
}

// makeEndZ returns the node for `\Z`, matching at the end of the subject or
// before a final line terminator. Under a non-default newline convention it
// is synthesised as the lookahead `(?=(?>nl)?\z)`.
func (p *parser) makeEndZ() *regexNode {
	nl := p.options.Newline()
	if nl == NewlineDefault || nl == NewlineLF {
		return newNode(ntEndZ, p.options)
	}

	opts := p.options &^ RightToLeft

	look := newNode(ntRequire, opts)
	concat := newNode(ntConcatenate, opts)

	optional := newNodeMN(ntLoop, opts, 0, 1)
	optional.addChild(p.makeNewlineAlternate(opts))
	concat.addChild(optional)

	concat.addChild(newNode(ntEnd, opts))
	look.addChild(concat)

	return look
}

// makeAnyChar returns the node for `.`.
// Outside of single-line mode, the dot excludes the line terminator
// characters of the newline convention.
func (p *parser) makeAnyChar() *regexNode {
	if p.options&Singleline != 0 {
		return newNodeStr(ntSet, p.options, anyClass())
	}

	nl := p.options.Newline()
	if nl == NewlineDefault || nl == NewlineLF {
		return newNodeCh(ntNotone, p.options, '\n')
	}

	return newNodeStr(ntSet, p.options, notNewlineClass(nl))
}

// makeNewlineAlternate returns an atomic group matching one line terminator
// of the newline convention.
func (p *parser) makeNewlineAlternate(opts Options) *regexNode {
	nl := p.options.Newline()

	g := newNode(ntGreedy, opts)

	chars := nl.lineChars()
	if !nl.hasCRLF() {
		// a single-character convention
		g.addChild(newNodeCh(ntOne, opts, chars[0]))
		return g
	}

	alt := newNode(ntAlternate, opts)
	alt.addChild(newNodeStr(ntMulti, opts, "\r\n"))

	if len(chars) > 0 {
		cc := newCharClass()
		for _, ch := range chars {
			cc.addChar(ch)
		}

		alt.addChild(newNodeStr(ntSet, opts, cc.String()))
	}

	g.addChild(alt)

	return g
}

// makeAnyNewline returns the node for `\R`: an atomic alternation of the
// sequence `\r\n` and the single line terminators of the active `\R`
// convention.
func (p *parser) makeAnyNewline() *regexNode {
	g := newNode(ntGreedy, p.options)
	alt := newNode(ntAlternate, p.options)
	alt.addChild(newNodeStr(ntMulti, p.options, "\r\n"))

	cc := newCharClass()
	if p.options.BSR() == BSRAnyCRLF {
		cc.addChar('\r')
		cc.addChar('\n')
	} else {
		cc.addRange('\n', '\r')
		if p.options.BSR() == BSRUnicode || p.options&UTF8 != 0 {
			cc.addChar('\u0085')
			cc.addRange('\u2028', '\u2029')
		}
	}

	alt.addChild(newNodeStr(ntSet, p.options, cc.String()))
	g.addChild(alt)

	return g
}

// makeAssertion returns the node of a zero-width escape assertion.
func (p *parser) makeAssertion(c rune) *regexNode {
	switch c {
	case 'b':
		if p.useOptionE() {
			return newNode(ntECMABoundary, p.options)
		}
		return newNode(ntBoundary, p.options)
	case 'B':
		if p.useOptionE() {
			return newNode(ntNonECMABoundary, p.options)
		}
		return newNode(ntNonboundary, p.options)
	case 'A':
		return newNode(ntBeginning, p.options)
	case 'G':
		return newNode(ntStart, p.options)
	case 'Z':
		return p.makeEndZ()
	case 'z':
		return newNode(ntEnd, p.options)
	case 'K':
		return newNode(ntResetMatchStart, p.options)
	default: // should never happen
		return nil
	}
}

// escapes

// scanBackslash scans an escape sequence after a consumed backslash.
func (p *parser) scanBackslash() (*regexNode, error) {
	c, ok := p.s.peek()
	if !ok {
		return nil, p.s.errorh(ErrIllegalEndEscape)
	}

	switch c {
	case 'b', 'B', 'A', 'G', 'Z', 'z', 'K':
		p.s.skip()
		if p.scanOnly {
			return nil, nil
		}

		return p.makeAssertion(c), nil

	case 'w', 'W', 's', 'S', 'd', 'D':
		p.s.skip()
		if p.scanOnly {
			return nil, nil
		}

		return p.makeClassEscape(c), nil

	case 'p', 'P':
		p.s.skip()

		set, err := p.scanProperty(c == 'P')
		if err != nil {
			return nil, err
		}
		if p.scanOnly {
			return nil, nil
		}

		return newNodeStr(ntSet, p.options, set), nil

	case 'R':
		p.s.skip()
		if p.scanOnly {
			return nil, nil
		}

		return p.makeAnyNewline(), nil

	case 'k', 'g', '<':
		return p.scanNamedBackslashRef(c)

	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return p.scanBasicBackslash()

	default:
		ch, err := p.scanCharEscape()
		if err != nil {
			return nil, err
		}
		if p.scanOnly {
			return nil, nil
		}

		if p.useOptionI() {
			ch = unicode.ToLower(ch)
		}

		return newNodeCh(ntOne, p.options, ch), nil
	}
}

// scanNamedBackslashRef scans the named backreference forms `\k<name>`,
// `\k'name'`, `\g{name}` and `\<name>`; numbered slots are also allowed
// inside the braces and quotes.
func (p *parser) scanNamedBackslashRef(c rune) (*regexNode, error) {
	p.s.skip()

	var term rune
	switch c {
	case '<':
		term = '>'
	case 'k':
		c, ok := p.s.read()
		if !ok {
			return nil, p.s.errorh(ErrMalformedNameRef)
		}

		switch c {
		case '<':
			term = '>'
		case '\'':
			term = '\''
		case '{':
			term = '}'
		default:
			return nil, p.s.erroro(ErrMalformedNameRef, p.s.clen(c))
		}
	case 'g':
		if !p.s.match('{') {
			return nil, p.s.errorh(ErrMalformedNameRef)
		}

		term = '}'
	}

	if b, ok := p.s.peekByte(); ok && isDigitByte(b) {
		slot, _, err := p.s.nextInt()
		if err != nil {
			return nil, err
		}
		if !p.s.match(term) {
			return nil, p.s.errorh(ErrMalformedNameRef)
		}

		if p.scanOnly {
			return nil, nil
		}
		if !p.isCaptureSlot(slot) {
			return nil, p.s.errord(ErrUndefinedBackref, "")
		}

		return p.makeRef(slot), nil
	}

	name, _, err := p.scanCapname(term)
	if err != nil {
		return nil, err
	}

	if p.scanOnly {
		return nil, nil
	}

	slot, ok := p.capnames[name]
	if !ok {
		return nil, p.s.errord(ErrUndefinedNameRef, name)
	}

	return p.makeRef(slot), nil
}

// scanNamedRef scans the name of a named backreference `(?P=name)`.
func (p *parser) scanNamedRef(term rune) (*regexNode, error) {
	name, _, err := p.scanCapname(term)
	if err != nil {
		return nil, err
	}

	if p.scanOnly {
		return nil, nil
	}

	slot, ok := p.capnames[name]
	if !ok {
		return nil, p.s.errord(ErrUndefinedNameRef, name)
	}

	return p.makeRef(slot), nil
}

// makeRef creates a backreference node.
func (p *parser) makeRef(slot int) *regexNode {
	return newNodeM(ntRef, p.options, slot)
}

// scanBasicBackslash scans a backslash followed by a non-zero digit, which
// is either a backreference or an octal escape.
// In ECMAScript mode, the longest prefix, that forms a declared slot, wins;
// otherwise the whole decimal number must name a slot, and the octal
// reading is only used when no slot matches.
func (p *parser) scanBasicBackslash() (*regexNode, error) {
	start := p.s.tell()

	if p.useOptionE() {
		capnum := -1
		c, _ := p.s.peek()
		newcapnum := toDigit(c)
		p.s.skip()

		for newcapnum <= p.captop {
			if p.isCaptureSlot(newcapnum) {
				capnum = newcapnum
			}

			b, ok := p.s.peekByte()
			if !ok || !isDigitByte(b) {
				break
			}

			newcapnum = newcapnum*10 + toDigitByte(b)
			if newcapnum > p.captop {
				break
			}

			p.s.skip()
		}

		if capnum >= 0 {
			if p.scanOnly {
				return nil, nil
			}

			return p.makeRef(capnum), nil
		}

		// fall back to an octal or literal reading
		p.s.seek(start)

		ch, err := p.scanCharEscape()
		if err != nil {
			return nil, err
		}
		if p.scanOnly {
			return nil, nil
		}

		return newNodeCh(ntOne, p.options, ch), nil
	}

	slot, _, err := p.s.nextInt()
	if err != nil {
		return nil, err
	}

	if p.scanOnly {
		return nil, nil
	}

	if p.isCaptureSlot(slot) {
		return p.makeRef(slot), nil
	}

	// a single digit always references a group; a larger number beyond the
	// declared slots is reread as an octal escape
	first := rune(p.s.orig[start])
	if slot > 9 && isOctDigit(first) {
		p.s.seek(start)

		ch, err := p.scanCharEscape()
		if err != nil {
			return nil, err
		}

		if p.useOptionI() {
			ch = unicode.ToLower(ch)
		}

		return newNodeCh(ntOne, p.options, ch), nil
	}

	return nil, p.s.errorp(ErrUndefinedBackref, start-1)
}

// scanCharEscape scans a single-character escape and returns the character.
// This is also the scanner behind unescaping, where every non-special
// character simply represents itself.
func (p *parser) scanCharEscape() (rune, error) {
	c, ok := p.s.read()
	if !ok {
		return 0, p.s.errorh(ErrIllegalEndEscape)
	}

	switch c {
	case 'x':
		if p.s.match('{') {
			if p.options&UTF8 == 0 {
				return 0, p.s.erroro(ErrUnrecognizedEscape, 2)
			}

			e := p.s.nextHex(6)
			if e == "" || !p.s.match('}') {
				return 0, p.s.errorh(ErrTooFewHex)
			}

			return parseIntRune(e, 16), nil
		}

		e := p.s.nextHex(2)
		if len(e) != 2 {
			return 0, p.s.errorh(ErrTooFewHex)
		}

		return parseIntRune(e, 16), nil

	case 'u':
		e := p.s.nextHex(4)
		if len(e) != 4 {
			return 0, p.s.errorh(ErrTooFewHex)
		}

		return parseIntRune(e, 16), nil

	case 'c':
		c, ok = p.s.read()
		if !ok {
			return 0, p.s.errorh(ErrMissingControl)
		}

		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		c -= '@'
		if c < 0 || c >= ' ' {
			return 0, p.s.erroro(ErrMissingControl, 1)
		}

		return c, nil

	case '0', '1', '2', '3', '4', '5', '6', '7':
		// octal escape with up to three digits and a maximum of 0377
		value := toDigit(c)
		for i := 0; i < 2; i++ {
			b, ok := p.s.peekByte()
			if !ok || !(b >= '0' && b <= '7') {
				break
			}
			if value*8+toDigitByte(b) > 0o377 {
				break
			}

			value = value*8 + toDigitByte(b)
			p.s.skip()
		}

		return rune(value), nil

	case 'a':
		return '\a', nil
	case 'b':
		return '\b', nil
	case 'e':
		return '\x1b', nil
	case 'f':
		return '\f', nil
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 't':
		return '\t', nil
	case 'v':
		return '\v', nil

	default:
		if isASCIILetter(c) && (p.options&Extra != 0 || p.useOptionE()) {
			return 0, p.s.erroro(ErrUnrecognizedEscape, p.s.clen(c)+1)
		}

		return c, nil
	}
}

// makeClassEscape returns the set node of a shorthand class escape.
func (p *parser) makeClassEscape(c rune) *regexNode {
	cc := newCharClass()
	ecma := p.useOptionE()

	switch c {
	case 'd':
		cc.addDigit(ecma, false)
	case 'D':
		cc.addDigit(ecma, true)
	case 's':
		cc.addSpace(ecma, false)
	case 'S':
		cc.addSpace(ecma, true)
	case 'w':
		cc.addWord(ecma, false)
	case 'W':
		cc.addWord(ecma, true)
	}

	return newNodeStr(ntSet, p.options, cc.String())
}

// scanProperty scans a Unicode property name after `\p` or `\P`, either a
// single letter or a braced name, and returns the serialised class.
func (p *parser) scanProperty(negate bool) (string, error) {
	c, ok := p.s.peek()
	if !ok {
		return "", p.s.errorh(ErrMalformedSlashP)
	}

	var name string
	if c == '{' {
		p.s.skip()

		var b strings.Builder
		for {
			c, ok = p.s.read()
			if !ok {
				return "", p.s.errorh(ErrMalformedSlashP)
			}
			if c == '}' {
				break
			}
			if !isWordChar(c) {
				return "", p.s.erroro(ErrMalformedSlashP, p.s.clen(c))
			}

			b.WriteRune(c)
		}

		name = b.String()
		if name == "" {
			return "", p.s.errorh(ErrMalformedSlashP)
		}
	} else {
		if !isASCIILetter(c) {
			return "", p.s.errorh(ErrMalformedSlashP)
		}

		p.s.skip()
		name = string(c)
	}

	cc := newCharClass()
	if err := cc.addProperty(name, negate); err != nil {
		return "", p.s.errord(ErrMalformedSlashP, name)
	}

	return cc.String(), nil
}

// character classes

// scanCharClass scans a bracketed character class; the `[` is consumed.
func (p *parser) scanCharClass() (*regexNode, error) {
	here := p.s.tell() - 1

	cc := newCharClass()
	negate := p.s.match('^')

	first := true
	inRange := false
	var chPrev rune

	closed := false

	for p.s.more() {
		c, _ := p.s.read()

		if c == ']' && !first {
			closed = true
			break
		}

		if c == '\\' && p.s.more() {
			c2, _ := p.s.read()

			switch c2 {
			case 'd', 'D':
				if inRange {
					return nil, p.s.erroro(ErrReversedCharRange, 2)
				}
				cc.addDigit(p.useOptionE(), c2 == 'D')
				first = false
				continue

			case 's', 'S':
				if inRange {
					return nil, p.s.erroro(ErrReversedCharRange, 2)
				}
				cc.addSpace(p.useOptionE(), c2 == 'S')
				first = false
				continue

			case 'w', 'W':
				if inRange {
					return nil, p.s.erroro(ErrReversedCharRange, 2)
				}
				cc.addWord(p.useOptionE(), c2 == 'W')
				first = false
				continue

			case 'p', 'P':
				if inRange {
					return nil, p.s.erroro(ErrReversedCharRange, 2)
				}

				set, err := p.scanProperty(c2 == 'P')
				if err != nil {
					return nil, err
				}

				cc.addSet(set)
				first = false
				continue

			case '-':
				cc.addChar('-')
				first = false
				continue

			default:
				p.s.seek(p.s.tell() - p.s.clen(c2))

				ch, err := p.scanCharEscape()
				if err != nil {
					return nil, err
				}

				c = ch
			}
		} else if c == '[' && !inRange {
			// POSIX classes are recognised and skipped silently
			if b, ok := p.s.peekByte(); ok && b == ':' {
				if p.skipPosixClass() {
					first = false
					continue
				}
			}
		}

		if inRange {
			inRange = false

			if chPrev > c {
				return nil, p.s.erroro(ErrReversedCharRange, 1)
			}

			cc.addRange(chPrev, c)
		} else if b, ok := p.s.peekByte(); ok && b == '-' && !p.nextIsClassEnd(1) {
			// a candidate range start
			chPrev = c
			inRange = true
			p.s.skip()
		} else {
			cc.addChar(c)
		}

		first = false
	}

	if !closed {
		return nil, p.s.errorp(ErrUnterminatedBracket, here)
	}

	if p.scanOnly {
		return nil, nil
	}

	if p.useOptionI() {
		cc.addLowercase()
	}
	if negate {
		cc.negateClass()
	}

	return newNodeStr(ntSet, p.options, cc.String()), nil
}

// nextIsClassEnd checks, whether the character after the given byte offset
// closes the class; a trailing dash before the bracket stays a literal.
func (p *parser) nextIsClassEnd(offset int) bool {
	rest := p.s.cur
	return len(rest) > offset && rest[offset] == ']'
}

// skipPosixClass skips a POSIX class `[:name:]`; the `[` is consumed.
// If no well-formed POSIX class follows, nothing is consumed and false is
// returned.
func (p *parser) skipPosixClass() bool {
	save := p.s.tell()
	p.s.skip() // the ':'

	for {
		c, ok := p.s.read()
		if !ok {
			break
		}
		if c == ':' {
			if p.s.match(']') {
				return true
			}
			break
		}
		if !isASCIILetter(c) && c != '^' {
			break
		}
	}

	p.s.seek(save)

	return false
}
