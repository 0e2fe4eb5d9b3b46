package syntax

// The UTF-8 transformer rewrites concatenations of explicit UTF-8 byte
// expressions into equivalent UTF-16 sets, so that the matcher can operate
// on UTF-16 code units even when the pattern spells out UTF-8 byte classes.
// Four-byte sequences become a pair of surrogate ranges.
//
// The rewriting is a pure canonicalisation: a sequence is only replaced
// when it matches one of the recognised forms exactly; any other node or a
// partial run resets the recognition and the original nodes stay intact.

// utf16Rule is one recognised byte sequence and its replacement ranges.
type utf16Rule struct {
	parts []charRange // expected byte values; lo == hi for a fixed byte
	out   []charRange // one or two replacement UTF-16 ranges
}

// The recognised sequences, keyed by their leading byte.
// The continuation parts must match exactly; a counted set loop with equal
// bounds of at most three repetitions is unrolled into single parts.
var utf16Rules = []utf16Rule{
	{
		parts: []charRange{{0xc2, 0xdf}, {0x80, 0xbf}},
		out:   []charRange{{0x0080, 0x07ff}},
	},
	{
		parts: []charRange{{0xe0, 0xe0}, {0xa0, 0xbf}, {0x80, 0xbf}},
		out:   []charRange{{0x0800, 0x0fff}},
	},
	{
		parts: []charRange{{0xe1, 0xec}, {0x80, 0xbf}, {0x80, 0xbf}},
		out:   []charRange{{0x1000, 0xcfff}},
	},
	{
		parts: []charRange{{0xed, 0xed}, {0x80, 0x9f}, {0x80, 0xbf}},
		out:   []charRange{{0xd000, 0xd7ff}},
	},
	{
		parts: []charRange{{0xee, 0xef}, {0x80, 0xbf}, {0x80, 0xbf}},
		out:   []charRange{{0xe000, 0xffff}},
	},
	{
		parts: []charRange{{0xf0, 0xf0}, {0x90, 0xbf}, {0x80, 0xbf}, {0x80, 0xbf}},
		out:   []charRange{{0xd800, 0xd8bf}, {0xdc00, 0xdfff}},
	},
	{
		parts: []charRange{{0xf1, 0xf3}, {0x80, 0xbf}, {0x80, 0xbf}, {0x80, 0xbf}},
		out:   []charRange{{0xd8c0, 0xdbbf}, {0xdc00, 0xdfff}},
	},
	{
		parts: []charRange{{0xf4, 0xf4}, {0x80, 0x8f}, {0x80, 0xbf}, {0x80, 0xbf}},
		out:   []charRange{{0xdbc0, 0xdbff}, {0xdc00, 0xdfff}},
	},
}

// Transform applies the UTF-8 to UTF-16 rewriting to every concatenation of
// the tree and returns the tree. Applying the transformation twice has the
// same effect as applying it once, because the replacement sets lie outside
// the byte range.
func Transform(tree *RegexTree) *RegexTree {
	stack := []*regexNode{tree.root}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.t == ntConcatenate {
			n.children = transformChildren(n.children)

			for _, child := range n.children {
				child.next = n
			}
		}

		stack = append(stack, n.children...)
	}

	return tree
}

// transformChildren rewrites all recognised byte sequences of a
// concatenation.
func transformChildren(children []*regexNode) []*regexNode {
	out := make([]*regexNode, 0, len(children))

	i := 0
	for i < len(children) {
		repl, next, ok := matchSequence(children, i)
		if !ok {
			out = append(out, children[i])
			i++
			continue
		}

		out = append(out, repl...)
		i = next
	}

	return out
}

// matchSequence tries to match a recognised byte sequence beginning at the
// i-th child. On success it returns the replacement nodes and the index of
// the first child after the sequence. A counted loop at the end of a
// sequence may be consumed partially; the remaining repetitions are
// returned as a reduced loop behind the replacement sets.
func matchSequence(children []*regexNode, i int) ([]*regexNode, int, bool) {
	units, ok := byteUnits(children[i])
	if !ok {
		return nil, 0, false
	}

	rule := ruleForLead(units[0])
	if rule == nil {
		return nil, 0, false
	}

	opts := children[i].options

	part := 0
	j := i
	var leftover *regexNode

	for part < len(rule.parts) {
		if j >= len(children) {
			return nil, 0, false
		}

		units, ok = byteUnits(children[j])
		if !ok {
			return nil, 0, false
		}

		k := 0
		for ; k < len(units) && part < len(rule.parts); k++ {
			if units[k] != rule.parts[part] {
				return nil, 0, false
			}
			part++
		}

		if k < len(units) {
			// the final loop reaches beyond the sequence
			leftover = reducedLoop(children[j], len(units)-k)
		}

		j++
	}

	repl := make([]*regexNode, 0, 3)
	for _, r := range rule.out {
		cc := newCharClass()
		cc.addRange(r.lo, r.hi)

		repl = append(repl, newNodeStr(ntSet, opts, cc.String()))
	}
	if leftover != nil {
		repl = append(repl, leftover)
	}

	return repl, j, true
}

// ruleForLead returns the rule whose leading part matches the byte range
// exactly. The leading parts of all rules are disjoint.
func ruleForLead(u charRange) *utf16Rule {
	for i := range utf16Rules {
		if utf16Rules[i].parts[0] == u {
			return &utf16Rules[i]
		}
	}

	return nil
}

// byteUnits expands a node into the byte ranges it matches in sequence.
// Only literal bytes, single-range byte sets and counted set loops with
// equal bounds of at most three repetitions are expandable.
func byteUnits(n *regexNode) ([]charRange, bool) {
	switch n.t {
	case ntOne:
		if n.ch <= 0xff {
			return []charRange{{n.ch, n.ch}}, true
		}

	case ntSet:
		if lo, hi, ok := singleRange(n.str); ok && hi <= 0xff {
			return []charRange{{lo, hi}}, true
		}

	case ntSetloop:
		if n.m != n.n || n.m < 1 || n.m > 3 {
			break
		}

		if lo, hi, ok := singleRange(n.str); ok && hi <= 0xff {
			units := make([]charRange, n.m)
			for i := range units {
				units[i] = charRange{lo, hi}
			}

			return units, true
		}
	}

	return nil, false
}

// reducedLoop returns a loop over the same set with the given number of
// remaining repetitions; a single repetition collapses into a plain set.
func reducedLoop(n *regexNode, rem int) *regexNode {
	if rem == 1 {
		return newNodeStr(ntSet, n.options, n.str)
	}

	loop := newNodeStr(ntSetloop, n.options, n.str)
	loop.m = rem
	loop.n = rem

	return loop
}
