package syntax

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// nodeType is the discriminant of a regex tree node.
type nodeType uint32

// Possible node types.
// The first group are leaves; quantified single-character leaves carry their
// repeat bounds in m and n, where n may be infinite.
const (
	ntOne        nodeType = iota // a single literal character; ch
	ntNotone                     // any character except one; ch
	ntSet                        // a character class; str is the set string
	ntMulti                      // a literal character run; str
	ntRef                        // a backreference; m is the group slot
	ntOneloop                    // greedy loop over one character; ch, m, n
	ntNotoneloop                 // greedy loop over a negated character; ch, m, n
	ntSetloop                    // greedy loop over a set; str, m, n
	ntOnelazy                    // lazy loop over one character; ch, m, n
	ntNotonelazy                 // lazy loop over a negated character; ch, m, n
	ntSetlazy                    // lazy loop over a set; str, m, n

	ntBol             // ^
	ntEol             // $
	ntBoundary        // \b
	ntNonboundary     // \B
	ntECMABoundary    // \b in ECMAScript mode
	ntNonECMABoundary // \B in ECMAScript mode
	ntBeginning       // \A
	ntStart           // \G
	ntEndZ            // \Z
	ntEnd             // \z
	ntResetMatchStart // \K

	ntNothing // matches nothing; (?!)
	ntEmpty   // matches the empty string

	ntConcatenate // a sequence of children
	ntAlternate   // a|b
	ntLoop        // greedy loop over a subexpression; m, n
	ntLazyloop    // lazy loop over a subexpression; m, n
	ntCapture     // a capturing group; m is the slot, n an unset slot or -1
	ntGroup       // a non-capturing group
	ntRequire     // a positive lookaround; (?=...), (?<=...)
	ntPrevent     // a negative lookaround; (?!...), (?<!...)
	ntGreedy      // an atomic group; (?>...)
	ntTestref     // a conditional on a captured group; (?(1)...|...)
	ntTestgroup   // a conditional on an assertion; (?(?=...)...|...)
	ntDefine      // a definition-only group; (?(DEFINE)...)
	ntCall        // a subroutine call; m is the called slot
	ntVerb        // a backtracking verb; m is the verb code
)

// infinite is the representation of an unbounded maximum of a loop.
const infinite = math.MaxInt32

// Verb codes of ntVerb nodes.
// The FAIL verb has no code, because it is parsed into an ntNothing node.
const (
	verbAccept = iota
	verbCommit
	verbPrune
	verbSkip
	verbThen
)

// regexNode is a node of the parsed regex tree.
//
// The tree mirrors the surface grammar of the pattern. During parsing, nodes
// of the currently open groups are linked through the next pointer, which
// forms the explicit parser stack; after parsing, the tree is immutable.
// Subroutine calls store the slot number of their target instead of a
// pointer, so the tree stays acyclic.
type regexNode struct {
	t        nodeType
	ch       rune
	str      string
	m        int
	n        int
	options  Options
	children []*regexNode
	next     *regexNode
}

// newNode creates a new node without payloads.
func newNode(t nodeType, opts Options) *regexNode {
	return &regexNode{
		t:       t,
		options: opts,
	}
}

// newNodeCh creates a new node with a character payload.
func newNodeCh(t nodeType, opts Options, ch rune) *regexNode {
	return &regexNode{
		t:       t,
		options: opts,
		ch:      ch,
	}
}

// newNodeStr creates a new node with a string payload, either a literal run
// or a serialised set string.
func newNodeStr(t nodeType, opts Options, str string) *regexNode {
	return &regexNode{
		t:       t,
		options: opts,
		str:     str,
	}
}

// newNodeM creates a new node with a single integer payload.
func newNodeM(t nodeType, opts Options, m int) *regexNode {
	return &regexNode{
		t:       t,
		options: opts,
		m:       m,
	}
}

// newNodeMN creates a new node with two integer payloads.
func newNodeMN(t nodeType, opts Options, m, n int) *regexNode {
	return &regexNode{
		t:       t,
		options: opts,
		m:       m,
		n:       n,
	}
}

// addChild appends a child node.
// The next pointer of the child is set to its parent; outside of the open
// groups of the parser, next always links upwards, which the writer uses to
// return from a subtree without recursion.
func (n *regexNode) addChild(child *regexNode) {
	child.next = n
	n.children = append(n.children, child)
}

// childCount returns the number of children.
func (n *regexNode) childCount() int {
	return len(n.children)
}

// child returns the i-th child.
func (n *regexNode) child(i int) *regexNode {
	return n.children[i]
}

// reverseChildren reverses the order of the children.
// The parser collects concatenation children in pattern order and reverses
// them when it finishes a right-to-left concatenation.
func (n *regexNode) reverseChildren() {
	slices.Reverse(n.children)
}

// reduce replaces trivial interior nodes: an alternation or concatenation
// with a single child collapses into the child, an empty concatenation
// becomes an empty match and an empty alternation a match failure.
func (n *regexNode) reduce() *regexNode {
	switch n.t {
	case ntConcatenate:
		switch len(n.children) {
		case 0:
			return newNode(ntEmpty, n.options)
		case 1:
			return n.children[0]
		}
	case ntAlternate:
		switch len(n.children) {
		case 0:
			return newNode(ntNothing, n.options)
		case 1:
			return n.children[0]
		}
	}

	return n
}

// makeQuantifier wraps the node into a loop with the given bounds.
// Single-character leaves become their quantified leaf forms instead of a
// generic loop node.
func (n *regexNode) makeQuantifier(lazy bool, qmin, qmax int) *regexNode {
	switch n.t {
	case ntOne, ntNotone, ntSet:
		var t nodeType
		switch n.t {
		case ntOne:
			t = ntOneloop
		case ntNotone:
			t = ntNotoneloop
		default:
			t = ntSetloop
		}
		if lazy {
			switch n.t {
			case ntOne:
				t = ntOnelazy
			case ntNotone:
				t = ntNotonelazy
			default:
				t = ntSetlazy
			}
		}

		loop := newNodeCh(t, n.options, n.ch)
		loop.str = n.str
		loop.m = qmin
		loop.n = qmax

		return loop
	}

	t := ntLoop
	if lazy {
		t = ntLazyloop
	}

	loop := newNodeMN(t, n.options, qmin, qmax)
	loop.addChild(n)

	return loop
}

// dump writes an indented description of the subtree into the builder.
func (n *regexNode) dump(b *strings.Builder, level int) {
	b.WriteString(strings.Repeat("  ", level))
	b.WriteString(n.description())
	b.WriteByte('\n')

	for _, child := range n.children {
		child.dump(b, level+1)
	}
}

// treeDump returns an indented description of the subtree.
func (n *regexNode) treeDump() string {
	var b strings.Builder
	n.dump(&b, 0)

	return b.String()
}

// description returns a single-line description of the node.
func (n *regexNode) description() string {
	var b strings.Builder
	b.WriteString(nodeTypeNames[n.t])

	if n.options&IgnoreCase != 0 {
		b.WriteString("-i")
	}
	if n.options&RightToLeft != 0 {
		b.WriteString("-rtl")
	}

	switch n.t {
	case ntOne, ntNotone:
		fmt.Fprintf(&b, "(ch = %s)", charDescription(n.ch))
	case ntOneloop, ntOnelazy, ntNotoneloop, ntNotonelazy:
		fmt.Fprintf(&b, "(ch = %s, min = %d, max = %s)", charDescription(n.ch), n.m, boundDescription(n.n))
	case ntMulti:
		fmt.Fprintf(&b, "(str = %q)", n.str)
	case ntSet:
		fmt.Fprintf(&b, "(set = %s)", setDescription(n.str))
	case ntSetloop, ntSetlazy:
		fmt.Fprintf(&b, "(set = %s, min = %d, max = %s)", setDescription(n.str), n.m, boundDescription(n.n))
	case ntLoop, ntLazyloop:
		fmt.Fprintf(&b, "(min = %d, max = %s)", n.m, boundDescription(n.n))
	case ntCapture:
		fmt.Fprintf(&b, "(slot = %d)", n.m)
	case ntRef, ntTestref, ntCall:
		fmt.Fprintf(&b, "(group = %d)", n.m)
	case ntVerb:
		fmt.Fprintf(&b, "(verb = %s)", verbNames[n.m])
	}

	return b.String()
}

// boundDescription formats a loop bound, printing the infinite bound as
// "inf".
func boundDescription(n int) string {
	if n == infinite {
		return "inf"
	}

	return fmt.Sprint(n)
}

// Names of the node types for tree dumps.
var nodeTypeNames = [...]string{
	"One", "Notone", "Set", "Multi", "Ref",
	"Oneloop", "Notoneloop", "Setloop", "Onelazy", "Notonelazy", "Setlazy",
	"Bol", "Eol", "Boundary", "Nonboundary", "ECMABoundary", "NonECMABoundary",
	"Beginning", "Start", "EndZ", "End", "ResetMatchStart",
	"Nothing", "Empty",
	"Concatenate", "Alternate", "Loop", "Lazyloop", "Capture", "Group",
	"Require", "Prevent", "Greedy", "Testref", "Testgroup", "Define",
	"Call", "Verb",
}

// Names of the backtracking verbs.
var verbNames = [...]string{"ACCEPT", "COMMIT", "PRUNE", "SKIP", "THEN"}
