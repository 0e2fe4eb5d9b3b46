package syntax

import (
	"slices"
	"strings"
)

// The fragment hooks of the emission walk. A node with children emits a
// fragment before every child and after every child; leaves emit a single
// fragment.
const (
	beforeChild = 0x100
	afterChild  = 0x200
)

// writer linearises a regex tree into a program.
// The walk over the tree is depth-first with an explicit integer stack, so
// that deeply nested patterns do not consume host stack; forward jumps are
// emitted with a zero operand and patched once the target is known.
type writer struct {
	emitted    []int
	intStack   []int
	stringhash map[string]int
	stringtab  []string
	trackcount int

	caps       map[int]int
	capnumlist []int
	capsize    int
	cappos     []int
}

// Write linearises a parsed tree into an immutable program.
func Write(tree *RegexTree) *Code {
	w := &writer{
		stringhash: make(map[string]int),
	}

	var caps map[int]int
	if tree.capnumlist == nil {
		w.capsize = tree.captop
	} else {
		w.capsize = len(tree.capnumlist)
		w.capnumlist = tree.capnumlist

		caps = make(map[int]int, len(tree.capnumlist))
		for i, slot := range tree.capnumlist {
			caps[slot] = i
		}
		w.caps = caps
	}

	w.cappos = make([]int, w.capsize)
	for i := range w.cappos {
		w.cappos[i] = -1
	}

	// the leading lazy branch makes the matcher retry the whole pattern
	// at the next start position
	w.emit2(opLazybranch, 0)

	curNode := tree.root
	curChild := 0

	for {
		if len(curNode.children) == 0 {
			w.emitFragment(int(curNode.t), curNode, 0)
		} else if curChild < len(curNode.children) {
			w.emitFragment(int(curNode.t)|beforeChild, curNode, curChild)

			curNode = curNode.children[curChild]
			w.pushInt(curChild)
			curChild = 0
			continue
		}

		if len(w.intStack) == 0 {
			break
		}

		curChild = w.popInt()
		curNode = curNode.next

		w.emitFragment(int(curNode.t)|afterChild, curNode, curChild)
		curChild++
	}

	w.patchJump(0, w.curPos())
	w.emit(opStop)

	code := &Code{
		Codes:        w.emitted,
		Strings:      w.stringtab,
		TrackCount:   w.trackcount,
		Caps:         caps,
		Capsize:      w.capsize,
		CapPositions: w.cappos,
		RightToLeft:  tree.options&RightToLeft != 0,
	}

	code.Anchors = leadingAnchors(tree)

	prefix, ci := literalPrefix(tree)
	if len(prefix) > 1 {
		code.BMPrefix = newBoyerMoore(prefix, ci, code.RightToLeft)
	}

	if cc, ciFC, ok := firstChars(tree.root); ok {
		code.FCPrefix = &Prefix{
			Set:             cc.String(),
			CaseInsensitive: ciFC,
		}
	}

	return code
}

// stack and emission primitives

func (w *writer) pushInt(i int) {
	w.intStack = append(w.intStack, i)
}

func (w *writer) popInt() int {
	n := len(w.intStack)
	i := w.intStack[n-1]
	w.intStack = w.intStack[:n-1]

	return i
}

// curPos returns the position the next operation is emitted at.
func (w *writer) curPos() int {
	return len(w.emitted)
}

// patchJump stores the jump target into the operand of the branch emitted
// at the given position.
func (w *writer) patchJump(pos, target int) {
	w.emitted[pos+1] = target
}

// emit appends an operation without operands.
func (w *writer) emit(op int) {
	if opcodeBacktracks(op) {
		w.trackcount++
	}

	w.emitted = append(w.emitted, op)
}

// emit2 appends an operation with one operand.
func (w *writer) emit2(op, opd int) {
	if opcodeBacktracks(op) {
		w.trackcount++
	}

	w.emitted = append(w.emitted, op, opd)
}

// emit3 appends an operation with two operands.
func (w *writer) emit3(op, opd, opd2 int) {
	if opcodeBacktracks(op) {
		w.trackcount++
	}

	w.emitted = append(w.emitted, op, opd, opd2)
}

// stringCode returns the table index of a string, deduplicating entries.
func (w *writer) stringCode(str string) int {
	if i, ok := w.stringhash[str]; ok {
		return i
	}

	i := len(w.stringtab)
	w.stringhash[str] = i
	w.stringtab = append(w.stringtab, str)

	return i
}

// mapCapnum translates an external capture slot into its dense index.
func (w *writer) mapCapnum(slot int) int {
	if slot == -1 {
		return -1
	}
	if w.caps == nil {
		return slot
	}

	return w.caps[slot]
}

// noteCapPosition records the code position at which a dense slot opens.
// In branch-reset groups a slot opens several times; the first position is
// the subroutine entry.
func (w *writer) noteCapPosition(slot, pos int) {
	if w.cappos[slot] == -1 {
		w.cappos[slot] = pos
	}
}

// optionBits returns the flag bits of an instruction of a node.
func optionBits(opts Options) int {
	bits := 0
	if opts&RightToLeft != 0 {
		bits |= opRtl
	}
	if opts&IgnoreCase != 0 {
		bits |= opCi
	}

	return bits
}

// emitFragment emits the program fragment of a node visit.
func (w *writer) emitFragment(nodetype int, node *regexNode, curIndex int) {
	bits := optionBits(node.options)

	switch nodetype {
	case int(ntConcatenate) | beforeChild, int(ntConcatenate) | afterChild,
		int(ntGroup) | beforeChild, int(ntGroup) | afterChild:
		// no code of their own

	case int(ntAlternate) | beforeChild:
		if curIndex < len(node.children)-1 {
			w.pushInt(w.curPos())
			w.emit2(opLazybranch, 0)
		}

	case int(ntAlternate) | afterChild:
		if curIndex < len(node.children)-1 {
			lbPos := w.popInt()
			w.pushInt(w.curPos())
			w.emit2(opGoto, 0)
			w.patchJump(lbPos, w.curPos())
		} else {
			for i := 0; i < curIndex; i++ {
				w.patchJump(w.popInt(), w.curPos())
			}
		}

	case int(ntTestref) | beforeChild:
		if curIndex == 0 {
			w.emit(opSetjump)
			w.pushInt(w.curPos())
			w.emit2(opLazybranch, 0)
			w.emit2(opTestref, w.mapCapnum(node.m))
			w.emit(opForejump)
		}

	case int(ntTestref) | afterChild:
		switch curIndex {
		case 0:
			branchpos := w.popInt()
			w.pushInt(w.curPos())
			w.emit2(opGoto, 0)
			w.patchJump(branchpos, w.curPos())
			w.emit(opForejump)

			if len(node.children) > 1 {
				break
			}

			w.patchJump(w.popInt(), w.curPos())
		case 1:
			w.patchJump(w.popInt(), w.curPos())
		}

	case int(ntTestgroup) | beforeChild:
		if curIndex == 0 {
			w.emit(opSetjump)
			w.emit(opSetmark)
			w.pushInt(w.curPos())
			w.emit2(opLazybranch, 0)
		}

	case int(ntTestgroup) | afterChild:
		switch curIndex {
		case 0: // after the condition
			w.emit(opGetmark)
			w.emit(opForejump)
		case 1: // after the yes-branch
			branchpos := w.popInt()
			w.pushInt(w.curPos())
			w.emit2(opGoto, 0)
			w.patchJump(branchpos, w.curPos())
			w.emit(opGetmark)
			w.emit(opForejump)

			if len(node.children) > 2 {
				break
			}

			w.patchJump(w.popInt(), w.curPos())
		case 2:
			w.patchJump(w.popInt(), w.curPos())
		}

	case int(ntDefine) | beforeChild:
		// the body only runs through subroutine calls
		w.pushInt(w.curPos())
		w.emit2(opGoto, 0)

	case int(ntDefine) | afterChild:
		w.patchJump(w.popInt(), w.curPos())

	case int(ntLoop) | beforeChild, int(ntLazyloop) | beforeChild:
		if node.n < infinite || node.m > 1 {
			if node.m == 0 {
				w.emit2(opNullcount, 0)
			} else {
				w.emit2(opSetcount, 1-node.m)
			}
		} else if node.m == 0 {
			w.emit(opNullmark)
		} else {
			w.emit(opSetmark)
		}

		if node.m == 0 {
			w.pushInt(w.curPos())
			w.emit2(opGoto, 0)
		}
		w.pushInt(w.curPos())

	case int(ntLoop) | afterChild, int(ntLazyloop) | afterChild:
		startJumpPos := w.curPos()
		lazy := 0
		if nodetype == int(ntLazyloop)|afterChild {
			lazy = 1
		}

		if node.n < infinite || node.m > 1 {
			count := infinite
			if node.n != infinite {
				count = node.n - node.m
			}

			w.emit3(opBranchcount+lazy, w.popInt(), count)
		} else {
			w.emit2(opBranchmark+lazy, w.popInt())
		}

		if node.m == 0 {
			w.patchJump(w.popInt(), startJumpPos)
		}

	case int(ntCapture) | beforeChild:
		if curIndex == 0 {
			w.noteCapPosition(w.mapCapnum(node.m), w.curPos())
			w.emit(opSetmark)
		}

	case int(ntCapture) | afterChild:
		if curIndex == len(node.children)-1 {
			w.emit3(opCapturemark, w.mapCapnum(node.m), w.mapCapnum(node.n))
		}

	case int(ntRequire) | beforeChild:
		w.emit(opSetjump)
		w.emit(opSetmark)

	case int(ntRequire) | afterChild:
		w.emit(opGetmark)
		w.emit(opForejump)

	case int(ntPrevent) | beforeChild:
		w.emit(opSetjump)
		w.pushInt(w.curPos())
		w.emit2(opLazybranch, 0)

	case int(ntPrevent) | afterChild:
		w.emit(opBackjump)
		w.patchJump(w.popInt(), w.curPos())
		w.emit(opForejump)

	case int(ntGreedy) | beforeChild:
		w.emit(opSetjump)

	case int(ntGreedy) | afterChild:
		w.emit(opForejump)

	case int(ntOne):
		w.emit2(opOne|bits, int(node.ch))

	case int(ntNotone):
		w.emit2(opNotone|bits, int(node.ch))

	case int(ntOneloop), int(ntNotoneloop), int(ntOnelazy), int(ntNotonelazy):
		if node.m > 0 {
			rep := opOnerep
			if nodetype == int(ntNotoneloop) || nodetype == int(ntNotonelazy) {
				rep = opNotonerep
			}

			w.emit3(rep|bits, int(node.ch), node.m)
		}

		if node.n > node.m {
			count := infinite
			if node.n != infinite {
				count = node.n - node.m
			}

			var op int
			switch nodetype {
			case int(ntOneloop):
				op = opOneloop
			case int(ntNotoneloop):
				op = opNotoneloop
			case int(ntOnelazy):
				op = opOnelazy
			default:
				op = opNotonelazy
			}

			w.emit3(op|bits, int(node.ch), count)
		}

	case int(ntSetloop), int(ntSetlazy):
		if node.m > 0 {
			w.emit3(opSetrep|bits, w.stringCode(node.str), node.m)
		}

		if node.n > node.m {
			count := infinite
			if node.n != infinite {
				count = node.n - node.m
			}

			op := opSetloop
			if nodetype == int(ntSetlazy) {
				op = opSetlazy
			}

			w.emit3(op|bits, w.stringCode(node.str), count)
		}

	case int(ntMulti):
		w.emit2(opMulti|bits, w.stringCode(node.str))

	case int(ntSet):
		w.emit2(opSet|bits, w.stringCode(node.str))

	case int(ntRef):
		w.emit2(opRef|bits, w.mapCapnum(node.m))

	case int(ntCall):
		w.emit2(opCall|bits, w.mapCapnum(node.m))

	case int(ntVerb):
		w.emit2(opVerb, node.m)

	case int(ntBol):
		w.emit(opBol)
	case int(ntEol):
		w.emit(opEol)
	case int(ntBoundary):
		w.emit(opBoundary)
	case int(ntNonboundary):
		w.emit(opNonboundary)
	case int(ntECMABoundary):
		w.emit(opECMABoundary)
	case int(ntNonECMABoundary):
		w.emit(opNonECMABoundary)
	case int(ntBeginning):
		w.emit(opBeginning)
	case int(ntStart):
		w.emit(opStart)
	case int(ntEndZ):
		w.emit(opEndZ)
	case int(ntEnd):
		w.emit(opEnd)
	case int(ntResetMatchStart):
		w.emit(opResetMatchStart)

	case int(ntNothing):
		w.emit(opNothing)

	case int(ntEmpty):
		// matches the empty string; no code

	default:
		panic("unexpected node type in writer")
	}
}

// metadata analysis

// leadingAnchors returns the mask of anchors, that every match must start
// with. The walk follows the left spine of the tree through groups and
// captures and stops at the first node, that consumes characters.
func leadingAnchors(tree *RegexTree) int {
	anchors := 0

	node := tree.root
	for node != nil {
		switch node.t {
		case ntBeginning:
			return anchors | AnchorBeginning
		case ntStart:
			return anchors | AnchorStart
		case ntBol:
			return anchors | AnchorBol
		case ntConcatenate:
			if len(node.children) == 0 {
				return anchors
			}
			node = node.children[0]
		case ntCapture, ntGroup, ntGreedy:
			if len(node.children) == 0 {
				return anchors
			}
			node = node.children[0]
		default:
			return anchors
		}
	}

	return anchors
}

// literalPrefix returns the fixed literal prefix of the pattern and whether
// it is matched case-insensitively. Right-to-left patterns report no
// prefix.
func literalPrefix(tree *RegexTree) (string, bool) {
	if tree.options&RightToLeft != 0 {
		return "", false
	}

	var b strings.Builder
	ci := false
	haveCi := false

	// the pending nodes of the left spine, in visit order
	pending := []*regexNode{tree.root}

	for len(pending) > 0 {
		node := pending[0]
		pending = pending[1:]

		nodeCi := node.options&IgnoreCase != 0

		switch node.t {
		case ntConcatenate:
			pending = append(slices.Clone(node.children), pending...)

		case ntCapture, ntGroup, ntGreedy:
			if len(node.children) > 0 {
				pending = append([]*regexNode{node.children[0]}, pending...)
			}

		case ntBol, ntEol, ntBoundary, ntNonboundary, ntECMABoundary, ntNonECMABoundary,
			ntBeginning, ntStart, ntEndZ, ntEnd, ntResetMatchStart, ntEmpty:
			// zero-width; keep going

		case ntOne:
			if haveCi && ci != nodeCi {
				return b.String(), ci
			}
			ci, haveCi = nodeCi, true

			b.WriteRune(node.ch)

		case ntMulti:
			if haveCi && ci != nodeCi {
				return b.String(), ci
			}
			ci, haveCi = nodeCi, true

			b.WriteString(node.str)

		case ntOneloop, ntOnelazy:
			if node.m == 0 {
				return b.String(), ci
			}
			if haveCi && ci != nodeCi {
				return b.String(), ci
			}
			ci, haveCi = nodeCi, true

			for i := 0; i < node.m; i++ {
				b.WriteRune(node.ch)
			}
			if node.n > node.m {
				return b.String(), ci
			}

		default:
			return b.String(), ci
		}
	}

	return b.String(), ci
}

// firstChars computes the set of characters a match can start with.
// The third return value is false when the set could not be derived, for
// example because the pattern may start with a backreference.
func firstChars(node *regexNode) (*charClass, bool, bool) {
	cc := newCharClass()

	ci, ok := addFirstChars(cc, node)
	if !ok {
		return nil, false, false
	}

	return cc, ci, true
}

// addFirstChars merges the possible first characters of a node into the
// class and reports whether any contributing node is case-insensitive.
// Nodes, that can match the empty string, poison the derivation, because
// the characters of the following node would have to be included as well;
// concatenations handle that by walking their children until a child
// consumes.
func addFirstChars(cc *charClass, node *regexNode) (bool, bool) {
	switch node.t {
	case ntOne:
		cc.addChar(node.ch)
		return node.options&IgnoreCase != 0, true

	case ntMulti:
		if node.str == "" {
			return false, false
		}

		if node.options&RightToLeft != 0 {
			runes := []rune(node.str)
			cc.addChar(runes[len(runes)-1])
		} else {
			cc.addChar([]rune(node.str)[0])
		}

		return node.options&IgnoreCase != 0, true

	case ntOneloop, ntOnelazy:
		if node.m == 0 {
			return false, false
		}

		cc.addChar(node.ch)
		return node.options&IgnoreCase != 0, true

	case ntSet:
		if isNegatedClass(node.str) {
			return false, false
		}

		cc.addSet(node.str)
		return node.options&IgnoreCase != 0, true

	case ntSetloop, ntSetlazy:
		if node.m == 0 || isNegatedClass(node.str) {
			return false, false
		}

		cc.addSet(node.str)
		return node.options&IgnoreCase != 0, true

	case ntCapture, ntGroup, ntGreedy:
		if len(node.children) == 0 {
			return false, false
		}

		return addFirstChars(cc, node.children[0])

	case ntConcatenate:
		for _, child := range node.children {
			if isZeroWidth(child) {
				continue
			}
			if isNullable(child) {
				return false, false
			}

			return addFirstChars(cc, child)
		}

		return false, false

	case ntAlternate:
		anyCi := false
		for _, child := range node.children {
			ci, ok := addFirstChars(cc, child)
			if !ok {
				return false, false
			}

			anyCi = anyCi || ci
		}

		return anyCi, true

	default:
		return false, false
	}
}

// isZeroWidth checks, whether the node never consumes characters.
func isZeroWidth(n *regexNode) bool {
	switch n.t {
	case ntBol, ntEol, ntBoundary, ntNonboundary, ntECMABoundary, ntNonECMABoundary,
		ntBeginning, ntStart, ntEndZ, ntEnd, ntResetMatchStart, ntEmpty,
		ntRequire, ntPrevent:
		return true
	default:
		return false
	}
}

// isNullable checks, whether the node may match the empty string.
func isNullable(n *regexNode) bool {
	switch n.t {
	case ntOneloop, ntOnelazy, ntNotoneloop, ntNotonelazy, ntSetloop, ntSetlazy:
		return n.m == 0
	case ntLoop, ntLazyloop:
		return n.m == 0 || isNullable(n.children[0])
	case ntCapture, ntGroup, ntGreedy:
		return len(n.children) == 0 || isNullable(n.children[0])
	case ntConcatenate:
		for _, child := range n.children {
			if !isZeroWidth(child) && !isNullable(child) {
				return false
			}
		}
		return true
	case ntAlternate:
		for _, child := range n.children {
			if isNullable(child) {
				return true
			}
		}
		return false
	default:
		return isZeroWidth(n)
	}
}
