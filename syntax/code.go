package syntax

import (
	"fmt"
	"strings"
	"unicode"
)

// The program of a compiled pattern is a flat array of integer codes, where
// an operation is followed by its operands. Set strings and literal runs
// live in a deduplicated string table and are referenced by index.
// Two high bits carry the right-to-left and case-insensitive flags of the
// instruction.
const (
	opOnerep     = 0 // ch, count; fixed repeat of one character
	opNotonerep  = 1 // ch, count
	opSetrep     = 2 // setIdx, count
	opOneloop    = 3 // ch, max; greedy loop
	opNotoneloop = 4 // ch, max
	opSetloop    = 5 // setIdx, max
	opOnelazy    = 6 // ch, max; lazy loop
	opNotonelazy = 7 // ch, max
	opSetlazy    = 8 // setIdx, max

	opOne    = 9  // ch
	opNotone = 10 // ch
	opSet    = 11 // setIdx
	opMulti  = 12 // strIdx
	opRef    = 13 // slot

	opBol             = 14
	opEol             = 15
	opBoundary        = 16
	opNonboundary     = 17
	opBeginning       = 18
	opStart           = 19
	opEndZ            = 20
	opEnd             = 21
	opNothing         = 22
	opECMABoundary    = 23
	opNonECMABoundary = 24
	opResetMatchStart = 25

	opLazybranch      = 26 // addr
	opBranchmark      = 27 // addr
	opLazybranchmark  = 28 // addr
	opBranchcount     = 29 // addr, count
	opLazybranchcount = 30 // addr, count
	opNullcount       = 31 // value
	opSetcount        = 32 // value
	opNullmark        = 33
	opSetmark         = 34
	opCapturemark     = 35 // slot, uncapSlot
	opGetmark         = 36
	opSetjump         = 37
	opBackjump        = 38
	opForejump        = 39
	opGoto            = 40 // addr
	opTestref         = 41 // slot
	opCall            = 42 // slot; subroutine call
	opVerb            = 43 // verb code
	opStop            = 44

	// flag bits OR'd into the operation
	opMask = 0x3f
	opRtl  = 0x40
	opCi   = 0x80
)

// opcodeSizes holds the total size in code slots of each operation,
// including the operation itself.
var opcodeSizes = [...]int{
	opOnerep: 3, opNotonerep: 3, opSetrep: 3,
	opOneloop: 3, opNotoneloop: 3, opSetloop: 3,
	opOnelazy: 3, opNotonelazy: 3, opSetlazy: 3,

	opOne: 2, opNotone: 2, opSet: 2, opMulti: 2, opRef: 2,

	opBol: 1, opEol: 1, opBoundary: 1, opNonboundary: 1,
	opBeginning: 1, opStart: 1, opEndZ: 1, opEnd: 1,
	opNothing: 1, opECMABoundary: 1, opNonECMABoundary: 1,
	opResetMatchStart: 1,

	opLazybranch: 2, opBranchmark: 2, opLazybranchmark: 2,
	opBranchcount: 3, opLazybranchcount: 3,
	opNullcount: 2, opSetcount: 2,
	opNullmark: 1, opSetmark: 1,
	opCapturemark: 3, opGetmark: 1,
	opSetjump: 1, opBackjump: 1, opForejump: 1,
	opGoto: 2, opTestref: 2, opCall: 2, opVerb: 2,
	opStop: 1,
}

// opcodeNames holds the mnemonic of each operation for disassembly.
var opcodeNames = [...]string{
	"Onerep", "Notonerep", "Setrep",
	"Oneloop", "Notoneloop", "Setloop",
	"Onelazy", "Notonelazy", "Setlazy",
	"One", "Notone", "Set", "Multi", "Ref",
	"Bol", "Eol", "Boundary", "Nonboundary",
	"Beginning", "Start", "EndZ", "End",
	"Nothing", "ECMABoundary", "NonECMABoundary", "ResetMatchStart",
	"Lazybranch", "Branchmark", "Lazybranchmark",
	"Branchcount", "Lazybranchcount",
	"Nullcount", "Setcount", "Nullmark", "Setmark",
	"Capturemark", "Getmark",
	"Setjump", "Backjump", "Forejump",
	"Goto", "Testref", "Call", "Verb",
	"Stop",
}

// opcodeSize returns the size of an operation with its flag bits removed.
func opcodeSize(op int) int {
	return opcodeSizes[op&opMask]
}

// opcodeBacktracks checks, whether the operation may push a backtracking
// frame during matching. The counted operations size the track stack the
// matcher preallocates.
func opcodeBacktracks(op int) bool {
	switch op & opMask {
	case opOneloop, opNotoneloop, opSetloop,
		opOnelazy, opNotonelazy, opSetlazy,
		opLazybranch, opBranchmark, opLazybranchmark,
		opBranchcount, opLazybranchcount,
		opNullcount, opSetcount, opNullmark, opSetmark,
		opCapturemark, opGetmark,
		opSetjump, opBackjump, opForejump, opGoto,
		opCall, opVerb:
		return true
	default:
		return false
	}
}

// Anchor bits of the anchor mask of a program.
const (
	AnchorBeginning = 1 << iota // \A
	AnchorStart                 // \G
	AnchorBol                   // ^
)

// Code is the compiled program of a pattern.
// A Code value is immutable once built and may be shared across goroutines
// without locking.
type Code struct {
	// Codes is the flat array of operations and operands.
	Codes []int

	// Strings is the deduplicated table of set strings and literal runs.
	Strings []string

	// TrackCount is the number of operations, that may push a
	// backtracking frame; the matcher preallocates its track stack with
	// this size.
	TrackCount int

	// Caps maps external capture slots to dense indices; it is nil when
	// the used slots already are contiguous.
	Caps map[int]int

	// Capsize is the number of dense capture slots.
	Capsize int

	// CapPositions holds for each dense slot the code position at which
	// the capture opens; the matcher resolves subroutine calls with it.
	// Slots, that never open, hold -1.
	CapPositions []int

	// FCPrefix describes the possible first characters of a match, if
	// they could be computed.
	FCPrefix *Prefix

	// BMPrefix is the fast scanner for a fixed literal prefix.
	BMPrefix *BoyerMoore

	// Anchors is the mask of anchors, that every match starts with.
	Anchors int

	// RightToLeft reports whether the pattern is matched from right to
	// left.
	RightToLeft bool
}

// Prefix is a set of possible leading characters of a match.
type Prefix struct {
	Set             string // a serialised set string
	CaseInsensitive bool
}

// String returns a readable description of the prefix set.
func (p *Prefix) String() string {
	s := setDescription(p.Set)
	if p.CaseInsensitive {
		s += " (ignoring case)"
	}

	return s
}

// Dump returns a disassembly of the program.
func (c *Code) Dump() string {
	var b strings.Builder

	for pos := 0; pos < len(c.Codes); {
		op := c.Codes[pos]

		fmt.Fprintf(&b, "%04d %s", pos, opcodeNames[op&opMask])
		if op&opCi != 0 {
			b.WriteString("-Ci")
		}
		if op&opRtl != 0 {
			b.WriteString("-Rtl")
		}

		switch op & opMask {
		case opOne, opNotone:
			fmt.Fprintf(&b, " %s", charDescription(rune(c.Codes[pos+1])))
		case opOnerep, opNotonerep, opOneloop, opNotoneloop, opOnelazy, opNotonelazy:
			fmt.Fprintf(&b, " %s, %s", charDescription(rune(c.Codes[pos+1])), boundDescription(c.Codes[pos+2]))
		case opSet:
			fmt.Fprintf(&b, " %s", setDescription(c.Strings[c.Codes[pos+1]]))
		case opSetrep, opSetloop, opSetlazy:
			fmt.Fprintf(&b, " %s, %s", setDescription(c.Strings[c.Codes[pos+1]]), boundDescription(c.Codes[pos+2]))
		case opMulti:
			fmt.Fprintf(&b, " %q", c.Strings[c.Codes[pos+1]])
		case opRef, opTestref, opCall:
			fmt.Fprintf(&b, " slot %d", c.Codes[pos+1])
		case opCapturemark:
			fmt.Fprintf(&b, " %d, %d", c.Codes[pos+1], c.Codes[pos+2])
		case opLazybranch, opBranchmark, opLazybranchmark, opGoto:
			fmt.Fprintf(&b, " -> %04d", c.Codes[pos+1])
		case opBranchcount, opLazybranchcount:
			fmt.Fprintf(&b, " -> %04d, %s", c.Codes[pos+1], boundDescription(c.Codes[pos+2]))
		case opNullcount, opSetcount, opVerb:
			fmt.Fprintf(&b, " %d", c.Codes[pos+1])
		}

		b.WriteByte('\n')
		pos += opcodeSize(op)
	}

	return b.String()
}

// BoyerMoore is a skip-table scanner for a fixed literal prefix.
// It precomputes for every character the distance the search window may
// advance when the character mismatches.
type BoyerMoore struct {
	Pattern         string
	CaseInsensitive bool
	RightToLeft     bool

	// NegativeASCII holds the skip distance of the low characters; all
	// other characters use the lookup map.
	NegativeASCII [128]int
	negative      map[rune]int
}

// newBoyerMoore builds the skip tables for a literal prefix.
// For right-to-left matching the pattern is scanned mirrored.
func newBoyerMoore(pattern string, ci, rtl bool) *BoyerMoore {
	b := &BoyerMoore{
		Pattern:         pattern,
		CaseInsensitive: ci,
		RightToLeft:     rtl,
		negative:        make(map[rune]int),
	}

	runes := []rune(pattern)
	n := len(runes)

	for i := range b.NegativeASCII {
		b.NegativeASCII[i] = n
	}

	// the shift of each character, measured from the scan end; the
	// character at the scan end itself keeps the full shift
	for i, ch := range runes {
		var dist int
		if rtl {
			dist = i
		} else {
			dist = n - 1 - i
		}
		if dist == 0 {
			continue
		}

		if ci {
			ch = unicode.ToLower(ch)
		}

		if ch < 128 {
			b.NegativeASCII[ch] = min(b.NegativeASCII[ch], dist)
		} else {
			d, ok := b.negative[ch]
			if !ok || dist < d {
				b.negative[ch] = dist
			}
		}
	}

	return b
}

// skip returns the distance to advance when the given character mismatches
// at the end of the window.
func (b *BoyerMoore) skip(ch rune) int {
	if b.CaseInsensitive {
		ch = unicode.ToLower(ch)
	}

	if ch < 128 {
		return b.NegativeASCII[ch]
	}
	if d, ok := b.negative[ch]; ok {
		return d
	}

	return len([]rune(b.Pattern))
}

// Scan searches the prefix in the text beginning at start and returns the
// index of the first occurrence, or -1. Only the left-to-right direction is
// scanned here; right-to-left matching walks the text itself in reverse.
func (b *BoyerMoore) Scan(text string, start int) int {
	pattern := []rune(b.Pattern)
	runes := []rune(text)

	n := len(pattern)
	if n == 0 {
		return start
	}

	for pos := start; pos+n <= len(runes); {
		i := n - 1
		for i >= 0 {
			ch := runes[pos+i]
			if b.CaseInsensitive {
				ch = unicode.ToLower(ch)
			}

			if ch != pattern[i] {
				break
			}
			i--
		}

		if i < 0 {
			return pos
		}

		pos += b.skip(runes[pos+n-1])
	}

	return -1
}
