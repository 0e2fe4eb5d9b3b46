package syntax

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"
)

// compile parses, transforms and writes a pattern.
func compile(t *testing.T, pattern string, opts Options) *Code {
	t.Helper()

	tree, err := Parse(pattern, opts)
	assert.NilError(t, err, "pattern %s", pattern)

	return Write(Transform(tree))
}

// a corpus of patterns covering all emitters.
var writerCorpus = []string{
	"/abc/",
	"/a|b|c/",
	"/(foo)(bar)(baz)/",
	"/a*/",
	"/a+?/",
	"/a{2,5}/",
	"/(ab){3,}/",
	"/(ab)*?/",
	"/[a-z0-9]+/i",
	"/(?=ab)c/",
	"/(?!ab)c/",
	"/(?<=ab)c/",
	"/(?<!ab)c/",
	"/(?>a+)b/",
	"/a*+b/",
	`/(a)\1/`,
	"/(x)(?(1)y|z)/",
	"/(?(?=a)b|c)/",
	`/(?(DEFINE)(?<d>\d))x(?&d)/`,
	`/(a)(?1)/`,
	"/(*ACCEPT)a/",
	"/a(*PRUNE)b/",
	`/\Aa\z/`,
	`/^a$/m`,
	"/(*CRLF)^a$/m",
	`/\b\d+\b/`,
	`/\K[a-f]/`,
	`/(?|(a)|(b))(c)/`,
	`/[\xC2-\xDF][\x80-\xBF]/`,
	"/x/U",
	"/長い文字列/u",
}

// validateCode walks the program and checks, that every operation is known,
// every jump target lies inside the program, every string operand refers to
// an existing table entry and every slot operand is a valid dense slot.
func validateCode(t *testing.T, pattern string, c *Code) {
	t.Helper()

	pos := 0
	for pos < len(c.Codes) {
		op := c.Codes[pos]

		assert.Check(t, op&opMask <= opStop, "pattern %s: bad op %d at %d", pattern, op, pos)

		size := opcodeSize(op)
		assert.Check(t, pos+size <= len(c.Codes), "pattern %s: truncated op at %d", pattern, pos)

		switch op & opMask {
		case opLazybranch, opBranchmark, opLazybranchmark, opBranchcount, opLazybranchcount, opGoto:
			target := c.Codes[pos+1]
			assert.Check(t, target >= 0 && target <= len(c.Codes),
				"pattern %s: jump to %d at %d", pattern, target, pos)

		case opSet, opSetrep, opSetloop, opSetlazy, opMulti:
			idx := c.Codes[pos+1]
			assert.Check(t, idx >= 0 && idx < len(c.Strings),
				"pattern %s: string %d at %d", pattern, idx, pos)

		case opRef, opTestref, opCall:
			slot := c.Codes[pos+1]
			assert.Check(t, slot >= 0 && slot < c.Capsize,
				"pattern %s: slot %d at %d", pattern, slot, pos)

		case opCapturemark:
			slot := c.Codes[pos+1]
			assert.Check(t, slot >= 0 && slot < c.Capsize,
				"pattern %s: capture slot %d at %d", pattern, slot, pos)

			uncap := c.Codes[pos+2]
			assert.Check(t, uncap == -1 || (uncap >= 0 && uncap < c.Capsize),
				"pattern %s: uncap slot %d at %d", pattern, uncap, pos)
		}

		pos += size
	}

	assert.Equal(t, c.Codes[len(c.Codes)-1]&opMask, opStop, "pattern %s: missing stop", pattern)
}

func TestWriteWellFormed(t *testing.T) {
	for _, pattern := range writerCorpus {
		c := compile(t, pattern, 0)

		validateCode(t, pattern, c)
		assert.Check(t, c.TrackCount > 0, "pattern %s", pattern)
		assert.Check(t, c.Capsize >= 1, "pattern %s", pattern)
	}
}

func TestWriteDenseRemap(t *testing.T) {
	for _, pattern := range writerCorpus {
		tree, err := Parse(pattern, 0)
		assert.NilError(t, err)

		c := Write(tree)

		// each used external slot maps to a unique dense index
		seen := make(map[int]bool)
		for i := 0; i < tree.CaptureCount(); i++ {
			dense := i
			if c.Caps != nil {
				var ok bool
				dense, ok = c.Caps[i]
				if !ok {
					continue
				}
			}

			assert.Check(t, dense >= 0 && dense < c.Capsize, "pattern %s", pattern)
			assert.Check(t, !seen[dense], "pattern %s: dense slot %d reused", pattern, dense)
			seen[dense] = true
		}
	}
}

func TestWriteAlternation(t *testing.T) {
	c := compile(t, "/a|b/", 0)

	want := []int{
		opLazybranch, 14,
		opSetmark,
		opLazybranch, 9,
		opOne, 'a',
		opGoto, 11,
		opOne, 'b',
		opCapturemark, 0, -1,
		opStop,
	}

	assert.DeepEqual(t, c.Codes, want)
}

func TestWriteLookahead(t *testing.T) {
	c := compile(t, "/(?=a)b/", 0)

	want := []int{
		opLazybranch, 14,
		opSetmark,
		opSetjump,
		opSetmark,
		opOne, 'a',
		opGetmark,
		opForejump,
		opOne, 'b',
		opCapturemark, 0, -1,
		opStop,
	}

	assert.DeepEqual(t, c.Codes, want)
}

func TestWriteNegativeLookahead(t *testing.T) {
	c := compile(t, "/(?!a)/", 0)

	want := []int{
		opLazybranch, 13,
		opSetmark,
		opSetjump,
		opLazybranch, 9,
		opOne, 'a',
		opBackjump,
		opForejump,
		opCapturemark, 0, -1,
		opStop,
	}

	assert.DeepEqual(t, c.Codes, want)
}

func TestWriteLoop(t *testing.T) {
	// an unbounded loop over a group uses marks
	c := compile(t, "/(?:ab)*/", 0)

	want := []int{
		opLazybranch, 13,
		opSetmark,
		opNullmark,
		opGoto, 8,
		opMulti, 0,
		opBranchmark, 6,
		opCapturemark, 0, -1,
		opStop,
	}

	assert.DeepEqual(t, c.Codes, want)
	assert.DeepEqual(t, c.Strings, []string{"ab"})

	// a counted loop uses counters
	c = compile(t, "/(?:ab){2,5}/", 0)

	want = []int{
		opLazybranch, 13,
		opSetmark,
		opSetcount, -1,
		opMulti, 0,
		opBranchcount, 5, 3,
		opCapturemark, 0, -1,
		opStop,
	}

	assert.DeepEqual(t, c.Codes, want)
}

func TestWriteSingleCharLoops(t *testing.T) {
	// min repetitions split into a fixed repeat and a loop remainder
	c := compile(t, "/a{2,5}/", 0)

	want := []int{
		opLazybranch, 12,
		opSetmark,
		opOnerep, 'a', 2,
		opOneloop, 'a', 3,
		opCapturemark, 0, -1,
		opStop,
	}

	assert.DeepEqual(t, c.Codes, want)
}

func TestWriteFlags(t *testing.T) {
	c := compile(t, "/a/i", 0)

	assert.Equal(t, c.Codes[3], opOne|opCi)
	assert.Equal(t, c.Codes[4], int('a'))

	c = compile(t, "/(?<=a)b/", 0)

	found := false
	for pos := 0; pos < len(c.Codes); pos += opcodeSize(c.Codes[pos]) {
		if c.Codes[pos] == opOne|opRtl {
			found = true
		}
	}
	assert.Check(t, found, "no right-to-left instruction emitted")
}

func TestWriteCapPositions(t *testing.T) {
	c := compile(t, "/(a)(b)/", 0)

	assert.Equal(t, c.Capsize, 3)
	assert.Equal(t, c.CapPositions[0], 2)

	// each slot opens at its Setmark
	for slot := 1; slot < 3; slot++ {
		pos := c.CapPositions[slot]
		assert.Check(t, pos >= 0 && pos < len(c.Codes), "slot %d", slot)
		assert.Equal(t, c.Codes[pos], opSetmark, "slot %d", slot)
	}

	// branch-reset siblings keep the first opening position
	c = compile(t, `/(?|(a)|(b))/`, 0)
	assert.Equal(t, c.Capsize, 2)
	assert.Equal(t, c.Codes[c.CapPositions[1]], opSetmark)
}

func TestWriteUngreedyInversion(t *testing.T) {
	cases := []struct {
		ungreedy string
		flipped  string
	}{
		{"/a*b+?c{2,3}/U", "/a*?b+c{2,3}?/"},
		{"/(ab)*x/U", "/(ab)*?x/"},
		{"/a*+b/U", "/a*+b/"},
	}

	for _, tt := range cases {
		left := compile(t, tt.ungreedy, 0)
		right := compile(t, tt.flipped, 0)

		assert.Check(t, cmp.Diff(left.Codes, right.Codes) == "",
			"programs differ: %s vs %s", tt.ungreedy, tt.flipped)
		assert.Check(t, cmp.Diff(left.Strings, right.Strings) == "",
			"string tables differ: %s vs %s", tt.ungreedy, tt.flipped)
	}
}

func TestWriteAnchors(t *testing.T) {
	cases := []struct {
		pattern string
		want    int
	}{
		{"/^a/", AnchorBeginning},
		{"/^a/m", AnchorBol},
		{`/\Ga/`, AnchorStart},
		{`/\Aa/`, AnchorBeginning},
		{"/a/", 0},
		{"/(^a)/m", AnchorBol},
	}

	for _, tt := range cases {
		c := compile(t, tt.pattern, 0)
		assert.Equal(t, c.Anchors, tt.want, "pattern %s", tt.pattern)
	}
}

func TestWritePrefixes(t *testing.T) {
	c := compile(t, "/foobar[0-9]/", 0)

	assert.Assert(t, c.BMPrefix != nil)
	assert.Equal(t, c.BMPrefix.Pattern, "foobar")

	assert.Assert(t, c.FCPrefix != nil)
	assert.Check(t, charInClass('f', c.FCPrefix.Set))
	assert.Check(t, !charInClass('o', c.FCPrefix.Set))

	// alternations contribute every branch
	c = compile(t, "/foo|bar/", 0)
	assert.Assert(t, c.FCPrefix != nil)
	assert.Check(t, charInClass('f', c.FCPrefix.Set))
	assert.Check(t, charInClass('b', c.FCPrefix.Set))

	// a leading backreference prevents the derivation
	c = compile(t, `/(a)\1x/`, 0)
	assert.Check(t, c.FCPrefix == nil || charInClass('a', c.FCPrefix.Set))
}

func TestBoyerMooreScan(t *testing.T) {
	bm := newBoyerMoore("needle", false, false)

	assert.Equal(t, bm.Scan("haystack with a needle inside", 0), 16)
	assert.Equal(t, bm.Scan("no match here", 0), -1)
	assert.Equal(t, bm.Scan("needle", 0), 0)
	assert.Equal(t, bm.Scan("nearly a needlz, then a needle", 0), 24)

	bm = newBoyerMoore("ab", false, false)
	assert.Equal(t, bm.Scan("aab", 0), 1)

	bm = newBoyerMoore("abc", true, false)
	assert.Equal(t, bm.Scan("xxABCxx", 0), 2)
}

func TestDumpDisassembly(t *testing.T) {
	c := compile(t, "/a|b/", 0)

	dump := c.Dump()
	assert.Check(t, strings.Contains(dump, "Lazybranch"), "dump: %s", dump)
	assert.Check(t, strings.Contains(dump, "Stop"), "dump: %s", dump)
}
