package syntax

import (
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

func transformed(t *testing.T, pattern string) string {
	t.Helper()

	tree := mustParse(t, pattern)
	Transform(tree)

	return tree.Dump()
}

func TestTransformTwoByte(t *testing.T) {
	dump := transformed(t, `/[\xC2-\xDF][\x80-\xBF]/`)

	assert.Check(t, strings.Contains(dump, `Set(set = [\x{0080}-\x{07ff}])`), "dump: %s", dump)
	assert.Check(t, !strings.Contains(dump, `\x{00c2}`), "dump: %s", dump)
}

func TestTransformThreeByte(t *testing.T) {
	cases := []struct {
		pattern string
		want    string
	}{
		{`/\xE0[\xA0-\xBF][\x80-\xBF]/`, `Set(set = [\x{0800}-\x{0fff}])`},
		{`/[\xE1-\xEC][\x80-\xBF][\x80-\xBF]/`, `Set(set = [\x{1000}-\x{cfff}])`},
		{`/[\xE1-\xEC][\x80-\xBF]{2}/`, `Set(set = [\x{1000}-\x{cfff}])`},
		{`/\xED[\x80-\x9F][\x80-\xBF]/`, `Set(set = [\x{d000}-\x{d7ff}])`},
		{`/[\xEE-\xEF][\x80-\xBF]{2}/`, `Set(set = [\x{e000}-\x{ffff}])`},
	}

	for _, tt := range cases {
		dump := transformed(t, tt.pattern)
		assert.Check(t, strings.Contains(dump, tt.want),
			"pattern %s: dump %q misses %q", tt.pattern, dump, tt.want)
	}
}

func TestTransformFourByte(t *testing.T) {
	cases := []struct {
		pattern string
		want    []string
	}{
		{`/\xF0[\x90-\xBF][\x80-\xBF]{2}/`, []string{
			`Set(set = [\x{d800}-\x{d8bf}])`,
			`Set(set = [\x{dc00}-\x{dfff}])`,
		}},
		{`/[\xF1-\xF3][\x80-\xBF]{3}/`, []string{
			`Set(set = [\x{d8c0}-\x{dbbf}])`,
			`Set(set = [\x{dc00}-\x{dfff}])`,
		}},
		{`/\xF4[\x80-\x8F][\x80-\xBF]{2}/`, []string{
			`Set(set = [\x{dbc0}-\x{dbff}])`,
			`Set(set = [\x{dc00}-\x{dfff}])`,
		}},
	}

	for _, tt := range cases {
		dump := transformed(t, tt.pattern)
		for _, want := range tt.want {
			assert.Check(t, strings.Contains(dump, want),
				"pattern %s: dump %q misses %q", tt.pattern, dump, want)
		}
	}
}

func TestTransformLeftover(t *testing.T) {
	// the loop reaches one repetition beyond the recognised sequence
	dump := transformed(t, `/[\xE1-\xEC][\x80-\xBF]{3}/`)

	assert.Check(t, strings.Contains(dump, `Set(set = [\x{1000}-\x{cfff}])`), "dump: %s", dump)
	assert.Check(t, strings.Contains(dump, `Set(set = [\x{0080}-\x{00bf}])`), "dump: %s", dump)
}

func TestTransformLeavesOthersAlone(t *testing.T) {
	cases := []string{
		`/[\xC2-\xDF]x/`,
		`/[\xC2-\xDF][\x80-\xC0]/`,
		`/[\xC2-\xDE][\x80-\xBF]/`,
		`/\xE0[\x80-\xBF][\x80-\xBF]/`,
		`/abc[x-z]/`,
	}

	for _, pattern := range cases {
		tree := mustParse(t, pattern)
		before := tree.Dump()

		Transform(tree)
		assert.Equal(t, tree.Dump(), before, "pattern %s", pattern)
	}
}

func TestTransformIdempotent(t *testing.T) {
	cases := []string{
		`/[\xC2-\xDF][\x80-\xBF]/`,
		`/[\xF1-\xF3][\x80-\xBF]{3}/`,
		`/(\xE0[\xA0-\xBF][\x80-\xBF])+[\xC2-\xDF][\x80-\xBF]/`,
	}

	for _, pattern := range cases {
		tree := mustParse(t, pattern)

		Transform(tree)
		once := tree.Dump()

		Transform(tree)
		assert.Equal(t, tree.Dump(), once, "pattern %s", pattern)
	}
}

func TestTransformInsideGroups(t *testing.T) {
	dump := transformed(t, `/a([\xC2-\xDF][\x80-\xBF])b/`)

	assert.Check(t, strings.Contains(dump, `Set(set = [\x{0080}-\x{07ff}])`), "dump: %s", dump)
}
