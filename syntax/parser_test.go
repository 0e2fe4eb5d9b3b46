package syntax

import (
	"errors"
	"os"
	"strings"
	"testing"

	"gopkg.in/yaml.v2"
	"gotest.tools/v3/assert"
)

func mustParse(t *testing.T, pattern string) *RegexTree {
	t.Helper()

	tree, err := Parse(pattern, 0)
	assert.NilError(t, err, "pattern %s", pattern)

	return tree
}

func TestParseSimple(t *testing.T) {
	tree := mustParse(t, "/(foo)(bar)(baz)/")

	want := strings.Join([]string{
		"Capture(slot = 0)",
		"  Concatenate",
		"    Capture(slot = 1)",
		`      Multi(str = "foo")`,
		"    Capture(slot = 2)",
		`      Multi(str = "bar")`,
		"    Capture(slot = 3)",
		`      Multi(str = "baz")`,
		"",
	}, "\n")

	assert.Equal(t, tree.Dump(), want)
	assert.Equal(t, tree.CaptureCount(), 4)
}

func TestParseAlternation(t *testing.T) {
	tree := mustParse(t, "/ab|cd|ef/")

	want := strings.Join([]string{
		"Capture(slot = 0)",
		"  Alternate",
		`    Multi(str = "ab")`,
		`    Multi(str = "cd")`,
		`    Multi(str = "ef")`,
		"",
	}, "\n")

	assert.Equal(t, tree.Dump(), want)
}

func TestParseQuantifiers(t *testing.T) {
	cases := []struct {
		pattern string
		want    string
	}{
		{"/a*/", "Oneloop(ch = a, min = 0, max = inf)"},
		{"/a+/", "Oneloop(ch = a, min = 1, max = inf)"},
		{"/a?/", "Oneloop(ch = a, min = 0, max = 1)"},
		{"/a*?/", "Onelazy(ch = a, min = 0, max = inf)"},
		{"/a{2,3}/", "Oneloop(ch = a, min = 2, max = 3)"},
		{"/a{2,}/", "Oneloop(ch = a, min = 2, max = inf)"},
		{"/a{4}/", "Oneloop(ch = a, min = 4, max = 4)"},
		{"/[xy]{2}/", "Setloop(set = [x-y], min = 2, max = 2)"},
		{"/(ab)*/", "Loop(min = 0, max = inf)"},
		{"/(ab)+?/", "Lazyloop(min = 1, max = inf)"},
		// possessive quantifiers compile into an atomic group
		{"/a*+/", "Greedy"},
		// Ungreedy inverts plain and lazy quantifiers
		{"/a*/U", "Onelazy(ch = a, min = 0, max = inf)"},
		{"/a*?/U", "Oneloop(ch = a, min = 0, max = inf)"},
		{"/a*+/U", "Greedy"},
		// a brace, that is no quantifier, stays a literal
		{"/a{,2}/", `Multi(str = "a{,2}")`},
		{"/a{x}/", `Multi(str = "a{x}")`},
	}

	for _, tt := range cases {
		tree := mustParse(t, tt.pattern)
		assert.Check(t, strings.Contains(tree.Dump(), tt.want),
			"pattern %s: dump %q misses %q", tt.pattern, tree.Dump(), tt.want)
	}
}

func TestParseGroups(t *testing.T) {
	cases := []struct {
		pattern string
		want    string
	}{
		{"/(?:ab)/", `Multi(str = "ab")`},
		{"/(?>ab)/", "Greedy"},
		{"/(?=ab)/", "Require"},
		{"/(?!ab)/", "Prevent"},
		{"/(?<=ab)/", "Require-rtl"},
		{"/(?<!ab)/", "Prevent-rtl"},
		{"/(?<name>a)/", "Capture(slot = 1)"},
		{"/(?'name'a)/", "Capture(slot = 1)"},
		{"/(?P<name>a)/", "Capture(slot = 1)"},
		{"/(?i)A/", "One-i(ch = a)"},
		{"/(?i:A)B/", "One-i(ch = a)"},
		{"/(a)(?(1)b|c)/", "Testref(group = 1)"},
		{"/(?(?=a)b|c)/", "Testgroup"},
		{"/(?(DEFINE)(?<d>x))/", "Define"},
		{"/(*FAIL)/", "Nothing"},
		{"/(*ACCEPT)/", "Verb(verb = ACCEPT)"},
		{"/a(*SKIP)b/", "Verb(verb = SKIP)"},
	}

	for _, tt := range cases {
		tree := mustParse(t, tt.pattern)
		assert.Check(t, strings.Contains(tree.Dump(), tt.want),
			"pattern %s: dump %q misses %q", tt.pattern, tree.Dump(), tt.want)
	}
}

func TestParseEscapes(t *testing.T) {
	cases := []struct {
		pattern string
		want    string
	}{
		{`/\A\z/`, "Beginning"},
		{`/\G/`, "Start"},
		{`/\Z/`, "EndZ"},
		{`/\b/`, "Boundary"},
		{`/\B/`, "Nonboundary"},
		{`/\K/`, "ResetMatchStart"},
		{`/\d/`, `Set(set = [\d])`},
		{`/\W/`, `Set(set = [\W])`},
		{`/\x41/`, "One(ch = A)"},
		{`/\x{1F600}/u`, `One(ch = \x{1f600})`},
		{`/\101/u`, "One(ch = A)"},
		{`/\cM/`, `One(ch = \x{000d})`},
		{`/\e/`, `One(ch = \x{001b})`},
		{`/\R/`, "Greedy"},
		{`/\pL/`, `Set(set = [\p{L}])`},
		{`/\P{Greek}/`, `Set(set = [\P{Greek}])`},
		{`/\j/`, "One(ch = j)"},
		{`/(a)\1/`, "Ref(group = 1)"},
		{`/(?<x>a)\k<x>/`, "Ref(group = 1)"},
		{`/(?<x>a)\k'x'/`, "Ref(group = 1)"},
		{`/(?<x>a)\g{x}/`, "Ref(group = 1)"},
		{`/(?<x>a)(?P=x)/`, "Ref(group = 1)"},
		{`/(a)\g{1}/`, "Ref(group = 1)"},
	}

	for _, tt := range cases {
		tree := mustParse(t, tt.pattern)
		assert.Check(t, strings.Contains(tree.Dump(), tt.want),
			"pattern %s: dump %q misses %q", tt.pattern, tree.Dump(), tt.want)
	}
}

func TestParseSubroutines(t *testing.T) {
	cases := []struct {
		pattern string
		want    string
	}{
		{`/(a)(?1)/`, "Call(group = 1)"},
		{`/(?R)a/`, "Call(group = 0)"},
		{`/(?0)a/`, "Call(group = 0)"},
		{`/(a)(b)(?-2)/`, "Call(group = 1)"},
		{`/(a)(?-1)(b)/`, "Call(group = 1)"},
		{`/(?+1)(b)/`, "Call(group = 1)"},
		{`/(?&x)(?<x>a)/`, "Call(group = 1)"},
		{`/(?P>x)(?<x>a)/`, "Call(group = 1)"},
	}

	for _, tt := range cases {
		tree := mustParse(t, tt.pattern)
		assert.Check(t, strings.Contains(tree.Dump(), tt.want),
			"pattern %s: dump %q misses %q", tt.pattern, tree.Dump(), tt.want)
	}
}

func TestParseBranchReset(t *testing.T) {
	tree := mustParse(t, `/(?|(a)|(b)|(c))(\1)/`)

	assert.Equal(t, tree.CaptureCount(), 3)
	assert.Equal(t, strings.Count(tree.Dump(), "Capture(slot = 1)"), 3)
	assert.Check(t, strings.Contains(tree.Dump(), "Capture(slot = 2)"))

	// alternatives with several groups share the slots position by position
	tree = mustParse(t, `/(?|(a)(b)|(c)(d))(e)/`)
	assert.Equal(t, tree.CaptureCount(), 4)
}

func TestParseCaptureNames(t *testing.T) {
	tree := mustParse(t, `/(a)(?<x>b)(?'y'c)/`)

	assert.Equal(t, tree.CaptureCount(), 4)
	assert.DeepEqual(t, tree.CaptureNames(), []string{"x", "y"})

	slot, ok := tree.SlotOfName("x")
	assert.Check(t, ok)
	assert.Equal(t, slot, 2)

	slot, ok = tree.SlotOfName("y")
	assert.Check(t, ok)
	assert.Equal(t, slot, 3)

	// duplicate names are allowed with the J modifier; the name keeps
	// referring to its first slot
	tree = mustParse(t, `/(?<x>a)(?<x>b)\k<x>/J`)
	assert.Equal(t, tree.CaptureCount(), 3)

	slot, _ = tree.SlotOfName("x")
	assert.Equal(t, slot, 1)
}

func TestParseNewlineConventions(t *testing.T) {
	// under the default convention the anchors stay plain leaves
	tree := mustParse(t, "/^a$/m")
	assert.Check(t, strings.Contains(tree.Dump(), "Bol"))
	assert.Check(t, strings.Contains(tree.Dump(), "Eol"))

	// a non-default convention synthesises lookarounds
	tree = mustParse(t, "/(*CRLF)^a$/m")
	dump := tree.Dump()
	assert.Check(t, strings.Contains(dump, "Require-rtl"), "dump: %s", dump)
	assert.Check(t, strings.Contains(dump, `Multi(str = "\r\n")`), "dump: %s", dump)
	assert.Check(t, !strings.Contains(dump, "Bol"), "dump: %s", dump)

	// the dot excludes the configured line terminators
	tree = mustParse(t, "/./")
	assert.Check(t, strings.Contains(tree.Dump(), `Notone(ch = \x{000a})`))

	tree = mustParse(t, "/(*ANY)./")
	assert.Check(t, strings.Contains(tree.Dump(), `Set(set = [^\x{000a}`))

	tree = mustParse(t, "/./s")
	assert.Check(t, strings.Contains(tree.Dump(), "Set(set = ["))

	// \Z under a non-default convention becomes a lookahead
	tree = mustParse(t, `/(*ANYCRLF)a\Z/`)
	assert.Check(t, strings.Contains(tree.Dump(), "Require"))
	assert.Check(t, !strings.Contains(tree.Dump(), "EndZ"))
}

func TestParseExtendedMode(t *testing.T) {
	tree := mustParse(t, "/a b # comment\n c d/x")

	want := strings.Join([]string{
		"Capture(slot = 0)",
		"  Concatenate",
		"    One(ch = a)",
		"    One(ch = b)",
		"    One(ch = c)",
		"    One(ch = d)",
		"",
	}, "\n")

	assert.Equal(t, tree.Dump(), want)

	// a quantifier may be separated from its atom
	tree = mustParse(t, "/a  +/x")
	assert.Check(t, strings.Contains(tree.Dump(), "Oneloop(ch = a, min = 1, max = inf)"))
}

func TestParseExplicitCapture(t *testing.T) {
	tree := mustParse(t, "/(a)(?<x>b)/n")

	assert.Equal(t, tree.CaptureCount(), 2)
	assert.Check(t, !strings.Contains(tree.Dump(), "Capture(slot = 2)"))

	slot, _ := tree.SlotOfName("x")
	assert.Equal(t, slot, 1)
}

func TestParseECMABackrefs(t *testing.T) {
	tree, err := Parse(`/(a)\1/`, ECMAScript)
	assert.NilError(t, err)
	assert.Check(t, strings.Contains(tree.Dump(), "Ref(group = 1)"))

	// the longest declared prefix wins; the remaining digit stays literal
	tree, err = Parse(`/(a)(b)\12/`, ECMAScript)
	assert.NilError(t, err)
	assert.Check(t, strings.Contains(tree.Dump(), "Ref(group = 1)"), "dump: %s", tree.Dump())
	assert.Check(t, strings.Contains(tree.Dump(), "One(ch = 2)"), "dump: %s", tree.Dump())

	tree, err = Parse(`/a\b/`, ECMAScript)
	assert.NilError(t, err)
	assert.Check(t, strings.Contains(tree.Dump(), "ECMABoundary"))
}

func TestParseErrors(t *testing.T) {
	data, err := os.ReadFile("testdata/parse_errors.yaml")
	assert.NilError(t, err)

	var cases []struct {
		Pattern string `yaml:"pattern"`
		Error   string `yaml:"error"`
	}
	assert.NilError(t, yaml.Unmarshal(data, &cases))

	for _, tt := range cases {
		_, err := Parse(tt.Pattern, 0)

		if tt.Error == "" {
			assert.NilError(t, err, "pattern %s", tt.Pattern)
			continue
		}

		var perr *Error
		assert.Check(t, errors.As(err, &perr), "pattern %s: error %v", tt.Pattern, err)
		if perr != nil {
			assert.Equal(t, perr.Code.String(), tt.Error, "pattern %s", tt.Pattern)
		}
	}
}

func TestParseErrorOffsets(t *testing.T) {
	cases := []struct {
		pattern string
		offset  int
	}{
		{"/a)/", 2},
		{"/ab*+*/", 5},
		{"/a/q", 3},
		{"/(?(0)a)/", 4},
	}

	for _, tt := range cases {
		_, err := Parse(tt.pattern, 0)

		var perr *Error
		assert.Check(t, errors.As(err, &perr), "pattern %s", tt.pattern)
		if perr != nil {
			assert.Equal(t, perr.Offset, tt.offset, "pattern %s: %v", tt.pattern, err)
		}
	}
}
