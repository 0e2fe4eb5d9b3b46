// Package pcre compiles PCRE-style delimited patterns into a regex tree and
// a linear backtracking program.
//
// The heart of the package is the syntax subpackage: a preprocessor for the
// delimiter and modifier surface, a parser producing a regex tree, a
// rewriting of explicit UTF-8 byte ranges into UTF-16 sets, and a writer
// emitting the program of a backtracking NFA matcher. Until the native
// matcher is wired in, compiled patterns, that are expressible in the .NET
// dialect, execute through the regexp2 engine.
package pcre

import (
	"errors"
	"strconv"

	"github.com/dlclark/regexp2"

	"github.com/magnetde/go-pcre/syntax"
)

// ErrNotExecutable is returned by the matching functions of patterns, that
// compiled to a program but use constructs the fallback engine cannot
// execute, such as subroutine calls or backtracking verbs.
var ErrNotExecutable = errors.New("pattern compiled, but is not executable by the fallback engine")

// Regexp is a compiled pattern.
// A Regexp is immutable and safe for concurrent use.
type Regexp struct {
	pattern string
	tree    *syntax.RegexTree
	code    *syntax.Code

	fallback *regexp2.Regexp
}

// Compile parses, transforms and writes a delimited pattern, for example
// "/foo(bar)+/i". The given options are combined with the trailing modifier
// letters and the leading pragmas of the pattern.
func Compile(pattern string, opts syntax.Options) (*Regexp, error) {
	tree, err := syntax.Parse(pattern, opts)
	if err != nil {
		return nil, err
	}

	syntax.Transform(tree)

	re := &Regexp{
		pattern: pattern,
		tree:    tree,
		code:    syntax.Write(tree),
	}

	if translated, err := syntax.Translate(tree); err == nil {
		re.fallback, err = regexp2.Compile(translated, fallbackOptions(tree.Options()))
		if err != nil {
			// the engine rejected the translation; the pattern
			// stays compile-only
			re.fallback = nil
		}
	}

	return re, nil
}

// MustCompile is like Compile but panics on invalid patterns.
// It simplifies the initialization of global variables.
func MustCompile(pattern string, opts syntax.Options) *Regexp {
	re, err := Compile(pattern, opts)
	if err != nil {
		panic(`pcre: Compile(` + strconv.Quote(pattern) + `): ` + err.Error())
	}

	return re
}

// fallbackOptions converts resolved pattern options into engine options.
// Multiline is always enabled, because the translation only renders line
// anchors where the tree demands them; single-line dots and greediness are
// already resolved in the tree.
func fallbackOptions(o syntax.Options) regexp2.RegexOptions {
	opts := regexp2.RegexOptions(regexp2.Multiline)

	if o&syntax.IgnoreCase != 0 {
		opts |= regexp2.IgnoreCase
	}
	if o&syntax.RightToLeft != 0 {
		opts |= regexp2.RightToLeft
	}

	return opts
}

// Pattern returns the source pattern.
func (re *Regexp) Pattern() string {
	return re.pattern
}

// Options returns the resolved global options of the pattern.
func (re *Regexp) Options() syntax.Options {
	return re.tree.Options()
}

// Code returns the compiled program.
func (re *Regexp) Code() *syntax.Code {
	return re.code
}

// Tree returns the parsed regex tree.
func (re *Regexp) Tree() *syntax.RegexTree {
	return re.tree
}

// GroupCount returns the number of capture slots, including the whole match
// slot zero.
func (re *Regexp) GroupCount() int {
	return re.code.Capsize
}

// GroupNames returns the declared group names in declaration order.
func (re *Regexp) GroupNames() []string {
	return re.tree.CaptureNames()
}

// Executable reports whether the matching functions work for this pattern.
func (re *Regexp) Executable() bool {
	return re.fallback != nil
}

// MatchString checks, whether the pattern matches somewhere in the subject.
func (re *Regexp) MatchString(s string) (bool, error) {
	if re.fallback == nil {
		return false, ErrNotExecutable
	}

	return re.fallback.MatchString(s)
}

// FindStringIndex returns the byte-independent rune index pair of the
// leftmost match, or nil if the subject does not match.
func (re *Regexp) FindStringIndex(s string) ([]int, error) {
	if re.fallback == nil {
		return nil, ErrNotExecutable
	}

	m, err := re.fallback.FindStringMatch(s)
	if err != nil || m == nil {
		return nil, err
	}

	return []int{m.Index, m.Index + m.Length}, nil
}

// FindStringSubmatch returns the matched values of all capture slots in
// dense slot order; unmatched slots yield empty strings. The second return
// value is false if the subject does not match.
func (re *Regexp) FindStringSubmatch(s string) ([]string, bool, error) {
	if re.fallback == nil {
		return nil, false, ErrNotExecutable
	}

	m, err := re.fallback.FindStringMatch(s)
	if err != nil || m == nil {
		return nil, false, err
	}

	subs := make([]string, re.code.Capsize)
	subs[0] = m.String()

	for slot, dense := range denseSlots(re.code) {
		if dense == 0 {
			continue
		}

		if g := m.GroupByNumber(slot); g != nil && len(g.Captures) > 0 {
			subs[dense] = g.String()
		}
	}

	return subs, true, nil
}

// denseSlots returns the mapping of external slots to dense indices.
func denseSlots(code *syntax.Code) map[int]int {
	if code.Caps != nil {
		return code.Caps
	}

	m := make(map[int]int, code.Capsize)
	for i := 0; i < code.Capsize; i++ {
		m[i] = i
	}

	return m
}

// ParseReplacement parses a replacement string against the capture slots of
// this pattern.
func (re *Regexp) ParseReplacement(rep string) (*syntax.Replacement, error) {
	capnames := make(map[string]int)
	for _, name := range re.tree.CaptureNames() {
		slot, _ := re.tree.SlotOfName(name)
		capnames[name] = slot
	}

	return syntax.ParseReplacement(rep, re.tree.Options(), re.code.Caps, re.code.Capsize, capnames)
}

// Escape returns a string, that matches the argument literally when used as
// a pattern body.
func Escape(s string) string {
	return syntax.Escape(s)
}

// Unescape resolves all backslash escapes of the string.
func Unescape(s string) (string, error) {
	return syntax.Unescape(s)
}
