package syntax

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"
)

func TestCharClassRanges(t *testing.T) {
	cc := newCharClass()
	cc.addChar('a')
	cc.addChar('b')
	cc.addRange('c', 'f')
	cc.addChar('z')

	set := cc.String()

	assert.Check(t, charInClass('a', set))
	assert.Check(t, charInClass('e', set))
	assert.Check(t, charInClass('z', set))
	assert.Check(t, !charInClass('g', set))
	assert.Check(t, !charInClass('A', set))

	// adjacent entries are merged during canonicalisation
	lo, hi, ok := singleRange(set)
	assert.Check(t, !ok, "set has two ranges, lo %c hi %c", lo, hi)
}

func TestCharClassCanonicalize(t *testing.T) {
	cc := newCharClass()
	cc.addRange('m', 'p')
	cc.addRange('a', 'c')
	cc.addRange('b', 'n')

	set := cc.String()

	lo, hi, ok := singleRange(set)
	assert.Check(t, ok)
	assert.Equal(t, lo, 'a')
	assert.Equal(t, hi, 'p')
}

func TestCharClassNegate(t *testing.T) {
	cc := newCharClass()
	cc.addRange('0', '9')
	cc.negateClass()

	set := cc.String()

	assert.Check(t, isNegatedClass(set))
	assert.Check(t, !charInClass('5', set))
	assert.Check(t, charInClass('a', set))
}

func TestCharClassCategories(t *testing.T) {
	cc := newCharClass()
	cc.addDigit(false, false)

	set := cc.String()
	assert.Check(t, charInClass('7', set))
	assert.Check(t, !charInClass('x', set))

	cc = newCharClass()
	cc.addWord(false, true)

	set = cc.String()
	assert.Check(t, !charInClass('x', set))
	assert.Check(t, !charInClass('_', set))
	assert.Check(t, charInClass('-', set))

	cc = newCharClass()
	assert.NilError(t, cc.addProperty("Greek", false))

	set = cc.String()
	assert.Check(t, charInClass('α', set))
	assert.Check(t, !charInClass('a', set))

	assert.ErrorContains(t, newCharClass().addProperty("NoSuchThing", false), "unknown property")
}

func TestCharClassECMA(t *testing.T) {
	cc := newCharClass()
	cc.addDigit(true, true)

	set := cc.String()
	assert.Check(t, !charInClass('5', set))
	assert.Check(t, charInClass('x', set))
	// the ECMA complement is expressed as plain ranges, not as a negated
	// class
	assert.Check(t, !isNegatedClass(set))

	cc = newCharClass()
	cc.addWord(true, false)

	set = cc.String()
	assert.Check(t, charInClass('_', set))
	assert.Check(t, charInClass('Q', set))
	assert.Check(t, !charInClass('-', set))
}

func TestCharClassLowercase(t *testing.T) {
	cc := newCharClass()
	cc.addRange('A', 'Z')
	cc.addLowercase()

	set := cc.String()
	assert.Check(t, charInClass('a', set))
	assert.Check(t, charInClass('G', set))

	cc = newCharClass()
	cc.addChar('Ä')
	cc.addLowercase()

	set = cc.String()
	assert.Check(t, charInClass('ä', set))
	assert.Check(t, charInClass('Ä', set))
}

func TestCharClassRoundTrip(t *testing.T) {
	cc := newCharClass()
	cc.addRange('a', 'f')
	cc.addChar('z')
	cc.addDigit(false, false)
	cc.negateClass()

	set := cc.String()
	again := parseClass(set).String()

	assert.Check(t, cmp.Diff(set, again) == "", "round trip changed the set")
}

func TestSingletonChar(t *testing.T) {
	cc := newCharClass()
	cc.addChar('x')

	ch, ok := singletonChar(cc.String())
	assert.Check(t, ok)
	assert.Equal(t, ch, 'x')

	cc = newCharClass()
	cc.addRange('x', 'y')

	_, ok = singletonChar(cc.String())
	assert.Check(t, !ok)
}

func TestSetDescription(t *testing.T) {
	cc := newCharClass()
	cc.addRange('a', 'z')
	cc.addDigit(false, false)
	cc.negateClass()

	assert.Equal(t, setDescription(cc.String()), `[^a-z\d]`)
}
