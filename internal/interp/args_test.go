package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitArgs_Empty(t *testing.T) {
	assert.Nil(t, SplitArgs(""))
	assert.Nil(t, SplitArgs("   "))
}

func TestSplitArgs_Simple(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitArgs("a, b, c"))
}

func TestSplitArgs_CommaInsideQuotes(t *testing.T) {
	assert.Equal(t, []string{`"a,b"`, "c"}, SplitArgs(`"a,b", c`))
}

func TestSplitArgs_CommaInsideParens(t *testing.T) {
	assert.Equal(t, []string{"replace(x, y, z)", "w"}, SplitArgs("replace(x, y, z), w"))
}

func TestSplitArgs_EscapedQuote(t *testing.T) {
	assert.Equal(t, []string{`"a\",b"`, "c"}, SplitArgs(`"a\",b", c`))
}

func TestClassifyArg(t *testing.T) {
	cases := []struct {
		in   string
		want ArgKind
	}{
		{`"hello"`, ArgString},
		{`'hello'`, ArgString},
		{"42", ArgNumber},
		{"-1.5", ArgNumber},
		{"true", ArgBoolean},
		{"false", ArgBoolean},
		{"my_var", ArgVariable},
		{"my-var", ArgVariable},
		{"uppercase(x)", ArgCall},
		{"if x then y", ArgConditional},
		{`x ? "a" : "b"`, ArgConditional},
		{"1 +", ArgOther},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClassifyArg(c.in), "arg %q", c.in)
	}
}
