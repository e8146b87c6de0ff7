package diag

import (
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestDiagnosticError(t *testing.T) {
	d := New(ErrTypeMismatch, "cannot merge shared[int] with plaintext[bool]", Position{Filename: "f.mpc", Line: 3, Column: 5})
	assert.Equal(t, "error[E2001]: cannot merge shared[int] with plaintext[bool]", d.Error())
}

func TestReporterFormatIncludesSourceLine(t *testing.T) {
	color.NoColor = true
	src := "def f(x):\n    y = x + 1\n    return y\n"
	r := NewReporter("f.mpc", src)
	d := New(ErrUndefinedVariable, "undefined variable z", Position{Filename: "f.mpc", Line: 2, Column: 9}).
		WithNote("did you mean x?")
	out := r.Format(d)
	assert.True(t, strings.Contains(out, "y = x + 1"))
	assert.True(t, strings.Contains(out, "note:"))
	assert.True(t, strings.Contains(out, "f.mpc:2:9"))
}

func TestAssertfPanicsWithInternalAssertionError(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		_, ok := r.(InternalAssertionError)
		assert.True(t, ok)
	}()
	Assertf("ssa", "use of undefined variable %s", "x")
}
