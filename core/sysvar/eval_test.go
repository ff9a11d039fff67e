package sysvar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micromos/micromos/core/moserr"
)

func TestEvalNumbers(t *testing.T) {
	s := NewStore()
	cases := []struct {
		expr     string
		expected int
	}{
		{"42", 42},
		{"&FF", 255},
		{"1 + 2", 3},
		{"1+2*3", 9}, // strictly left to right, no precedence
		{"10 - 4 / 2", 3},
		{"&10 + 1", 17},
	}

	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			v, err := s.Eval(tc.expr)
			require.NoError(t, err)
			assert.Equal(t, Number, v.Kind)
			assert.Equal(t, tc.expected, v.Num)
		})
	}
}

func TestEvalStrings(t *testing.T) {
	s := NewStore()

	v, err := s.Eval(`"hello"`)
	require.NoError(t, err)
	assert.Equal(t, String, v.Kind)
	assert.Equal(t, "hello", v.Str)

	v, err = s.Eval(`"a" + "b"`)
	require.NoError(t, err)
	assert.Equal(t, "ab", v.Str)

	// Numbers are stringified when concatenated with a string.
	v, err = s.Eval(`"v" + 2`)
	require.NoError(t, err)
	assert.Equal(t, "v2", v.Str)
}

func TestEvalVariables(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetNumber("Count", 4))
	require.NoError(t, s.SetString("Name", "disk"))

	v, err := s.Eval("Count + 1")
	require.NoError(t, err)
	assert.Equal(t, Number, v.Kind)
	assert.Equal(t, 5, v.Num)

	v, err = s.Eval(`Name + "0"`)
	require.NoError(t, err)
	assert.Equal(t, "disk0", v.Str)
}

func TestEvalErrors(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetString("S", "text"))

	for _, expr := range []string{
		"",
		"1 +",
		"NoSuchVar",
		"S * 2",
		"1 / 0",
		`1 2`,
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := s.Eval(expr)
			assert.Equal(t, moserr.InvalidParameter, moserr.Code(err), "expr %q", expr)
		})
	}
}
