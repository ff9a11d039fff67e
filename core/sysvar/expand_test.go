package sysvar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micromos/micromos/core/moserr"
)

func TestExpandPrompt(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetComputed("Current$Dir", &Accessor{
		Read: func() (string, error) { return "/docs", nil },
	}))
	require.NoError(t, s.SetMacro("CLI$Prompt", "<Current$Dir> *"))

	v := s.Get("CLI$Prompt")
	require.NotNil(t, v)

	got, err := s.ExpandVariable(v, false)
	require.NoError(t, err)
	assert.Equal(t, "/docs *", got)
}

func TestExpandUnknownVariable(t *testing.T) {
	s := NewStore()
	got, err := s.Expand("a<NoSuchVar>b", false)
	require.NoError(t, err)
	assert.Equal(t, "ab", got)
}

func TestExpandUnterminatedReference(t *testing.T) {
	s := NewStore()
	got, err := s.Expand("value is <oops", false)
	require.NoError(t, err)
	assert.Equal(t, "value is ", got)
}

func TestExpandCharacterReference(t *testing.T) {
	s := NewStore()
	got, err := s.Expand("bell<7>tab<&09>", false)
	require.NoError(t, err)
	assert.Equal(t, "bell\x07tab\t", got)
}

func TestExpandNestedMacros(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetString("Leaf", "deep"))
	require.NoError(t, s.SetMacro("Mid", "(<Leaf>)"))
	require.NoError(t, s.SetMacro("Top", "[<Mid>]"))

	got, err := s.Expand("<Top>", false)
	require.NoError(t, err)
	assert.Equal(t, "[(deep)]", got)
}

func TestExpandSelfReferenceIsBounded(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetMacro("Loop", "x<Loop>"))

	_, err := s.Expand("<Loop>", false)
	assert.Equal(t, moserr.BadString, moserr.Code(err))
}

func TestExpandMutualReferenceIsBounded(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetMacro("Ping", "<Pong>"))
	require.NoError(t, s.SetMacro("Pong", "<Ping>"))

	_, err := s.Expand("<Ping>", false)
	assert.Equal(t, moserr.BadString, moserr.Code(err))
}

func TestExpandForDisplayKeepsMacroText(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetString("Inner", "value"))
	require.NoError(t, s.SetMacro("M", "<Inner>"))

	got, err := s.Expand("<M>", true)
	require.NoError(t, err)
	assert.Equal(t, "<Inner>", got)
}

func TestExpandNumberVariable(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetNumber("N", 123))

	got, err := s.Expand("N=<N>", false)
	require.NoError(t, err)
	assert.Equal(t, "N=123", got)
}

func TestExpandComputedReadFailure(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetComputed("Broken", &Accessor{
		Read: func() (string, error) { return "", moserr.NotReady },
	}))

	// Accessor failures substitute nothing instead of aborting.
	got, err := s.Expand("a<Broken>b", false)
	require.NoError(t, err)
	assert.Equal(t, "ab", got)
}

func TestEscapeControl(t *testing.T) {
	assert.Equal(t, "plain", EscapeControl("plain"))
	assert.Equal(t, "a|Ib|M", EscapeControl("a\tb\r"))
}
