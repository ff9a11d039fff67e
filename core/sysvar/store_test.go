package sysvar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micromos/micromos/core/moserr"
)

func names(s *Store, pattern string) []string {
	var out []string
	s.Enumerate(pattern, func(v *Variable) error {
		out = append(out, v.Name())
		return nil
	})
	return out
}

func TestStoreSortedInsertion(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetString("Beta", "2"))
	require.NoError(t, s.SetString("Alpha", "1"))
	require.NoError(t, s.SetString("gamma", "3"))

	// Enumeration is in sorted order regardless of insertion order, and the
	// sort ignores case.
	assert.Equal(t, []string{"Alpha", "Beta", "gamma"}, names(s, "*"))
}

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetString("X", "hello"))

	v := s.Get("X")
	require.NotNil(t, v)
	assert.Equal(t, String, v.Kind())
	value, err := v.Value()
	require.NoError(t, err)
	assert.Equal(t, "hello", value)

	assert.Equal(t, 1, s.Remove("X"))
	assert.Nil(t, s.Get("X"))
}

func TestStoreGetIsCaseInsensitive(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetString("CLI$Prompt", "*"))

	v := s.Get("cli$prompt")
	require.NotNil(t, v)
	// The name keeps its original spelling.
	assert.Equal(t, "CLI$Prompt", v.Name())
}

func TestStoreReplaceChangesKind(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetString("X", "hello"))
	require.NoError(t, s.SetNumber("X", 42))

	v := s.Get("X")
	require.NotNil(t, v)
	assert.Equal(t, Number, v.Kind())
	n, ok := v.Number()
	assert.True(t, ok)
	assert.Equal(t, 42, n)
	assert.Equal(t, 1, s.Len())
}

func TestRemovePatternSkipsComputed(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetString("Aaa", "1"))
	require.NoError(t, s.SetComputed("Bbb", &Accessor{
		Read: func() (string, error) { return "computed", nil },
	}))
	require.NoError(t, s.SetMacro("Ccc", "<Aaa>"))

	assert.Equal(t, 2, s.Remove("*"))

	// Only the computed entry survives a wildcard removal.
	assert.Equal(t, []string{"Bbb"}, names(s, "*"))
}

func TestLocateResume(t *testing.T) {
	s := NewStore()
	for _, n := range []string{"Sys$Date", "Sys$Time", "Sys$Year", "Other"} {
		require.NoError(t, s.SetString(n, n))
	}

	var got []string
	var cursor *Variable
	for {
		found, _ := s.Locate("Sys$*", cursor)
		if found == nil {
			break
		}
		got = append(got, found.Name())
		cursor = found
	}
	assert.Equal(t, []string{"Sys$Date", "Sys$Time", "Sys$Year"}, got)
}

func TestComputedReadWrite(t *testing.T) {
	s := NewStore()
	backing := "initial"
	require.NoError(t, s.SetComputed("Setting", &Accessor{
		Read:  func() (string, error) { return backing, nil },
		Write: func(v string) error { backing = v; return nil },
	}))

	// Reads go through the accessor.
	v := s.Get("Setting")
	require.NotNil(t, v)
	value, err := v.Value()
	require.NoError(t, err)
	assert.Equal(t, "initial", value)

	// Writes go through the accessor instead of replacing the entry.
	require.NoError(t, s.SetString("Setting", "changed"))
	assert.Equal(t, "changed", backing)
	assert.Equal(t, Computed, s.Get("Setting").Kind())
}

func TestComputedWriteWithoutAccessor(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetComputed("ReadOnly", &Accessor{
		Read: func() (string, error) { return "x", nil },
	}))

	err := s.SetString("ReadOnly", "nope")
	assert.Equal(t, moserr.Denied, moserr.Code(err))
}

func TestComputedReadWithoutAccessor(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetComputed("WriteOnly", &Accessor{
		Write: func(string) error { return nil },
	}))

	_, err := s.Get("WriteOnly").Value()
	assert.Equal(t, moserr.Denied, moserr.Code(err))
}

func TestDeleteComputedWithEmptyAccessorPair(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetComputed("Odd", &Accessor{}))

	err := s.Delete(s.Get("Odd"))
	assert.Equal(t, moserr.Denied, moserr.Code(err))
	assert.NotNil(t, s.Get("Odd"))
}

func TestRemoveNoMatch(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetString("X", "1"))
	assert.Equal(t, 0, s.Remove("Nope*"))
	assert.Equal(t, 1, s.Len())
}
