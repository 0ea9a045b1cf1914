package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateKeyString(t *testing.T) {
	require.Equal(t, "(1, 0, 2)", Key(1, 0, 2).String())
	require.Equal(t, "(5,)", Key(5).String())
	require.Equal(t, "()", Key().String())
	require.Equal(t, "(-3, 4)", Key(-3, 4).String())
}

func TestParseKey(t *testing.T) {
	for _, k := range []StateKey{Key(), Key(5), Key(1, 0, 2), Key(-7, 9), Key(1, 2, 3, 4)} {
		parsed, err := ParseKey(k.String())
		require.NoError(t, err)
		require.Equal(t, k, parsed)
	}

	parsed, err := ParseKey(" ( 1 ,0,  2 ) ")
	require.NoError(t, err)
	require.Equal(t, Key(1, 0, 2), parsed)
}

func TestParseKeyRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "1,2", "(1,a)", "(1,,2)", "(1,2,3,4,5)", "[1]"} {
		_, err := ParseKey(s)
		require.True(t, errors.Is(err, ErrMalformedTable), "input %q", s)
	}
}

func TestStateKeyOrder(t *testing.T) {
	require.True(t, Key(1).Less(Key(2)))
	require.True(t, Key(1).Less(Key(1, 0)))
	require.True(t, Key(0, 5, 1).Less(Key(1, 0, 0)))
	require.False(t, Key(3).Less(Key(3)))
	require.Equal(t, []int64{1, 0, 2}, Key(1, 0, 2).Parts())
	require.Panics(t, func() { Key(1, 2, 3, 4, 5) })
}
