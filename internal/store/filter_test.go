package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeLiteralDoublesSingleQuotes(t *testing.T) {
	cases := map[string]string{
		"plain":                "plain",
		"O'Reilly":             "O''Reilly",
		"it's a 'quoted' word": "it''s a ''quoted'' word",
		"":                     "",
	}
	for in, want := range cases {
		assert.Equal(t, want, EscapeLiteral(in))
	}
}

func TestUint32StringRoundTrip(t *testing.T) {
	ids := []uint32{0, 1, 4294967295}
	for i, s := range uint32ToStrings(ids) {
		got, ok := stringToUint32(s)
		require.True(t, ok)
		require.Equal(t, ids[i], got)
	}

	_, ok := stringToUint32("not-a-number")
	require.False(t, ok)
	_, ok = stringToUint32("4294967296")
	require.False(t, ok, "out of uint32 range")
}
