package store

import (
	"strconv"
	"strings"
)

// EscapeLiteral doubles single quotes in v, the one place a string literal
// is prepared for interpolation into a filter expression. Every filter
// built in this package routes through here rather than concatenating
// strings ad hoc elsewhere.
func EscapeLiteral(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}

func containsUint32(haystack []uint32, needle uint32) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

func uint32ToStrings(ids []uint32) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatUint(uint64(id), 10)
	}
	return out
}

func stringToUint32(s string) (uint32, bool) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}
