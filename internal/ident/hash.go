// Package ident provides deterministic, content-addressed identifiers for
// every row in the storage abstraction.
package ident

import (
	"crypto/sha256"
	"encoding/hex"
	"hash/fnv"
	"strings"
)

// HashID applies FNV-1a over the UTF-8 bytes of s and returns the unsigned
// 32-bit result. It is a total, pure function: identical bytes always yield
// the identical id, in any process, on any run.
func HashID(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// CanonicalConcept lowercases and trims whitespace from a concept or
// category name. Two names that differ only by case or surrounding
// whitespace canonicalize to the same string and therefore the same id.
func CanonicalConcept(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}

// ConceptID returns the id for a concept or category name: HashID of its
// canonical form.
func ConceptID(name string) uint32 {
	return HashID(CanonicalConcept(name))
}

// SourceID returns the id for a document's canonical source path. Paths are
// not case-folded: the filesystem's own case sensitivity is authoritative.
func SourceID(path string) uint32 {
	return HashID(path)
}

// ContentHash returns the lowercase hex-encoded SHA-256 digest of bytes.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
