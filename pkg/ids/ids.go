// Package ids provides deterministic, content-addressed identifiers for
// synthetic tenant resources.
//
// Stable IDs are the only linkage between "this should exist" and "this
// already exists": the engine never persists a local ledger, so every run
// must re-derive the same identifier for the same logical object. IDs are
// version-5 UUIDs computed from a fixed namespace and the canonical key
// "run:kind:key", which uniquely encodes an object's logical position
// (for example "{drive}:{folder_path}" for a folder).
package ids

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// namespace is the fixed UUID namespace for all gwsynth stable identifiers.
// Changing it would orphan every object tagged by earlier runs.
var namespace = uuid.MustParse("2e6b18fd-1f64-4f75-9f3d-1a4e2a4e5f6c")

// StableID derives the deterministic identifier for a resource. Identical
// inputs always yield the identical ID; unrelated keys are collision-free
// for practical purposes.
func StableID(runName, kind, canonicalKey string) string {
	name := runName + ":" + kind + ":" + canonicalKey
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

// SHA256Hex returns the hex-encoded SHA-256 digest of value.
func SHA256Hex(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// ContentHash fingerprints generated document content. Leading and trailing
// whitespace is not significant, so it is trimmed before hashing.
func ContentHash(text string) string {
	return SHA256Hex(strings.TrimSpace(text))
}
