// Package keys derives cache handles and log fingerprints for cellsets.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// HandlePrefix marks every content-addressed cellset handle.
const HandlePrefix = "cellset_"

// Handle hashes already-canonical (sorted, de-duplicated) members.
// Members are joined with '\n' before hashing.
func Handle(canonical []string) string {
	h := sha256.New()
	for i, c := range canonical {
		if i > 0 {
			_, _ = h.Write([]byte{'\n'})
		}
		_, _ = h.Write([]byte(c))
	}
	return HandlePrefix + hex.EncodeToString(h.Sum(nil))
}

// LooksLikeHandle reports whether s has the handle shape.
func LooksLikeHandle(s string) bool {
	rest, ok := strings.CutPrefix(s, HandlePrefix)
	if !ok || len(rest) != sha256.Size*2 {
		return false
	}
	for _, r := range rest {
		if !isHex(r) {
			return false
		}
	}
	return true
}

// Fingerprint is a short non-cryptographic hash used for log fields and sampling.
func Fingerprint(s string) uint64 {
	return xxhash.Sum64String(s)
}

// ShouldSample keeps roughly rate of all keys, deterministically per key.
func ShouldSample(rate float64, key string) bool {
	if rate <= 0 {
		return false
	}
	if rate >= 1 {
		return true
	}
	const denom = 10000
	threshold := uint64(rate*denom + 0.5)
	if threshold == 0 {
		return false
	}
	return Fingerprint(key)%denom < threshold
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
}
