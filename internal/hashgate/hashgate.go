// Package hashgate decides whether content changed since the last sync.
package hashgate

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/user/restaurant-kb-sync/internal/entity"
)

// ComputeFingerprint hashes text after trimming surrounding whitespace.
// Empty text is valid and yields the hash of the empty string.
func ComputeFingerprint(text string) entity.Fingerprint {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return entity.Fingerprint(hex.EncodeToString(sum[:]))
}

// HasChanged reports whether text differs from the content previous was
// computed from. A nil previous always counts as a change.
func HasChanged(text string, previous *entity.Fingerprint) bool {
	if previous == nil {
		return true
	}
	return ComputeFingerprint(text) != *previous
}
