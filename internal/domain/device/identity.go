package device

import (
	"crypto/sha256"
	"encoding/hex"
)

// Identifier derives a device identity from a push token. The token
// prefix heuristic groups tokens that are believed to belong to one
// physical device; it is isolated behind this interface so a
// client-supplied hardware id can replace it without touching dispatch
// logic.
type Identifier interface {
	DeviceID(token string) string
}

// TokenPrefixIdentifier fingerprints a token by hashing its leading
// characters. FCM rotates the tail of a token far more often than its
// head, so the prefix is a usable (not guaranteed-unique) device key.
type TokenPrefixIdentifier struct {
	PrefixLength int
}

const deviceIDLength = 16

func (i TokenPrefixIdentifier) DeviceID(token string) string {
	prefix := token
	if i.PrefixLength > 0 && len(token) > i.PrefixLength {
		prefix = token[:i.PrefixLength]
	}
	sum := sha256.Sum256([]byte(prefix))
	return hex.EncodeToString(sum[:])[:deviceIDLength]
}
