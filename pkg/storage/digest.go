package storage

import (
	"crypto/sha1"
	"encoding/hex"
)

// HashLen is the length of a hex-encoded block digest.
const HashLen = 40

// Genesis is the all-zero digest marking the start of the chain.
const Genesis = "0000000000000000000000000000000000000000"

// Digest returns the lowercase hex SHA-1 digest of data. Block identity is the
// digest of the block's canonical encoding.
func Digest(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// IsBlockName reports whether name has the shape of a block file: exactly 40
// hex characters.
func IsBlockName(name string) bool {
	if len(name) != HashLen {
		return false
	}
	return isHex(name)
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
