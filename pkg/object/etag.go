package object

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// ETag returns the content digest backends store alongside each object.
func ETag(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:16])
}
