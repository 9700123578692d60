// Package random produces per-process secrets for values left unconfigured.
package random

import (
	"crypto/rand"
	"encoding/hex"
)

// Bytes returns n random bytes and panics if the system source fails.
func Bytes(n int) []byte {
	bytes := make([]byte, n)

	_, err := rand.Read(bytes)
	if err != nil {
		panic(err)
	}

	return bytes
}

// Hex returns n random bytes hex encoded, so the result is 2n characters long.
func Hex(n int) string {
	return hex.EncodeToString(Bytes(n))
}
