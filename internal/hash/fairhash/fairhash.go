// Package fairhash implements the provably-fair hashing primitives:
// commitment digests, keyed derivation digests, and roll extraction.
package fairhash

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Digest returns the SHA-256 hex digest of s. Call sites compare
// digests case-insensitively.
func Digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// KeyedDigest returns the HMAC-SHA-512 hex digest of message under key.
func KeyedDigest(key, message string) string {
	mac := hmac.New(sha512.New, []byte(key))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// Message builds the derivation message from the public parameters.
func Message(clientSeed string, nonce int64) string {
	return fmt.Sprintf("%s:%d", clientSeed, nonce)
}

// ExtractRoll scans hexDigest in 5-hex-character chunks from the start
// and derives a roll in [0, 100). Scanning continues while the chunk
// value is >= 10000 and a full chunk remains; the first chunk below
// 10000, or the last chunk read, wins. The chunk boundaries and the
// loop-termination condition are part of the observable contract:
// external verifiers must reproduce identical rolls.
func ExtractRoll(hexDigest string) float64 {
	pos := 0
	roll := uint64(10001)
	for roll >= 10000 && pos+5 <= len(hexDigest) {
		v, err := strconv.ParseUint(hexDigest[pos:pos+5], 16, 64)
		if err != nil {
			break
		}
		roll = v
		pos += 5
	}
	return float64(roll%10000) / 100.0
}

// Outcome derives the verifiable outcome number for a recovered
// pre-image and the public derivation parameters.
func Outcome(candidate, clientSeed string, nonce int64) float64 {
	return ExtractRoll(KeyedDigest(candidate, Message(clientSeed, nonce)))
}
