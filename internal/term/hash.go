package term

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainTerm is the hash domain for configuration terms.
// The version suffix allows the encoding to change without collisions.
const DomainTerm = "kindex/term/v1"

// HashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
// The null separator prevents domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content hash of a term.
// Two terms hash equal iff their canonical encodings are byte-identical.
func Hash(t Term) (string, error) {
	data, err := MarshalCanonical(t)
	if err != nil {
		return "", fmt.Errorf("hash term: %w", err)
	}
	return HashWithDomain(DomainTerm, data), nil
}

// MustHash is like Hash but panics on error.
// Use only in tests or when the term is known to be well formed.
func MustHash(t Term) string {
	h, err := Hash(t)
	if err != nil {
		panic(err)
	}
	return h
}
