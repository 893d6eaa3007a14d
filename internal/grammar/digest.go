package grammar

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest is a SHA-256 fingerprint of a grammar's canonical form.
type Digest [32]byte

// Hex returns the lowercase hex encoding.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether d is the zero digest.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Digest hashes start symbol and rules in canonical order. Alternative
// order is significant because selection indices depend on it.
func (g *Grammar) Digest() Digest {
	h := sha256.New()
	_, _ = h.Write([]byte(g.start))
	_, _ = h.Write([]byte{0})
	for _, sym := range g.order {
		_, _ = h.Write([]byte(sym))
		_, _ = h.Write([]byte{1})
		for _, p := range g.rules[sym] {
			_, _ = h.Write([]byte(p.Raw))
			_, _ = h.Write([]byte{0})
		}
		_, _ = h.Write([]byte{2})
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// Combine folds extra digests into base, e.g. to key by grammar and mode.
func Combine(base Digest, parts ...[]byte) Digest {
	h := sha256.New()
	_, _ = h.Write(base[:])
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
