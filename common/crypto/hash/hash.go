// Package hash implements the shared content hash used to link contribution
// artifacts together (spec.md §6 calculate_hash, §4.2's "first 64 bytes").
package hash

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
)

// Size is the length, in bytes, of a Hash's digest. The coordinator's
// linkage checks compare the first Size bytes of a response file against a
// hash computed over the challenge file; this binds that assumption to
// SHA-512's native output size so the two can never silently disagree.
const Size = sha512.Size // 64

// Hash is a SHA-512 digest.
type Hash [Size]byte

// String returns the lower-case hex encoding of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns a copy of the hash's underlying bytes.
func (h Hash) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, h[:])
	return out
}

// IsEmpty returns true iff the hash is the all-zero value.
func (h Hash) IsEmpty() bool {
	return h == Hash{}
}

// Equal reports whether two hashes are identical.
func (h Hash) Equal(other Hash) bool {
	return h == other
}

// FromBytes truncates/copies a byte slice into a Hash, failing if it is
// shorter than Size bytes. Used to compare the "first 64 bytes" of an
// uploaded artifact against a computed digest, per spec.md §4.2.
func FromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) < Size {
		return h, fmt.Errorf("hash: input too short: got %d bytes, need at least %d", len(b), Size)
	}
	copy(h[:], b[:Size])
	return h, nil
}

// Sum computes the SHA-512 digest of data. This is the coordinator's
// concrete binding for the external collaborator interface's
// calculate_hash(bytes) -> 64-byte-digest (spec.md §6).
func Sum(data []byte) Hash {
	return sha512.Sum512(data)
}
