// Package signature provides the participant identity type. The coordinator
// never verifies request signatures itself (spec.md §1 names signature
// verification of incoming requests as an external collaborator's job), but
// it needs a stable, comparable, printable identity to key every internal
// map by — the same role the teacher's common/crypto/signature.PublicKey
// plays for entities and nodes.
package signature

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// PublicKeySize is the size, in bytes, of a PublicKey.
const PublicKeySize = ed25519.PublicKeySize

// PublicKey is a participant's stable identity. Rounds, chunks and
// participant records reference participants by this value, never by
// pointer, per spec.md §9's "Cyclic ownership" design note.
type PublicKey [PublicKeySize]byte

// String returns the lower-case hex encoding of the public key.
func (p PublicKey) String() string {
	return hex.EncodeToString(p[:])
}

// IsEmpty reports whether the key is the zero value (i.e. unset).
func (p PublicKey) IsEmpty() bool {
	return p == PublicKey{}
}

// MarshalText implements encoding.TextMarshaler so a PublicKey can be used
// directly as a CBOR/JSON map key or config value.
func (p PublicKey) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PublicKey) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("signature: malformed public key: %w", err)
	}
	if len(b) != PublicKeySize {
		return fmt.Errorf("signature: bad public key size: got %d, want %d", len(b), PublicKeySize)
	}
	copy(p[:], b)
	return nil
}

// PrivateKey is an ed25519 signing key, returned by NewKeyPair. Nothing in
// the coordinator signs with it; tests call NewKeyPair only to obtain fresh
// random identities.
type PrivateKey []byte

// NewKeyPair generates a fresh ed25519 key pair.
func NewKeyPair() (PublicKey, PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return PublicKey{}, nil, err
	}
	var pk PublicKey
	copy(pk[:], pub)
	return pk, PrivateKey(priv), nil
}

// ParsePublicKeyHex parses a hex-encoded public key, the format used by
// Config.CoordinatorContributors / CoordinatorVerifiers (spec.md §6).
func ParsePublicKeyHex(s string) (PublicKey, error) {
	var pk PublicKey
	b, err := hex.DecodeString(s)
	if err != nil {
		return pk, fmt.Errorf("signature: malformed public key %q: %w", s, err)
	}
	if len(b) != PublicKeySize {
		return pk, errors.New("signature: public key has wrong length")
	}
	copy(pk[:], b)
	return pk, nil
}
