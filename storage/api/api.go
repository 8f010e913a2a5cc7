// Package api defines the content-addressed namespace the coordinator
// persists round state, the round-height pointer, and per-contribution
// artifacts into (spec.md §4.1). It is a narrow get/put/exists/remove/update
// interface over a single key space, implemented once in-memory (for tests)
// and once atop Badger (storage/badgerdb), the same "trait/interface over a
// storage backend" shape the teacher uses for its own storage/api.Backend —
// kept in its own leaf package so concrete backends can import it without
// creating a cycle back through the backend-selection package (storage).
package api

import (
	"errors"
	"fmt"
	"io"
)

// Kind identifies the shape of a Locator, per spec.md §3.
type Kind int

const (
	// KindRoundHeight locates the single scalar round-height pointer.
	KindRoundHeight Kind = iota
	// KindCoordinatorState locates the serialized CoordinatorState blob.
	KindCoordinatorState
	// KindRoundState locates the serialized state of one round.
	KindRoundState
	// KindRoundFile locates the aggregated artifact of one round.
	KindRoundFile
	// KindContributionFile locates one (round, chunk, contribution, verified?) artifact.
	KindContributionFile
)

func (k Kind) String() string {
	switch k {
	case KindRoundHeight:
		return "RoundHeight"
	case KindCoordinatorState:
		return "CoordinatorState"
	case KindRoundState:
		return "RoundState"
	case KindRoundFile:
		return "RoundFile"
	case KindContributionFile:
		return "ContributionFile"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Locator is a symbolic key into the storage namespace. Its interpretation
// is total and injective with to_path/to_locator (spec.md §4.1): every
// Locator maps to exactly one path and vice versa.
type Locator struct {
	Kind Kind

	// RoundHeight is populated for KindRoundState, KindRoundFile and
	// KindContributionFile.
	RoundHeight uint64

	// ChunkID and ContributionID are populated for KindContributionFile only.
	ChunkID        int
	ContributionID int

	// Verified distinguishes the unverified response from the verified
	// counterpart of a contribution (KindContributionFile only).
	Verified bool
}

// RoundHeightLocator is the single scalar round-height pointer.
func RoundHeightLocator() Locator { return Locator{Kind: KindRoundHeight} }

// CoordinatorStateLocator is the serialized CoordinatorState blob.
func CoordinatorStateLocator() Locator { return Locator{Kind: KindCoordinatorState} }

// RoundStateLocator locates the serialized state of round h.
func RoundStateLocator(h uint64) Locator { return Locator{Kind: KindRoundState, RoundHeight: h} }

// RoundFileLocator locates the aggregated artifact of round h.
func RoundFileLocator(h uint64) Locator { return Locator{Kind: KindRoundFile, RoundHeight: h} }

// ContributionFileLocator locates one contribution artifact.
func ContributionFileLocator(h uint64, chunkID, contributionID int, verified bool) Locator {
	return Locator{
		Kind:           KindContributionFile,
		RoundHeight:    h,
		ChunkID:        chunkID,
		ContributionID: contributionID,
		Verified:       verified,
	}
}

// Path renders loc as the canonical path string shared by every Backend
// implementation, matching the persisted layout of spec.md §6: a scalar
// RoundHeight file, a CoordinatorState blob, one RoundState/RoundFile per
// round, and one ContributionFile per (round, chunk, contribution, verified).
func Path(loc Locator) string {
	switch loc.Kind {
	case KindRoundHeight:
		return "round_height"
	case KindCoordinatorState:
		return "coordinator_state.cbor"
	case KindRoundState:
		return fmt.Sprintf("round_%d/state.cbor", loc.RoundHeight)
	case KindRoundFile:
		return fmt.Sprintf("round_%d/aggregate.bin", loc.RoundHeight)
	case KindContributionFile:
		verifiedStr := "unverified"
		if loc.Verified {
			verifiedStr = "verified"
		}
		return fmt.Sprintf("round_%d/chunk_%d/contribution_%d.%s.bin",
			loc.RoundHeight, loc.ChunkID, loc.ContributionID, verifiedStr)
	default:
		panic(fmt.Sprintf("storage: unknown locator kind %v", loc.Kind))
	}
}

// ParsePath is the exact inverse of Path.
func ParsePath(path string) (Locator, error) {
	switch {
	case path == "round_height":
		return RoundHeightLocator(), nil
	case path == "coordinator_state.cbor":
		return CoordinatorStateLocator(), nil
	}

	var h uint64
	if n, err := fmt.Sscanf(path, "round_%d/state.cbor", &h); err == nil && n == 1 {
		return RoundStateLocator(h), nil
	}
	if n, err := fmt.Sscanf(path, "round_%d/aggregate.bin", &h); err == nil && n == 1 {
		return RoundFileLocator(h), nil
	}

	var chunkID, contributionID int
	var verifiedStr string
	if n, err := fmt.Sscanf(path, "round_%d/chunk_%d/contribution_%d.%s", &h, &chunkID, &contributionID, &verifiedStr); err == nil && n == 4 {
		switch {
		case len(verifiedStr) >= len("verified.bin") && verifiedStr[:len("verified.bin")] == "verified.bin":
			return ContributionFileLocator(h, chunkID, contributionID, true), nil
		case len(verifiedStr) >= len("unverified.bin") && verifiedStr[:len("unverified.bin")] == "unverified.bin":
			return ContributionFileLocator(h, chunkID, contributionID, false), nil
		}
	}

	return Locator{}, fmt.Errorf("storage: path %q does not match any known locator shape", path)
}

// Errors returned by Backend implementations. These are part of the large
// error taxonomy spec.md §7/§9 calls for: compare with errors.Is, never by
// string.
var (
	// ErrStorageFailed is returned by Get when the key is absent or of the
	// wrong shape (spec.md §4.1).
	ErrStorageFailed = errors.New("storage: failed to retrieve object")
	// ErrLocatorAlreadyExists is returned by Insert when the key is taken.
	ErrLocatorAlreadyExists = errors.New("storage: locator already exists")
	// ErrLocatorMissing is returned by Update when the key is absent.
	ErrLocatorMissing = errors.New("storage: locator does not exist")
)

// Backend is the storage abstraction every coordinator component talks to.
// Every method is atomic with respect to concurrent callers (spec.md §4.1);
// the façade additionally serializes writers with its own storage lock
// (spec.md §5), so a Backend implementation need not provide more than
// single-writer/many-reader semantics.
type Backend interface {
	// Get retrieves the bytes stored at loc, or ErrStorageFailed.
	Get(loc Locator) ([]byte, error)
	// Exists reports whether loc is populated.
	Exists(loc Locator) bool
	// Insert stores data at loc, failing with ErrLocatorAlreadyExists if
	// loc is already populated.
	Insert(loc Locator, data []byte) error
	// Update overwrites the data at loc, failing with ErrLocatorMissing if
	// loc is not yet populated.
	Update(loc Locator, data []byte) error
	// Remove deletes loc. Idempotent: removing an absent key is not an
	// error (spec.md §7).
	Remove(loc Locator) error
	// Reader exposes the bytes at loc as a stream. Both backends in this
	// repository read the whole value into memory before returning it.
	Reader(loc Locator) (io.ReadCloser, error)
	// ToPath renders loc as the backend-specific path/key string.
	ToPath(loc Locator) string
	// ToLocator parses a path produced by ToPath back into a Locator. It is
	// the exact inverse of ToPath.
	ToLocator(path string) (Locator, error)
	// Close releases any resources (file handles, DB connections) held by
	// the backend.
	Close() error
}
