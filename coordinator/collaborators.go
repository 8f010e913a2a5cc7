package coordinator

import (
	"github.com/trusted-setup/coordinator/common/crypto/hash"
	"github.com/trusted-setup/coordinator/round"
	"github.com/trusted-setup/coordinator/storage/api"
)

// Initialization writes the two initial contribution files for a chunk
// (spec.md §6). The coordinator invokes it once per chunk during round 0's
// bootstrap and never inspects its internals.
type Initialization interface {
	Run(backend api.Backend, roundHeight uint64, chunkID int) error
}

// Computation is the cryptographic core: given the previous chunk state, it
// produces the next (spec.md §6). Opaque to the coordinator beyond "it
// either succeeds and leaves output at responseLocator, or fails".
type Computation interface {
	Run(backend api.Backend, challengeLocator, responseLocator api.Locator, seed []byte) error
}

// Verification validates a response file and emits the verified counterpart
// (spec.md §6). isFinal signals the chunk's last contribution, which the
// coordinator needs to pick the correct verified-output locator, not
// Verification itself — it is passed through for collaborators that change
// behavior on the final step (e.g. additional consistency checks).
type Verification interface {
	Run(backend api.Backend, roundHeight uint64, chunkID, contributionID int, isFinal bool) error
}

// Aggregation produces RoundFile(round_height) from all verified chunks of
// a round (spec.md §6).
type Aggregation interface {
	Run(backend api.Backend, r *round.Round) error
}

// HashFunc is calculate_hash(bytes) -> 64-byte-digest (spec.md §6). The
// concrete binding lives in common/crypto/hash. The façade stores the
// function it is given but does not call it: the linkage checks in package
// round always use hash.Sum (SHA-512).
type HashFunc func(data []byte) hash.Hash

// Collaborators bundles every external routine the façade invokes but does
// not implement (spec.md §1's "Out of scope... external collaborators").
type Collaborators struct {
	Init          Initialization
	Compute       Computation
	Verify        Verification
	Aggregate     Aggregation
	CalculateHash HashFunc
}

// noopCollaborators is an Initialization that does nothing but succeed; it
// and the no-ops below back DefaultCollaborators, mirroring the teacher's
// upgrade.dummy stub pattern (upgrade/dummy.go: a minimal
// interface-satisfying no-op).
type noopCollaborators struct{}

func (noopCollaborators) Run(api.Backend, uint64, int) error { return nil }

type noopComputation struct{}

func (noopComputation) Run(api.Backend, api.Locator, api.Locator, []byte) error {
	return nil
}

type noopVerification struct{}

func (noopVerification) Run(api.Backend, uint64, int, int, bool) error { return nil }

type noopAggregation struct{}

func (noopAggregation) Run(api.Backend, *round.Round) error { return nil }

// DefaultCollaborators returns a Collaborators bundle backed by no-ops. The
// cmd/coordinator binary uses it; it produces no cryptographic output, so
// only the lock/contribute/verify bookkeeping is exercised.
func DefaultCollaborators(hashFn HashFunc) Collaborators {
	return Collaborators{
		Init:          noopCollaborators{},
		Compute:       noopComputation{},
		Verify:        noopVerification{},
		Aggregate:     noopAggregation{},
		CalculateHash: hashFn,
	}
}
