// Package round implements the in-memory Round & Chunk Model (spec.md §4.2,
// component C2): the ordered contribution chain of every chunk in a round,
// lock acquisition, and the invariant-preserving mutators the coordinator
// façade drives. It holds no storage or participant-queue state of its own
// — the façade (package coordinator) is the only caller, and it is the only
// thing allowed to cross a Round with a api.Backend or a
// participant.Registry.
package round

import (
	"time"

	"github.com/trusted-setup/coordinator/common/crypto/hash"
	"github.com/trusted-setup/coordinator/common/crypto/signature"
	"github.com/trusted-setup/coordinator/storage/api"
)

// Role identifies which half of a contribution's alternating chain a
// participant plays (spec.md §3 GLOSSARY).
type Role int

const (
	// RoleContributor computes a new chunk state.
	RoleContributor Role = iota
	// RoleVerifier checks and certifies a contributor's output.
	RoleVerifier
)

func (r Role) String() string {
	if r == RoleVerifier {
		return "verifier"
	}
	return "contributor"
}

// Task is a (chunk_id, contribution_id) pair uniquely identifying one unit
// of work in one round (spec.md §3).
type Task struct {
	ChunkID        int
	ContributionID int
}

// Contribution is a single step in a chunk's chain (spec.md §3).
// Contribution 0 is the initialization contribution, pre-verified and
// authored by the coordinator itself; every later id alternates
// contributor/verifier.
type Contribution struct {
	ContributionID int
	Contributor    signature.PublicKey
	Verifier       signature.PublicKey
	// UnverifiedLocator is populated once the contributor's output has been
	// accepted; empty for contribution 0 which is seeded directly as verified.
	UnverifiedLocator api.Locator
	HasUnverified     bool
	// VerifiedLocator is populated once a verifier has certified the
	// response (or immediately, for contribution 0).
	VerifiedLocator api.Locator
	Verified        bool
}

// Chunk is one parallelizable partition of a round's work (spec.md §3).
type Chunk struct {
	ChunkID       int
	Contributions []Contribution
	// LockHolder is nil when the chunk is unlocked.
	LockHolder *signature.PublicKey
	LockedAt   time.Time
}

// pendingWork describes what the chunk needs next: which role must act, and
// the contribution_id that role's action will produce or certify.
type pendingWork struct {
	role           Role
	contributionID int
	done           bool
}

func (c *Chunk) pending(expected int) pendingWork {
	last := c.Contributions[len(c.Contributions)-1]
	if len(c.Contributions) >= expected && last.Verified {
		return pendingWork{done: true}
	}
	if !last.Verified {
		return pendingWork{role: RoleVerifier, contributionID: last.ContributionID}
	}
	return pendingWork{role: RoleContributor, contributionID: len(c.Contributions)}
}

// IsLocked reports whether the chunk currently has a lock holder.
func (c *Chunk) IsLocked() bool {
	return c.LockHolder != nil
}

// IsComplete reports whether the chunk has produced and verified all
// expected contributions for the round.
func (c *Chunk) IsComplete(expected int) bool {
	return c.pending(expected).done
}

// Round is (round_height, started_at, finished_at?, contributors[],
// verifiers[], chunks[]) per spec.md §3. Contributor and verifier lists are
// frozen at round start. Chunks are owned by value, participants
// referenced only by their stable PublicKey identity, per the "Cyclic
// ownership" design note in spec.md §9.
type Round struct {
	Height       uint64
	StartedAt    time.Time
	FinishedAt   *time.Time
	Contributors []signature.PublicKey
	Verifiers    []signature.PublicKey
	Chunks       []Chunk
}

// New creates a round with numChunks chunks that hold no contributions yet.
// The caller installs the pre-verified contribution 0 of every chunk with
// SeedChunk before using the round.
func New(height uint64, numChunks int, contributors, verifiers []signature.PublicKey) *Round {
	chunks := make([]Chunk, numChunks)
	for i := range chunks {
		chunks[i] = Chunk{ChunkID: i}
	}
	return &Round{
		Height:       height,
		StartedAt:    time.Now(),
		Contributors: append([]signature.PublicKey{}, contributors...),
		Verifiers:    append([]signature.PublicKey{}, verifiers...),
		Chunks:       chunks,
	}
}

// SeedChunk installs the pre-verified contribution 0 for a chunk, either
// freshly produced by the Initialization collaborator (round 0) or carried
// forward as the previous round's final verified contribution (spec.md §3
// invariant: "The final verified contribution of chunk c in round h is
// stored at ContributionFile(h+1, c, 0, true)").
func (r *Round) SeedChunk(chunkID int, verifiedLocator api.Locator) error {
	if chunkID < 0 || chunkID >= len(r.Chunks) {
		return ErrChunkIDInvalid
	}
	r.Chunks[chunkID].Contributions = []Contribution{{
		ContributionID:  0,
		VerifiedLocator: verifiedLocator,
		Verified:        true,
	}}
	return nil
}

// ExpectedContributions is the number of contributions (including the
// seed) every chunk must reach to be complete: one per contributor plus the
// initial seed.
func (r *Round) ExpectedContributions() int {
	return len(r.Contributors) + 1
}

// IsFinished reports whether every chunk has reached ExpectedContributions
// and had its last contribution verified.
func (r *Round) IsFinished() bool {
	expected := r.ExpectedContributions()
	for i := range r.Chunks {
		if !r.Chunks[i].IsComplete(expected) {
			return false
		}
	}
	return true
}

func (r *Round) hasRole(id signature.PublicKey, role Role) bool {
	list := r.Contributors
	if role == RoleVerifier {
		list = r.Verifiers
	}
	for _, p := range list {
		if p == id {
			return true
		}
	}
	return false
}

// LockResult is returned by TryLockChunk: the three locators spec.md §4.2
// requires, plus the task this lock covers.
type LockResult struct {
	Task     Task
	Previous api.Locator
	Input    api.Locator
	Output   api.Locator
}

// TryLockChunk attempts to acquire chunk_id's lock for participant acting
// in role, per spec.md §4.2: succeeds iff (a) chunk_id is in range, (b) the
// chunk is unlocked, (c) participant is listed in the appropriate role set,
// and (d) participant is under their configured lock limit (currentLocks,
// limit are supplied by the caller, which tracks locks across all chunks).
func (r *Round) TryLockChunk(chunkID int, participant signature.PublicKey, role Role, currentLocks, limit int) (*LockResult, error) {
	if chunkID < 0 || chunkID >= len(r.Chunks) {
		return nil, ErrChunkIDInvalid
	}
	chunk := &r.Chunks[chunkID]
	if chunk.IsLocked() {
		return nil, ErrChunkLockAlreadyAcquired
	}
	if !r.hasRole(participant, role) {
		return nil, ErrParticipantUnauthorized
	}
	if currentLocks >= limit {
		return nil, ErrChunkLockLimitReached
	}

	expected := r.ExpectedContributions()
	pw := chunk.pending(expected)
	if pw.done {
		return nil, ErrChunkAlreadyComplete
	}
	if pw.role != role {
		return nil, ErrParticipantUnauthorized
	}

	var result LockResult
	switch role {
	case RoleContributor:
		// previous verified contribution, challenge = current verified
		// contribution, response = next unverified (spec.md §4.2).
		cur := pw.contributionID - 1 // index of the most recently verified contribution
		prevID := cur
		if prevID < 0 {
			prevID = 0
		}
		result = LockResult{
			Task:     Task{ChunkID: chunkID, ContributionID: pw.contributionID},
			Previous: api.ContributionFileLocator(r.Height, chunkID, prevID, true),
			Input:    api.ContributionFileLocator(r.Height, chunkID, cur, true),
			Output:   api.ContributionFileLocator(r.Height, chunkID, pw.contributionID, false),
		}
	case RoleVerifier:
		// challenge = verified preceding contribution, response =
		// unverified contribution just produced, next-challenge = verified
		// output locator (spec.md §4.2).
		challengeID := pw.contributionID - 1
		if challengeID < 0 {
			challengeID = 0
		}
		result = LockResult{
			Task:     Task{ChunkID: chunkID, ContributionID: pw.contributionID},
			Previous: api.ContributionFileLocator(r.Height, chunkID, challengeID, true),
			Input:    api.ContributionFileLocator(r.Height, chunkID, pw.contributionID, false),
			Output:   r.verifiedOutputLocator(chunkID, pw.contributionID, expected),
		}
	}

	chunk.LockHolder = &participant
	chunk.LockedAt = time.Now()
	return &result, nil
}

// verifiedOutputLocator computes where a verifier's certified output must
// land: the final contribution of a chunk seeds the next round (spec.md
// §4.2, §3's last invariant), everything else stays within round h.
func (r *Round) verifiedOutputLocator(chunkID, contributionID, expected int) api.Locator {
	if contributionID == expected-1 {
		return api.ContributionFileLocator(r.Height+1, chunkID, 0, true)
	}
	return api.ContributionFileLocator(r.Height, chunkID, contributionID, true)
}

// PendingWork reports what chunk_id still needs: which role must act next,
// the contribution_id that action will produce or certify, and whether the
// chunk has nothing left to do. Used by the façade's try_lock to scan for
// an eligible chunk without duplicating Chunk.pending's logic.
func (r *Round) PendingWork(chunkID int) (role Role, contributionID int, done bool, err error) {
	if chunkID < 0 || chunkID >= len(r.Chunks) {
		return 0, 0, false, ErrChunkIDInvalid
	}
	pw := r.Chunks[chunkID].pending(r.ExpectedContributions())
	return pw.role, pw.contributionID, pw.done, nil
}

// ReleaseLock drops chunk_id's lock unconditionally, without checking the
// holder. The façade uses it when a contribution or verification is
// rejected; the drop/ban recovery path uses RemoveLocksUnsafe instead.
func (r *Round) ReleaseLock(chunkID int) error {
	if chunkID < 0 || chunkID >= len(r.Chunks) {
		return ErrChunkIDInvalid
	}
	r.Chunks[chunkID].LockHolder = nil
	return nil
}

// LockedBy returns the current holder of chunk_id's lock, or false if unlocked.
func (r *Round) LockedBy(chunkID int) (signature.PublicKey, bool) {
	if chunkID < 0 || chunkID >= len(r.Chunks) {
		return signature.PublicKey{}, false
	}
	h := r.Chunks[chunkID].LockHolder
	if h == nil {
		return signature.PublicKey{}, false
	}
	return *h, true
}

// AddContribution appends participant's output locator to chunk_id at the
// next contribution id, after verifying the response's advertised hash
// matches the hash of the challenge file it was computed from (spec.md
// §4.2's "Contribution append"). Releases the lock and advances the cursor
// on success.
func (r *Round) AddContribution(chunkID int, participant signature.PublicKey, responseBytes, challengeBytes []byte, output api.Locator) error {
	if chunkID < 0 || chunkID >= len(r.Chunks) {
		return ErrChunkIDInvalid
	}
	chunk := &r.Chunks[chunkID]
	if !chunk.IsLocked() {
		return ErrChunkNotLocked
	}
	if holder, _ := r.LockedBy(chunkID); holder != participant {
		return ErrLockHolderMismatch
	}

	expected := r.ExpectedContributions()
	pw := chunk.pending(expected)
	if pw.done || pw.role != RoleContributor {
		return ErrParticipantUnauthorized
	}

	if err := verifyHash(responseBytes, challengeBytes); err != nil {
		return err
	}

	chunk.Contributions = append(chunk.Contributions, Contribution{
		ContributionID:    pw.contributionID,
		Contributor:       participant,
		UnverifiedLocator: output,
		HasUnverified:     true,
	})
	chunk.LockHolder = nil
	return nil
}

// VerifyContribution certifies chunk_id's pending unverified contribution,
// after re-hashing the response against the next-challenge file (spec.md
// §4.2's "Verification record"). Releases the lock on success.
func (r *Round) VerifyContribution(chunkID int, participant signature.PublicKey, responseBytes, nextChallengeBytes []byte) error {
	if chunkID < 0 || chunkID >= len(r.Chunks) {
		return ErrChunkIDInvalid
	}
	chunk := &r.Chunks[chunkID]
	if !chunk.IsLocked() {
		return ErrChunkNotLocked
	}
	if holder, _ := r.LockedBy(chunkID); holder != participant {
		return ErrLockHolderMismatch
	}

	expected := r.ExpectedContributions()
	pw := chunk.pending(expected)
	if pw.done || pw.role != RoleVerifier {
		return ErrParticipantUnauthorized
	}

	if err := verifyHash(responseBytes, nextChallengeBytes); err != nil {
		return err
	}

	idx := len(chunk.Contributions) - 1
	chunk.Contributions[idx].Verifier = participant
	chunk.Contributions[idx].VerifiedLocator = r.verifiedOutputLocator(chunkID, pw.contributionID, expected)
	chunk.Contributions[idx].Verified = true
	chunk.LockHolder = nil
	return nil
}

// verifyHash checks that the first hash.Size bytes of response equal the
// SHA-512 digest of challenge (spec.md §4.2, §8 invariant 5).
func verifyHash(response, challenge []byte) error {
	advertised, err := hash.FromBytes(response)
	if err != nil {
		return ErrContributionHashMismatch
	}
	computed := hash.Sum(challenge)
	if !advertised.Equal(computed) {
		return ErrContributionHashMismatch
	}
	return nil
}

// RemoveLocksUnsafe force-unlocks every chunk in chunkIDs regardless of
// holder, part of the dropped-participant recovery path (spec.md §4.2).
func (r *Round) RemoveLocksUnsafe(chunkIDs []int) {
	for _, id := range chunkIDs {
		if id >= 0 && id < len(r.Chunks) {
			r.Chunks[id].LockHolder = nil
		}
	}
}

// RemoveChunkContributionsUnsafe discards chunk_id's trailing unverified
// contribution if it was authored by participant, undoing partial work left
// behind by a dropped/banned participant (spec.md §4.2's
// "remove_chunk_contributions_unsafe"). It is the only mutator allowed to
// decrease a chunk's contribution count. Returns the locator of the
// discarded artifact, if any, so the caller can delete the backing file.
func (r *Round) RemoveChunkContributionsUnsafe(chunkID int, participant signature.PublicKey) (api.Locator, bool) {
	if chunkID < 0 || chunkID >= len(r.Chunks) {
		return api.Locator{}, false
	}
	chunk := &r.Chunks[chunkID]
	if len(chunk.Contributions) == 0 {
		return api.Locator{}, false
	}
	last := &chunk.Contributions[len(chunk.Contributions)-1]
	if last.Verified || last.ContributionID == 0 {
		return api.Locator{}, false
	}
	if last.Contributor != participant {
		return api.Locator{}, false
	}
	loc := last.UnverifiedLocator
	chunk.Contributions = chunk.Contributions[:len(chunk.Contributions)-1]
	return loc, true
}
