package round

import "errors"

// Errors returned by the round/chunk model (spec.md §4.2, §7, §8). Part of
// the coordinator's larger sum-type error taxonomy; compare with errors.Is,
// never by string, the same discipline the teacher applies to its own
// storage/consensus error values.
var (
	// ErrChunkIDInvalid is returned when chunk_id is outside [0, N).
	ErrChunkIDInvalid = errors.New("round: chunk id out of range")
	// ErrChunkLockAlreadyAcquired is returned when a chunk already has a holder.
	ErrChunkLockAlreadyAcquired = errors.New("round: chunk is already locked")
	// ErrChunkNotLocked is returned when an operation requires a lock the caller doesn't hold.
	ErrChunkNotLocked = errors.New("round: chunk is not locked")
	// ErrLockHolderMismatch is returned when the caller does not hold the chunk's lock.
	ErrLockHolderMismatch = errors.New("round: caller does not hold this chunk's lock")
	// ErrParticipantUnauthorized is returned when the participant's role doesn't
	// match the work the chunk currently needs, or the participant isn't in
	// the round's roster at all.
	ErrParticipantUnauthorized = errors.New("round: participant is not authorized for this chunk's pending work")
	// ErrChunkLockLimitReached is returned when a participant already holds
	// their configured maximum number of chunk locks.
	ErrChunkLockLimitReached = errors.New("round: participant has reached their chunk lock limit")
	// ErrChunkAlreadyComplete is returned when locking a chunk that has no more pending work.
	ErrChunkAlreadyComplete = errors.New("round: chunk has no more pending contributions")
	// ErrContributionHashMismatch is returned when a response file's
	// advertised hash does not match the recomputed hash of its challenge.
	ErrContributionHashMismatch = errors.New("round: contribution hash does not match challenge")
)
