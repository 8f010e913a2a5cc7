package participant

import "errors"

// Errors returned by the participant-state model (spec.md §4.3, §7). Part of
// the coordinator's larger sum-type error taxonomy.
var (
	// ErrParticipantAlreadyAdded is returned by AddToQueue when the caller is
	// already queued or already seated in the current round.
	ErrParticipantAlreadyAdded = errors.New("participant: already queued or seated")
	// ErrParticipantBanned is returned by AddToQueue for a banned identity.
	ErrParticipantBanned = errors.New("participant: banned, refusing re-admission")
	// ErrParticipantNotFound is returned by operations addressing a
	// participant that is neither queued nor seated.
	ErrParticipantNotFound = errors.New("participant: not found")
	// ErrParticipantHasNoRemainingTasks is returned by FetchTask when the
	// assigned bucket is empty.
	ErrParticipantHasNoRemainingTasks = errors.New("participant: has no remaining assigned tasks")
	// ErrTaskNotPending is returned when completing/rolling back a task that
	// is not currently in the pending bucket.
	ErrTaskNotPending = errors.New("participant: task is not pending for this participant")
	// ErrTaskNotFound is returned when a task cannot be located in the
	// expected bucket.
	ErrTaskNotFound = errors.New("participant: task not found in expected bucket")
	// ErrQueueEmpty is returned by PrecommitNextRound when a role's queue
	// cannot fill even a minimal roster.
	ErrQueueEmpty = errors.New("participant: queue is empty")
	// ErrRostersNotDisjoint is returned by PrecommitNextRound when the same
	// identity was queued as both contributor and verifier.
	ErrRostersNotDisjoint = errors.New("participant: contributor and verifier rosters are not disjoint")
	// ErrNoPrecommitInProgress is returned by CommitNextRound/RollbackNextRound
	// when PrecommitNextRound was never called.
	ErrNoPrecommitInProgress = errors.New("participant: no precommit in progress")
)
