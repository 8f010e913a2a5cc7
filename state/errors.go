package state

import "errors"

// Errors returned by the coordinator state machine (spec.md §4.4, §7, §8).
var (
	ErrRoundNotFinished       = errors.New("state: round is not finished")
	ErrRoundAlreadyAggregated = errors.New("state: round is already aggregated")
	ErrRoundFileAlreadyExists = errors.New("state: round file already exists")
	ErrNotReadyToAdvance      = errors.New("state: round is not finished, aggregated, and precommit-ready")
	ErrRoundDoesNotExist      = errors.New("state: round does not exist")
	ErrContributorsMissing    = errors.New("state: no contributors available to start a round")
	ErrRoundHeightMismatch    = errors.New("state: storage and in-memory round height disagree")
)
