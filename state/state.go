// Package state implements the Coordinator State Machine (spec.md §4.4,
// C4): the round lifecycle (Empty → Active → Finished → Aggregating →
// Aggregated → Precommit-Ready → next round Active) and the persisted
// CoordinatorState snapshot the façade writes after every operation
// (spec.md §4.5, "Every step persists a fresh snapshot of CoordinatorState
// before releasing the write exclusion").
package state

import "time"

// Phase is one node of the round lifecycle diagram in spec.md §4.4.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseActive
	PhaseFinished
	PhaseAggregating
	PhaseAggregated
	PhasePrecommitReady
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseActive:
		return "active"
	case PhaseFinished:
		return "finished"
	case PhaseAggregating:
		return "aggregating"
	case PhaseAggregated:
		return "aggregated"
	case PhasePrecommitReady:
		return "precommit_ready"
	default:
		return "unknown"
	}
}

// RoundMetrics are the concrete observability fields attached to every
// round, supplementing the distilled spec's bare "Update round metrics"
// step with fields the original coordinator.rs tracked per round.
type RoundMetrics struct {
	ChunksFullyVerified        int
	AverageContributionSeconds float64
	DropCount                  int
	BanCount                   int
	StartedAt                  time.Time
	FinishedAt                 *time.Time
}

// CoordinatorState is the snapshot persisted at storage.CoordinatorStateLocator
// after every façade operation (spec.md §4.5). It carries just enough to
// reconstruct the state machine's position; the Round itself is persisted
// separately at storage.RoundStateLocator(h).
type CoordinatorState struct {
	CurrentRoundHeight uint64
	Phase              Phase
	Metrics            map[uint64]*RoundMetrics
}

// NewCoordinatorState returns the Empty-phase, height-0 initial state.
func NewCoordinatorState() *CoordinatorState {
	return &CoordinatorState{
		Phase:   PhaseEmpty,
		Metrics: make(map[uint64]*RoundMetrics),
	}
}

// CurrentMetrics returns (creating if absent) the RoundMetrics for the
// current round height.
func (s *CoordinatorState) CurrentMetrics() *RoundMetrics {
	m, ok := s.Metrics[s.CurrentRoundHeight]
	if !ok {
		m = &RoundMetrics{StartedAt: time.Now()}
		s.Metrics[s.CurrentRoundHeight] = m
	}
	return m
}

// StartRound transitions Empty/PrecommitReady → Active at the given height,
// the single entry point for both round 0's initialization (spec.md §4.4)
// and try_advance's final step.
func (s *CoordinatorState) StartRound(height uint64) {
	s.CurrentRoundHeight = height
	s.Phase = PhaseActive
	s.Metrics[height] = &RoundMetrics{StartedAt: time.Now()}
}

// MarkFinished transitions Active → Finished once every chunk in the
// current round has produced and verified its final contribution.
func (s *CoordinatorState) MarkFinished() {
	if s.Phase != PhaseActive {
		return
	}
	s.Phase = PhaseFinished
	now := time.Now()
	s.CurrentMetrics().FinishedAt = &now
}

// BeginAggregating validates and enters the Aggregating phase
// (try_aggregate's precondition check, spec.md §4.4): refuses when the
// round is not Finished or is already Aggregated.
func (s *CoordinatorState) BeginAggregating(roundFileExists bool) error {
	switch s.Phase {
	case PhaseAggregated:
		return ErrRoundAlreadyAggregated
	case PhaseFinished:
		// fallthrough to the roundFileExists check below.
	default:
		return ErrRoundNotFinished
	}
	if roundFileExists {
		return ErrRoundFileAlreadyExists
	}
	s.Phase = PhaseAggregating
	return nil
}

// MarkAggregated transitions Aggregating → Aggregated once Aggregation.run
// has produced RoundFile(h).
func (s *CoordinatorState) MarkAggregated() {
	if s.Phase == PhaseAggregating {
		s.Phase = PhaseAggregated
	}
}

// MarkPrecommitReady transitions Aggregated → Precommit-Ready once
// precommit_next_round has atomically selected the next round's rosters.
func (s *CoordinatorState) MarkPrecommitReady() {
	if s.Phase == PhaseAggregated {
		s.Phase = PhasePrecommitReady
	}
}

// ReadyToAdvance reports whether try_advance's precondition
// (Finished ∧ Aggregated ∧ Precommit-Ready) holds. Aggregated and Finished
// are folded into the single PhasePrecommitReady terminal state by the time
// this is checked, since each transition above requires the prior one.
func (s *CoordinatorState) ReadyToAdvance() bool {
	return s.Phase == PhasePrecommitReady
}

// Advance transitions Precommit-Ready → Active at height+1, the final step
// of try_advance (spec.md §4.4). Returns ErrNotReadyToAdvance if the
// precondition does not hold.
func (s *CoordinatorState) Advance(nextHeight uint64) error {
	if !s.ReadyToAdvance() {
		return ErrNotReadyToAdvance
	}
	s.StartRound(nextHeight)
	return nil
}

// RollbackPrecommit undoes MarkPrecommitReady, used when the façade's
// try_advance fails after precommitting but before committing (spec.md
// §4.4's "on failure, rolls back precommit so the current round remains
// live").
func (s *CoordinatorState) RollbackPrecommit() {
	if s.Phase == PhasePrecommitReady {
		s.Phase = PhaseAggregated
	}
}
