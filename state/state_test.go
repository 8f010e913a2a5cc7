package state

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLifecycleHappyPath(t *testing.T) {
	s := NewCoordinatorState()
	require.Equal(t, PhaseEmpty, s.Phase)

	s.StartRound(1)
	require.Equal(t, PhaseActive, s.Phase)
	require.Equal(t, uint64(1), s.CurrentRoundHeight)

	s.MarkFinished()
	require.Equal(t, PhaseFinished, s.Phase)

	require.NoError(t, s.BeginAggregating(false))
	require.Equal(t, PhaseAggregating, s.Phase)

	s.MarkAggregated()
	require.Equal(t, PhaseAggregated, s.Phase)

	s.MarkPrecommitReady()
	require.Equal(t, PhasePrecommitReady, s.Phase)
	require.True(t, s.ReadyToAdvance())

	require.NoError(t, s.Advance(2))
	require.Equal(t, PhaseActive, s.Phase)
	require.Equal(t, uint64(2), s.CurrentRoundHeight)
}

func TestBeginAggregatingRefusesWhenNotFinished(t *testing.T) {
	s := NewCoordinatorState()
	s.StartRound(1)
	err := s.BeginAggregating(false)
	require.ErrorIs(t, err, ErrRoundNotFinished)
}

func TestBeginAggregatingRefusesWhenRoundFileExists(t *testing.T) {
	s := NewCoordinatorState()
	s.StartRound(1)
	s.MarkFinished()
	err := s.BeginAggregating(true)
	require.ErrorIs(t, err, ErrRoundFileAlreadyExists)
}

func TestAdvanceRefusesBeforePrecommitReady(t *testing.T) {
	s := NewCoordinatorState()
	s.StartRound(1)
	s.MarkFinished()
	require.NoError(t, s.BeginAggregating(false))
	s.MarkAggregated()

	err := s.Advance(2)
	require.ErrorIs(t, err, ErrNotReadyToAdvance)
}

func TestRollbackPrecommitReturnsToAggregated(t *testing.T) {
	s := NewCoordinatorState()
	s.StartRound(1)
	s.MarkFinished()
	require.NoError(t, s.BeginAggregating(false))
	s.MarkAggregated()
	s.MarkPrecommitReady()

	s.RollbackPrecommit()
	require.Equal(t, PhaseAggregated, s.Phase)
}
