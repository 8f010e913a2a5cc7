package participant

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trusted-setup/coordinator/common/crypto/signature"
	"github.com/trusted-setup/coordinator/round"
)

func newTestID(t *testing.T) signature.PublicKey {
	t.Helper()
	pub, _, err := signature.NewKeyPair()
	require.NoError(t, err)
	return pub
}

func TestAddToQueueRejectsBanned(t *testing.T) {
	r := NewRegistry()
	id := newTestID(t)

	_, err := r.Ban(id)
	require.NoError(t, err)

	err = r.AddToQueue(id, round.RoleContributor, 10)
	require.ErrorIs(t, err, ErrParticipantBanned)
}

func TestAddToQueueRejectsDuplicate(t *testing.T) {
	r := NewRegistry()
	id := newTestID(t)

	require.NoError(t, r.AddToQueue(id, round.RoleContributor, 10))
	err := r.AddToQueue(id, round.RoleContributor, 10)
	require.ErrorIs(t, err, ErrParticipantAlreadyAdded)
}

func TestQueuePromotesByReliability(t *testing.T) {
	r := NewRegistry()
	low := newTestID(t)
	high := newTestID(t)
	mid := newTestID(t)

	require.NoError(t, r.AddToQueue(low, round.RoleContributor, 5))
	require.NoError(t, r.AddToQueue(high, round.RoleContributor, 200))
	require.NoError(t, r.AddToQueue(mid, round.RoleContributor, 50))

	ordered := r.QueueContributors()
	require.Equal(t, []signature.PublicKey{high, mid, low}, ordered)
}

func TestPrecommitCommitRoundTrip(t *testing.T) {
	r := NewRegistry()
	contributor := newTestID(t)
	verifier := newTestID(t)

	require.NoError(t, r.AddToQueue(contributor, round.RoleContributor, 100))
	require.NoError(t, r.AddToQueue(verifier, round.RoleVerifier, 100))

	cIDs, vIDs, err := r.PrecommitNextRound(1, 1, 1)
	require.NoError(t, err)
	require.Equal(t, []signature.PublicKey{contributor}, cIDs)
	require.Equal(t, []signature.PublicKey{verifier}, vIDs)

	require.Equal(t, 0, r.queuedContributors.Len())

	committedC, committedV, err := r.CommitNextRound()
	require.NoError(t, err)
	require.Equal(t, cIDs, committedC)
	require.Equal(t, vIDs, committedV)
	require.True(t, r.IsCurrent(contributor, round.RoleContributor))
	require.True(t, r.IsCurrent(verifier, round.RoleVerifier))
}

func TestPrecommitRollbackRequeues(t *testing.T) {
	r := NewRegistry()
	contributor := newTestID(t)
	verifier := newTestID(t)

	require.NoError(t, r.AddToQueue(contributor, round.RoleContributor, 100))
	require.NoError(t, r.AddToQueue(verifier, round.RoleVerifier, 100))

	_, _, err := r.PrecommitNextRound(1, 1, 1)
	require.NoError(t, err)

	require.NoError(t, r.RollbackNextRound())
	require.True(t, r.IsQueued(contributor, round.RoleContributor))
	require.True(t, r.IsQueued(verifier, round.RoleVerifier))
}

func TestFetchTaskLowestOrdered(t *testing.T) {
	r := NewRegistry()
	id := newTestID(t)
	require.NoError(t, r.AddToQueue(id, round.RoleContributor, 100))
	_, _, err := r.PrecommitNextRound(1, 1, 0)
	require.Error(t, err) // verifier queue empty

	require.NoError(t, r.AddToQueue(newTestID(t), round.RoleVerifier, 100))
	_, _, err = r.PrecommitNextRound(1, 1, 1)
	require.NoError(t, err)
	_, _, err = r.CommitNextRound()
	require.NoError(t, err)

	require.NoError(t, r.AssignTask(id, round.Task{ChunkID: 2, ContributionID: 0}))
	require.NoError(t, r.AssignTask(id, round.Task{ChunkID: 0, ContributionID: 0}))
	require.NoError(t, r.AssignTask(id, round.Task{ChunkID: 1, ContributionID: 0}))

	task, err := r.FetchTask(id)
	require.NoError(t, err)
	require.Equal(t, round.Task{ChunkID: 0, ContributionID: 0}, task)
}

func TestCompleteAndRollbackPendingTask(t *testing.T) {
	r := NewRegistry()
	id := newTestID(t)
	require.NoError(t, r.AddToQueue(id, round.RoleContributor, 100))
	require.NoError(t, r.AddToQueue(newTestID(t), round.RoleVerifier, 100))
	_, _, err := r.PrecommitNextRound(1, 1, 1)
	require.NoError(t, err)
	_, _, err = r.CommitNextRound()
	require.NoError(t, err)

	task := round.Task{ChunkID: 0, ContributionID: 0}
	require.NoError(t, r.AssignTask(id, task))
	_, err = r.FetchTask(id)
	require.NoError(t, err)

	require.NoError(t, r.RollbackPendingTask(id, task))
	info, ok := r.Info(id)
	require.True(t, ok)
	require.Contains(t, info.Assigned, task)
	require.NotContains(t, info.Pending, task)

	_, err = r.FetchTask(id)
	require.NoError(t, err)
	require.NoError(t, r.CompleteTask(id, task, 5))
	info, _ = r.Info(id)
	require.Contains(t, info.Completed, task)
	require.Equal(t, uint8(105), info.Reliability)
}

func TestDetectDroppedOnHeartbeatTimeout(t *testing.T) {
	r := NewRegistry()
	id := newTestID(t)
	require.NoError(t, r.AddToQueue(id, round.RoleContributor, 100))
	require.NoError(t, r.AddToQueue(newTestID(t), round.RoleVerifier, 100))
	_, _, err := r.PrecommitNextRound(1, 1, 1)
	require.NoError(t, err)
	_, _, err = r.CommitNextRound()
	require.NoError(t, err)

	info, _ := r.Info(id)
	info.LastHeartbeatAt = info.LastHeartbeatAt.Add(-1000 * 1e9) // far in the past

	dropped := r.DetectDropped(DropConfig{TimeoutSeconds: 1, LockTimeoutSeconds: 3600, MinReliability: 0})
	require.Contains(t, dropped, id)
}

func TestUnbanIsNoopWhenNotBanned(t *testing.T) {
	r := NewRegistry()
	id := newTestID(t)
	r.Unban(id)
	require.False(t, r.IsBanned(id))
}
