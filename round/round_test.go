package round

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trusted-setup/coordinator/common/crypto/hash"
	"github.com/trusted-setup/coordinator/common/crypto/signature"
	"github.com/trusted-setup/coordinator/storage/api"
)

func newTestParticipants(t *testing.T, n int) []signature.PublicKey {
	t.Helper()
	out := make([]signature.PublicKey, n)
	for i := range out {
		pub, _, err := signature.NewKeyPair()
		require.NoError(t, err)
		out[i] = pub
	}
	return out
}

func seededRound(t *testing.T, numChunks int, contributors, verifiers []signature.PublicKey) *Round {
	t.Helper()
	r := New(0, numChunks, contributors, verifiers)
	for i := 0; i < numChunks; i++ {
		require.NoError(t, r.SeedChunk(i, api.ContributionFileLocator(0, i, 0, true)))
	}
	return r
}

func TestExpectedContributions(t *testing.T) {
	contributors := newTestParticipants(t, 3)
	verifiers := newTestParticipants(t, 3)
	r := seededRound(t, 1, contributors, verifiers)
	require.Equal(t, 4, r.ExpectedContributions())
}

func TestTryLockChunkRejectsWrongRole(t *testing.T) {
	contributors := newTestParticipants(t, 1)
	verifiers := newTestParticipants(t, 1)
	r := seededRound(t, 1, contributors, verifiers)

	_, err := r.TryLockChunk(0, verifiers[0], RoleContributor, 0, 4)
	require.ErrorIs(t, err, ErrParticipantUnauthorized)

	_, err = r.TryLockChunk(0, contributors[0], RoleVerifier, 0, 4)
	require.ErrorIs(t, err, ErrParticipantUnauthorized)
}

func TestTryLockChunkRejectsAlreadyLocked(t *testing.T) {
	contributors := newTestParticipants(t, 2)
	verifiers := newTestParticipants(t, 1)
	r := seededRound(t, 1, contributors, verifiers)

	_, err := r.TryLockChunk(0, contributors[0], RoleContributor, 0, 4)
	require.NoError(t, err)

	_, err = r.TryLockChunk(0, contributors[1], RoleContributor, 0, 4)
	require.ErrorIs(t, err, ErrChunkLockAlreadyAcquired)
}

func TestTryLockChunkRejectsLockLimit(t *testing.T) {
	contributors := newTestParticipants(t, 1)
	verifiers := newTestParticipants(t, 1)
	r := seededRound(t, 2, contributors, verifiers)

	_, err := r.TryLockChunk(0, contributors[0], RoleContributor, 1, 1)
	require.ErrorIs(t, err, ErrChunkLockLimitReached)
}

func TestContributeVerifyFullChainSingleChunk(t *testing.T) {
	contributors := newTestParticipants(t, 1)
	verifiers := newTestParticipants(t, 1)
	r := seededRound(t, 1, contributors, verifiers)

	lock, err := r.TryLockChunk(0, contributors[0], RoleContributor, 0, 4)
	require.NoError(t, err)
	require.Equal(t, Task{ChunkID: 0, ContributionID: 1}, lock.Task)

	challenge := []byte("challenge-bytes")
	response := append(hash.Sum(challenge).Bytes(), []byte("payload")...)

	require.NoError(t, r.AddContribution(0, contributors[0], response, challenge, lock.Output))
	require.False(t, r.Chunks[0].IsLocked())
	require.Len(t, r.Chunks[0].Contributions, 2)

	vlock, err := r.TryLockChunk(0, verifiers[0], RoleVerifier, 0, 4)
	require.NoError(t, err)
	require.Equal(t, Task{ChunkID: 0, ContributionID: 1}, vlock.Task)

	vResponse := append(hash.Sum(response).Bytes(), []byte("vpayload")...)
	require.NoError(t, r.VerifyContribution(0, verifiers[0], vResponse, response))
	require.False(t, r.Chunks[0].IsLocked())
	require.True(t, r.Chunks[0].Contributions[1].Verified)

	require.True(t, r.Chunks[0].IsComplete(r.ExpectedContributions()))
	require.True(t, r.IsFinished())
}

func TestAddContributionRejectsHashMismatch(t *testing.T) {
	contributors := newTestParticipants(t, 1)
	verifiers := newTestParticipants(t, 1)
	r := seededRound(t, 1, contributors, verifiers)

	lock, err := r.TryLockChunk(0, contributors[0], RoleContributor, 0, 4)
	require.NoError(t, err)

	badResponse := append(hash.Sum([]byte("not-the-challenge")).Bytes(), []byte("payload")...)
	err = r.AddContribution(0, contributors[0], badResponse, []byte("challenge-bytes"), lock.Output)
	require.ErrorIs(t, err, ErrContributionHashMismatch)
	require.True(t, r.Chunks[0].IsLocked(), "lock must be retained on a rejected contribution")
}

func TestAddContributionRejectsWrongLockHolder(t *testing.T) {
	contributors := newTestParticipants(t, 2)
	verifiers := newTestParticipants(t, 1)
	r := seededRound(t, 1, contributors, verifiers)

	lock, err := r.TryLockChunk(0, contributors[0], RoleContributor, 0, 4)
	require.NoError(t, err)

	challenge := []byte("challenge-bytes")
	response := append(hash.Sum(challenge).Bytes(), []byte("payload")...)
	err = r.AddContribution(0, contributors[1], response, challenge, lock.Output)
	require.ErrorIs(t, err, ErrLockHolderMismatch)
}

func TestRemoveChunkContributionsUnsafeUndoesPendingWork(t *testing.T) {
	contributors := newTestParticipants(t, 1)
	verifiers := newTestParticipants(t, 1)
	r := seededRound(t, 1, contributors, verifiers)

	lock, err := r.TryLockChunk(0, contributors[0], RoleContributor, 0, 4)
	require.NoError(t, err)

	challenge := []byte("challenge-bytes")
	response := append(hash.Sum(challenge).Bytes(), []byte("payload")...)
	require.NoError(t, r.AddContribution(0, contributors[0], response, challenge, lock.Output))

	loc, ok := r.RemoveChunkContributionsUnsafe(0, contributors[0])
	require.True(t, ok)
	require.Equal(t, lock.Output, loc)
	require.Len(t, r.Chunks[0].Contributions, 1, "seed contribution must survive")
}

func TestRemoveLocksUnsafe(t *testing.T) {
	contributors := newTestParticipants(t, 2)
	verifiers := newTestParticipants(t, 1)
	r := seededRound(t, 2, contributors, verifiers)

	_, err := r.TryLockChunk(0, contributors[0], RoleContributor, 0, 4)
	require.NoError(t, err)
	_, err = r.TryLockChunk(1, contributors[1], RoleContributor, 0, 4)
	require.NoError(t, err)

	r.RemoveLocksUnsafe([]int{0, 1})
	require.False(t, r.Chunks[0].IsLocked())
	require.False(t, r.Chunks[1].IsLocked())
}
