package coordinator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trusted-setup/coordinator/common/crypto/hash"
	"github.com/trusted-setup/coordinator/common/crypto/signature"
	"github.com/trusted-setup/coordinator/config"
	"github.com/trusted-setup/coordinator/participant"
	"github.com/trusted-setup/coordinator/round"
	"github.com/trusted-setup/coordinator/storage/api"
	"github.com/trusted-setup/coordinator/storage/memory"
)

// fakeInit seeds both the round-0 and round-1 contribution files for a
// chunk, standing in for the real Initialization collaborator.
type fakeInit struct{}

func (fakeInit) Run(backend api.Backend, roundHeight uint64, chunkID int) error {
	seed := []byte("seed-bytes-for-chunk")
	if err := backend.Insert(api.ContributionFileLocator(0, chunkID, 0, true), seed); err != nil {
		return err
	}
	return backend.Insert(api.ContributionFileLocator(1, chunkID, 0, true), seed)
}

type noopComputation2 struct{}

func (noopComputation2) Run(api.Backend, api.Locator, api.Locator, []byte) error {
	return nil
}

type noopVerification2 struct{}

func (noopVerification2) Run(api.Backend, uint64, int, int, bool) error { return nil }

type fakeAggregate struct{}

func (fakeAggregate) Run(backend api.Backend, r *round.Round) error {
	return backend.Insert(api.RoundFileLocator(r.Height), []byte("aggregate"))
}

func testCollaborators() Collaborators {
	return Collaborators{
		Init:          fakeInit{},
		Compute:       noopComputation2{},
		Verify:        noopVerification2{},
		Aggregate:     fakeAggregate{},
		CalculateHash: hash.Sum,
	}
}

func testConfig(numChunks int) *config.Config {
	return &config.Config{
		ContributorsPerRound:      1,
		VerifiersPerRound:         1,
		NumberOfChunks:            numChunks,
		ChunkSize:                 1024,
		TimeoutSeconds:            60,
		LockTimeoutSeconds:        60,
		QueueWaitSeconds:          1,
		ContributorLockChunkLimit: 4,
		VerifierLockChunkLimit:    4,
		UpdateIntervalSeconds:     10,
		MinReliability:            0,
	}
}

func newTestCoordinator(t *testing.T, numChunks int) (*Coordinator, *config.Config) {
	t.Helper()
	cfg := testConfig(numChunks)
	backend := memory.New()
	c, err := New(cfg, backend, testCollaborators())
	require.NoError(t, err)
	return c, cfg
}

func newID(t *testing.T) signature.PublicKey {
	t.Helper()
	pub, _, err := signature.NewKeyPair()
	require.NoError(t, err)
	return pub
}

func sign(data []byte) []byte {
	digest := hash.Sum(data)
	return append(digest.Bytes(), []byte("payload")...)
}

func TestBootstrap(t *testing.T) {
	c, _ := newTestCoordinator(t, 2)
	contributor := newID(t)
	verifier := newID(t)

	require.NoError(t, c.AddToQueue(contributor, round.RoleContributor, 10))
	require.NoError(t, c.AddToQueue(verifier, round.RoleVerifier, 10))

	require.NoError(t, c.Initialize())
	require.Equal(t, uint64(1), c.CurrentRoundHeight())
	require.Equal(t, []signature.PublicKey{contributor}, c.CurrentContributors())
	require.Equal(t, []signature.PublicKey{verifier}, c.CurrentVerifiers())

	r := c.CurrentRound()
	for cid := 0; cid < 2; cid++ {
		require.True(t, r.Chunks[cid].Contributions[0].Verified)
	}
}

func TestSimpleContributionAndHashMismatch(t *testing.T) {
	c, _ := newTestCoordinator(t, 1)
	contributor := newID(t)
	verifier := newID(t)
	require.NoError(t, c.AddToQueue(contributor, round.RoleContributor, 10))
	require.NoError(t, c.AddToQueue(verifier, round.RoleVerifier, 10))
	require.NoError(t, c.Initialize())

	chunkID, _, input, output, err := c.TryLock(contributor)
	require.NoError(t, err)
	require.Equal(t, 0, chunkID)

	inputBytes, err := backendOf(c).Get(input)
	require.NoError(t, err)
	response := sign(inputBytes)

	gotOutput, err := c.TryContribute(contributor, chunkID, response)
	require.NoError(t, err)
	require.Equal(t, output, gotOutput)

	r := c.CurrentRound()
	require.Len(t, r.Chunks[0].Contributions, 2)
	require.False(t, r.Chunks[0].IsLocked())

	// Verifier's turn: lock, then submit a response whose hash does not
	// match the expected challenge.
	vChunkID, vPrev, vInput, _, err := c.TryLock(verifier)
	require.NoError(t, err)
	require.Equal(t, 0, vChunkID)
	require.Equal(t, input, vPrev)
	require.Equal(t, output, vInput)

	badResponse := append(make([]byte, 64), []byte("bad")...)
	err = c.TryVerify(verifier, vChunkID, badResponse)
	require.ErrorIs(t, err, ErrContributionHashMismatch)
	require.False(t, c.CurrentRound().Chunks[0].IsLocked())
}

func TestDropRecoveryReleasesChunkLock(t *testing.T) {
	c, cfg := newTestCoordinator(t, 1)
	cfg.TimeoutSeconds = 1
	c1 := newID(t)
	c2 := newID(t)
	verifier := newID(t)
	require.NoError(t, c.AddToQueue(c1, round.RoleContributor, 10))
	require.NoError(t, c.AddToQueue(verifier, round.RoleVerifier, 10))
	require.NoError(t, c.Initialize())

	// c2 is never seated this round (ContributorsPerRound=1), so no other
	// contributor can receive c1's task. This test checks only that the
	// drop detected by Update releases the chunk lock c1 held.
	_ = c2

	chunkID, _, _, _, err := c.TryLock(c1)
	require.NoError(t, err)
	require.Equal(t, 0, chunkID)
	require.True(t, c.CurrentRound().Chunks[0].IsLocked())

	time.Sleep(1100 * time.Millisecond)
	_ = c.Update()

	require.False(t, c.CurrentRound().Chunks[0].IsLocked())
}

func TestRoundAdvance(t *testing.T) {
	c, _ := newTestCoordinator(t, 2)
	contributor := newID(t)
	verifier := newID(t)
	require.NoError(t, c.AddToQueue(contributor, round.RoleContributor, 10))
	require.NoError(t, c.AddToQueue(verifier, round.RoleVerifier, 10))
	require.NoError(t, c.Initialize())

	for i := 0; i < 2; i++ {
		chunkID, _, input, output, err := c.TryLock(contributor)
		require.NoError(t, err)
		inputBytes, err := backendOf(c).Get(input)
		require.NoError(t, err)
		gotOutput, err := c.TryContribute(contributor, chunkID, sign(inputBytes))
		require.NoError(t, err)
		require.Equal(t, output, gotOutput)

		vChunkID, _, vInput, _, err := c.TryLock(verifier)
		require.NoError(t, err)
		require.Equal(t, chunkID, vChunkID)
		vInputBytes, err := backendOf(c).Get(vInput)
		require.NoError(t, err)
		require.NoError(t, c.TryVerify(verifier, vChunkID, sign(vInputBytes)))
	}

	require.NoError(t, c.TryAggregate())
	require.True(t, backendOf(c).Exists(api.RoundFileLocator(1)))

	nextContributor := newID(t)
	nextVerifier := newID(t)
	require.NoError(t, c.AddToQueue(nextContributor, round.RoleContributor, 10))
	require.NoError(t, c.AddToQueue(nextVerifier, round.RoleVerifier, 10))

	newHeight, err := c.TryAdvance()
	require.NoError(t, err)
	require.Equal(t, uint64(2), newHeight)
	require.Equal(t, uint64(2), c.CurrentRoundHeight())
}

func TestBannedParticipantLockout(t *testing.T) {
	c, _ := newTestCoordinator(t, 1)
	contributor := newID(t)
	verifier := newID(t)
	require.NoError(t, c.AddToQueue(contributor, round.RoleContributor, 10))
	require.NoError(t, c.AddToQueue(verifier, round.RoleVerifier, 10))
	require.NoError(t, c.Initialize())

	_, err := c.BanParticipant(contributor)
	require.NoError(t, err)

	err = c.AddToQueue(contributor, round.RoleContributor, 10)
	require.ErrorIs(t, err, participant.ErrParticipantBanned)

	_, _, _, _, err = c.TryLock(contributor)
	require.ErrorIs(t, err, ErrParticipantUnauthorized)
}

// backendOf reaches into the coordinator for its storage backend, used by
// tests that need to fetch challenge bytes to build a valid response.
func backendOf(c *Coordinator) api.Backend {
	return c.backend
}
