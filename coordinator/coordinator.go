// Package coordinator implements the Coordinator Façade (spec.md §4.5, C5):
// the external operations (add_to_queue, try_lock, try_contribute,
// try_verify, try_aggregate, try_advance, drop/ban/unban) and the periodic
// update() reconciliation loop. It composes api.Backend, round.Round,
// participant.Registry and state.CoordinatorState under the two-lock
// discipline of spec.md §5: storage lock acquired before the
// coordinator-state lock, both held only for the duration of one operation,
// no network I/O inside the critical section.
package coordinator

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/trusted-setup/coordinator/common/cbor"
	"github.com/trusted-setup/coordinator/common/crypto/signature"
	"github.com/trusted-setup/coordinator/common/logging"
	"github.com/trusted-setup/coordinator/config"
	"github.com/trusted-setup/coordinator/participant"
	"github.com/trusted-setup/coordinator/round"
	"github.com/trusted-setup/coordinator/state"
	"github.com/trusted-setup/coordinator/storage/api"
)

var logger = logging.GetLogger("coordinator")

const (
	reliabilityBonus   uint8 = 5
	reliabilityPenalty uint8 = 25
)

type lockKey struct {
	participant signature.PublicKey
	chunkID     int
}

// Coordinator is the façade. storageMu and stateMu implement spec.md §5's
// two shared, reentrant-free locks; every exported mutator acquires
// storageMu then stateMu, in that fixed order, and releases both before
// returning.
type Coordinator struct {
	storageMu sync.RWMutex
	stateMu   sync.RWMutex

	cfg     *config.Config
	backend api.Backend
	collab  Collaborators

	registry *participant.Registry
	state    *state.CoordinatorState
	round    *round.Round

	activeLocks map[lockKey]round.LockResult
}

// New constructs a Coordinator over an opened storage backend, restoring
// the persisted CoordinatorState and current Round if one already exists.
func New(cfg *config.Config, backend api.Backend, collab Collaborators) (*Coordinator, error) {
	registerMetricsOnce()

	c := &Coordinator{
		cfg:         cfg,
		backend:     backend,
		collab:      collab,
		registry:    participant.NewRegistry(),
		state:       state.NewCoordinatorState(),
		activeLocks: make(map[lockKey]round.LockResult),
	}

	if backend.Exists(api.CoordinatorStateLocator()) {
		blob, err := backend.Get(api.CoordinatorStateLocator())
		if err != nil {
			return nil, fmt.Errorf("coordinator: failed to load persisted state: %w", err)
		}
		if err := cbor.UnmarshalTrusted(blob, c.state); err != nil {
			return nil, fmt.Errorf("coordinator: failed to decode persisted state: %w", err)
		}

		roundBlob, err := backend.Get(api.RoundStateLocator(c.state.CurrentRoundHeight))
		if err != nil {
			return nil, fmt.Errorf("coordinator: failed to load persisted round: %w", err)
		}
		c.round = &round.Round{}
		if err := cbor.UnmarshalTrusted(roundBlob, c.round); err != nil {
			return nil, fmt.Errorf("coordinator: failed to decode persisted round: %w", err)
		}
	}

	return c, nil
}

func (c *Coordinator) persistState() error {
	blob := cbor.Marshal(c.state)
	if c.backend.Exists(api.CoordinatorStateLocator()) {
		return c.backend.Update(api.CoordinatorStateLocator(), blob)
	}
	return c.backend.Insert(api.CoordinatorStateLocator(), blob)
}

func (c *Coordinator) persistRound() error {
	loc := api.RoundStateLocator(c.round.Height)
	blob := cbor.Marshal(c.round)
	if c.backend.Exists(loc) {
		return c.backend.Update(loc, blob)
	}
	return c.backend.Insert(loc, blob)
}

func (c *Coordinator) persistRoundHeight() error {
	loc := api.RoundHeightLocator()
	blob := cbor.Marshal(c.state.CurrentRoundHeight)
	if c.backend.Exists(loc) {
		return c.backend.Update(loc, blob)
	}
	return c.backend.Insert(loc, blob)
}

// withWriteLock runs fn under both locks in spec order, then persists a
// fresh CoordinatorState/Round snapshot regardless of fn's outcome, per
// spec.md §4.5's "every step persists a fresh snapshot ... before releasing
// the write exclusion".
func (c *Coordinator) withWriteLock(fn func() error) error {
	c.storageMu.Lock()
	defer c.storageMu.Unlock()
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	opErr := fn()

	if c.round != nil {
		if err := c.persistRound(); err != nil {
			logger.Error("failed to persist round snapshot", "error", err)
		}
	}
	if err := c.persistState(); err != nil {
		logger.Error("failed to persist coordinator state", "error", err)
	}
	if err := c.persistRoundHeight(); err != nil {
		logger.Error("failed to persist round height", "error", err)
	}

	return opErr
}

func (c *Coordinator) withReadLock(fn func()) {
	c.storageMu.RLock()
	defer c.storageMu.RUnlock()
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	fn()
}

// Initialize bootstraps round 0 (spec.md §4.4's "Initialization (round 0)"):
// runs Initialization once per chunk and seeds round 1 from the precommitted
// queue. No Round or phase is kept for round 0: the state goes straight to
// round 1 Active, without aggregation.
func (c *Coordinator) Initialize() error {
	return c.withWriteLock(func() error {
		if c.state.Phase != state.PhaseEmpty {
			return ErrAlreadyInitialized
		}

		for chunkID := 0; chunkID < c.cfg.NumberOfChunks; chunkID++ {
			if err := c.collab.Init.Run(c.backend, 0, chunkID); err != nil {
				return fmt.Errorf("coordinator: initialization failed for chunk %d: %w", chunkID, err)
			}
		}

		contributors, verifiers, err := c.registry.PrecommitNextRound(1, c.cfg.ContributorsPerRound, c.cfg.VerifiersPerRound)
		if err != nil {
			return ErrContributorsMissing
		}
		if _, _, err := c.registry.CommitNextRound(); err != nil {
			return err
		}

		c.round = round.New(1, c.cfg.NumberOfChunks, contributors, verifiers)
		for chunkID := 0; chunkID < c.cfg.NumberOfChunks; chunkID++ {
			if err := c.round.SeedChunk(chunkID, api.ContributionFileLocator(1, chunkID, 0, true)); err != nil {
				return err
			}
		}

		c.state.StartRound(1)
		return nil
	})
}

// AddToQueue admits participant into role's queue (spec.md §4.5).
func (c *Coordinator) AddToQueue(id signature.PublicKey, role round.Role, reliability uint8) error {
	return c.withWriteLock(func() error {
		return c.registry.AddToQueue(id, role, reliability)
	})
}

// RemoveFromQueue removes participant from role's queue.
func (c *Coordinator) RemoveFromQueue(id signature.PublicKey, role round.Role) error {
	return c.withWriteLock(func() error {
		c.registry.RemoveFromQueue(id, role)
		return nil
	})
}

// TryLock dispenses a task and acquires its chunk lock (spec.md §4.5's
// try_lock): scans the active round's chunks in order for the first one
// whose pending work matches participant's role, locks it, and returns the
// three path locators.
func (c *Coordinator) TryLock(id signature.PublicKey) (chunkID int, prev, input, output api.Locator, err error) {
	werr := c.withWriteLock(func() error {
		if c.round == nil {
			return ErrNotInitialized
		}
		if c.registry.IsBanned(id) {
			return ErrParticipantUnauthorized
		}

		var role round.Role
		switch {
		case c.registry.IsCurrent(id, round.RoleContributor):
			role = round.RoleContributor
		case c.registry.IsCurrent(id, round.RoleVerifier):
			role = round.RoleVerifier
		default:
			return ErrParticipantUnauthorized
		}

		info, _ := c.registry.Info(id)
		limit := c.cfg.ContributorLockChunkLimit
		if role == round.RoleVerifier {
			limit = c.cfg.VerifierLockChunkLimit
		}
		currentLocks := len(info.Pending)

		for cid := 0; cid < len(c.round.Chunks); cid++ {
			chunkRole, contribID, done, perr := c.round.PendingWork(cid)
			if perr != nil || done || chunkRole != role || c.round.Chunks[cid].IsLocked() {
				continue
			}
			if info.HasTask(round.Task{ChunkID: cid, ContributionID: contribID}) {
				continue
			}
			lk, lerr := c.round.TryLockChunk(cid, id, role, currentLocks, limit)
			if lerr != nil {
				if lerr == round.ErrChunkLockLimitReached {
					return ErrChunkLockLimitReached
				}
				continue
			}
			task := round.Task{ChunkID: cid, ContributionID: contribID}
			if err := c.registry.AssignTask(id, task); err != nil {
				return err
			}
			if _, err := c.registry.FetchTask(id); err != nil {
				return err
			}
			c.activeLocks[lockKey{id, cid}] = *lk
			chunkID, prev, input, output = cid, lk.Previous, lk.Input, lk.Output
			return nil
		}
		return ErrQueueIsEmpty
	})
	return chunkID, prev, input, output, werr
}

// TryContribute validates and links a contributor's uploaded artifact
// (spec.md §4.5's try_contribute). responseBytes is the uploaded file's
// content; on success it is persisted at the output locator and returned.
func (c *Coordinator) TryContribute(id signature.PublicKey, chunkID int, responseBytes []byte) (api.Locator, error) {
	var output api.Locator
	werr := c.withWriteLock(func() error {
		if c.round == nil {
			return ErrNotInitialized
		}
		lk, ok := c.activeLocks[lockKey{id, chunkID}]
		if !ok {
			return ErrContributionFailed
		}

		challengeBytes, err := c.backend.Get(lk.Input)
		if err != nil {
			return ErrContributionFailed
		}

		task := round.Task{ChunkID: chunkID, ContributionID: lk.Task.ContributionID}
		addErr := c.round.AddContribution(chunkID, id, responseBytes, challengeBytes, lk.Output)
		if addErr != nil {
			delete(c.activeLocks, lockKey{id, chunkID})
			_ = c.round.ReleaseLock(chunkID)
			_ = c.registry.RollbackPendingTask(id, task)
			c.registry.PenalizeReliability(id, reliabilityPenalty)
			if addErr == round.ErrContributionHashMismatch {
				return ErrContributionHashMismatch
			}
			return ErrContributionFailed
		}

		if err := c.backend.Insert(lk.Output, responseBytes); err != nil {
			return fmt.Errorf("coordinator: failed to persist contribution artifact: %w", err)
		}

		if err := c.registry.CompleteTask(id, task, reliabilityBonus); err != nil {
			return err
		}
		delete(c.activeLocks, lockKey{id, chunkID})
		output = lk.Output
		return nil
	})
	return output, werr
}

// TryVerify validates and certifies a verifier's uploaded artifact (spec.md
// §4.5's try_verify).
func (c *Coordinator) TryVerify(id signature.PublicKey, chunkID int, responseBytes []byte) error {
	return c.withWriteLock(func() error {
		if c.round == nil {
			return ErrNotInitialized
		}
		lk, ok := c.activeLocks[lockKey{id, chunkID}]
		if !ok {
			return ErrVerificationFailed
		}

		nextChallengeBytes, err := c.backend.Get(lk.Input)
		if err != nil {
			return ErrVerificationFailed
		}

		task := round.Task{ChunkID: chunkID, ContributionID: lk.Task.ContributionID}
		verr := c.round.VerifyContribution(chunkID, id, responseBytes, nextChallengeBytes)
		if verr != nil {
			delete(c.activeLocks, lockKey{id, chunkID})
			_ = c.round.ReleaseLock(chunkID)
			_ = c.registry.RollbackPendingTask(id, task)
			c.registry.PenalizeReliability(id, reliabilityPenalty)
			if verr == round.ErrContributionHashMismatch {
				return ErrContributionHashMismatch
			}
			return ErrVerificationFailed
		}

		if err := c.backend.Insert(lk.Output, responseBytes); err != nil {
			return fmt.Errorf("coordinator: failed to persist verified artifact: %w", err)
		}

		if err := c.registry.CompleteTask(id, task, reliabilityBonus); err != nil {
			return err
		}
		delete(c.activeLocks, lockKey{id, chunkID})

		if c.round.Chunks[chunkID].IsComplete(c.round.ExpectedContributions()) {
			c.state.CurrentMetrics().ChunksFullyVerified++
		}
		if c.round.IsFinished() {
			c.state.MarkFinished()
		}
		return nil
	})
}

// DropParticipant removes id from the current round with Justification
// DropCurrent, undoing its partial work (spec.md §4.3, §4.5 step 5).
func (c *Coordinator) DropParticipant(id signature.PublicKey) ([]api.Locator, error) {
	var paths []api.Locator
	werr := c.withWriteLock(func() error {
		lockedChunks := c.lockedChunksFor(id)
		j, err := c.registry.BuildDropJustification(id, lockedChunks)
		if err != nil {
			return err
		}
		paths = c.applyJustification(j)
		c.state.CurrentMetrics().DropCount++
		metricDropTotal.Inc()
		return nil
	})
	return paths, werr
}

// BanParticipant drops id and refuses future re-admission (spec.md §4.3).
func (c *Coordinator) BanParticipant(id signature.PublicKey) ([]api.Locator, error) {
	var paths []api.Locator
	werr := c.withWriteLock(func() error {
		lockedChunks := c.lockedChunksFor(id)
		j, err := c.registry.Ban(id)
		if err != nil {
			return err
		}
		j.LockedChunks = lockedChunks
		paths = c.applyJustification(j)
		c.state.CurrentMetrics().BanCount++
		metricBanTotal.Inc()
		return nil
	})
	return paths, werr
}

// UnbanParticipant clears id from the banned set (a no-op if not banned,
// spec.md §8's idempotence property).
func (c *Coordinator) UnbanParticipant(id signature.PublicKey) error {
	return c.withWriteLock(func() error {
		c.registry.Unban(id)
		return nil
	})
}

func (c *Coordinator) lockedChunksFor(id signature.PublicKey) []int {
	var out []int
	for key := range c.activeLocks {
		if key.participant == id {
			out = append(out, key.chunkID)
		}
	}
	return out
}

// applyJustification implements process_coordinator_state_change (spec.md
// §4.5 step 5): removes locks from the affected chunks, discards the
// participant's trailing unverified contribution on each of those chunks,
// removes the backing files itself, and returns the removed locators.
func (c *Coordinator) applyJustification(j *participant.Justification) []api.Locator {
	if c.round == nil {
		return nil
	}

	c.round.RemoveLocksUnsafe(j.LockedChunks)
	for key := range c.activeLocks {
		if key.participant == j.Participant {
			delete(c.activeLocks, key)
		}
	}

	var paths []api.Locator
	for _, chunkID := range j.LockedChunks {
		if loc, ok := c.round.RemoveChunkContributionsUnsafe(chunkID, j.Participant); ok {
			paths = append(paths, loc)
			_ = c.backend.Remove(loc)
		}
	}

	c.redispense(j)
	return paths
}

// redispense hands a dropped/banned participant's outstanding tasks to
// another seated participant of the same role, or failing that to the
// coordinator's own fallback identities (spec.md §9's supplemental-
// recontribution open question, resolved per SPEC_FULL.md §D: always-on,
// folded directly into justification processing rather than a separate
// opt-in runtime). A fallback identity receives the tasks only if it holds a
// participant record in the current round; otherwise AssignTask fails with
// ErrParticipantNotFound, the failure is logged and the tasks stay unassigned.
func (c *Coordinator) redispense(j *participant.Justification) {
	if len(j.Redispense) == 0 {
		return
	}

	role := round.RoleContributor
	if info, ok := c.registry.Info(j.Participant); ok {
		role = info.Role
	}

	candidates := c.registry.CurrentContributors()
	fallback := c.cfg.CoordinatorContributors
	if role == round.RoleVerifier {
		candidates = c.registry.CurrentVerifiers()
		fallback = c.cfg.CoordinatorVerifiers
	}

	var target *signature.PublicKey
	for _, cand := range candidates {
		if cand == j.Participant {
			continue
		}
		cand := cand
		target = &cand
		break
	}
	if target == nil {
		for _, cand := range fallback {
			cand := cand
			target = &cand
			break
		}
	}
	if target == nil {
		logger.Warn("no participant available to redispense dropped work to", "participant", j.Participant.String())
		return
	}

	for _, t := range j.Redispense {
		if err := c.registry.AssignTask(*target, t); err != nil {
			logger.Warn("failed to redispense task", "task", t, "error", err)
		}
	}
}

// TryAggregate invokes the Aggregation collaborator over the finished round
// (spec.md §4.4). Refuses unless the round is Finished and not yet
// Aggregated, and RoundFile(h) does not already exist.
func (c *Coordinator) TryAggregate() error {
	return c.withWriteLock(func() error {
		if c.round == nil {
			return ErrNotInitialized
		}
		return c.tryAggregateLocked()
	})
}

// TryAdvance transitions to round_height+1 (spec.md §4.4). Refuses unless
// the round is Aggregated; precommits the next round's rosters, then commits
// and rolls back on failure.
func (c *Coordinator) TryAdvance() (uint64, error) {
	var newHeight uint64
	werr := c.withWriteLock(func() error {
		if c.round == nil {
			return ErrNotInitialized
		}
		h, err := c.advanceLocked()
		newHeight = h
		return err
	})
	return newHeight, werr
}

// advanceLocked implements try_advance's body assuming both write locks are
// already held (spec.md §4.4, §4.5 step 8): precommit, then
// commit and seed the next round, rolling back the precommit on any
// failure so the current round remains live.
func (c *Coordinator) advanceLocked() (uint64, error) {
	if c.state.Phase != state.PhaseAggregated {
		return 0, ErrContributorsMissing
	}

	contributors, verifiers, err := c.registry.PrecommitNextRound(c.round.Height+1, c.cfg.ContributorsPerRound, c.cfg.VerifiersPerRound)
	if err != nil {
		return 0, ErrContributorsMissing
	}
	c.state.MarkPrecommitReady()

	// Build and seed the next round from the precommitted rosters before
	// touching the registry's current-round state: if a seed artifact is
	// missing, we must be able to roll the precommit back and leave both
	// the registry and c.round exactly as they were (spec.md §4.4's "on
	// failure, rolls back precommit so the current round remains live").
	nextHeight := c.round.Height + 1
	nextRound := round.New(nextHeight, c.cfg.NumberOfChunks, contributors, verifiers)
	for chunkID := 0; chunkID < c.cfg.NumberOfChunks; chunkID++ {
		seedLoc := api.ContributionFileLocator(nextHeight, chunkID, 0, true)
		if !c.backend.Exists(seedLoc) {
			c.state.RollbackPrecommit()
			_ = c.registry.RollbackNextRound()
			return 0, fmt.Errorf("coordinator: missing seed artifact for round %d chunk %d", nextHeight, chunkID)
		}
		if err := nextRound.SeedChunk(chunkID, seedLoc); err != nil {
			c.state.RollbackPrecommit()
			_ = c.registry.RollbackNextRound()
			return 0, err
		}
	}

	if _, _, err := c.registry.CommitNextRound(); err != nil {
		c.state.RollbackPrecommit()
		_ = c.registry.RollbackNextRound()
		return 0, err
	}

	c.round = nextRound
	if err := c.state.Advance(nextHeight); err != nil {
		return 0, err
	}
	return nextHeight, nil
}

// Update runs the periodic reconciliation tick (spec.md §4.5): a strictly
// ordered sequence of sub-steps whose errors are collected rather than
// propagated, so one failing sub-step does not halt the rest; the collected
// errors are aggregated with hashicorp/go-multierror and returned to the
// caller, which is left to log them.
func (c *Coordinator) Update() error {
	var result *multierror.Error

	_ = c.withWriteLock(func() error {
		// 1. Update round metrics.
		if c.round != nil {
			c.updateRoundMetrics()
		}

		// 2. Update queue: nothing is promoted at this step; queued
		// participants are promoted by the precommit in step 8.
		if c.round != nil && c.state.Phase == state.PhaseEmpty {
			// nothing to promote into; Initialize handles round 0/1.
		}

		// 3 & 4. Update current contributors/verifiers: move finished ones
		// to Finished.
		if c.round != nil {
			for _, id := range c.registry.CurrentContributors() {
				c.registry.FinishParticipant(id)
			}
			for _, id := range c.registry.CurrentVerifiers() {
				c.registry.FinishParticipant(id)
			}
		}

		// 5. Update dropped participants.
		if c.round != nil {
			dropped := c.registry.DetectDropped(participant.DropConfig{
				TimeoutSeconds:     c.cfg.TimeoutSeconds,
				LockTimeoutSeconds: c.cfg.LockTimeoutSeconds,
				MinReliability:     c.cfg.MinReliability,
			})
			for _, id := range dropped {
				lockedChunks := c.lockedChunksFor(id)
				j, err := c.registry.BuildDropJustification(id, lockedChunks)
				if err != nil {
					result = multierror.Append(result, err)
					continue
				}
				c.applyJustification(j)
				c.state.CurrentMetrics().DropCount++
				metricDropTotal.Inc()
				logger.Info("dropped participant for inactivity", "participant", id.String())
			}
		}

		// 6. Update banned participants: nothing periodic to do beyond what
		// BanParticipant already performs; banned identities stay excluded
		// from promotion by Registry.AddToQueue's check.

		// 7. If round is Finished and not Aggregated: try_aggregate.
		if c.round != nil && c.state.Phase == state.PhaseFinished {
			if err := c.tryAggregateLocked(); err != nil {
				result = multierror.Append(result, err)
			}
		}

		// 8. If Aggregated (and therefore, after precommit, Precommit-Ready):
		// try_advance.
		if c.round != nil && c.state.Phase == state.PhaseAggregated {
			if _, err := c.advanceLocked(); err != nil {
				result = multierror.Append(result, err)
			}
		}

		return nil
	})

	c.refreshMetrics()
	return result.ErrorOrNil()
}

func (c *Coordinator) updateRoundMetrics() {
	m := c.state.CurrentMetrics()
	verified := 0
	expected := c.round.ExpectedContributions()
	for i := range c.round.Chunks {
		if c.round.Chunks[i].IsComplete(expected) {
			verified++
		}
	}
	m.ChunksFullyVerified = verified
}

// tryAggregateLocked runs try_aggregate's body assuming the caller already
// holds both write locks (used by TryAggregate and by Update's step 7,
// spec.md §4.5).
func (c *Coordinator) tryAggregateLocked() error {
	if err := c.state.BeginAggregating(c.backend.Exists(api.RoundFileLocator(c.round.Height))); err != nil {
		return err
	}
	if err := c.collab.Aggregate.Run(c.backend, c.round); err != nil {
		return err
	}
	c.state.MarkAggregated()
	return nil
}

func (c *Coordinator) refreshMetrics() {
	metricRoundHeight.Set(float64(c.state.CurrentRoundHeight))
	metricQueueDepth.WithLabelValues("contributor").Set(float64(len(c.registry.QueueContributors())))
	metricQueueDepth.WithLabelValues("verifier").Set(float64(len(c.registry.QueueVerifiers())))
	if c.round != nil {
		locked := 0
		for i := range c.round.Chunks {
			if c.round.Chunks[i].IsLocked() {
				locked++
			}
		}
		metricLockedChunks.Set(float64(locked))
		metricChunksVerified.Set(float64(c.state.CurrentMetrics().ChunksFullyVerified))
	}
}

// CurrentRoundHeight is a read-only query (spec.md §4.5).
func (c *Coordinator) CurrentRoundHeight() uint64 {
	var h uint64
	c.withReadLock(func() { h = c.state.CurrentRoundHeight })
	return h
}

// CurrentRound is a read-only query returning the active round, or nil
// before Initialize has run.
func (c *Coordinator) CurrentRound() *round.Round {
	var r *round.Round
	c.withReadLock(func() { r = c.round })
	return r
}

// GetRound loads round h's persisted snapshot, or ErrRoundDoesNotExist.
func (c *Coordinator) GetRound(h uint64) (*round.Round, error) {
	var (
		r   *round.Round
		err error
	)
	c.withReadLock(func() {
		if c.round != nil && c.round.Height == h {
			r = c.round
			return
		}
		loc := api.RoundStateLocator(h)
		if !c.backend.Exists(loc) {
			err = ErrRoundDoesNotExist
			return
		}
		blob, gerr := c.backend.Get(loc)
		if gerr != nil {
			err = gerr
			return
		}
		r = &round.Round{}
		err = cbor.UnmarshalTrusted(blob, r)
	})
	return r, err
}

// CurrentRoundMetrics is a read-only query.
func (c *Coordinator) CurrentRoundMetrics() *state.RoundMetrics {
	var m *state.RoundMetrics
	c.withReadLock(func() { m = c.state.CurrentMetrics() })
	return m
}

// QueueContributors lists queued contributor identities in priority order.
func (c *Coordinator) QueueContributors() []signature.PublicKey {
	var out []signature.PublicKey
	c.withReadLock(func() { out = c.registry.QueueContributors() })
	return out
}

// QueueVerifiers lists queued verifier identities in priority order.
func (c *Coordinator) QueueVerifiers() []signature.PublicKey {
	var out []signature.PublicKey
	c.withReadLock(func() { out = c.registry.QueueVerifiers() })
	return out
}

// CurrentContributors lists the seated contributor roster.
func (c *Coordinator) CurrentContributors() []signature.PublicKey {
	var out []signature.PublicKey
	c.withReadLock(func() { out = c.registry.CurrentContributors() })
	return out
}

// CurrentVerifiers lists the seated verifier roster.
func (c *Coordinator) CurrentVerifiers() []signature.PublicKey {
	var out []signature.PublicKey
	c.withReadLock(func() { out = c.registry.CurrentVerifiers() })
	return out
}

// IsCurrentContributor reports whether id is seated as a contributor.
func (c *Coordinator) IsCurrentContributor(id signature.PublicKey) bool {
	var ok bool
	c.withReadLock(func() { ok = c.registry.IsCurrent(id, round.RoleContributor) })
	return ok
}

// IsCurrentVerifier reports whether id is seated as a verifier.
func (c *Coordinator) IsCurrentVerifier(id signature.PublicKey) bool {
	var ok bool
	c.withReadLock(func() { ok = c.registry.IsCurrent(id, round.RoleVerifier) })
	return ok
}

// IsFinishedContributor reports whether id has completed all of its
// contributor work for the current round.
func (c *Coordinator) IsFinishedContributor(id signature.PublicKey) bool {
	var ok bool
	c.withReadLock(func() {
		ok = c.registry.IsCurrent(id, round.RoleContributor) && c.registry.IsFinished(id)
	})
	return ok
}

// IsFinishedVerifier reports whether id has completed all of its verifier
// work for the current round.
func (c *Coordinator) IsFinishedVerifier(id signature.PublicKey) bool {
	var ok bool
	c.withReadLock(func() {
		ok = c.registry.IsCurrent(id, round.RoleVerifier) && c.registry.IsFinished(id)
	})
	return ok
}

// QueueWaitDuration is a small helper exposing the configured
// queue_wait_seconds as a time.Duration, used by the admission shell this
// core is embedded in (spec.md §6).
func (c *Coordinator) QueueWaitDuration() time.Duration {
	return time.Duration(c.cfg.QueueWaitSeconds) * time.Second
}
