package participant

import (
	"time"

	"github.com/trusted-setup/coordinator/common/crypto/signature"
	"github.com/trusted-setup/coordinator/round"
)

// precommit holds the tentatively-selected next-round rosters between
// PrecommitNextRound and CommitNextRound/RollbackNextRound (spec.md §4.3).
type precommit struct {
	height       uint64
	contributors []*queueEntry
	verifiers    []*queueEntry
}

// Registry is the Participant State component (C3, spec.md §4.3): two
// admission queues, current-round rosters, and global ban/drop sets. The
// façade is expected to hold its state write-lock around every call; the
// Registry itself performs no internal locking.
type Registry struct {
	queuedContributors *queue
	queuedVerifiers    *queue

	currentContributors map[signature.PublicKey]*Info
	currentVerifiers    map[signature.PublicKey]*Info

	banned  map[signature.PublicKey]struct{}
	dropped map[signature.PublicKey]struct{}

	pending *precommit
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		queuedContributors:   newQueue(),
		queuedVerifiers:      newQueue(),
		currentContributors:  make(map[signature.PublicKey]*Info),
		currentVerifiers:     make(map[signature.PublicKey]*Info),
		banned:               make(map[signature.PublicKey]struct{}),
		dropped:              make(map[signature.PublicKey]struct{}),
	}
}

func (r *Registry) queueFor(role round.Role) *queue {
	if role == round.RoleVerifier {
		return r.queuedVerifiers
	}
	return r.queuedContributors
}

func (r *Registry) currentFor(role round.Role) map[signature.PublicKey]*Info {
	if role == round.RoleVerifier {
		return r.currentVerifiers
	}
	return r.currentContributors
}

// IsBanned reports whether id is in the banned set.
func (r *Registry) IsBanned(id signature.PublicKey) bool {
	_, ok := r.banned[id]
	return ok
}

// IsQueued reports whether id is waiting in role's admission queue.
func (r *Registry) IsQueued(id signature.PublicKey, role round.Role) bool {
	return r.queueFor(role).Contains(id)
}

// IsCurrent reports whether id is seated in the current round in role.
func (r *Registry) IsCurrent(id signature.PublicKey, role round.Role) bool {
	_, ok := r.currentFor(role)[id]
	return ok
}

// Info looks up a seated participant's record, searching both rosters.
func (r *Registry) Info(id signature.PublicKey) (*Info, bool) {
	if info, ok := r.currentContributors[id]; ok {
		return info, true
	}
	if info, ok := r.currentVerifiers[id]; ok {
		return info, true
	}
	return nil, false
}

// AddToQueue admits a new identity into role's queue (spec.md §4.5's
// add_to_queue). Refuses banned identities and duplicates already queued or
// seated.
func (r *Registry) AddToQueue(id signature.PublicKey, role round.Role, reliability uint8) error {
	if r.IsBanned(id) {
		return ErrParticipantBanned
	}
	if r.IsQueued(id, role) || r.IsCurrent(id, role) {
		return ErrParticipantAlreadyAdded
	}
	r.queueFor(role).Add(id, reliability)
	return nil
}

// RemoveFromQueue removes id from role's queue, a no-op if absent.
func (r *Registry) RemoveFromQueue(id signature.PublicKey, role round.Role) {
	r.queueFor(role).Remove(id)
}

// QueueContributors lists queued contributor identities in priority order.
func (r *Registry) QueueContributors() []signature.PublicKey { return r.queuedContributors.List() }

// QueueVerifiers lists queued verifier identities in priority order.
func (r *Registry) QueueVerifiers() []signature.PublicKey { return r.queuedVerifiers.List() }

// CurrentContributors lists seated contributor identities.
func (r *Registry) CurrentContributors() []signature.PublicKey {
	out := make([]signature.PublicKey, 0, len(r.currentContributors))
	for id := range r.currentContributors {
		out = append(out, id)
	}
	return out
}

// CurrentVerifiers lists seated verifier identities.
func (r *Registry) CurrentVerifiers() []signature.PublicKey {
	out := make([]signature.PublicKey, 0, len(r.currentVerifiers))
	for id := range r.currentVerifiers {
		out = append(out, id)
	}
	return out
}

// PrecommitNextRound atomically selects up to contributorsPerRound queued
// contributors and up to verifiersPerRound queued verifiers by reliability,
// without mutating current-round rosters (spec.md §4.3). The selection is
// held in r.pending until CommitNextRound or RollbackNextRound resolves it.
func (r *Registry) PrecommitNextRound(height uint64, contributorsPerRound, verifiersPerRound int) ([]signature.PublicKey, []signature.PublicKey, error) {
	if r.pending != nil {
		return nil, nil, ErrNoPrecommitInProgress
	}
	if r.queuedContributors.Len() == 0 || r.queuedVerifiers.Len() == 0 {
		return nil, nil, ErrQueueEmpty
	}

	contributors := r.queuedContributors.PopN(contributorsPerRound)
	verifiers := r.queuedVerifiers.PopN(verifiersPerRound)

	seen := make(map[signature.PublicKey]struct{}, len(contributors))
	for _, e := range contributors {
		seen[e.id] = struct{}{}
	}
	for _, e := range verifiers {
		if _, clash := seen[e.id]; clash {
			// put everything back before reporting failure.
			for _, c := range contributors {
				r.queuedContributors.Add(c.id, c.reliability)
			}
			for _, v := range verifiers {
				r.queuedVerifiers.Add(v.id, v.reliability)
			}
			return nil, nil, ErrRostersNotDisjoint
		}
	}

	r.pending = &precommit{height: height, contributors: contributors, verifiers: verifiers}

	cIDs := make([]signature.PublicKey, len(contributors))
	for i, e := range contributors {
		cIDs[i] = e.id
	}
	vIDs := make([]signature.PublicKey, len(verifiers))
	for i, e := range verifiers {
		vIDs[i] = e.id
	}
	return cIDs, vIDs, nil
}

// CommitNextRound finalizes a pending precommit: seats the selected
// identities as the current-round rosters, creating fresh Info records.
// Replaces whatever rosters were seated before (the caller is expected to
// have already moved the outgoing round's participants to Finished).
func (r *Registry) CommitNextRound() ([]signature.PublicKey, []signature.PublicKey, error) {
	if r.pending == nil {
		return nil, nil, ErrNoPrecommitInProgress
	}
	p := r.pending
	r.pending = nil

	r.currentContributors = make(map[signature.PublicKey]*Info, len(p.contributors))
	r.currentVerifiers = make(map[signature.PublicKey]*Info, len(p.verifiers))

	cIDs := make([]signature.PublicKey, len(p.contributors))
	for i, e := range p.contributors {
		r.currentContributors[e.id] = newInfo(e.id, round.RoleContributor, p.height, e.reliability)
		cIDs[i] = e.id
	}
	vIDs := make([]signature.PublicKey, len(p.verifiers))
	for i, e := range p.verifiers {
		r.currentVerifiers[e.id] = newInfo(e.id, round.RoleVerifier, p.height, e.reliability)
		vIDs[i] = e.id
	}
	return cIDs, vIDs, nil
}

// RollbackNextRound abandons a pending precommit, re-queuing its selected
// identities so the current round remains live (spec.md §4.4's try_advance
// failure path).
func (r *Registry) RollbackNextRound() error {
	if r.pending == nil {
		return ErrNoPrecommitInProgress
	}
	p := r.pending
	r.pending = nil
	for _, e := range p.contributors {
		r.queuedContributors.Add(e.id, e.reliability)
	}
	for _, e := range p.verifiers {
		r.queuedVerifiers.Add(e.id, e.reliability)
	}
	return nil
}

// AssignTask places task into p's assigned bucket, enforcing the
// pairwise-disjoint bucket invariant (spec.md §3).
func (r *Registry) AssignTask(id signature.PublicKey, t round.Task) error {
	info, ok := r.Info(id)
	if !ok {
		return ErrParticipantNotFound
	}
	if info.HasTask(t) {
		return nil
	}
	info.Assigned = append(info.Assigned, t)
	return nil
}

// FetchTask pops the lowest-ordered task out of p.assigned into p.pending
// (spec.md §4.3's fetch_task), recording the lock-acquisition time used by
// the lock_timeout_seconds drop check.
func (r *Registry) FetchTask(id signature.PublicKey) (round.Task, error) {
	info, ok := r.Info(id)
	if !ok {
		return round.Task{}, ErrParticipantNotFound
	}
	t, ok := lowestTask(info.Assigned)
	if !ok {
		return round.Task{}, ErrParticipantHasNoRemainingTasks
	}
	info.Assigned, _ = removeTask(info.Assigned, t)
	info.Pending = append(info.Pending, t)
	info.LastLockAcquired = time.Now()
	info.Status = StatusWorking
	return t, nil
}

// CompleteTask moves task from pending to completed, updating timing and
// applying a reliability bonus (spec.md §4.3's completed_task).
func (r *Registry) CompleteTask(id signature.PublicKey, t round.Task, reliabilityBonus uint8) error {
	info, ok := r.Info(id)
	if !ok {
		return ErrParticipantNotFound
	}
	rest, ok := removeTask(info.Pending, t)
	if !ok {
		return ErrTaskNotPending
	}
	info.Pending = rest
	info.Completed = append(info.Completed, t)
	info.Touch()
	if int(info.Reliability)+int(reliabilityBonus) > 255 {
		info.Reliability = 255
	} else {
		info.Reliability += reliabilityBonus
	}
	return nil
}

// RollbackPendingTask moves task from pending back to assigned (spec.md
// §4.3's rollback_pending_task), used when a contribution or verification
// is rejected.
func (r *Registry) RollbackPendingTask(id signature.PublicKey, t round.Task) error {
	info, ok := r.Info(id)
	if !ok {
		return ErrParticipantNotFound
	}
	rest, ok := removeTask(info.Pending, t)
	if !ok {
		return ErrTaskNotPending
	}
	info.Pending = rest
	info.Assigned = append(info.Assigned, t)
	return nil
}

// PenalizeReliability lowers id's reliability by amount, floored at zero.
func (r *Registry) PenalizeReliability(id signature.PublicKey, amount uint8) {
	info, ok := r.Info(id)
	if !ok {
		return
	}
	if info.Reliability < amount {
		info.Reliability = 0
		return
	}
	info.Reliability -= amount
}

// MarkDisposing moves every task in tasks (wherever currently held, among
// assigned/pending/completed) into the disposing bucket, per a Justification
// carried by drop/ban processing (spec.md §4.3, §4.5 step 5b).
func (r *Registry) MarkDisposing(id signature.PublicKey, tasks []round.Task) {
	info, ok := r.Info(id)
	if !ok {
		return
	}
	for _, t := range tasks {
		moved := false
		for _, bucket := range []*[]round.Task{&info.Assigned, &info.Pending, &info.Completed} {
			if rest, ok := removeTask(*bucket, t); ok {
				*bucket = rest
				moved = true
				break
			}
		}
		if moved || !info.HasTask(t) {
			info.Disposing = append(info.Disposing, t)
		}
	}
}

// DisposeTask finalizes a disposing task into the terminal disposed bucket,
// once its backing artifact has actually been deleted.
func (r *Registry) DisposeTask(id signature.PublicKey, t round.Task) error {
	info, ok := r.Info(id)
	if !ok {
		return ErrParticipantNotFound
	}
	rest, ok := removeTask(info.Disposing, t)
	if !ok {
		return ErrTaskNotFound
	}
	info.Disposing = rest
	info.Disposed = append(info.Disposed, t)
	return nil
}

// DropConfig bundles the three decay thresholds update_dropped_participants
// checks every tick (spec.md §4.3).
type DropConfig struct {
	TimeoutSeconds     int
	LockTimeoutSeconds int
	MinReliability     uint8
}

// DetectDropped scans both current rosters and returns the identities that
// have crossed one of the three decay thresholds, without mutating state;
// the façade is responsible for building and processing the accompanying
// Justification (spec.md §4.3, §4.5 step 5).
func (r *Registry) DetectDropped(cfg DropConfig) []signature.PublicKey {
	now := time.Now()
	var out []signature.PublicKey
	for _, set := range []map[signature.PublicKey]*Info{r.currentContributors, r.currentVerifiers} {
		for id, info := range set {
			if info.Status == StatusDropped || info.Status == StatusBanned || info.Status == StatusFinished {
				continue
			}
			switch {
			case now.Sub(info.LastHeartbeatAt) > time.Duration(cfg.TimeoutSeconds)*time.Second:
				out = append(out, id)
			case len(info.Pending) > 0 && now.Sub(info.LastLockAcquired) > time.Duration(cfg.LockTimeoutSeconds)*time.Second:
				out = append(out, id)
			case info.Reliability < cfg.MinReliability:
				out = append(out, id)
			}
		}
	}
	return out
}

// BuildDropJustification captures id's currently-locked chunks and every
// task it still owes (pending + assigned), then marks it Dropped (spec.md
// §4.3's "emit a Justification::DropCurrent carrying (a) the chunks they
// held locked, (b) every task they will no longer complete").
func (r *Registry) BuildDropJustification(id signature.PublicKey, lockedChunks []int) (*Justification, error) {
	info, ok := r.Info(id)
	if !ok {
		return nil, ErrParticipantNotFound
	}
	redispense := append(append([]round.Task{}, info.Pending...), info.Assigned...)
	info.Status = StatusDropped
	r.dropped[id] = struct{}{}
	return &Justification{
		Kind:         DropCurrent,
		Participant:  id,
		LockedChunks: lockedChunks,
		Redispense:   redispense,
	}, nil
}

// Ban marks id Banned, refusing all future re-admission, and returns the
// same shape of justification a drop would (spec.md §4.3's "Ban is like
// drop, but also adds the participant to banned").
func (r *Registry) Ban(id signature.PublicKey) (*Justification, error) {
	info, ok := r.Info(id)
	lockedChunks := []int{}
	var redispense []round.Task
	if ok {
		redispense = append(append([]round.Task{}, info.Pending...), info.Assigned...)
		info.Status = StatusBanned
	}
	r.banned[id] = struct{}{}
	delete(r.dropped, id)
	return &Justification{
		Kind:         BanCurrent,
		Participant:  id,
		LockedChunks: lockedChunks,
		Redispense:   redispense,
	}, nil
}

// Unban clears id from the banned set. A no-op, not an error, if id was
// never banned (spec.md §8's idempotence property).
func (r *Registry) Unban(id signature.PublicKey) {
	delete(r.banned, id)
}

// FinishParticipant marks id Finished once all of its assigned work is
// complete (spec.md §4.5 steps 3/4, "move finished ones to Finished"). A
// participant that has not yet completed a single task is still waiting on
// its first TryLock assignment, not done working, even though Assigned and
// Pending both start out empty at seating time — so len(Completed) == 0
// excludes it here, leaving it eligible for DetectDropped instead of being
// granted immunity by a premature Finished status.
func (r *Registry) FinishParticipant(id signature.PublicKey) {
	info, ok := r.Info(id)
	if !ok {
		return
	}
	if len(info.Assigned) == 0 && len(info.Pending) == 0 && len(info.Completed) > 0 {
		now := time.Now()
		info.Status = StatusFinished
		info.FinishedAt = &now
	}
}

// IsFinished reports whether id (in either roster) has reached Finished.
func (r *Registry) IsFinished(id signature.PublicKey) bool {
	info, ok := r.Info(id)
	return ok && info.Status == StatusFinished
}
