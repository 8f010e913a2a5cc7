// Package participant implements the Participant State component (spec.md
// §4.3, C3): admission queues, current-round rosters, per-participant task
// buckets, reliability scoring, and ban/drop bookkeeping. It holds no
// storage or round state of its own — the coordinator façade is the only
// caller, and composes this package's mutations with round.Round and
// storage.Backend under its own write exclusion (spec.md §5).
package participant

import (
	"time"

	"github.com/trusted-setup/coordinator/common/crypto/signature"
	"github.com/trusted-setup/coordinator/round"
)

// Status is a participant's coarse lifecycle stage (spec.md §3's "Started →
// Working → Finished (or Dropped / Banned)").
type Status int

const (
	StatusStarted Status = iota
	StatusWorking
	StatusFinished
	StatusDropped
	StatusBanned
)

func (s Status) String() string {
	switch s {
	case StatusStarted:
		return "started"
	case StatusWorking:
		return "working"
	case StatusFinished:
		return "finished"
	case StatusDropped:
		return "dropped"
	case StatusBanned:
		return "banned"
	default:
		return "unknown"
	}
}

// MinReliability is the floor below which update_dropped_participants
// considers a participant's reliability decayed past usefulness (spec.md
// §4.3). It equals the default of the ceremony.min_reliability flag;
// DetectDropped reads DropConfig.MinReliability, not this constant.
const MinReliability uint8 = 10

// Info is the per-participant record spec.md §3 calls ParticipantInfo: role,
// admitted-round height, reliability, timing, and the five disjoint task
// buckets. The five bucket slices are kept small (bounded by
// number_of_chunks) so linear scans for "lowest task" and set-membership
// checks are cheap and avoid a second index structure.
type Info struct {
	ID                  signature.PublicKey
	Role                round.Role
	AdmittedRoundHeight uint64
	Reliability         uint8
	Status              Status

	FirstStartedAt   time.Time
	LastHeartbeatAt  time.Time
	FinishedAt       *time.Time
	LastLockAcquired time.Time

	Assigned  []round.Task
	Pending   []round.Task
	Completed []round.Task
	Disposing []round.Task
	Disposed  []round.Task
}

func newInfo(id signature.PublicKey, role round.Role, height uint64, reliability uint8) *Info {
	now := time.Now()
	return &Info{
		ID:                  id,
		Role:                role,
		AdmittedRoundHeight: height,
		Reliability:         reliability,
		Status:              StatusStarted,
		FirstStartedAt:      now,
		LastHeartbeatAt:     now,
	}
}

// Touch records a heartbeat.
func (i *Info) Touch() {
	i.LastHeartbeatAt = time.Now()
}

// HasTask reports whether task appears in any of the five buckets, used to
// enforce the "pairwise disjoint, appears in at most one bucket" invariant
// (spec.md §3) before inserting into a new one.
func (i *Info) HasTask(t round.Task) bool {
	for _, bucket := range [][]round.Task{i.Assigned, i.Pending, i.Completed, i.Disposing, i.Disposed} {
		for _, existing := range bucket {
			if existing == t {
				return true
			}
		}
	}
	return false
}

func removeTask(bucket []round.Task, t round.Task) ([]round.Task, bool) {
	for idx, existing := range bucket {
		if existing == t {
			return append(bucket[:idx], bucket[idx+1:]...), true
		}
	}
	return bucket, false
}

// lowestTask returns the bucket's lowest-ordered task, tie-broken by
// chunk_id then contribution_id (spec.md §4.3's fetch_task rule).
func lowestTask(bucket []round.Task) (round.Task, bool) {
	if len(bucket) == 0 {
		return round.Task{}, false
	}
	lowest := bucket[0]
	for _, t := range bucket[1:] {
		if t.ChunkID < lowest.ChunkID || (t.ChunkID == lowest.ChunkID && t.ContributionID < lowest.ContributionID) {
			lowest = t
		}
	}
	return lowest, true
}

// Justification tags the reason behind an adverse mutation of participant
// state, carrying enough information for the façade to recover partial work
// (spec.md §3, §4.3).
type Justification struct {
	Kind         JustificationKind
	Participant  signature.PublicKey
	LockedChunks []int
	Redispense   []round.Task
}

// JustificationKind enumerates spec.md §3's four tags.
type JustificationKind int

const (
	BanCurrent JustificationKind = iota
	DropCurrent
	DropQueue
	Inactive
)

func (k JustificationKind) String() string {
	switch k {
	case BanCurrent:
		return "ban_current"
	case DropCurrent:
		return "drop_current"
	case DropQueue:
		return "drop_queue"
	case Inactive:
		return "inactive"
	default:
		return "unknown"
	}
}
