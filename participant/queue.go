package participant

import (
	"container/heap"
	"sort"
	"time"

	"github.com/trusted-setup/coordinator/common/crypto/signature"
)

// queueEntry is one admission-queue slot: an identity plus the reliability
// it was admitted with, and admittedAt for FIFO tie-breaking.
type queueEntry struct {
	id          signature.PublicKey
	reliability uint8
	admittedAt  time.Time
	index       int
}

// entryHeap orders queueEntry by "higher reliability promoted sooner"
// (spec.md §4.3), ties broken by earlier admission — the same
// container/heap ordering idiom the teacher applies to its own
// out-of-order round queue, adapted here to max-reliability-first instead
// of min-height-first.
type entryHeap []*queueEntry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].reliability != h[j].reliability {
		return h[i].reliability > h[j].reliability
	}
	return h[i].admittedAt.Before(h[j].admittedAt)
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x interface{}) {
	e := x.(*queueEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// queue is an admission queue for one role, ordered so the
// highest-reliability, earliest-admitted participant is always the next
// candidate for promotion.
type queue struct {
	h     entryHeap
	byID  map[signature.PublicKey]*queueEntry
}

func newQueue() *queue {
	return &queue{byID: make(map[signature.PublicKey]*queueEntry)}
}

func (q *queue) Contains(id signature.PublicKey) bool {
	_, ok := q.byID[id]
	return ok
}

func (q *queue) Add(id signature.PublicKey, reliability uint8) {
	e := &queueEntry{id: id, reliability: reliability, admittedAt: time.Now()}
	q.byID[id] = e
	heap.Push(&q.h, e)
}

func (q *queue) Remove(id signature.PublicKey) bool {
	e, ok := q.byID[id]
	if !ok {
		return false
	}
	heap.Remove(&q.h, e.index)
	delete(q.byID, id)
	return true
}

// PopN removes and returns up to n highest-priority entries.
func (q *queue) PopN(n int) []*queueEntry {
	out := make([]*queueEntry, 0, n)
	for len(out) < n && q.h.Len() > 0 {
		e := heap.Pop(&q.h).(*queueEntry)
		delete(q.byID, e.id)
		out = append(out, e)
	}
	return out
}

func (q *queue) Len() int {
	return q.h.Len()
}

// List returns every queued identity in priority order, for read-only
// queries (queue_contributors/queue_verifiers, spec.md §4.5). Copies the
// entries rather than popping the live heap, so the shared index fields
// backing Remove's heap.Remove calls are left untouched.
func (q *queue) List() []signature.PublicKey {
	cp := make([]*queueEntry, len(q.h))
	copy(cp, q.h)
	sort.SliceStable(cp, func(i, j int) bool { return entryHeap(cp).Less(i, j) })
	out := make([]signature.PublicKey, len(cp))
	for i, e := range cp {
		out[i] = e.id
	}
	return out
}
