package kernel

import "sync/atomic"

// pidAllocator hands out unique, strictly increasing PIDs (spec.md §4.1,
// I7). allocpid is kept as an explicit compare-and-swap retry loop rather
// than a plain atomic.Add, per SPEC_FULL.md's Open Question decision: the
// spec calls out by name that the returned value must be "the old value
// observed at the successful CAS", so the loop is the contract, not an
// implementation detail to simplify away.
type pidAllocator struct {
	next int64
}

// newPidAllocator seeds the allocator so the first allocated PID is 1 (PID
// 0 means "none" per spec.md §3).
func newPidAllocator() *pidAllocator {
	return &pidAllocator{next: 1}
}

// allocate returns a fresh, unique, positive PID.
func (a *pidAllocator) allocate() int {
	for {
		old := atomic.LoadInt64(&a.next)
		if atomic.CompareAndSwapInt64(&a.next, old, old+1) {
			return int(old)
		}
	}
}

// runQueueCounter is the per-CPU proc_list_size / admitted_process_count
// family (spec.md §4.1): linearizable increment/decrement, lock-free reads
// for callers that don't need a linearized snapshot. The design note
// explicitly permits swapping the source's CAS loop for atomic fetch_add/
// fetch_sub here, since spec.md doesn't name a specific "observed old
// value" contract for these two (unlike allocpid).
type runQueueCounter struct {
	v atomic.Int64
}

func (c *runQueueCounter) inc() { c.v.Add(1) }
func (c *runQueueCounter) dec() { c.v.Add(-1) }
func (c *runQueueCounter) get() int64 { return c.v.Load() }
