package kernel

import (
	"sync"

	"github.com/arctir/nucleus/kernel/collab"
)

// CPU is the per-core record from spec.md §3: a runnable-list head, the
// two monotonic/linearizable counters the balancer reads, whatever process
// is currently dispatched, and the saved scheduler context swapped to on
// suspend/resume.
type CPU struct {
	id int

	runnable list
	listSize runQueueCounter // proc_list_size
	admitted runQueueCounter // admitted_process_count

	runMu sync.Mutex // guards proc, matching "no p.lock held while reading cpu.proc" in sched
	proc  *Proc

	schedCtx collab.Context

	// noff/intena: nested push-off depth and saved interrupt-enable state,
	// bookkeeping for the CPU's current kernel thread rather than the CPU
	// itself (spec.md §3's note on this field pair).
	noff   int
	intena bool
}

func newCPU(id int) *CPU {
	return &CPU{id: id}
}

// ID returns the CPU's index.
func (c *CPU) ID() int { return c.id }

// ListSize returns the current population of c's run queue (I8: equals
// len(c.runnable) at quiescence).
func (c *CPU) ListSize() int64 { return c.listSize.get() }

// Admitted returns c's monotonic admission count, the balancer's load proxy.
func (c *CPU) Admitted() int64 { return c.admitted.get() }

// Running returns the process currently dispatched on c, or nil if idle.
func (c *CPU) Running() *Proc {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	return c.proc
}
