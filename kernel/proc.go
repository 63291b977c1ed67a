package kernel

import (
	"sync"

	"github.com/arctir/nucleus/kernel/collab"
)

// Proc is the process record from spec.md §3. Fields are grouped the way
// the table in §3 groups them: identity, list linkage, address-space
// ownership, and the two locks that guard all of it.
//
// mu ("p.lock") guards state transitions and everything spec.md I5 calls
// address-space-adjacent (sz, pagetable, trapframe, killed, xstate).
// linkMu ("link_lock") guards only next, per I2, and is acquired
// independently by list.add/remove/removeHead during hand-over-hand
// traversal — never together with mu in a fixed order beyond what the
// lock hierarchy in spec.md §5 already requires (wait_lock, then p.lock,
// then a list head lock, then link_lock).
type Proc struct {
	mu sync.Mutex

	state  State
	pid    int
	parent *Proc // guarded by Kernel.waitMu, not mu (spec.md §5)
	ch     any   // wait-channel identity; nil means "not sleeping"
	killed bool
	xstate int
	cpuNum int

	kstack    uintptr
	trapframe uintptr
	pagetable collab.PageTable
	sz        uintptr
	ofile     [collab.NOFILE]collab.OpenFile
	cwd       collab.Inode
	name      string
	context   collab.Context

	// wakeCh is created fresh each time p is put to sleep and signaled by
	// whichever wake path (wakeup/wakeOneLocked) pulls p off the sleeping
	// list. It exists only to let the goroutine that called Sleep/Wait
	// resume promptly; it carries no data and is never read after p wakes.
	wakeCh chan struct{}

	linkMu sync.Mutex
	next   *Proc
}

// PID returns p's process ID. Safe to call without p.mu: pid is immutable
// from allocproc until freeproc, and freeproc only runs once the caller has
// already observed p as ZOMBIE via wait, by which point no other goroutine
// can be racing to reuse the slot.
func (p *Proc) PID() int { return p.pid }

// State returns p's current lifecycle state.
func (p *Proc) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Name returns p's short human-readable label.
func (p *Proc) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

// Killed reports whether p has been marked for death (spec.md §4.7/§5:
// killed is sticky and observed only at the next trap-to-user transition,
// never preemptive).
func (p *Proc) Killed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}

// CPUNum returns the CPU index p is currently bound to, or -1 if unbound.
func (p *Proc) CPUNum() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cpuNum
}
