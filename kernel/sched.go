package kernel

import "time"

// idleTick is how long an idle CPU naps between failed dispatch attempts
// before trying again — a stand-in for "enable interrupts and wait for the
// timer" (spec.md §4.6 step 1), since there is no real timer interrupt to
// wait on in simulation.
const idleTick = 2 * time.Millisecond

// schedulerLoop is the infinite per-CPU loop from spec.md §4.6, run as its
// own goroutine by Boot — one per CPU, giving true SMP parallelism rather
// than a cooperative single-threaded simplification.
func (k *Kernel) schedulerLoop(c *CPU) {
	defer k.wg.Done()
	for {
		select {
		case <-k.stop:
			return
		default:
		}

		p := k.dispatchOnce(c)
		if p == nil {
			time.Sleep(idleTick)
			continue
		}

		k.ll.Swtch(&c.schedCtx, &p.context)

		// There is no real kernel-mode workload to run here; a process
		// stays RUNNING until something (Sleep/Exit/Kill/Yield, called by
		// a test, the CLI, or another goroutine acting on its behalf)
		// transitions it away. If nothing did by the time control returns
		// here, perform the implicit round-robin yield spec.md's fairness
		// guarantee (FIFO within a CPU's runnable list) depends on.
		p.mu.Lock()
		stillRunning := p.state == Running
		p.mu.Unlock()
		if stillRunning {
			k.Yield(p)
		}

		c.runMu.Lock()
		if c.proc == p {
			c.proc = nil
		}
		c.runMu.Unlock()
	}
}

// dispatchOnce performs exactly one pop-and-dispatch step for c: remove the
// head of c's runnable list (optionally stealing from another CPU if
// empty), mark it RUNNING, and bind it to c. Returns nil if no process was
// available. Exposed indirectly via Dispatch for deterministic,
// goroutine-free tests that want to drive the state machine one step at a
// time.
func (k *Kernel) dispatchOnce(c *CPU) *Proc {
	p := c.runnable.removeHead()
	if p != nil {
		c.listSize.dec()
	} else if k.cfg.StealEnabled {
		p = k.stealProcess(c)
	}
	if p == nil {
		return nil
	}

	p.mu.Lock()
	kassert(p.state == Runnable, "scheduler: dispatching pid=%d with state %s, want runnable", p.pid, p.state)
	p.state = Running
	p.cpuNum = c.id
	p.mu.Unlock()

	c.runMu.Lock()
	c.proc = p
	c.runMu.Unlock()

	return p
}

// Dispatch performs a single scheduling step on the CPU at the given index
// without starting (or requiring) a live scheduler goroutine — useful for
// deterministic tests of the state machine. Returns an error if cpuIndex is
// out of range or there was nothing runnable to dispatch.
func (k *Kernel) Dispatch(cpuIndex int) (*Proc, error) {
	if cpuIndex < 0 || cpuIndex >= len(k.cpus) {
		return nil, errOutOfRange
	}
	p := k.dispatchOnce(k.cpus[cpuIndex])
	if p == nil {
		return nil, errNothingRunnable
	}
	return p, nil
}

// stealProcess implements spec.md §4.6's steal_process: iterate other CPUs
// in index order, popping the first runnable process found. On success,
// the stolen process's cpu_num is rewritten to the stealer under its own
// link_lock, the victim's proc_list_size is decremented (already done by
// removeHead's caller convention below) and the stealer's admitted count is
// bumped. It only runs when Config.StealEnabled is set; nucleusctl serve
// sets it.
func (k *Kernel) stealProcess(thief *CPU) *Proc {
	for _, victim := range k.cpus {
		if victim.id == thief.id {
			continue
		}
		p := victim.runnable.removeHead()
		if p == nil {
			continue
		}
		victim.listSize.dec()

		p.linkMu.Lock()
		p.cpuNum = thief.id
		p.linkMu.Unlock()

		thief.admitted.inc()
		k.logf("cpu%d: stole pid=%d from cpu%d", thief.id, p.pid, victim.id)
		return p
	}
	return nil
}

// leastLoadedCPU returns the index of the CPU with the smallest admitted
// count, the balancer's load proxy (spec.md §4.8, §9). Ties resolve to the
// lowest index, which is enough to keep P9's ±1 spread property true: a
// strict less-than comparison means every admission goes to some
// currently-minimal CPU.
func (k *Kernel) leastLoadedCPU() int {
	best := 0
	bestLoad := k.cpus[0].Admitted()
	for i := 1; i < len(k.cpus); i++ {
		if load := k.cpus[i].Admitted(); load < bestLoad {
			best = i
			bestLoad = load
		}
	}
	return best
}
