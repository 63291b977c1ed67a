package kernel

import (
	"fmt"
	"sync"
)

// Fork implements spec.md §4.5's fork: allocate a child slot, copy the
// parent's address space and open files, link it under parent, and admit it
// RUNNABLE onto a CPU (the parent's own CPU, or the least-loaded one when
// Config.Balance is set). Returns the child.
func (k *Kernel) Fork(parent *Proc) (*Proc, error) {
	child := k.allocproc()
	if child == nil {
		return nil, errNoProcessSlots
	}
	// allocproc returns with child.mu held.

	parent.mu.Lock()
	if err := k.vm.UVMCopy(parent.pagetable, child.pagetable, parent.sz); err != nil {
		parent.mu.Unlock()
		k.freeprocLocked(child)
		child.mu.Unlock()
		return nil, fmt.Errorf("fork: uvmcopy failed: %s", err)
	}
	child.sz = parent.sz
	child.name = parent.name
	for i, f := range parent.ofile {
		if f != nil {
			child.ofile[i] = f.Dup()
		}
	}
	child.cwd = k.fs.Idup(parent.cwd)
	parentCPU := parent.cpuNum
	parent.mu.Unlock()

	cpuIdx := k.chooseCPU(parentCPU)
	child.state = Runnable
	child.cpuNum = cpuIdx
	child.mu.Unlock()

	k.waitMu.Lock()
	child.parent = parent
	k.waitMu.Unlock()

	c := k.cpus[cpuIdx]
	c.runnable.add(child)
	c.listSize.inc()
	c.admitted.inc()

	return child, nil
}

// Exit implements spec.md §4.5's exit: release the process's open files and
// working directory through the FS collaborator, reparent its children to
// init, mark it ZOMBIE, and wake whichever parent may be blocked in Wait.
// exit on the init process itself is a fatal condition (spec.md §7).
func (k *Kernel) Exit(p *Proc, status int) {
	kassert(p != k.initProc, "exit: init process may not exit")

	for i := range p.ofile {
		if p.ofile[i] != nil {
			p.ofile[i].Close()
			p.ofile[i] = nil
		}
	}
	k.fs.BeginOp()
	k.fs.Iput(p.cwd)
	k.fs.EndOp()

	k.waitMu.Lock()
	k.reparentChildren(p)
	parent := p.parent

	p.mu.Lock()
	if p.state == Runnable && k.cpus[p.cpuNum].runnable.remove(p) {
		k.cpus[p.cpuNum].listSize.dec()
	}
	p.xstate = status
	p.state = Zombie
	p.cpuNum = -1
	p.mu.Unlock()
	k.zombie.add(p)

	if parent != nil {
		k.wakeOneLocked(parent)
	}
	k.waitMu.Unlock()
}

// Wait implements spec.md §4.5's wait: block (by sleeping on the calling
// process itself as the channel identity, mirroring xv6's wait()) until one
// of parent's children becomes a zombie, then reap it and return its pid and
// exit status. Returns an error immediately if parent has no children at all.
func (k *Kernel) Wait(parent *Proc) (pid int, status int, err error) {
	for {
		k.waitMu.Lock()
		haveChild := false
		for _, c := range k.procs {
			c.mu.Lock()
			if c.parent == parent {
				haveChild = true
				if c.state == Zombie {
					pid, status = c.pid, c.xstate
					c.mu.Unlock()
					k.waitMu.Unlock()
					k.freeproc(c)
					return pid, status, nil
				}
			}
			c.mu.Unlock()
		}
		if !haveChild || parent.Killed() {
			k.waitMu.Unlock()
			return 0, 0, errNoChildren
		}

		// sleepOn releases waitMu only once parent is on the sleeping list,
		// so a child's Exit cannot slip its wakeup in between.
		k.sleepOn(parent, parent, &k.waitMu)
	}
}

// Sleep implements spec.md §4.5's sleep: the calling process, which must be
// RUNNING, blocks on chanKey until a matching Wakeup (or a direct
// wakeOneLocked, as Exit uses for the parent) moves it back to RUNNABLE.
//
// Sleep does not itself park the caller's goroutine until the scheduler
// redispatches it — since nothing observable happens in simulation between
// RUNNABLE and RUNNING besides scheduler bookkeeping, Sleep returns to its
// caller as soon as the process is woken rather than waiting for an actual
// dispatch. This keeps tests deterministic without requiring a live
// scheduler goroutine to be running for Sleep/Wakeup to work.
func (k *Kernel) Sleep(p *Proc, chanKey any) {
	k.sleepOn(p, chanKey, nil)
}

// sleepOn puts p on the sleeping list before releasing p.mu and then lk (if
// non-nil), so any waker that sees p SLEEPING also finds it on the list.
func (k *Kernel) sleepOn(p *Proc, chanKey any, lk *sync.Mutex) {
	p.mu.Lock()
	kassert(p.state == Running, "sleep: pid=%d state=%s, want running", p.pid, p.state)
	p.ch = chanKey
	p.state = Sleeping
	wakeCh := make(chan struct{}, 1)
	p.wakeCh = wakeCh
	k.sleeping.add(p)
	if lk != nil {
		lk.Unlock()
	}
	p.mu.Unlock()

	<-wakeCh
}

// Wakeup implements spec.md §4.5's wakeup: move every process sleeping on
// chanKey back to RUNNABLE, admitting each onto a CPU via the same policy
// Fork uses.
func (k *Kernel) Wakeup(chanKey any) {
	woken := k.sleeping.removeMatching(func(p *Proc) bool {
		p.mu.Lock()
		match := p.ch == chanKey
		p.mu.Unlock()
		return match
	})
	for _, p := range woken {
		k.admitWoken(p)
	}
}

// wakeOneLocked wakes exactly one specific sleeping process, used where the
// caller already knows which process to wake (Exit's parent wake, Kill's
// wake of a killed sleeper) rather than scanning by channel identity. Named
// for the reference source's wakeup1, which existed for the same reason: a
// broadcast wakeup(chan) would wake every process sleeping on that channel,
// not just the one the caller has in hand.
func (k *Kernel) wakeOneLocked(p *Proc) {
	if !k.sleeping.remove(p) {
		return
	}
	k.admitWoken(p)
}

// admitWoken moves a process already unlinked from the sleeping list back
// onto a CPU's runnable list and signals its wakeCh.
func (k *Kernel) admitWoken(p *Proc) {
	p.mu.Lock()
	p.ch = nil
	p.state = Runnable
	cpuIdx := k.chooseCPU(p.cpuNum)
	p.cpuNum = cpuIdx
	wakeCh := p.wakeCh
	p.wakeCh = nil
	p.mu.Unlock()

	c := k.cpus[cpuIdx]
	c.runnable.add(p)
	c.listSize.inc()
	c.admitted.inc()

	if wakeCh != nil {
		select {
		case wakeCh <- struct{}{}:
		default:
		}
	}
}

// Yield implements spec.md §4.5's yield: the calling process, which must be
// RUNNING, gives up the CPU voluntarily and goes back to the tail of its own
// CPU's runnable list. Unlike Wakeup/Fork, yield never migrates a process
// between CPUs.
func (k *Kernel) Yield(p *Proc) {
	p.mu.Lock()
	kassert(p.state == Running, "yield: pid=%d state=%s, want running", p.pid, p.state)
	p.state = Runnable
	cpuIdx := p.cpuNum
	p.mu.Unlock()

	c := k.cpus[cpuIdx]
	c.runnable.add(p)
	c.listSize.inc()
}

// Kill implements spec.md §4.7: mark pid for death. killed is sticky and
// only observed by the process itself at its next trap-to-user check — Kill
// never preempts a RUNNING process — except that a SLEEPING process is
// woken immediately so it can notice the kill and unwind instead of
// blocking indefinitely.
func (k *Kernel) Kill(pid int) error {
	p := k.findProc(pid)
	if p == nil {
		return errUnknownPID
	}
	p.mu.Lock()
	p.killed = true
	wasSleeping := p.state == Sleeping
	p.mu.Unlock()

	if wasSleeping {
		k.wakeOneLocked(p)
	}
	return nil
}

// findProc scans the process table for a live slot with the given pid.
func (k *Kernel) findProc(pid int) *Proc {
	for _, p := range k.procs {
		p.mu.Lock()
		match := p.pid == pid && p.state != Unused
		p.mu.Unlock()
		if match {
			return p
		}
	}
	return nil
}

// reparentChildren gives every child of p to init, waking init if it is
// already blocked in Wait and p had a zombie child ready to be reaped.
// Caller must hold k.waitMu.
func (k *Kernel) reparentChildren(p *Proc) {
	for _, c := range k.procs {
		c.mu.Lock()
		if c.parent == p {
			c.parent = k.initProc
			isZombie := c.state == Zombie
			c.mu.Unlock()
			if isZombie {
				k.wakeOneLocked(k.initProc)
			}
			continue
		}
		c.mu.Unlock()
	}
}

// chooseCPU applies spec.md §4.8's balancer policy: the least-loaded CPU by
// admission count when Config.Balance is set, otherwise the given hint
// (typically the process's last-known CPU), falling back to CPU 0 if the
// hint is out of range.
func (k *Kernel) chooseCPU(hint int) int {
	if k.cfg.Balance {
		return k.leastLoadedCPU()
	}
	if hint >= 0 && hint < len(k.cpus) {
		return hint
	}
	return 0
}
