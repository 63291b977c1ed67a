package kernel

// SetCPU implements spec.md §4.8's cpu-affinity override: move p, which must
// currently be RUNNABLE, from its current CPU's runnable list onto target's.
// Attempting to move a process that is not RUNNABLE (RUNNING, SLEEPING, a
// ZOMBIE, or an UNUSED slot) is a caller error.
//
// This is also where spec.md §9's size-accounting bug is fixed: the
// reference source decremented and re-incremented proc_list_size on every
// CPU it merely inspected while searching for p, not just the two CPUs
// actually involved in the move. Here only the source and target counters
// are touched.
func (k *Kernel) SetCPU(p *Proc, target int) error {
	if target < 0 || target >= len(k.cpus) {
		return errOutOfRange
	}

	p.mu.Lock()
	kassert(p.state == Runnable, "setcpu: pid=%d state=%s, want runnable", p.pid, p.state)
	from := p.cpuNum
	p.mu.Unlock()

	if from == target {
		return nil
	}

	if !k.cpus[from].runnable.remove(p) {
		return errUnknownPID
	}
	k.cpus[from].listSize.dec()

	p.mu.Lock()
	p.cpuNum = target
	p.mu.Unlock()

	k.cpus[target].runnable.add(p)
	k.cpus[target].listSize.inc()
	k.cpus[target].admitted.inc()
	return nil
}

// GetCPU returns the CPU index p is currently bound to.
func (k *Kernel) GetCPU(p *Proc) int {
	return p.CPUNum()
}

// CPUProcessCount returns the live runnable-list population of the CPU at
// the given index, walking the list rather than trusting the O(1) counter —
// useful for property checks (P3) that want to catch a counter that has
// drifted from reality.
func (k *Kernel) CPUProcessCount(cpuIndex int) (int, error) {
	if cpuIndex < 0 || cpuIndex >= len(k.cpus) {
		return 0, errOutOfRange
	}
	return k.cpus[cpuIndex].runnable.len(), nil
}

// Balance implements spec.md §4.8's BALANCE knob as an on-demand rebalance
// rather than only a fork/wakeup-time admission policy: migrate processes
// off the most-loaded CPUs onto the least-loaded ones until every CPU's
// runnable-list population is within one of the mean. Returns the number of
// processes migrated.
//
// This uses ListSize rather than Admitted as the load signal: Admitted is a
// monotonic lifetime counter (spec.md §3), never decremented when a process
// leaves a CPU, so a CPU that was merely loaded in the past would look
// permanently overloaded forever and Balance would never converge against
// it. ListSize reflects current population and moves both ways with every
// migration here.
func (k *Kernel) Balance() int {
	migrated := 0
	for {
		hi, lo := 0, 0
		for i := 1; i < len(k.cpus); i++ {
			if k.cpus[i].ListSize() > k.cpus[hi].ListSize() {
				hi = i
			}
			if k.cpus[i].ListSize() < k.cpus[lo].ListSize() {
				lo = i
			}
		}
		if k.cpus[hi].ListSize()-k.cpus[lo].ListSize() <= 1 {
			return migrated
		}
		p := k.cpus[hi].runnable.removeHead()
		if p == nil {
			return migrated
		}
		k.cpus[hi].listSize.dec()

		p.mu.Lock()
		p.cpuNum = lo
		p.mu.Unlock()

		k.cpus[lo].runnable.add(p)
		k.cpus[lo].listSize.inc()
		k.cpus[lo].admitted.inc()
		migrated++
	}
}
