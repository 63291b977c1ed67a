package kernel

import (
	"fmt"
	"strings"
)

// Procdump implements spec.md §6's debug surface: one line per non-UNUSED
// process, "<pid> <state-abbrev> <name>", with no locking — it is meant to
// be callable from a panic handler where acquiring p.mu might already be
// held by whatever crashed, so the output is best-effort rather than a
// consistent snapshot.
func (k *Kernel) Procdump() string {
	var b strings.Builder
	for _, p := range k.procs {
		if p.state == Unused {
			continue
		}
		fmt.Fprintf(&b, "%d %s %s\n", p.pid, p.state.abbrev(), p.name)
	}
	return b.String()
}

// Growproc implements the supplemented growproc(n) contract: grow (n > 0)
// or shrink (n < 0) the calling process's address space by n bytes via the
// VM collaborator. n == 0 is a no-op that returns nil. Returns an error,
// leaving sz unchanged, if uvmalloc can't satisfy the full requested growth
// or the shrink would take sz below zero.
func (k *Kernel) Growproc(p *Proc, n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n == 0 {
		return nil
	}
	oldsz := p.sz
	if n > 0 {
		newsz, err := k.vm.UVMAlloc(p.pagetable, oldsz, oldsz+uintptr(n))
		if err != nil || newsz < oldsz+uintptr(n) {
			return fmt.Errorf("growproc: uvmalloc could not grow pid=%d by %d bytes", p.pid, n)
		}
		p.sz = newsz
		return nil
	}
	shrink := uintptr(-n)
	if shrink > oldsz {
		return fmt.Errorf("growproc: pid=%d cannot shrink by %d bytes below zero", p.pid, -n)
	}
	p.sz = k.vm.UVMDealloc(p.pagetable, oldsz, oldsz-shrink)
	return nil
}

// EitherCopyOut implements the supplemented either_copyout: copy len(src)
// bytes to dstva, which is a user address in p's page table when user is
// true, or a raw kernel-side byte slice pointer otherwise.
func (k *Kernel) EitherCopyOut(p *Proc, user bool, dst []byte, dstva uintptr, src []byte) error {
	if user {
		p.mu.Lock()
		pt := p.pagetable
		p.mu.Unlock()
		return k.vm.CopyOut(pt, dstva, src)
	}
	if copy(dst, src) != len(src) {
		return fmt.Errorf("either_copyout: destination too small")
	}
	return nil
}

// EitherCopyIn implements the supplemented either_copyin: copy into dst from
// srcva, which is a user address in p's page table when user is true, or a
// raw kernel-side byte slice otherwise.
func (k *Kernel) EitherCopyIn(p *Proc, dst []byte, user bool, src []byte, srcva uintptr) error {
	if user {
		p.mu.Lock()
		pt := p.pagetable
		p.mu.Unlock()
		return k.vm.CopyIn(pt, dst, srcva)
	}
	if copy(dst, src) != len(dst) {
		return fmt.Errorf("either_copyin: source too small")
	}
	return nil
}

// Snapshot is a point-in-time, lock-respecting view of the kernel's process
// table and per-CPU run queues, built for the dashboard and nucleusctl's ps
// command — unlike Procdump, it acquires each process's lock as it reads.
type Snapshot struct {
	Procs []ProcInfo
	CPUs  []CPUInfo
}

// ProcInfo is one row of a Snapshot's process table.
type ProcInfo struct {
	PID       int
	ParentPID int // 0 if none (init, or a slot with no recorded parent)
	State     string
	Name      string
	CPU       int
	Killed    bool
}

// CPUInfo is one row of a Snapshot's per-CPU view.
type CPUInfo struct {
	ID       int
	Running  int // pid, or 0 if idle
	ListSize int64
	Admitted int64
}

// Snapshot builds a consistent-per-process (not globally consistent) view
// of the kernel for display.
func (k *Kernel) Snapshot() Snapshot {
	s := Snapshot{}
	k.waitMu.Lock()
	defer k.waitMu.Unlock()
	for _, p := range k.procs {
		p.mu.Lock()
		if p.state != Unused {
			parentPID := 0
			if p.parent != nil {
				parentPID = p.parent.pid
			}
			s.Procs = append(s.Procs, ProcInfo{
				PID:       p.pid,
				ParentPID: parentPID,
				State:     p.state.String(),
				Name:      p.name,
				CPU:       p.cpuNum,
				Killed:    p.killed,
			})
		}
		p.mu.Unlock()
	}
	for _, c := range k.cpus {
		running := 0
		if rp := c.Running(); rp != nil {
			running = rp.PID()
		}
		s.CPUs = append(s.CPUs, CPUInfo{
			ID:       c.ID(),
			Running:  running,
			ListSize: c.ListSize(),
			Admitted: c.Admitted(),
		})
	}
	return s
}
