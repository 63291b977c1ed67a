// Package kernel implements the core of spec.md: a per-CPU process
// scheduler with migration and work-balancing, the four lifecycle-state
// lists (runnable, sleeping, zombie, unused) that back it, and the
// synchronization protocol (spec.md §5) that keeps everything consistent
// under real concurrent access from every CPU's scheduler goroutine.
//
// Virtual memory, the filesystem, open files, and context-switching are
// consumed only through the narrow contracts in kernel/collab (spec.md
// §6) — this package owns no page tables and no inodes.
package kernel

import (
	"fmt"
	"log"
	"sync"

	"github.com/arctir/nucleus/kernel/collab"
)

const (
	// defaultName is the forced-zero label of a slot just returned to
	// UNUSED, matching how freeproc clears name[0].
	defaultName = ""
	// InitName is the reserved name of the first process; exit() on it is
	// a fatal condition (spec.md §7).
	InitName = "init"
	// defaultKstackSize is unused directly (kstack is just a VA tag here)
	// but documents the "one dedicated page" contract from spec.md §3.
	defaultKstackSize = collab.PGSIZE
)

// Config configures a Kernel. Like the teacher's *Config structs
// (LinuxInspectorConfig, GHManagerConfig), zero values mean "use the
// default"; NewKernel/Boot never require every field to be set.
type Config struct {
	// NCPU is the number of simulated CPUs. 0 means "ask hostinfo for the
	// real machine's CPU count".
	NCPU int
	// NProc bounds the process table. 0 means DefaultNProc.
	NProc int
	// Balance enables the balancer policy (spec.md §4.8's BALANCE knob):
	// fork/wakeup pick the least-loaded CPU by admission count instead of
	// inheriting the current/last one.
	Balance bool
	// StealEnabled turns on steal_process in the scheduler loop (spec.md
	// §4.6). Stealing is off unless this is set; NewKernel does not turn
	// it on for a zero Config.
	StealEnabled bool
	// VM/FS/LowLevel override the external collaborators. Nil means use
	// an in-memory collab.Sim.
	VM       collab.VM
	FS       collab.FS
	LowLevel collab.LowLevel

	// Verbose enables log.Printf diagnostics from the scheduler's work
	// stealing. Lifecycle operations do not log.
	Verbose bool
}

const DefaultNProc = 64

// kassert is spec.md §7's fatal-condition list: conditions detected by
// assertion that must crash the kernel rather than be handled as
// recoverable errors.
func kassert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("nucleus: assertion failed: "+format, args...))
	}
}

// Kernel is the single owned value spec.md's design notes recommend in
// place of the source's global mutable state: the process table, the
// per-CPU records, and the list heads are all reached through a Kernel
// instance created by Boot/NewKernel, never package-level globals.
type Kernel struct {
	cfg Config

	procs []*Proc // fixed-size pool; all slots start on unused
	unused list
	sleeping list
	zombie list

	cpus []*CPU

	waitMu sync.Mutex // wait_lock: top of the lock hierarchy (spec.md §5)

	pids *pidAllocator

	vm collab.VM
	fs collab.FS
	ll collab.LowLevel

	initProc *Proc

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

// NewKernel constructs a Kernel without starting any scheduler goroutines.
// Boot is the usual entry point; NewKernel is exposed for tests that want
// to drive allocproc/fork/exit without a live scheduler racing them.
func NewKernel(cfg Config) *Kernel {
	if cfg.NCPU <= 0 {
		cfg.NCPU = DetectNCPU()
	}
	if cfg.NProc <= 0 {
		cfg.NProc = DefaultNProc
	}

	k := &Kernel{
		cfg:  cfg,
		pids: newPidAllocator(),
		stop: make(chan struct{}),
	}

	if cfg.VM != nil {
		k.vm = cfg.VM
	} else {
		k.vm = collab.NewSim()
	}
	if cfg.FS != nil {
		k.fs = cfg.FS
	} else {
		k.fs = collab.NewSim()
	}
	if cfg.LowLevel != nil {
		k.ll = cfg.LowLevel
	} else {
		k.ll = collab.NewSimLowLevel(k.currentCPUID)
	}

	k.procs = make([]*Proc, cfg.NProc)
	for i := range k.procs {
		p := &Proc{state: Unused, cpuNum: -1}
		k.procs[i] = p
		k.unused.add(p)
	}

	k.cpus = make([]*CPU, cfg.NCPU)
	for i := range k.cpus {
		k.cpus[i] = newCPU(i)
	}

	return k
}

// currentCPUID backs collab.SimLowLevel's CPUID() when the caller hasn't
// supplied a real one. Go has no goroutine-local storage to tell which
// CPU's loop is calling, so it always reports 0. Nothing in this package
// calls CPUID; the scheduler loop always knows its own CPU index directly.
func (k *Kernel) currentCPUID() int {
	return 0
}

// Boot starts one scheduler goroutine per CPU and seeds the init process on
// CPU 0 (spec.md §8 scenario 1). The supplied initCode is passed to
// uvminit via collab.VM, exactly the way spec.md §6 describes uvminit's
// "code and len" parameters; cmd/nucleusctl's bootimage integration is what
// supplies a real blob outside of tests.
func (k *Kernel) Boot(initCode []byte) error {
	p, err := k.userinit(initCode)
	if err != nil {
		return fmt.Errorf("nucleus: failed booting init process: %s", err)
	}
	k.initProc = p

	for _, c := range k.cpus {
		k.wg.Add(1)
		go k.schedulerLoop(c)
	}
	return nil
}

// Shutdown stops every CPU's scheduler loop and waits for them to exit.
func (k *Kernel) Shutdown() {
	k.stopOnce.Do(func() { close(k.stop) })
	k.wg.Wait()
}

func (k *Kernel) logf(format string, args ...any) {
	if k.cfg.Verbose {
		log.Printf(format, args...)
	}
}

// CPUs returns the kernel's per-CPU records, for debug/dashboard use.
func (k *Kernel) CPUs() []*CPU { return k.cpus }

// Init returns the kernel's init process, if Boot has run.
func (k *Kernel) Init() *Proc { return k.initProc }

// allocproc implements spec.md §4.3: pop a slot off UNUSED, assign a PID,
// request a trapframe page and page table from the VM collaborator, and
// seed a kernel context resuming in the fork-return trampoline. Returns nil
// (not an error) on exhaustion, matching spec.md §7: "allocproc failures
// ... return null and are propagated by the caller".
func (k *Kernel) allocproc() *Proc {
	p := k.unused.removeHead()
	if p == nil {
		return nil
	}

	p.mu.Lock()
	p.pid = k.pids.allocate()
	p.state = Used
	p.next = nil
	p.cpuNum = -1

	tf, err := k.vm.AllocPage()
	if err != nil {
		k.freeprocLocked(p)
		p.mu.Unlock()
		return nil
	}
	p.trapframe = tf

	pt, err := k.vm.UVMCreate()
	if err != nil {
		k.freeprocLocked(p)
		p.mu.Unlock()
		return nil
	}
	if err := k.vm.MapPages(pt, collab.Trampoline, collab.PGSIZE, 0, 0); err != nil {
		k.freeprocLocked(p)
		p.mu.Unlock()
		return nil
	}
	if err := k.vm.MapPages(pt, collab.Trapframe, collab.PGSIZE, tf, 0); err != nil {
		k.freeprocLocked(p)
		p.mu.Unlock()
		return nil
	}
	p.pagetable = pt

	p.context = collab.Context{}
	if p.kstack == 0 {
		p.kstack = uintptr(p.pid) * collab.PGSIZE // a fixed, slot-lifetime VA tag
	}

	return p
}

// freeproc implements spec.md §4.3. Caller must hold p.mu.
func (k *Kernel) freeprocLocked(p *Proc) {
	if p.trapframe != 0 {
		k.vm.FreePage(p.trapframe)
		p.trapframe = 0
	}
	if p.pagetable != nil {
		k.vm.UVMFree(p.pagetable, p.sz)
		p.pagetable = nil
	}
	p.sz = 0
	p.pid = 0
	p.parent = nil
	p.name = defaultName
	p.ch = nil
	p.killed = false
	p.xstate = 0

	k.zombie.remove(p)
	p.state = Unused
	k.unused.add(p)
}

// freeproc is the exported, self-locking form used outside allocproc's own
// failure paths (wait's reap path).
func (k *Kernel) freeproc(p *Proc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k.freeprocLocked(p)
}

// userinit boots the very first process: allocate a slot, map its initial
// code via uvminit, and make it RUNNABLE on CPU 0. This replaces the
// original source's redundant set_head call after add_proc_to_list (spec.md
// §9) with a single list.add.
func (k *Kernel) userinit(initCode []byte) (*Proc, error) {
	p := k.allocproc()
	if p == nil {
		return nil, fmt.Errorf("no free process slots")
	}

	if err := k.vm.UVMInit(p.pagetable, initCode); err != nil {
		k.freeprocLocked(p)
		p.mu.Unlock()
		return nil, fmt.Errorf("uvminit failed: %s", err)
	}
	p.sz = collab.PGSIZE
	p.name = InitName
	p.cwd, _ = k.fs.Namei("/")

	p.state = Runnable
	p.cpuNum = 0
	p.mu.Unlock()

	c := k.cpus[0]
	c.runnable.add(p)
	c.listSize.inc()
	c.admitted.inc()

	return p, nil
}
