package collab

import (
	"sync"
	"sync/atomic"
)

// simPageTable is the in-memory PageTable used by Sim. It tracks mapped
// regions as a simple offset->bytes map; good enough to prove uvmcopy/
// uvminit/copyin/copyout semantics without a real MMU.
type simPageTable struct {
	mu     sync.Mutex
	mem    map[uintptr][]byte
	npages int
}

// Sim is an in-memory implementation of VM and FS (SimLowLevel and
// NewSimFile cover LowLevel and OpenFile). It is the default VM/FS
// collaborator used by kernel.NewKernel when no real hardware backing is
// supplied — exactly the role spec.md §1 reserves for "external
// collaborators" that the core only touches through the contracts in this
// package.
type Sim struct {
	nextPage uintptr
	pages    int64 // atomically counts allocated pages, for test assertions

	filesMu sync.Mutex
	files   map[string]*simInode
}

// NewSim constructs a ready-to-use Sim collaborator bundle.
func NewSim() *Sim {
	return &Sim{
		nextPage: PGSIZE,
		files:    map[string]*simInode{"/": {path: "/", refs: 1}},
	}
}

func (s *Sim) AllocPage() (uintptr, error) {
	pa := atomic.AddUintptr(&s.nextPage, PGSIZE) - PGSIZE
	atomic.AddInt64(&s.pages, 1)
	return pa, nil
}

func (s *Sim) FreePage(pa uintptr) {
	atomic.AddInt64(&s.pages, -1)
}

// AllocatedPages reports the number of pages currently considered
// outstanding — used by tests to confirm allocproc/freeproc don't leak.
func (s *Sim) AllocatedPages() int64 {
	return atomic.LoadInt64(&s.pages)
}

func (s *Sim) UVMCreate() (PageTable, error) {
	return &simPageTable{mem: map[uintptr][]byte{}}, nil
}

func (s *Sim) MapPages(pt PageTable, va, sz, pa uintptr, flags int) error {
	p := pt.(*simPageTable)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mem[va] = make([]byte, sz)
	p.npages++
	return nil
}

func (s *Sim) UVMUnmap(pt PageTable, va, npages uintptr, freePages bool) {
	p := pt.(*simPageTable)
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.mem, va)
}

func (s *Sim) UVMFree(pt PageTable, sz uintptr) {
	p := pt.(*simPageTable)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mem = map[uintptr][]byte{}
}

func (s *Sim) UVMAlloc(pt PageTable, oldsz, newsz uintptr) (uintptr, error) {
	if newsz < oldsz {
		return oldsz, nil
	}
	p := pt.(*simPageTable)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mem[oldsz] = make([]byte, newsz-oldsz)
	return newsz, nil
}

func (s *Sim) UVMDealloc(pt PageTable, oldsz, newsz uintptr) uintptr {
	if newsz >= oldsz {
		return oldsz
	}
	p := pt.(*simPageTable)
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.mem, newsz)
	return newsz
}

func (s *Sim) UVMCopy(src, dst PageTable, sz uintptr) error {
	srcPT := src.(*simPageTable)
	dstPT := dst.(*simPageTable)
	srcPT.mu.Lock()
	defer srcPT.mu.Unlock()
	dstPT.mu.Lock()
	defer dstPT.mu.Unlock()
	for k, v := range srcPT.mem {
		cp := make([]byte, len(v))
		copy(cp, v)
		dstPT.mem[k] = cp
	}
	return nil
}

func (s *Sim) UVMInit(pt PageTable, code []byte) error {
	p := pt.(*simPageTable)
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := make([]byte, len(code))
	copy(cp, code)
	p.mem[0] = cp
	return nil
}

func (s *Sim) CopyIn(pt PageTable, dst []byte, srcva uintptr) error {
	p := pt.(*simPageTable)
	p.mu.Lock()
	defer p.mu.Unlock()
	src, ok := p.mem[srcva]
	if !ok {
		return ErrNoMem
	}
	copy(dst, src)
	return nil
}

func (s *Sim) CopyOut(pt PageTable, dstva uintptr, src []byte) error {
	p := pt.(*simPageTable)
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := make([]byte, len(src))
	copy(cp, src)
	p.mem[dstva] = cp
	return nil
}

// simInode backs the FS collaborator: a flat map keyed by path, refcounted
// like a real inode cache entry would be.
type simInode struct {
	path string
	refs int32
}

func (s *Sim) Namei(path string) (Inode, error) {
	s.filesMu.Lock()
	defer s.filesMu.Unlock()
	n, ok := s.files[path]
	if !ok {
		n = &simInode{path: path}
		s.files[path] = n
	}
	atomic.AddInt32(&n.refs, 1)
	return Inode{Path: path}, nil
}

func (s *Sim) Idup(i Inode) Inode {
	s.filesMu.Lock()
	defer s.filesMu.Unlock()
	if n, ok := s.files[i.Path]; ok {
		atomic.AddInt32(&n.refs, 1)
	}
	return i
}

func (s *Sim) Iput(i Inode) {
	s.filesMu.Lock()
	defer s.filesMu.Unlock()
	if n, ok := s.files[i.Path]; ok {
		atomic.AddInt32(&n.refs, -1)
	}
}

// BeginOp/EndOp bracket a filesystem-modifying operation's batch, as the FS
// collaborator's journaling layer requires (spec.md §4.5's exit contract).
// Sim has no journal, so these are no-ops kept only to satisfy the contract.
func (s *Sim) BeginOp() {}
func (s *Sim) EndOp()   {}

// simFile is the OpenFile collaborator: a refcounted handle.
type simFile struct {
	refs *int32
}

// NewSimFile returns a fresh simulated open file, refcount 1.
func NewSimFile() OpenFile {
	r := int32(1)
	return &simFile{refs: &r}
}

func (f *simFile) Dup() OpenFile {
	atomic.AddInt32(f.refs, 1)
	return f
}

func (f *simFile) Close() {
	atomic.AddInt32(f.refs, -1)
}

// SimLowLevel implements LowLevel with a goroutine-safe CAS and a
// sync.Cond-free Swtch: since there is no real register file here, Swtch
// only exists to mark the suspension point sched() requires.
type SimLowLevel struct {
	cpuID func() int
}

// NewSimLowLevel returns a LowLevel collaborator whose CPUID reports
// whatever the supplied function returns — kernel.NewKernel wires this to
// Kernel.currentCPUID, which always reports 0.
func NewSimLowLevel(cpuID func() int) *SimLowLevel {
	return &SimLowLevel{cpuID: cpuID}
}

func (l *SimLowLevel) CAS(addr *int64, old, new int64) bool {
	return atomic.CompareAndSwapInt64(addr, old, new)
}

// Swtch is a no-op in simulation: the scheduler loop models suspension via
// channel sends/receives rather than a real register-file swap.
func (l *SimLowLevel) Swtch(save, load *Context) {}

func (l *SimLowLevel) CPUID() int {
	if l.cpuID == nil {
		return 0
	}
	return l.cpuID()
}

func (l *SimLowLevel) IntrOn()          {}
func (l *SimLowLevel) IntrGet() bool    { return true }
func (l *SimLowLevel) PushOff()         {}
func (l *SimLowLevel) PopOff()          {}
