// Package collab defines the narrow contracts the core process subsystem
// consumes from its external collaborators (spec.md §6): virtual memory,
// the filesystem, open files, and the trap/trampoline/low-level primitives.
// The core is deliberately ignorant of how these are implemented — page
// tables, inodes, and context switches are somebody else's subsystem.
//
// Sim, SimLowLevel and NewSimFile, in this package, are self-contained
// in-memory stand-ins for all four, sized for tests and the nucleusctl demo
// rather than a real MMU.
package collab

import "errors"

// Layout constants from spec.md §6.
const (
	PGSIZE     = 4096
	Trampoline = ^uintptr(0) - PGSIZE + 1  // top page of the address space
	Trapframe  = Trampoline - PGSIZE       // page below the trampoline
	NOFILE     = 16
)

// ErrNoMem is returned by VM operations when the simulated allocator is
// exhausted.
var ErrNoMem = errors.New("collab: out of simulated memory")

// PageTable is an opaque handle to a per-process address space. Callers
// never look inside it; they only ever pass it back to VM.
type PageTable interface{}

// VM is the virtual-memory collaborator contract from spec.md §6.
type VM interface {
	AllocPage() (uintptr, error)
	FreePage(pa uintptr)

	UVMCreate() (PageTable, error)
	MapPages(pt PageTable, va, sz, pa uintptr, flags int) error
	UVMUnmap(pt PageTable, va, npages uintptr, freePages bool)
	UVMFree(pt PageTable, sz uintptr)
	// UVMAlloc grows pt's mapped region from oldsz to newsz, returning the
	// new size actually achieved (may be less than newsz on failure).
	UVMAlloc(pt PageTable, oldsz, newsz uintptr) (uintptr, error)
	// UVMDealloc shrinks pt's mapped region from oldsz to newsz, returning
	// the new size.
	UVMDealloc(pt PageTable, oldsz, newsz uintptr) uintptr
	UVMCopy(src, dst PageTable, sz uintptr) error
	UVMInit(pt PageTable, code []byte) error
	CopyIn(pt PageTable, dst []byte, srcva uintptr) error
	CopyOut(pt PageTable, dstva uintptr, src []byte) error
}

// Inode is an owning reference to a directory/file in the FS collaborator.
type Inode struct {
	Path string
}

// FS is the filesystem collaborator contract from spec.md §6.
type FS interface {
	Namei(path string) (Inode, error)
	Idup(i Inode) Inode
	Iput(i Inode)
	BeginOp()
	EndOp()
}

// OpenFile is an owning reference to an open file description, shared via
// reference count across fork.
type OpenFile interface {
	Dup() OpenFile
	Close()
}

// Context is the saved kernel register state swapped by swtch.
type Context struct {
	SP, RA uintptr
}

// LowLevel is the trap/trampoline/CAS/interrupt contract from spec.md §6.
type LowLevel interface {
	CAS(addr *int64, old, new int64) bool
	Swtch(save, load *Context)
	CPUID() int
	IntrOn()
	IntrGet() bool
	PushOff()
	PopOff()
}
