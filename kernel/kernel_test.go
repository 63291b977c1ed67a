package kernel

import "testing"

func TestNewKernelDefaultsNProc(t *testing.T) {
	k := NewKernel(Config{NCPU: 1})
	if got := len(k.procs); got != DefaultNProc {
		t.Fatalf("len(procs) = %d, want %d (DefaultNProc)", got, DefaultNProc)
	}
}

func TestNewKernelDefaultsNCPU(t *testing.T) {
	k := NewKernel(Config{NProc: 4})
	if got := len(k.cpus); got <= 0 {
		t.Fatalf("len(cpus) = %d, want > 0 (DetectNCPU fallback)", got)
	}
}

func TestNewKernelHonorsExplicitSizes(t *testing.T) {
	k := NewKernel(Config{NCPU: 3, NProc: 8})
	if got := len(k.cpus); got != 3 {
		t.Fatalf("len(cpus) = %d, want 3", got)
	}
	if got := len(k.procs); got != 8 {
		t.Fatalf("len(procs) = %d, want 8", got)
	}
}

func TestBootFailsOnExhaustedTable(t *testing.T) {
	k := NewKernel(Config{NCPU: 1})
	k.unused = list{} // drain the free list; userinit's allocproc must fail
	if err := k.Boot([]byte("init")); err == nil {
		t.Fatal("Boot with no free process slots succeeded, want an error")
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	k := NewKernel(Config{NCPU: 2})
	if err := k.Boot([]byte("init")); err != nil {
		t.Fatalf("Boot: %s", err)
	}
	k.Shutdown()
	k.Shutdown() // must not panic on a second close of k.stop
}

func TestAllocprocExhaustion(t *testing.T) {
	k := bootTestKernel(t, Config{NCPU: 1, NProc: 1})
	// NProc=1 is entirely consumed by init; allocproc must report exhaustion
	// rather than panic or block.
	if p := k.allocproc(); p != nil {
		t.Fatalf("allocproc() on an exhausted table returned a slot (pid=%d), want nil", p.pid)
	}
}

func TestSnapshotReflectsLiveState(t *testing.T) {
	k := bootTestKernel(t, Config{NCPU: 2})
	init := k.Init()

	child, err := k.Fork(init)
	if err != nil {
		t.Fatalf("Fork: %s", err)
	}
	k.Kill(child.PID())

	snap := k.Snapshot()

	if got := len(snap.CPUs); got != 2 {
		t.Fatalf("len(snap.CPUs) = %d, want 2", got)
	}

	var found *ProcInfo
	for i := range snap.Procs {
		if snap.Procs[i].PID == child.PID() {
			found = &snap.Procs[i]
		}
	}
	if found == nil {
		t.Fatal("Snapshot did not include the forked child")
	}
	if found.ParentPID != init.PID() {
		t.Fatalf("child ParentPID = %d, want %d", found.ParentPID, init.PID())
	}
	if found.Name != init.Name() {
		t.Fatalf("child Name = %q, want %q", found.Name, init.Name())
	}
	if !found.Killed {
		t.Fatal("child.Killed snapshot field = false after Kill")
	}
	if found.State != Runnable.String() {
		t.Fatalf("child State = %q, want %q (Kill doesn't change state, only the killed flag)", found.State, Runnable.String())
	}

	for _, c := range snap.CPUs {
		if c.ID == 0 && c.ListSize < 1 {
			t.Fatalf("cpu0 ListSize = %d, want at least 1 (init, child)", c.ListSize)
		}
	}
}

func TestSnapshotOmitsUnusedSlots(t *testing.T) {
	k := bootTestKernel(t, Config{NCPU: 1, NProc: 4})
	snap := k.Snapshot()
	// Only init has ever been allocated; the other 3 slots are UNUSED and
	// must not appear.
	if got := len(snap.Procs); got != 1 {
		t.Fatalf("len(snap.Procs) = %d, want 1 (init only)", got)
	}
}
