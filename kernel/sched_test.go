package kernel

import "testing"

func TestDispatchOutOfRange(t *testing.T) {
	k := bootTestKernel(t, Config{NCPU: 1})
	if _, err := k.Dispatch(5); err == nil {
		t.Fatal("Dispatch with an out-of-range index succeeded, want errOutOfRange")
	}
}

func TestDispatchNothingRunnable(t *testing.T) {
	k := bootTestKernel(t, Config{NCPU: 1})
	if _, err := k.Dispatch(0); err != nil {
		t.Fatalf("Dispatch (init): %s", err)
	}
	// init is now RUNNING and off the runnable list; nothing left to pop.
	if _, err := k.Dispatch(0); err == nil {
		t.Fatal("Dispatch with an empty runnable list succeeded, want errNothingRunnable")
	}
}

func TestDispatchMarksRunningAndBindsCPU(t *testing.T) {
	k := bootTestKernel(t, Config{NCPU: 2})
	p, err := k.Dispatch(0)
	if err != nil {
		t.Fatalf("Dispatch: %s", err)
	}
	if got := p.State(); got != Running {
		t.Fatalf("dispatched proc state = %s, want running", got)
	}
	if got := p.CPUNum(); got != 0 {
		t.Fatalf("dispatched proc cpuNum = %d, want 0", got)
	}
}

// TestDispatchStealsWhenEmptyAndEnabled exercises stealProcess: a CPU with
// an empty runnable list and StealEnabled steals the head of another CPU's
// queue rather than returning errNothingRunnable.
func TestDispatchStealsWhenEmptyAndEnabled(t *testing.T) {
	k := bootTestKernel(t, Config{NCPU: 2, StealEnabled: true})
	init := k.Init() // runnable on cpu 0

	child, err := k.Fork(init)
	if err != nil {
		t.Fatalf("Fork: %s", err)
	}
	if child.CPUNum() != 0 {
		t.Fatalf("child.CPUNum() = %d, want 0 (no balancing configured)", child.CPUNum())
	}

	// cpu 1 has nothing of its own; with stealing enabled it should pull
	// one of cpu 0's two runnable procs instead of coming back empty.
	p, err := k.Dispatch(1)
	if err != nil {
		t.Fatalf("Dispatch(1) with StealEnabled: %s", err)
	}
	if got := p.CPUNum(); got != 1 {
		t.Fatalf("stolen proc's CPUNum() = %d, want 1 (rewritten to the thief)", got)
	}
	if got := p.State(); got != Running {
		t.Fatalf("stolen proc's state = %s, want running", got)
	}

	remaining, err := k.CPUProcessCount(0)
	if err != nil {
		t.Fatalf("CPUProcessCount(0): %s", err)
	}
	if remaining != 1 {
		t.Fatalf("CPUProcessCount(0) after steal = %d, want 1 (one proc left behind)", remaining)
	}
}

func TestDispatchNoStealWhenDisabled(t *testing.T) {
	k := bootTestKernel(t, Config{NCPU: 2, StealEnabled: false})
	if _, err := k.Fork(k.Init()); err != nil {
		t.Fatalf("Fork: %s", err)
	}
	// cpu 1 is empty and stealing is off: nothing should come back.
	if _, err := k.Dispatch(1); err == nil {
		t.Fatal("Dispatch(1) with StealEnabled=false and an empty queue succeeded, want errNothingRunnable")
	}
}

// TestLeastLoadedCPUTiesToLowestIndex exercises the documented tie-break:
// with CPUs 1 and 2 tied at zero admissions and CPU 0 holding init's one,
// chooseCPU with Config.Balance picks index 1, the lowest of the tied
// least-loaded CPUs, rather than the fork's own hint (CPU 0).
func TestLeastLoadedCPUTiesToLowestIndex(t *testing.T) {
	k := bootTestKernel(t, Config{NCPU: 3, Balance: true})
	init := k.Init() // cpuNum 0, Admitted()==1 on cpu 0 from boot's userinit

	// Fork once: with all other CPUs at Admitted()==0 < cpu0's 1, the
	// balancer must not pick cpu0 (init's own CPU) as the hint would.
	child, err := k.Fork(init)
	if err != nil {
		t.Fatalf("Fork: %s", err)
	}
	if got := child.CPUNum(); got != 1 {
		t.Fatalf("child.CPUNum() = %d, want 1 (least-loaded, lowest index among the tied zero-admitted CPUs)", got)
	}
}
