package kernel

import "testing"

func TestSetCPUMovesRunnableProcess(t *testing.T) {
	k := bootTestKernel(t, Config{NCPU: 3})
	child, err := k.Fork(k.Init())
	if err != nil {
		t.Fatalf("Fork: %s", err)
	}
	from := child.CPUNum()
	to := (from + 1) % 3

	if err := k.SetCPU(child, to); err != nil {
		t.Fatalf("SetCPU: %s", err)
	}
	if got := child.CPUNum(); got != to {
		t.Fatalf("child.CPUNum() = %d, want %d", got, to)
	}

	fromCount, err := k.CPUProcessCount(from)
	if err != nil {
		t.Fatalf("CPUProcessCount(from): %s", err)
	}
	toCount, err := k.CPUProcessCount(to)
	if err != nil {
		t.Fatalf("CPUProcessCount(to): %s", err)
	}
	if fromCount != 1 {
		t.Fatalf("CPUProcessCount(from) = %d, want 1 (init only; the child moved away)", fromCount)
	}
	if toCount != 1 {
		t.Fatalf("CPUProcessCount(to) = %d, want 1 (the moved child)", toCount)
	}
}

func TestSetCPURejectsNonRunnable(t *testing.T) {
	k := bootTestKernel(t, Config{NCPU: 2})
	child, err := k.Fork(k.Init())
	if err != nil {
		t.Fatalf("Fork: %s", err)
	}
	if _, err := k.Dispatch(0); err != nil {
		t.Fatalf("Dispatch (init): %s", err)
	}
	if _, err := k.Dispatch(0); err != nil {
		t.Fatalf("Dispatch (child): %s", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("SetCPU on a RUNNING process should panic (kassert), it did not")
		}
	}()
	k.SetCPU(child, 1)
}

func TestSetCPUOutOfRange(t *testing.T) {
	k := bootTestKernel(t, Config{NCPU: 2})
	child, err := k.Fork(k.Init())
	if err != nil {
		t.Fatalf("Fork: %s", err)
	}
	if err := k.SetCPU(child, 99); err == nil {
		t.Fatal("SetCPU with an out-of-range target succeeded, want errOutOfRange")
	}
}

// TestBalanceFromConcentratedLoad exercises Balance as an on-demand
// rebalance: every process was admitted onto CPU 0 (Config.Balance off), so
// Balance must redistribute the runnable population until every CPU's
// current list size is within one of the mean.
func TestBalanceFromConcentratedLoad(t *testing.T) {
	k := bootTestKernel(t, Config{NCPU: 4})
	init := k.Init()

	for i := 0; i < 23; i++ {
		if _, err := k.Fork(init); err != nil {
			t.Fatalf("Fork #%d: %s", i, err)
		}
	}

	migrated := k.Balance()
	if migrated == 0 {
		t.Fatal("Balance() migrated 0 processes from a fully concentrated CPU 0")
	}

	var maxSize, minSize int64
	for i, c := range k.CPUs() {
		size := c.ListSize()
		if i == 0 || size > maxSize {
			maxSize = size
		}
		if i == 0 || size < minSize {
			minSize = size
		}
	}
	if spread := maxSize - minSize; spread > 1 {
		t.Fatalf("runnable-list-size spread after Balance = %d, want <= 1 (max=%d min=%d)", spread, maxSize, minSize)
	}
}

// TestBalanceConverges exercises P9 at its source: fork-time admission with
// Config.Balance enabled keeps every CPU's admitted_process_count within
// one of the mean, with no on-demand Balance() call needed.
func TestBalanceConverges(t *testing.T) {
	k := bootTestKernel(t, Config{NCPU: 4, Balance: true})
	init := k.Init()

	for i := 0; i < 23; i++ {
		if _, err := k.Fork(init); err != nil {
			t.Fatalf("Fork #%d: %s", i, err)
		}
	}

	var maxAdm, minAdm int64
	for i, c := range k.CPUs() {
		adm := c.Admitted()
		if i == 0 || adm > maxAdm {
			maxAdm = adm
		}
		if i == 0 || adm < minAdm {
			minAdm = adm
		}
	}
	if spread := maxAdm - minAdm; spread > 1 {
		t.Fatalf("admitted-count spread with Balance admission = %d, want <= 1 (max=%d min=%d)", spread, maxAdm, minAdm)
	}
}

func TestCPUProcessCountOutOfRange(t *testing.T) {
	k := bootTestKernel(t, Config{NCPU: 1})
	if _, err := k.CPUProcessCount(5); err == nil {
		t.Fatal("CPUProcessCount with an out-of-range index succeeded, want errOutOfRange")
	}
}
