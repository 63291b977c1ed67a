package main

import (
	"fmt"

	"github.com/arctir/nucleus/kernel"
)

// bootDemoKernel boots a fresh in-memory kernel with opts.ncpu CPUs (0 means
// detect the host's) and a fixed demo initcode blob, then immediately
// stops its scheduler loops. Every demo command below drives the kernel
// deterministically afterward via Dispatch/Fork/Exit/Sleep/Wakeup rather
// than racing a live scheduler goroutine — the same discipline
// kernel.Dispatch exists for in tests. serve is the only command that keeps
// the scheduler running, and boots separately.
func bootDemoKernel(opts nucleusctlOpts) (*kernel.Kernel, error) {
	k := kernel.NewKernel(kernel.Config{NCPU: opts.ncpu})
	if err := k.Boot([]byte("nucleusctl-demo-init")); err != nil {
		return nil, fmt.Errorf("failed booting demo kernel: %s", err)
	}
	k.Shutdown()
	return k, nil
}

