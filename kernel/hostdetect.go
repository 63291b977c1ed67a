package kernel

import (
	"runtime"

	"github.com/arctir/nucleus/hostinfo"
)

// DetectNCPU asks hostinfo for the real machine's processor count (via
// /proc/cpuinfo on Linux) and falls back to runtime.NumCPU() when hostinfo
// can't resolve it — e.g. non-Linux hosts, or a sandboxed environment
// without /proc. NewKernel calls this when Config.NCPU is left at 0, so the
// number of simulated per-CPU schedulers tracks the host it's demoed on.
func DetectNCPU() int {
	lr := hostinfo.NewLinuxReader(hostinfo.LinuxReaderConfig{})
	hw, err := lr.GetHardware()
	if err != nil || hw.CPU.CPUCount < 1 {
		return runtime.NumCPU()
	}
	return hw.CPU.CPUCount
}
