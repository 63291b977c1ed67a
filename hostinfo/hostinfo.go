// Package hostinfo gathers details about the machine nucleus's simulated
// kernel is running on top of. kernel.DetectNCPU calls it whenever a kernel
// is created with Config.NCPU left at 0 (sizing the number of per-CPU
// scheduler goroutines); the OS/kernel/host-id
// lookups back nucleusctl's provenance panel, a best-effort "what machine
// built/ran this" label alongside the git commit hash.
package hostinfo

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

const (
	DefaultMachineIDPath = "/etc/machine-id"
	DefaultProcRoot      = "/proc"
	OSReleaseFilePath    = "/etc/os-release"
	OSKernelFilePath     = "sys/kernel/osrelease"
	CPUInfoFilePath      = "cpuinfo"
	UnknownKey           = "unknown"
)

// OS identifies the distribution nucleus is running under.
type OS struct {
	Name    string
	Version string
}

// Kernel identifies the host operating-system kernel underneath nucleus's
// own simulated one — not to be confused with the nucleus kernel package,
// which this panel is describing the substrate for.
type Kernel struct {
	Type    string
	Version string
}

// Hardware describes the CPU nucleus sizes kernel.Config.NCPU from.
type Hardware struct {
	CPU          CPUInfo
	Architecture string
}

// CPUInfo reports processor count as seen by the host.
type CPUInfo struct {
	CPUCount int
}

// Summary is the aggregated, best-effort view nucleusctl's provenance
// panel renders: every field that could not be resolved falls back to
// UnknownKey (or zero, for CPUCount) rather than failing the whole lookup,
// since a sandboxed or non-Linux host may be missing any one of
// /etc/os-release, /proc, or /etc/machine-id independently.
type Summary struct {
	OS       OS
	Kernel   Kernel
	Hardware Hardware
	HostID   string
}

// Reader defines the actions available for retrieving information about a
// host nucleus is running on.
type Reader interface {
	// GetOS retrieves operating-system details.
	GetOS() (*OS, error)
	// GetKernel retrieves host kernel details.
	GetKernel() (*Kernel, error)
	// GetHardware retrieves hardware-level details — or, in the case of a
	// virtual machine, whatever is exposed to the guest.
	GetHardware() (*Hardware, error)
	// GetHostID retrieves a unique identifier for the host.
	GetHostID() (string, error)
	// Describe aggregates GetOS/GetKernel/GetHardware/GetHostID into a
	// single best-effort Summary for display.
	Describe() Summary
}

// LinuxReader is the Linux-specific implementation of [Reader].
type LinuxReader struct {
	procDir       string
	machineIDPath string
}

type LinuxReaderConfig struct {
	ProcDirPath   string
	MachineIDPath string
}

func NewLinuxReader(conf LinuxReaderConfig) LinuxReader {
	if conf.ProcDirPath == "" {
		conf.ProcDirPath = DefaultProcRoot
	}
	if conf.MachineIDPath == "" {
		conf.MachineIDPath = DefaultMachineIDPath
	}
	return LinuxReader{
		procDir:       conf.ProcDirPath,
		machineIDPath: conf.MachineIDPath,
	}
}

// GetOS looks up the distribution name and version from /etc/os-release,
// per the [freedesktop specification]. Quoted VERSION/ID values (e.g.
// VERSION="22.04.1 LTS") are unquoted before returning.
//
// [freedesktop specification]: https://www.freedesktop.org/software/systemd/man/os-release.html
func (h *LinuxReader) GetOS() (*OS, error) {
	releaseFileData, err := os.ReadFile(OSReleaseFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed locating OS details at %s: %s", OSReleaseFilePath, err)
	}

	fields := parseOSRelease(releaseFileData)
	return &OS{
		Name:    sanitizeOSVersion(fields["ID"]),
		Version: sanitizeOSVersion(fields["VERSION"]),
	}, nil
}

// GetKernel retrieves the host kernel's release string from
// /proc/sys/kernel/osrelease.
func (h *LinuxReader) GetKernel() (*Kernel, error) {
	kernelFilePath := filepath.Join(h.procDir, OSKernelFilePath)
	kernelFileData, err := os.ReadFile(kernelFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed getting kernel version from %s: %s", kernelFilePath, err)
	}
	return &Kernel{
		Type:    "Linux",
		Version: strings.TrimSpace(string(kernelFileData)),
	}, nil
}

func (h *LinuxReader) GetHardware() (*Hardware, error) {
	return &Hardware{
		CPU:          h.getCPUInfo(),
		Architecture: getArch(),
	}, nil
}

// GetHostID provides a unique identifier representing the host, read from
// /etc/machine-id. If an ID is unable to be resolved, an error is returned.
func (h *LinuxReader) GetHostID() (string, error) {
	midBytes, err := os.ReadFile(h.machineIDPath)
	if err != nil {
		return "", fmt.Errorf("failed resolving machine ID: %s", err)
	}
	id := strings.TrimSpace(string(midBytes))
	if id == "" {
		return "", fmt.Errorf("failed resolving machine ID: %s present but empty", h.machineIDPath)
	}
	return id, nil
}

// getCPUInfo counts "processor" lines in /proc/cpuinfo. kernel.DetectNCPU
// sizes the number of simulated per-CPU scheduler goroutines from it, and
// Describe reports it on the provenance panel.
func (h *LinuxReader) getCPUInfo() CPUInfo {
	cpuInfoPath := filepath.Join(h.procDir, CPUInfoFilePath)
	f, err := os.Open(cpuInfoPath)
	if err != nil {
		return CPUInfo{}
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(bufio.NewReader(f))
	for scanner.Scan() {
		kv := strings.SplitN(scanner.Text(), ":", 2)
		if len(kv) != 2 {
			continue
		}
		if strings.TrimSpace(kv[0]) == "processor" {
			count++
		}
	}
	return CPUInfo{CPUCount: count}
}

// getArch is the equivalent of uname -m: the host's machine architecture
// (e.g. x86_64 or aarch64).
func getArch() string {
	var utsname unix.Utsname
	if err := unix.Uname(&utsname); err != nil {
		return UnknownKey
	}
	return strings.TrimRight(string(utsname.Machine[:]), "\x00")
}

// sanitizeOSVersion strips the surrounding double quotes os-release commonly
// wraps ID/VERSION values in (e.g. VERSION="22.04.1 LTS").
func sanitizeOSVersion(version string) string {
	return strings.Trim(version, "\"")
}

// parseOSRelease parses the $KEY=$VALUE syntax of an /etc/os-release file
// into a map.
func parseOSRelease(releaseFileContents []byte) map[string]string {
	scanner := bufio.NewScanner(bytes.NewReader(releaseFileContents))
	osReleaseMap := map[string]string{}
	for scanner.Scan() {
		line := scanner.Text()
		kv := strings.SplitN(line, "=", 2)
		if len(kv) == 2 {
			osReleaseMap[kv[0]] = kv[1]
		}
	}
	return osReleaseMap
}

// Describe aggregates every lookup above into a single best-effort Summary:
// a field that failed to resolve falls back to UnknownKey (or zero, for
// CPUCount) rather than failing the whole panel, since nucleusctl's
// provenance command should still print whatever it could find on a
// sandboxed or non-Linux host.
func (h *LinuxReader) Describe() Summary {
	s := Summary{
		OS:     OS{Name: UnknownKey, Version: UnknownKey},
		Kernel: Kernel{Type: UnknownKey, Version: UnknownKey},
		HostID: UnknownKey,
	}
	if os, err := h.GetOS(); err == nil {
		s.OS = *os
	}
	if k, err := h.GetKernel(); err == nil {
		s.Kernel = *k
	}
	if hw, err := h.GetHardware(); err == nil {
		s.Hardware = *hw
	}
	if id, err := h.GetHostID(); err == nil {
		s.HostID = id
	}
	return s
}
