package hostinfo

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleCPUInfo = `processor	: 0
vendor_id	: GenuineIntel
model name	: Test CPU @ 2.00GHz

processor	: 1
vendor_id	: GenuineIntel
model name	: Test CPU @ 2.00GHz

processor	: 2
vendor_id	: GenuineIntel
model name	: Test CPU @ 2.00GHz

processor	: 3
vendor_id	: GenuineIntel
model name	: Test CPU @ 2.00GHz

processor	: 4
vendor_id	: GenuineIntel
model name	: Test CPU @ 2.00GHz

processor	: 5
vendor_id	: GenuineIntel
model name	: Test CPU @ 2.00GHz

processor	: 6
vendor_id	: GenuineIntel
model name	: Test CPU @ 2.00GHz

processor	: 7
vendor_id	: GenuineIntel
model name	: Test CPU @ 2.00GHz
`

func TestGetHardware(t *testing.T) {
	procDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(procDir, CPUInfoFilePath), []byte(sampleCPUInfo), 0o644); err != nil {
		t.Fatalf("failed writing mock cpuinfo: %s", err)
	}

	lr := NewLinuxReader(LinuxReaderConfig{ProcDirPath: procDir})
	hw, err := lr.GetHardware()
	if err != nil {
		t.Fatalf("GetHardware failed: %s", err)
	}
	if hw.CPU.CPUCount != 8 {
		t.Errorf("CPUCount = %d, want %d", hw.CPU.CPUCount, 8)
	}
}

func TestGetHostID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "machine-id")
	if err := os.WriteFile(path, []byte("abc123xyz"), 0o644); err != nil {
		t.Fatalf("failed writing mock machine-id: %s", err)
	}

	lr := NewLinuxReader(LinuxReaderConfig{MachineIDPath: path})
	id, err := lr.GetHostID()
	if err != nil {
		t.Fatalf("GetHostID failed: %s", err)
	}
	const want = "abc123xyz"
	if id != want {
		t.Errorf("GetHostID = %q, want %q", id, want)
	}
}

func TestGetHostIDMissingFile(t *testing.T) {
	lr := NewLinuxReader(LinuxReaderConfig{MachineIDPath: filepath.Join(t.TempDir(), "missing")})
	if _, err := lr.GetHostID(); err == nil {
		t.Errorf("GetHostID: expected error for missing machine-id file, got nil")
	}
}

func TestSanitizeOSVersion(t *testing.T) {
	cases := map[string]string{
		`"22.04.1 LTS"`: "22.04.1 LTS",
		"22.04.1 LTS":   "22.04.1 LTS",
		`"ubuntu"`:      "ubuntu",
	}
	for in, want := range cases {
		if got := sanitizeOSVersion(in); got != want {
			t.Errorf("sanitizeOSVersion(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseOSRelease(t *testing.T) {
	data := []byte("ID=ubuntu\nVERSION=\"22.04.1 LTS\"\nNOT_A_PAIR\n")
	got := parseOSRelease(data)
	if got["ID"] != "ubuntu" {
		t.Errorf("parseOSRelease ID = %q, want ubuntu", got["ID"])
	}
	if got["VERSION"] != `"22.04.1 LTS"` {
		t.Errorf("parseOSRelease VERSION = %q, want quoted literal", got["VERSION"])
	}
	if _, ok := got["NOT_A_PAIR"]; ok {
		t.Error("parseOSRelease should skip lines with no '=' pair")
	}
}

func TestDescribeFallsBackToUnknown(t *testing.T) {
	// A procDir and machineIDPath that don't exist: the kernel and host-id
	// lookups miss, GetHardware falls back to a zero CPUInfo, and Describe
	// must still return a populated Summary instead of erroring. GetOS reads
	// the fixed /etc/os-release path, so its result depends on the host and
	// is not checked here.
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	lr := NewLinuxReader(LinuxReaderConfig{ProcDirPath: missing, MachineIDPath: missing})

	s := lr.Describe()
	if s.HostID != UnknownKey {
		t.Errorf("Describe().HostID = %q, want %q", s.HostID, UnknownKey)
	}
	if s.Kernel.Version != UnknownKey {
		t.Errorf("Describe().Kernel.Version = %q, want %q", s.Kernel.Version, UnknownKey)
	}
	if s.Hardware.CPU.CPUCount != 0 {
		t.Errorf("Describe().Hardware.CPU.CPUCount = %d, want 0", s.Hardware.CPU.CPUCount)
	}
}
