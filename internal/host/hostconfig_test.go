package host

import (
	"fmt"
	"strings"
	"testing"
)

func TestParseCPUInfo(t *testing.T) {
	cpuinfo := `processor	: 0
vendor_id	: GenuineIntel
cpu family	: 6
model		: 85
model name	: Intel(R) Xeon(R) Gold 6230 CPU @ 2.10GHz
processor	: 1
vendor_id	: GenuineIntel
model name	: Intel(R) Xeon(R) Gold 6230 CPU @ 2.10GHz
`

	vendor, model, threads := parseCPUInfo(strings.NewReader(cpuinfo))
	if vendor != "GenuineIntel" {
		t.Errorf("expected GenuineIntel, got %q", vendor)
	}
	if model != "Intel(R) Xeon(R) Gold 6230 CPU @ 2.10GHz" {
		t.Errorf("unexpected model %q", model)
	}
	if threads != 2 {
		t.Errorf("expected 2 processor entries, got %d", threads)
	}
}

func TestParseCPUInfoMissingFields(t *testing.T) {
	vendor, model, threads := parseCPUInfo(strings.NewReader("processor\t: 0\n"))
	if vendor != "unknown" || model != "unknown" {
		t.Errorf("expected unknown/unknown, got %q/%q", vendor, model)
	}
	if threads != 1 {
		t.Errorf("expected 1 processor entry, got %d", threads)
	}
}

func TestParseCPUInfoCountsAllProcessors(t *testing.T) {
	// The processor entries are the system enumeration; the count must
	// not depend on which CPUs the process is allowed to run on.
	var b strings.Builder
	for i := 0; i < 48; i++ {
		fmt.Fprintf(&b, "processor\t: %d\nvendor_id\t: GenuineIntel\n", i)
	}

	_, _, threads := parseCPUInfo(strings.NewReader(b.String()))
	if threads != 48 {
		t.Errorf("expected 48 processor entries, got %d", threads)
	}
}

func TestDecodeVendor(t *testing.T) {
	cases := []struct {
		name    string
		b, c, d uint32
		want    string
	}{
		// "KVMKVMKVM\0\0\0"
		{"kvm", 0x4b4d564b, 0x564b4d56, 0x0000004d, "KVMKVMKVM"},
		// "VMwareVMware"
		{"vmware", 0x61774d56, 0x4d566572, 0x65726177, "VMwareVMware"},
		{"empty", 0, 0, 0, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := decodeVendor(tc.b, tc.c, tc.d); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestTargetCPUIsLastThread(t *testing.T) {
	hc := &HostConfig{TotalThreads: 8}

	cpu, err := hc.TargetCPU()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cpu != 7 {
		t.Errorf("expected CPU 7, got %d", cpu)
	}
}

func TestTargetCPUUnresolvable(t *testing.T) {
	hc := &HostConfig{TotalThreads: 0}

	if _, err := hc.TargetCPU(); err == nil {
		t.Fatalf("expected error when processor count is unknown")
	}
}
