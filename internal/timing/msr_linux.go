//go:build linux

package timing

import (
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Architectural MSR indices (Intel SDM volume 4).
const (
	MSRTimeStampCounter = 0x10
	MSRMperf            = 0xE7
	MSRAperf            = 0xE8
)

// MSRSource reads a model specific register through the Linux msr device.
// Opening the device needs root and the msr kernel module; the per-CPU
// device node keeps the read on the measurement processor.
type MSRSource struct {
	name  string
	file  *os.File
	msr   int64
	shift uint
}

// OpenMSRSource opens the msr device for the given CPU. pathTemplate is a
// printf template taking the CPU index, normally "/dev/cpu/%d/msr".
func OpenMSRSource(name, pathTemplate string, cpu int, msr int64, shift uint) (*MSRSource, error) {
	path := fmt.Sprintf(pathTemplate, cpu)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening msr device %s: %w", path, err)
	}

	return &MSRSource{name: name, file: file, msr: msr, shift: shift}, nil
}

func (s *MSRSource) Name() string {
	return s.name
}

// Read returns the register value shifted left by the configured amount.
// A failed read surfaces as zero: a stuck-at-zero counter is a verdict
// signal, not a fault.
func (s *MSRSource) Read() uint64 {
	var buf [8]byte
	n, err := unix.Pread(int(s.file.Fd()), buf[:], s.msr)
	if err != nil || n != len(buf) {
		return 0
	}
	return binary.LittleEndian.Uint64(buf[:]) << s.shift
}

func (s *MSRSource) Close() error {
	return s.file.Close()
}
