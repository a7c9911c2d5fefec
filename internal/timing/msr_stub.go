//go:build !linux

package timing

import "fmt"

const (
	MSRTimeStampCounter = 0x10
	MSRMperf            = 0xE7
	MSRAperf            = 0xE8
)

// MSRSource is only reachable through the Linux msr device; elsewhere the
// constructor fails and the detector records the source as skipped.
type MSRSource struct {
	name string
}

func OpenMSRSource(name, pathTemplate string, cpu int, msr int64, shift uint) (*MSRSource, error) {
	return nil, fmt.Errorf("msr device access is not supported on this platform")
}

func (s *MSRSource) Name() string {
	return s.name
}

func (s *MSRSource) Read() uint64 {
	return 0
}

func (s *MSRSource) Close() error {
	return nil
}
