//go:build linux

package probe

import (
	"fmt"

	"vmprobe/internal/timing"

	"github.com/elastic/go-perf"
)

// perfCyclesPerTrap counts hardware cycles across the trap loop through a
// perf event pinned to the measurement CPU. Advisory only: kernels and
// hypervisors virtualize the PMU very differently, so the figure is
// reported but never classified.
func perfCyclesPerTrap(cpu int, trap timing.Trap, iterations uint32) (uint64, error) {
	if iterations == 0 {
		return 0, fmt.Errorf("iteration count must be positive")
	}

	attr := &perf.Attr{}
	perf.CPUCycles.Configure(attr)
	attr.CountFormat.Enabled = true
	attr.CountFormat.Running = true

	event, err := perf.Open(attr, perf.CallingThread, cpu, nil)
	if err != nil {
		return 0, fmt.Errorf("opening cycle counter event: %w", err)
	}
	defer event.Close()

	if err := event.Enable(); err != nil {
		return 0, fmt.Errorf("enabling cycle counter event: %w", err)
	}

	before, err := event.ReadCount()
	if err != nil {
		return 0, fmt.Errorf("reading cycle counter: %w", err)
	}

	for i := uint32(0); i < iterations; i++ {
		trap()
	}

	after, err := event.ReadCount()
	if err != nil {
		return 0, fmt.Errorf("reading cycle counter: %w", err)
	}

	return uint64(after.Value-before.Value) / uint64(iterations), nil
}
