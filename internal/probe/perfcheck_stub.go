//go:build !linux

package probe

import (
	"fmt"

	"vmprobe/internal/timing"
)

func perfCyclesPerTrap(cpu int, trap timing.Trap, iterations uint32) (uint64, error) {
	return 0, fmt.Errorf("perf events are not supported on this platform")
}
