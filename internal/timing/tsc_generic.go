//go:build !amd64

package timing

import "time"

// genericEpoch anchors the fallback counter. Monotonic nanoseconds stand
// in for cycles on architectures without assembly support.
var genericEpoch = time.Now()

func readCycles() uint64 {
	return uint64(time.Since(genericEpoch).Nanoseconds())
}

// CPUID is the x86 feature enumeration instruction; other architectures
// report all zeroes.
func CPUID(leaf, sub uint32) (eax, ebx, ecx, edx uint32) {
	return 0, 0, 0, 0
}

// CPUIDTrap has no equivalent unconditional-exit instruction here, so the
// returned trap is a no-op and measurements carry no virtualization signal.
func CPUIDTrap(leaf uint32) Trap {
	return NopTrap
}

func TrapSupported() bool {
	return false
}
