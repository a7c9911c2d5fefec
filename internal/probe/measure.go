package probe

import (
	"time"

	"vmprobe/internal/timing"
)

// Calibrate establishes the source's natural tick rate over the given
// interval with no trap issued: read, block, read, difference. The sleep
// is coarse; the classifier works on ratios, so baseline jitter is
// tolerated. Must run inside an active isolation context.
func Calibrate(src timing.Source, interval time.Duration) uint64 {
	start := src.Read()
	time.Sleep(interval)
	return src.Read() - start
}

// Sample brackets the trap with tick reads for the given iteration count
// and accumulates the total elapsed ticks. Every sample is summed, no
// outlier rejection: an occasional expensive exit must stay visible in the
// aggregate. Must run inside an active isolation context.
func Sample(src timing.Source, trap timing.Trap, iterations uint32) uint64 {
	var total uint64
	for i := uint32(0); i < iterations; i++ {
		start := src.Read()
		trap()
		total += src.Read() - start
	}
	return total
}

// SampleOnce brackets a single trap invocation and returns the raw delta.
// Used for the activity counter, which is too coarse for the ratio loop.
func SampleOnce(src timing.Source, trap timing.Trap) uint64 {
	start := src.Read()
	trap()
	return src.Read() - start
}
