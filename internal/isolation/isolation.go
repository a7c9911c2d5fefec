package isolation

import (
	"errors"
	"fmt"
	"runtime"

	"vmprobe/internal/logging"
)

// ErrNoProcessorAvailable is the single fatal failure of a probe run: the
// measurement processor could not be resolved or claimed. Everything else
// that goes wrong during measurement is data, not an error.
var ErrNoProcessorAvailable = errors.New("no measurement processor available")

// Environment is the platform seam for claiming a processor. Pin moves the
// calling thread onto one logical CPU, saving the prior affinity; Elevate
// moves the thread as close to non-preemptible as the platform allows;
// Restore undoes both.
type Environment interface {
	Pin(cpu int) error
	Elevate() error
	Restore() error
}

// Context tracks one claimed measurement processor. No calibration or
// sampling may run outside an active Context.
type Context struct {
	TargetCPU int
	Elevated  bool

	env      Environment
	released bool
}

// Acquire locks the calling goroutine to its OS thread, pins the thread to
// the target CPU and raises its scheduling priority. Callers must release
// the context on every exit path.
func Acquire(env Environment, cpu int) (*Context, error) {
	if cpu < 0 {
		return nil, ErrNoProcessorAvailable
	}

	runtime.LockOSThread()

	if err := env.Pin(cpu); err != nil {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("%w: pinning CPU %d: %v", ErrNoProcessorAvailable, cpu, err)
	}

	ctx := &Context{TargetCPU: cpu, env: env, Elevated: true}

	if err := env.Elevate(); err != nil {
		// Measurements still run pinned, just with more scheduler jitter.
		ctx.Elevated = false
		logging.GetLogger().WithError(err).Warn("Failed to raise scheduling priority, measurements may be noisy")
	}

	return ctx, nil
}

// Release restores priority and affinity and unlocks the thread. Safe to
// call more than once.
func (c *Context) Release() {
	if c == nil || c.released {
		return
	}
	c.released = true

	if err := c.env.Restore(); err != nil {
		logging.GetLogger().WithError(err).Warn("Failed to restore scheduling state")
	}
	runtime.UnlockOSThread()
}

// Active reports whether the context still holds the processor.
func (c *Context) Active() bool {
	return c != nil && !c.released
}
