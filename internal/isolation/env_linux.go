//go:build linux

package isolation

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

type schedParam struct {
	Priority int32
}

// fifoPriority is the maximum priority for SCHED_FIFO on Linux.
const fifoPriority = 99

// linuxEnvironment pins via sched_setaffinity and elevates the thread to
// max-priority SCHED_FIFO. Interrupt masking is kernel-only; a FIFO thread
// at priority 99 on an otherwise idle CPU is the closest a user process
// gets to an uninterrupted timeline.
type linuxEnvironment struct {
	tid        int
	prevSet    unix.CPUSet
	prevPolicy int
	prevParam  schedParam
	pinned     bool
	elevated   bool
}

// NewEnvironment returns the Linux privileged environment.
func NewEnvironment() Environment {
	return &linuxEnvironment{}
}

func (e *linuxEnvironment) Pin(cpu int) error {
	e.tid = unix.Gettid()

	if err := unix.SchedGetaffinity(0, &e.prevSet); err != nil {
		return fmt.Errorf("reading thread affinity: %w", err)
	}

	var set unix.CPUSet
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("pinning thread to CPU %d: %w", cpu, err)
	}

	e.pinned = true
	return nil
}

func (e *linuxEnvironment) Elevate() error {
	policy, _, errno := unix.Syscall(unix.SYS_SCHED_GETSCHEDULER, uintptr(e.tid), 0, 0)
	if errno != 0 {
		return fmt.Errorf("reading scheduler policy: %w", errno)
	}
	e.prevPolicy = int(policy)

	if _, _, errno := unix.Syscall(unix.SYS_SCHED_GETPARAM, uintptr(e.tid), uintptr(unsafe.Pointer(&e.prevParam)), 0); errno != 0 {
		return fmt.Errorf("reading scheduler params: %w", errno)
	}

	param := schedParam{Priority: fifoPriority}
	if _, _, errno := unix.Syscall(unix.SYS_SCHED_SETSCHEDULER, uintptr(e.tid), unix.SCHED_FIFO, uintptr(unsafe.Pointer(&param))); errno != 0 {
		return fmt.Errorf("switching to SCHED_FIFO: %w", errno)
	}

	e.elevated = true
	return nil
}

func (e *linuxEnvironment) Restore() error {
	var firstErr error

	if e.elevated {
		if _, _, errno := unix.Syscall(unix.SYS_SCHED_SETSCHEDULER, uintptr(e.tid), uintptr(e.prevPolicy), uintptr(unsafe.Pointer(&e.prevParam))); errno != 0 {
			firstErr = fmt.Errorf("restoring scheduler policy: %w", errno)
		}
		e.elevated = false
	}

	if e.pinned {
		if err := unix.SchedSetaffinity(0, &e.prevSet); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("restoring thread affinity: %w", err)
		}
		e.pinned = false
	}

	return firstErr
}
