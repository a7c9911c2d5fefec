package timing

// Source is a monotonic tick counter readable from privileged code.
// Reads never fail; a counter the platform does not implement reads as
// zero, which the classifier treats as data rather than as an error.
type Source interface {
	Name() string
	Read() uint64
}

// Trap executes an instruction that forces a transition to the hosting
// hypervisor when virtualized and is near-free on bare hardware.
type Trap func()

// NopTrap does nothing. Measurement loops run against it to establish
// behavior without the exit-forcing instruction.
func NopTrap() {}

// CycleCounter is the free-running cycle counter source.
type CycleCounter struct{}

func NewCycleCounter() CycleCounter {
	return CycleCounter{}
}

func (CycleCounter) Name() string {
	return "rdtsc"
}

func (CycleCounter) Read() uint64 {
	return readCycles()
}
