//go:build amd64

package timing

// rdtsc reads the time stamp counter behind a load fence so the read is
// not reordered above preceding instructions.
// Implemented in tsc_amd64.s
//
//go:noescape
func rdtsc() uint64

//go:noescape
func cpuidRaw(leaf, sub uint32) (eax, ebx, ecx, edx uint32)

func readCycles() uint64 {
	return rdtsc()
}

// CPUID executes the CPUID instruction for the given leaf and subleaf.
func CPUID(leaf, sub uint32) (eax, ebx, ecx, edx uint32) {
	return cpuidRaw(leaf, sub)
}

// CPUIDTrap returns a Trap issuing CPUID on the given leaf. CPUID causes
// an unconditional exit under VMX and SVM, which is what makes it the
// measurement subject.
func CPUIDTrap(leaf uint32) Trap {
	return func() {
		cpuidRaw(leaf, 0)
	}
}

// TrapSupported reports whether the exit-forcing instruction exists on
// this architecture.
func TrapSupported() bool {
	return true
}
