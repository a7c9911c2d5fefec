package probe

import "time"

// Source identifiers as they appear in verdict lines.
const (
	SourceCycle       = "rdtsc"
	SourceTimestamp   = "msr_tsc"
	SourcePerfCounter = "msr_aperf"
)

// Verdict is the terminal classification for one timing source. It is the
// only probe entity handed to the reporter.
type Verdict struct {
	Source  string `json:"source"`
	Metric  uint64 `json:"metric"`
	Failed  bool   `json:"failed"`
	Skipped bool   `json:"skipped,omitempty"`

	// Skipped verdicts carry the reason the source never ran.
	SkipReason string `json:"skip_reason,omitempty"`
}

// Status returns the literal token for the verdict line.
func (v Verdict) Status() string {
	switch {
	case v.Skipped:
		return "skipped"
	case v.Failed:
		return "fail"
	default:
		return "ok"
	}
}

// Result aggregates one detection run. It is returned by value from the
// detector; there is no process-wide results record.
type Result struct {
	ProbeName string `json:"probe_name"`
	TargetCPU int    `json:"target_cpu"`

	// Isolation layer status
	Isolated       bool   `json:"isolated"`
	Elevated       bool   `json:"elevated"`
	IsolationError string `json:"isolation_error,omitempty"`

	Verdicts []Verdict `json:"verdicts"`

	// Advisory perf-event cross-check, cycles per trapped iteration.
	// Nil when the cross-check was disabled or unavailable.
	PerfCyclesPerTrap *uint64 `json:"perf_cycles_per_trap,omitempty"`

	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}

// Detected reports whether any source classified the environment as
// virtualized. Skipped sources do not count.
func (r *Result) Detected() bool {
	for _, v := range r.Verdicts {
		if !v.Skipped && v.Failed {
			return true
		}
	}
	return false
}
