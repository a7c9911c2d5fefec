package probe

import (
	"time"

	"vmprobe/internal/config"
	"vmprobe/internal/host"
	"vmprobe/internal/isolation"
	"vmprobe/internal/logging"
	"vmprobe/internal/timing"

	"github.com/sirupsen/logrus"
)

// CPUID leaves issued by the traps. The thresholds were calibrated with
// leaf 0 inside the ratio loops and leaf 1 for the activity bracket.
const (
	trapLeafRatio = 0
	trapLeafDelta = 1
)

// APERF reads are widened by 32 bits before differencing; the absolute
// threshold is calibrated against the widened delta.
const aperfShift = 32

// Detector runs the full detection sequence: claim a processor once,
// measure each enabled timing source, release, return the aggregate.
type Detector struct {
	cfg     *config.ProbeConfig
	env     isolation.Environment
	hostCfg *host.HostConfig
	logger  *logrus.Logger
}

func NewDetector(cfg *config.ProbeConfig, env isolation.Environment, hostCfg *host.HostConfig) *Detector {
	return &Detector{
		cfg:     cfg,
		env:     env,
		hostCfg: hostCfg,
		logger:  logging.GetLogger(),
	}
}

// Run executes the single linear measurement sequence. The only fatal
// condition is isolation acquisition failure, which short-circuits every
// pass; the result still reaches the reporter carrying the diagnostic.
func (d *Detector) Run() *Result {
	result := &Result{
		ProbeName: d.cfg.Probe.Name,
		TargetCPU: -1,
		Started:   time.Now(),
	}
	defer func() {
		result.Finished = time.Now()
	}()

	cpu := d.cfg.Probe.TargetCPU
	if cpu < 0 {
		var err error
		cpu, err = d.hostCfg.TargetCPU()
		if err != nil {
			result.IsolationError = err.Error()
			d.logger.WithError(err).Error("Failed to resolve measurement processor")
			return result
		}
	}
	result.TargetCPU = cpu

	ctx, err := isolation.Acquire(d.env, cpu)
	if err != nil {
		result.IsolationError = err.Error()
		d.logger.WithError(err).Error("Failed to acquire measurement processor")
		return result
	}
	defer ctx.Release()

	result.Isolated = true
	result.Elevated = ctx.Elevated

	d.logger.WithFields(logrus.Fields{
		"target_cpu": cpu,
		"elevated":   ctx.Elevated,
		"iterations": d.cfg.Probe.Iterations,
	}).Info("Measurement processor acquired")

	interval := d.cfg.GetCalibrationInterval()
	iterations := d.cfg.Probe.Iterations
	scale := d.cfg.Probe.Scale

	if d.cfg.Sources.Cycle.Enabled {
		src := timing.NewCycleCounter()
		baseline := Calibrate(src, interval)
		total := Sample(src, timing.CPUIDTrap(trapLeafRatio), iterations)
		result.Verdicts = append(result.Verdicts,
			ClassifyRatio(SourceCycle, baseline, total, scale, d.cfg.Sources.Cycle.Threshold))
	}

	if d.cfg.Sources.Timestamp.Enabled {
		src, err := timing.OpenMSRSource(SourceTimestamp, d.cfg.Probe.MSRDevicePath, cpu, timing.MSRTimeStampCounter, 0)
		if err != nil {
			d.logger.WithError(err).Warn("Timestamp register source unavailable, skipping")
			result.Verdicts = append(result.Verdicts, SkippedVerdict(SourceTimestamp, err.Error()))
		} else {
			baseline := Calibrate(src, interval)
			total := Sample(src, timing.CPUIDTrap(trapLeafRatio), iterations)
			src.Close()
			result.Verdicts = append(result.Verdicts,
				ClassifyRatio(SourceTimestamp, baseline, total, scale, d.cfg.Sources.Timestamp.Threshold))
		}
	}

	if d.cfg.Sources.PerfCounter.Enabled {
		src, err := timing.OpenMSRSource(SourcePerfCounter, d.cfg.Probe.MSRDevicePath, cpu, timing.MSRAperf, aperfShift)
		if err != nil {
			d.logger.WithError(err).Warn("Performance counter source unavailable, skipping")
			result.Verdicts = append(result.Verdicts, SkippedVerdict(SourcePerfCounter, err.Error()))
		} else {
			// Single bracketed trap: the activity counter is too coarse
			// for the ratio loop, its absolute delta is the signal.
			delta := SampleOnce(src, timing.CPUIDTrap(trapLeafDelta))
			src.Close()
			result.Verdicts = append(result.Verdicts,
				ClassifyDelta(SourcePerfCounter, delta, d.cfg.Sources.PerfCounter.Threshold))
		}
	}

	if d.cfg.Probe.PerfCrossCheck {
		cycles, err := perfCyclesPerTrap(cpu, timing.CPUIDTrap(trapLeafRatio), iterations)
		if err != nil {
			d.logger.WithError(err).Warn("Perf event cross-check unavailable")
		} else {
			result.PerfCyclesPerTrap = &cycles
		}
	}

	return result
}
