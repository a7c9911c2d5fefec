package report

import (
	"vmprobe/internal/logging"
	"vmprobe/internal/probe"

	"github.com/sirupsen/logrus"
)

// Reporter turns a finished Result into log lines: one per timing source
// plus the isolation status. It is the only consumer of a Result.
type Reporter struct {
	logger *logrus.Logger
}

func NewReporter() *Reporter {
	return &Reporter{logger: logging.GetProbeLogger()}
}

// NewReporterWithLogger allows routing verdict lines elsewhere, mainly for
// tests.
func NewReporterWithLogger(logger *logrus.Logger) *Reporter {
	return &Reporter{logger: logger}
}

func (r *Reporter) Report(res *probe.Result) {
	if !res.Isolated {
		r.logger.WithField("error", res.IsolationError).Error("No measurements taken, failed to isolate a processor")
		return
	}

	for _, v := range res.Verdicts {
		entry := r.logger.WithFields(logrus.Fields{
			"source":  v.Source,
			"metric":  v.Metric,
			"verdict": v.Status(),
		})

		if v.Skipped {
			entry.WithField("reason", v.SkipReason).Warnf("%s: skipped", v.Source)
			continue
		}

		entry.Infof("%s: %d (%s)", v.Source, v.Metric, v.Status())
	}

	if res.PerfCyclesPerTrap != nil {
		r.logger.WithField("cycles_per_trap", *res.PerfCyclesPerTrap).Info("Perf event cross-check")
	}

	fields := logrus.Fields{
		"probe":      res.ProbeName,
		"target_cpu": res.TargetCPU,
		"elevated":   res.Elevated,
		"duration":   res.Finished.Sub(res.Started).Round(0).String(),
	}
	if res.Detected() {
		r.logger.WithFields(fields).Warn("Virtualization detected")
	} else {
		r.logger.WithFields(fields).Info("No virtualization detected")
	}
}
