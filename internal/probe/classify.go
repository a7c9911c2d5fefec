package probe

import "math"

// ratioFailSentinel is the metric assigned when the baseline is zero: a
// counter that did not tick during a full calibration interval cannot be
// real hardware, so the verdict saturates to fail.
const ratioFailSentinel = math.MaxUint64

// RatioMetric normalizes sampled trap overhead against the calibrated
// baseline: scale*total/baseline. Integer arithmetic only; scale keeps the
// quotient out of fractional-loss territory.
func RatioMetric(scale, total, baseline uint64) uint64 {
	if baseline == 0 {
		return ratioFailSentinel
	}
	return scale * total / baseline
}

// ClassifyRatio produces the verdict for an overhead-ratio source: trap
// instructions should be cheap relative to baseline on bare metal, so the
// source fails when the metric exceeds its threshold.
func ClassifyRatio(source string, baseline, total, scale, threshold uint64) Verdict {
	metric := RatioMetric(scale, total, baseline)
	return Verdict{
		Source: source,
		Metric: metric,
		Failed: metric > threshold,
	}
}

// ClassifyDelta produces the verdict for an activity-counter source: the
// counter should advance substantially across a trap on real hardware, so
// the source fails when the raw delta falls below its threshold. Many
// hypervisors leave the counter unimplemented and it reads stuck or zero.
func ClassifyDelta(source string, delta, threshold uint64) Verdict {
	return Verdict{
		Source: source,
		Metric: delta,
		Failed: delta < threshold,
	}
}

// SkippedVerdict records a source whose constructor failed; the run
// continues with the remaining sources.
func SkippedVerdict(source, reason string) Verdict {
	return Verdict{
		Source:     source,
		Skipped:    true,
		SkipReason: reason,
	}
}
