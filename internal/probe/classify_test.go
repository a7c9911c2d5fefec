package probe

import (
	"math"
	"testing"
)

func TestRatioMetricAgainstKnownValues(t *testing.T) {
	// 10M ticks/sec baseline, 20G ticks across the trapped loop: the trap
	// overhead dwarfs the baseline and the metric lands far beyond any
	// plausible threshold.
	metric := RatioMetric(100000, 20_000_000_000, 10_000_000)
	if metric != 200_000_000 {
		t.Errorf("expected metric 200000000, got %d", metric)
	}

	v := ClassifyRatio(SourceCycle, 10_000_000, 20_000_000_000, 100000, 200)
	if !v.Failed {
		t.Errorf("expected fail verdict for inflated trap overhead")
	}
	if v.Status() != "fail" {
		t.Errorf("expected fail token, got %q", v.Status())
	}
}

func TestRatioMetricCheapTrapPasses(t *testing.T) {
	// Same baseline, 10000 total ticks across the loop: trap cost is
	// negligible next to a second of calibration, the source passes.
	metric := RatioMetric(100000, 10_000, 10_000_000)
	if metric != 100 {
		t.Errorf("expected metric 100, got %d", metric)
	}

	v := ClassifyRatio(SourceCycle, 10_000_000, 10_000, 100000, 200)
	if v.Failed {
		t.Errorf("expected pass verdict for cheap trap, metric %d", v.Metric)
	}
	if v.Status() != "ok" {
		t.Errorf("expected ok token, got %q", v.Status())
	}
}

func TestRatioMetricThresholdBoundary(t *testing.T) {
	// metric == threshold is a pass; only strictly greater fails.
	v := ClassifyRatio(SourceCycle, 100000, 200, 100000, 200)
	if v.Metric != 200 {
		t.Fatalf("expected metric 200, got %d", v.Metric)
	}
	if v.Failed {
		t.Errorf("metric equal to threshold must not fail")
	}

	v = ClassifyRatio(SourceCycle, 100000, 201, 100000, 200)
	if !v.Failed {
		t.Errorf("metric above threshold must fail")
	}
}

func TestRatioMetricZeroBaseline(t *testing.T) {
	// A counter that never ticked during calibration must not divide by
	// zero; the metric saturates and the verdict is fail.
	metric := RatioMetric(100000, 12345, 0)
	if metric != math.MaxUint64 {
		t.Errorf("expected saturated metric, got %d", metric)
	}

	v := ClassifyRatio(SourceTimestamp, 0, 12345, 100000, 300)
	if !v.Failed {
		t.Errorf("expected fail verdict for dead baseline counter")
	}
}

func TestClassifyDeltaActiveCounterPasses(t *testing.T) {
	v := ClassifyDelta(SourcePerfCounter, 50_000, 10_000)
	if v.Failed {
		t.Errorf("expected pass for active counter, metric %d", v.Metric)
	}
}

func TestClassifyDeltaDeadCounterFails(t *testing.T) {
	v := ClassifyDelta(SourcePerfCounter, 0, 10_000)
	if !v.Failed {
		t.Errorf("expected fail for unimplemented counter")
	}

	// Threshold is a lower bound for this direction: equal passes.
	v = ClassifyDelta(SourcePerfCounter, 10_000, 10_000)
	if v.Failed {
		t.Errorf("delta equal to threshold must not fail")
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	first := ClassifyRatio(SourceCycle, 999, 123456, 100000, 200)
	for i := 0; i < 100; i++ {
		again := ClassifyRatio(SourceCycle, 999, 123456, 100000, 200)
		if again != first {
			t.Fatalf("classification diverged: %+v vs %+v", first, again)
		}
	}
}

func TestVerdictStableAcrossIterationCounts(t *testing.T) {
	// Doubling the iteration count doubles the accumulated total; the
	// per-iteration metric and the verdict stay put.
	const scale, baseline, perIteration = uint64(100000), uint64(1_000_000), uint64(400)

	for _, iterations := range []uint64{1000, 2000, 4000} {
		total := perIteration * iterations
		metric := RatioMetric(scale, total, baseline)
		if perIter := metric / iterations; perIter != scale*perIteration/baseline {
			t.Errorf("iterations=%d: per-iteration metric drifted to %d", iterations, perIter)
		}

		v := ClassifyRatio(SourceCycle, baseline, total, scale, 200)
		if !v.Failed {
			t.Errorf("iterations=%d: verdict flipped", iterations)
		}
	}
}

func TestSkippedVerdict(t *testing.T) {
	v := SkippedVerdict(SourceTimestamp, "device missing")
	if !v.Skipped || v.Failed {
		t.Errorf("unexpected verdict %+v", v)
	}
	if v.Status() != "skipped" {
		t.Errorf("expected skipped token, got %q", v.Status())
	}
	if v.SkipReason != "device missing" {
		t.Errorf("unexpected skip reason %q", v.SkipReason)
	}
}

func TestResultDetected(t *testing.T) {
	r := &Result{Verdicts: []Verdict{
		{Source: SourceCycle, Failed: false},
		{Source: SourceTimestamp, Skipped: true, Failed: false},
	}}
	if r.Detected() {
		t.Errorf("expected no detection")
	}

	r.Verdicts = append(r.Verdicts, Verdict{Source: SourcePerfCounter, Failed: true})
	if !r.Detected() {
		t.Errorf("expected detection from failed verdict")
	}

	skippedOnly := &Result{Verdicts: []Verdict{{Source: SourceCycle, Skipped: true, Failed: true}}}
	if skippedOnly.Detected() {
		t.Errorf("skipped verdicts must not count as detection")
	}
}
