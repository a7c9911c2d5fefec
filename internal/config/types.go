package config

import (
	"time"
)

// ProbeConfig holds every tunable of the detection run. The default
// thresholds were calibrated against the default Scale; changing Scale
// without recalibrating them invalidates the verdicts.
type ProbeConfig struct {
	Probe   ProbeInfo     `yaml:"probe"`
	Sources SourcesConfig `yaml:"sources"`
}

type ProbeInfo struct {
	Name          string `yaml:"name"`
	Description   string `yaml:"description"`
	LogLevel      string `yaml:"log_level"`
	Iterations    uint32 `yaml:"iterations"`
	Scale         uint64 `yaml:"scale"`
	CalibrationMs int    `yaml:"calibration_ms"`

	// TargetCPU overrides the measurement processor. -1 selects the last
	// enumerated logical CPU.
	TargetCPU int `yaml:"target_cpu"`

	// MSRDevicePath is a printf template taking the CPU index.
	MSRDevicePath string `yaml:"msr_device_path"`

	// PerfCrossCheck enables the advisory perf-event cycle measurement.
	PerfCrossCheck bool `yaml:"perf_crosscheck"`
}

type SourcesConfig struct {
	Cycle       SourceConfig `yaml:"cycle"`
	Timestamp   SourceConfig `yaml:"timestamp"`
	PerfCounter SourceConfig `yaml:"perf_counter"`
}

type SourceConfig struct {
	Threshold uint64 `yaml:"threshold"`
	Enabled   bool   `yaml:"enabled"`
}

// Default returns the reference parameters the thresholds were calibrated
// with: 25000 trapped iterations, one second of calibration, scale 100000.
func Default() *ProbeConfig {
	return &ProbeConfig{
		Probe: ProbeInfo{
			Name:          "vmprobe",
			Iterations:    25000,
			Scale:         100000,
			CalibrationMs: 1000,
			TargetCPU:     -1,
			MSRDevicePath: "/dev/cpu/%d/msr",
		},
		Sources: SourcesConfig{
			Cycle:       SourceConfig{Threshold: 200, Enabled: true},
			Timestamp:   SourceConfig{Threshold: 300, Enabled: true},
			PerfCounter: SourceConfig{Threshold: 10000, Enabled: true},
		},
	}
}

func (c *ProbeConfig) GetCalibrationInterval() time.Duration {
	return time.Duration(c.Probe.CalibrationMs) * time.Millisecond
}
