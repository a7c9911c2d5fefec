package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"vmprobe/internal/logging"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads a probe configuration file. Fields absent from the file
// keep their defaults, so an empty file yields Default().
func LoadConfig(filepath string) (*ProbeConfig, error) {
	logger := logging.GetLogger()

	data, err := os.ReadFile(filepath)
	if err != nil {
		logger.WithField("filepath", filepath).WithError(err).Error("Failed to read config file")
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	config := Default()
	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		logger.WithField("filepath", filepath).WithError(err).Error("Failed to parse config file")
		return nil, err
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func expandEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		envVar := strings.Trim(match, "${}")
		if value := os.Getenv(envVar); value != "" {
			return value
		}
		return match
	})
}

func validateConfig(config *ProbeConfig) error {
	if config.Probe.Iterations == 0 {
		return fmt.Errorf("iterations must be positive")
	}

	if config.Probe.Scale == 0 {
		return fmt.Errorf("scale must be positive")
	}

	if config.Probe.CalibrationMs <= 0 {
		return fmt.Errorf("calibration_ms must be positive")
	}

	if config.Probe.TargetCPU < -1 {
		return fmt.Errorf("target_cpu must be -1 (last CPU) or a CPU index")
	}

	if !strings.Contains(config.Probe.MSRDevicePath, "%d") {
		return fmt.Errorf("msr_device_path must contain a %%d CPU index placeholder")
	}

	if !config.Sources.Cycle.Enabled && !config.Sources.Timestamp.Enabled && !config.Sources.PerfCounter.Enabled {
		return fmt.Errorf("at least one timing source must be enabled")
	}

	return nil
}
