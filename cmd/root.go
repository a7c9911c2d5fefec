package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"vmprobe/internal/config"
	"vmprobe/internal/host"
	"vmprobe/internal/isolation"
	"vmprobe/internal/logging"
	"vmprobe/internal/probe"
	"vmprobe/internal/report"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const Version = "1.0.0"

func loadEnvironment() {
	logger := logging.GetLogger()

	// Try to load .env file from current directory
	envFile := ".env"
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			logger.WithField("file", envFile).WithError(err).Warn("Error loading .env file")
		} else {
			logger.WithField("file", envFile).Debug("Loaded environment variables")
		}
	} else {
		// Try to load from the application directory
		if execPath, err := os.Executable(); err == nil {
			appDir := filepath.Dir(execPath)
			envFile = filepath.Join(appDir, ".env")
			if _, err := os.Stat(envFile); err == nil {
				if err := godotenv.Load(envFile); err != nil {
					logger.WithField("file", envFile).WithError(err).Warn("Error loading .env file")
				} else {
					logger.WithField("file", envFile).Debug("Loaded environment variables")
				}
			}
		}
	}
}

func Execute() error {
	loadEnvironment()

	var configFile string
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "vmprobe",
		Short: "Timing-based virtualization detection probe",
		Long:  "A single-shot probe that classifies its environment as virtualized by measuring hypervisor exit overhead around CPUID across multiple tick sources",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if logLevel != "" {
				if err := logging.SetLogLevel(logLevel); err != nil {
					return fmt.Errorf("invalid log level: %w", err)
				}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (trace, debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the detection sequence once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(configFile)
		},
	}
	runCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to probe configuration file (reference defaults apply when omitted)")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a probe configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(configFile)
		},
	}
	validateCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to probe configuration file")
	validateCmd.MarkFlagRequired("config")

	hostCmd := &cobra.Command{
		Use:   "host",
		Short: "Print the host fingerprint and advisory checks without measuring",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHost()
		},
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(hostCmd)

	return rootCmd.Execute()
}

func runProbe(configFile string) error {
	logger := logging.GetLogger()

	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.LoadConfig(configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if cfg.Probe.LogLevel != "" {
		if err := logging.SetLogLevel(cfg.Probe.LogLevel); err != nil {
			return fmt.Errorf("invalid log level in config: %w", err)
		}
	}

	logger.WithFields(logrus.Fields{
		"version": Version,
		"probe":   cfg.Probe.Name,
	}).Info("vmprobe loaded")

	reporter := report.NewReporter()

	hostCfg, err := host.GetHostConfig()
	if err != nil {
		// Same contract as the no-processor failure: the diagnostic goes
		// through the reporter, the command still finishes cleanly.
		reporter.Report(&probe.Result{TargetCPU: -1, IsolationError: err.Error()})
		return nil
	}

	result := probe.NewDetector(cfg, isolation.NewEnvironment(), hostCfg).Run()
	reporter.Report(result)

	// Verdicts travel through the log sink only; a detection or an
	// isolation failure is not a command failure.
	return nil
}

func validateConfig(configFile string) error {
	logger := logging.GetLogger()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		logger.WithError(err).Error("Configuration is invalid")
		return err
	}

	logger.WithFields(logrus.Fields{
		"probe":          cfg.Probe.Name,
		"iterations":     cfg.Probe.Iterations,
		"scale":          cfg.Probe.Scale,
		"calibration_ms": cfg.Probe.CalibrationMs,
	}).Info("Configuration is valid")
	return nil
}

func showHost() error {
	logger := logging.GetLogger()

	hostCfg, err := host.GetHostConfig()
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"hostname":       hostCfg.Hostname,
		"os":             hostCfg.OSInfo,
		"kernel":         hostCfg.KernelVersion,
		"cpu_vendor":     hostCfg.CPUVendor,
		"cpu_model":      hostCfg.CPUModel,
		"total_threads":  hostCfg.TotalThreads,
		"rdt_monitoring": hostCfg.RDTMonitoring,
	}).Info("Host fingerprint")

	if hostCfg.HypervisorBit {
		logger.WithField("vendor", hostCfg.HypervisorVendor).Warn("CPUID advertises a hypervisor")
	} else {
		logger.Info("CPUID does not advertise a hypervisor (timing measurements may still detect one)")
	}

	if cpu, err := hostCfg.TargetCPU(); err == nil {
		logger.WithField("target_cpu", cpu).Info("Measurement processor")
	}

	return nil
}
