package host

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"vmprobe/internal/logging"
	"vmprobe/internal/timing"

	"github.com/intel/goresctrl/pkg/rdt"
	"github.com/sirupsen/logrus"
)

// HostConfig contains host system information gathered once at startup.
// The advisory fields are hints only; the timing measurements are the
// actual detection mechanism.
type HostConfig struct {
	// CPU Information
	CPUVendor    string
	CPUModel     string
	TotalThreads int

	// System Information
	Hostname      string
	OSInfo        string
	KernelVersion string

	// Advisory virtualization hints
	HypervisorBit    bool
	HypervisorVendor string

	// RDT monitoring availability. Guests rarely see resctrl, so absence
	// is a weak virtualization hint on server-class hardware.
	RDTMonitoring bool

	logger *logrus.Logger
}

var (
	globalHostConfig *HostConfig
	hostConfigOnce   sync.Once
	hostConfigErr    error
)

// GetHostConfig returns the global host configuration, initializing it on
// first call.
func GetHostConfig() (*HostConfig, error) {
	hostConfigOnce.Do(func() {
		globalHostConfig, hostConfigErr = initializeHostConfig()
	})
	return globalHostConfig, hostConfigErr
}

func initializeHostConfig() (*HostConfig, error) {
	logger := logging.GetLogger()

	config := &HostConfig{
		logger: logger,
	}

	if err := config.initSystemInfo(); err != nil {
		return nil, fmt.Errorf("failed to initialize system info: %v", err)
	}

	if err := config.initCPUInfo(); err != nil {
		return nil, fmt.Errorf("failed to initialize CPU info: %v", err)
	}

	config.initHypervisorHints()

	// goresctrl answers false for every query until its resctrl singleton
	// is initialized, so Initialize must run before MonSupported.
	if err := rdt.Initialize(""); err != nil {
		logger.WithError(err).Warn("Failed to initialize RDT, monitoring advisory disabled")
	}
	config.RDTMonitoring = rdt.MonSupported()

	logger.WithFields(logrus.Fields{
		"cpu_model":         config.CPUModel,
		"total_threads":     config.TotalThreads,
		"hypervisor_bit":    config.HypervisorBit,
		"hypervisor_vendor": config.HypervisorVendor,
		"rdt_monitoring":    config.RDTMonitoring,
	}).Info("Host configuration initialized")

	return config, nil
}

func (hc *HostConfig) initSystemInfo() error {
	hostname, err := os.Hostname()
	if err != nil {
		return fmt.Errorf("failed to get hostname: %v", err)
	}
	hc.Hostname = hostname

	hc.OSInfo = runtime.GOOS + "/" + runtime.GOARCH

	if data, err := os.ReadFile("/proc/version"); err == nil {
		version := strings.Fields(string(data))
		if len(version) >= 3 {
			hc.KernelVersion = version[2]
		}
	}

	if hc.KernelVersion == "" {
		hc.KernelVersion = "unknown"
	}

	return nil
}

func (hc *HostConfig) initCPUInfo() error {
	// NumCPU reflects the process affinity mask at startup, not system
	// enumeration; a run under a restricted cpuset would under-report.
	// The cpuinfo processor count wins when available.
	hc.TotalThreads = runtime.NumCPU()

	file, err := os.Open("/proc/cpuinfo")
	if err != nil {
		hc.CPUVendor = "unknown"
		hc.CPUModel = "unknown"
		return nil
	}
	defer file.Close()

	vendor, model, threads := parseCPUInfo(file)
	hc.CPUVendor = vendor
	hc.CPUModel = model
	if threads > 0 {
		hc.TotalThreads = threads
	}
	return nil
}

func parseCPUInfo(r io.Reader) (vendor, model string, threads int) {
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "processor") {
			threads++
		} else if strings.HasPrefix(line, "vendor_id") && vendor == "" {
			if parts := strings.SplitN(line, ":", 2); len(parts) == 2 {
				vendor = strings.TrimSpace(parts[1])
			}
		} else if strings.HasPrefix(line, "model name") && model == "" {
			if parts := strings.SplitN(line, ":", 2); len(parts) == 2 {
				model = strings.TrimSpace(parts[1])
			}
		}
	}

	if vendor == "" {
		vendor = "unknown"
	}
	if model == "" {
		model = "unknown"
	}

	return vendor, model, threads
}

// initHypervisorHints checks the CPUID hypervisor-present bit (leaf 1, ECX
// bit 31) and decodes the vendor leaf. Many hypervisors hide both, which
// is exactly why the timing measurements exist.
func (hc *HostConfig) initHypervisorHints() {
	if !timing.TrapSupported() {
		return
	}

	_, _, ecx, _ := timing.CPUID(1, 0)
	hc.HypervisorBit = ecx&(1<<31) != 0

	if hc.HypervisorBit {
		_, b, c, d := timing.CPUID(0x40000000, 0)
		hc.HypervisorVendor = decodeVendor(b, c, d)
	}
}

func decodeVendor(b, c, d uint32) string {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf, b)
	binary.LittleEndian.PutUint32(buf[4:], c)
	binary.LittleEndian.PutUint32(buf[8:], d)
	return strings.TrimRight(string(buf), "\x00 ")
}

// TargetCPU resolves the measurement processor: the last enumerated
// logical CPU. Any fixed choice works as long as it never changes
// mid-run; the last CPU is the least likely to host boot-time work.
func (hc *HostConfig) TargetCPU() (int, error) {
	if hc.TotalThreads <= 0 {
		return -1, fmt.Errorf("could not enumerate logical processors")
	}
	return hc.TotalThreads - 1, nil
}
