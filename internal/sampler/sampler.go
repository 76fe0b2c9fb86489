package sampler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"sysalarm/internal/domain/alarm"
)

// Sampler produces usage snapshots. The monitor treats any error as
// "no data this tick" and keeps running.
type Sampler interface {
	Sample(ctx context.Context) (alarm.Usage, error)
}

// ProcSampler reads machine metrics from /proc and the root filesystem.
// CPU utilization is a delta against the previous sample, so the very
// first snapshot reports zero CPU.
type ProcSampler struct {
	prevCPU *cpuSample
}

type cpuSample struct {
	total uint64
	idle  uint64
}

// NewProcSampler creates a sampler with no CPU history yet.
func NewProcSampler() *ProcSampler {
	return &ProcSampler{}
}

const bytesPerGB = 1 << 30

// Sample collects a fresh usage snapshot. The log count is filled in by
// the caller; it is not a machine metric.
func (p *ProcSampler) Sample(_ context.Context) (alarm.Usage, error) {
	total, idle, err := readCPU()
	if err != nil {
		return alarm.Usage{}, fmt.Errorf("read cpu: %w", err)
	}

	var usage alarm.Usage

	if p.prevCPU != nil {
		deltaTotal := total - p.prevCPU.total
		deltaIdle := idle - p.prevCPU.idle

		if deltaTotal > 0 {
			usage.CPUPercent = 100 * (1 - float64(deltaIdle)/float64(deltaTotal))
		}
	}

	p.prevCPU = &cpuSample{total: total, idle: idle}

	memTotal, memAvailable, err := readMem()
	if err != nil {
		return alarm.Usage{}, fmt.Errorf("read memory: %w", err)
	}

	memUsed := memTotal - memAvailable
	usage.RAMPercent = 100 * float64(memUsed) / float64(memTotal)
	usage.RAMUsedGB = float64(memUsed) / bytesPerGB
	usage.RAMTotalGB = float64(memTotal) / bytesPerGB

	diskTotal, diskUsed, err := readDiskUsage("/")
	if err != nil {
		return alarm.Usage{}, fmt.Errorf("read disk: %w", err)
	}

	if diskTotal > 0 {
		usage.DiskPercent = 100 * float64(diskUsed) / float64(diskTotal)
	}

	usage.DiskUsedGB = float64(diskUsed) / bytesPerGB
	usage.DiskTotalGB = float64(diskTotal) / bytesPerGB

	return usage, nil
}

func readCPU() (total, idle uint64, err error) {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		line := s.Text()
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}

		return parseCPULine(line)
	}

	if err := s.Err(); err != nil {
		return 0, 0, err
	}

	return 0, 0, errors.New("cpu line not found")
}

// parseCPULine sums the aggregate cpu counters; idle includes iowait.
func parseCPULine(line string) (total, idle uint64, err error) {
	parts := strings.Fields(line)
	if len(parts) < 5 {
		return 0, 0, errors.New("invalid cpu line")
	}

	values := make([]uint64, 0, len(parts)-1)

	for _, p := range parts[1:] {
		v, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return 0, 0, err
		}

		values = append(values, v)
		total += v
	}

	idle = values[3]
	if len(values) > 4 {
		idle += values[4]
	}

	return total, idle, nil
}

func readMem() (total, available uint64, err error) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		fields := strings.Fields(s.Text())
		if len(fields) < 2 {
			continue
		}

		switch fields[0] {
		case "MemTotal:":
			total, _ = strconv.ParseUint(fields[1], 10, 64)
			total *= 1024
		case "MemAvailable:":
			available, _ = strconv.ParseUint(fields[1], 10, 64)
			available *= 1024
		}
	}

	if err := s.Err(); err != nil {
		return 0, 0, err
	}

	if total == 0 {
		return 0, 0, errors.New("meminfo parse failed")
	}

	return total, available, nil
}

func readDiskUsage(path string) (total, used uint64, err error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return 0, 0, err
	}

	total = st.Blocks * uint64(st.Bsize)
	free := st.Bavail * uint64(st.Bsize)
	used = total - free

	return total, used, nil
}
