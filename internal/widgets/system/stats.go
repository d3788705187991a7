package system

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

type MemoryStats struct {
	Total       uint64
	Used        uint64
	UsedPercent float64
}

type DiskStats struct {
	Total uint64
	Used  uint64
	Free  uint64
}

// HostStats reads resource usage of the local machine.
type HostStats interface {
	CPUPercent(ctx context.Context, interval time.Duration) (float64, error)
	Memory(ctx context.Context) (MemoryStats, error)
	Disk(ctx context.Context, mount string) (DiskStats, error)
}

type gopsutilStats struct{}

// NewHostStats returns HostStats backed by gopsutil.
func NewHostStats() HostStats {
	return gopsutilStats{}
}

func (gopsutilStats) CPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		return 0, fmt.Errorf("failed to sample cpu: %w", err)
	}
	if len(percents) == 0 {
		return 0, fmt.Errorf("failed to sample cpu: no data")
	}
	return percents[0], nil
}

func (gopsutilStats) Memory(ctx context.Context) (MemoryStats, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryStats{}, fmt.Errorf("failed to read memory usage: %w", err)
	}
	return MemoryStats{Total: vm.Total, Used: vm.Used, UsedPercent: vm.UsedPercent}, nil
}

func (gopsutilStats) Disk(ctx context.Context, mount string) (DiskStats, error) {
	usage, err := disk.UsageWithContext(ctx, mount)
	if err != nil {
		return DiskStats{}, fmt.Errorf("failed to read disk usage of %s: %w", mount, err)
	}
	return DiskStats{Total: usage.Total, Used: usage.Used, Free: usage.Free}, nil
}
