package system

import (
	"context"
	"math"
	"time"

	v1 "github.com/infracollect/wallboard/apis/v1"
	"github.com/infracollect/wallboard/internal/engine"
	"go.uber.org/zap"
)

const (
	Title = "System"

	cpuSampleInterval = 200 * time.Millisecond
	gib               = 1024 * 1024 * 1024
)

var DefaultMounts = []string{"/", "/home"}

// New returns the system collector. Mounts that cannot be read are skipped;
// CPU or memory failures fail the widget.
func New(stats HostStats, logger *zap.Logger) engine.Collector {
	return engine.CollectorFunction(engine.KindSystem, Title, func(ctx context.Context, cfg v1.Config) (engine.Payload, error) {
		mounts := cfg.System.Mounts
		if len(mounts) == 0 {
			mounts = DefaultMounts
		}

		disks := make([]engine.DiskData, 0, len(mounts))
		for _, mount := range mounts {
			usage, err := stats.Disk(ctx, mount)
			if err != nil {
				logger.Debug("skipping mount", zap.String("mount", mount), zap.Error(err))
				continue
			}

			pct := 0.0
			if usage.Total > 0 {
				pct = round1(float64(usage.Used) / float64(usage.Total) * 100)
			}
			disks = append(disks, engine.DiskData{
				Mount:   mount,
				UsedGB:  toGB(usage.Used),
				FreeGB:  toGB(usage.Free),
				Percent: pct,
			})
		}

		memory, err := stats.Memory(ctx)
		if err != nil {
			return nil, err
		}

		cpuPct, err := stats.CPUPercent(ctx, cpuSampleInterval)
		if err != nil {
			return nil, err
		}

		return engine.SystemData{
			CPUPercent: round1(cpuPct),
			MemPercent: round1(memory.UsedPercent),
			MemUsedGB:  toGB(memory.Used),
			MemTotalGB: toGB(memory.Total),
			Disks:      disks,
		}, nil
	})
}

func Register(registry *engine.Registry, stats HostStats, logger *zap.Logger) error {
	return registry.Register(New(stats, logger))
}

func toGB(bytes uint64) float64 {
	return round1(float64(bytes) / gib)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
