package utils

import (
	"context"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

type SystemStats struct {
	CPUPercent        float64 `json:"cpu_percent"`
	MemoryPercent     float64 `json:"memory_percent"`
	MemoryUsedBytes   uint64  `json:"memory_used_bytes"`
	ProcessRSSBytes   uint64  `json:"process_rss_bytes"`
	ProcessGoroutines int     `json:"goroutines"`
}

// GetCPUUsage returns the current CPU usage as a percentage
func GetCPUUsage(ctx context.Context, interval time.Duration) float64 {
	percentage, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		Logger.Warn("failed to read CPU usage", zap.Error(err))
		return 0
	}
	if len(percentage) > 0 {
		return percentage[0]
	}
	return 0
}

// GetSystemStats samples host and process usage. Readings that fail are left zero.
func GetSystemStats(ctx context.Context, goroutines int) SystemStats {
	stats := SystemStats{
		CPUPercent:        GetCPUUsage(ctx, 200*time.Millisecond),
		ProcessGoroutines: goroutines,
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.MemoryPercent = vm.UsedPercent
		stats.MemoryUsedBytes = vm.Used
	} else {
		Logger.Warn("failed to read memory usage", zap.Error(err))
	}

	if p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if info, err := p.MemoryInfoWithContext(ctx); err == nil {
			stats.ProcessRSSBytes = info.RSS
		}
	}
	return stats
}
