// gopsutil-backed implementation of the host counter boundary.
package hostmetrics

import (
	"context"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	gopsnet "github.com/shirou/gopsutil/v4/net"
)

// Source reads OS resource counters via gopsutil. Collectors that fail on
// the current platform are skipped rather than failing the whole read, so a
// partial counter map is still emitted.
type Source struct {
	diskPath string
}

// NewSource creates a Source sampling disk usage at the given mount point.
// An empty path defaults to "/".
func NewSource(diskPath string) *Source {
	if diskPath == "" {
		diskPath = "/"
	}
	return &Source{diskPath: diskPath}
}

// Counters implements producer.CounterSource.
func (s *Source) Counters(ctx context.Context) (map[string]float64, error) {
	out := make(map[string]float64)

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		out["cpu.usage_percent"] = percents[0]
	}
	if counts, err := cpu.CountsWithContext(ctx, true); err == nil {
		out["cpu.core_count"] = float64(counts)
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		out["load.avg_1min"] = avg.Load1
		out["load.avg_5min"] = avg.Load5
		out["load.avg_15min"] = avg.Load15
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		out["memory.total_bytes"] = float64(vm.Total)
		out["memory.used_bytes"] = float64(vm.Used)
		out["memory.available_bytes"] = float64(vm.Available)
		out["memory.usage_percent"] = vm.UsedPercent
	}
	if swap, err := mem.SwapMemoryWithContext(ctx); err == nil {
		out["swap.total_bytes"] = float64(swap.Total)
		out["swap.used_bytes"] = float64(swap.Used)
		out["swap.usage_percent"] = swap.UsedPercent
	}
	if usage, err := disk.UsageWithContext(ctx, s.diskPath); err == nil {
		out["disk.total_bytes"] = float64(usage.Total)
		out["disk.used_bytes"] = float64(usage.Used)
		out["disk.free_bytes"] = float64(usage.Free)
		out["disk.usage_percent"] = usage.UsedPercent
	}
	if io, err := disk.IOCountersWithContext(ctx); err == nil {
		var readBytes, writeBytes, readCount, writeCount uint64
		for _, d := range io {
			readBytes += d.ReadBytes
			writeBytes += d.WriteBytes
			readCount += d.ReadCount
			writeCount += d.WriteCount
		}
		out["disk.read_bytes"] = float64(readBytes)
		out["disk.write_bytes"] = float64(writeBytes)
		out["disk.read_count"] = float64(readCount)
		out["disk.write_count"] = float64(writeCount)
	}
	if nio, err := gopsnet.IOCountersWithContext(ctx, false); err == nil && len(nio) > 0 {
		out["network.bytes_sent"] = float64(nio[0].BytesSent)
		out["network.bytes_recv"] = float64(nio[0].BytesRecv)
		out["network.packets_sent"] = float64(nio[0].PacketsSent)
		out["network.packets_recv"] = float64(nio[0].PacketsRecv)
		out["network.errors_in"] = float64(nio[0].Errin)
		out["network.errors_out"] = float64(nio[0].Errout)
		out["network.drops_in"] = float64(nio[0].Dropin)
		out["network.drops_out"] = float64(nio[0].Dropout)
	}
	return out, nil
}
