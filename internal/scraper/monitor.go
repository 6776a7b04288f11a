package scraper

import (
	"context"
	"time"

	"github.com/RecoveryAshes/SimWebTrack/internal/utils"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceWatch 会话资源看门狗
// 长时间运行的浏览器会话内存会缓慢上涨,
// 周期性采样系统内存/CPU并在逼近阈值时告警,便于操作员决定是否中断重跑
type ResourceWatch struct {
	interval       time.Duration
	lowMemoryBytes uint64 // 可用内存低于此值时告警

	cancel context.CancelFunc
}

// NewResourceWatch 创建资源看门狗
func NewResourceWatch(interval time.Duration, lowMemoryBytes uint64) *ResourceWatch {
	return &ResourceWatch{
		interval:       interval,
		lowMemoryBytes: lowMemoryBytes,
	}
}

// Start 启动后台采样
func (w *ResourceWatch) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	w.cancel = cancel

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.sample()
			}
		}
	}()

	utils.Debugf("资源看门狗已启动: 采样间隔=%s", w.interval)
}

// Stop 停止采样
func (w *ResourceWatch) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
}

// sample 采样一次系统资源
func (w *ResourceWatch) sample() {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		utils.Debugf("内存采样失败: %v", err)
		return
	}

	percentages, err := cpu.Percent(100*time.Millisecond, false)
	cpuLoad := 0.0
	if err == nil && len(percentages) > 0 {
		cpuLoad = percentages[0]
	}

	utils.Debugf("资源采样: 可用内存=%.0fMB, 内存占用=%.1f%%, CPU=%.1f%%",
		float64(vmStat.Available)/(1024*1024), vmStat.UsedPercent, cpuLoad)

	if w.lowMemoryBytes > 0 && vmStat.Available < w.lowMemoryBytes {
		utils.Warnf("⚠️ 系统可用内存不足: %.0fMB,浏览器会话可能不稳定",
			float64(vmStat.Available)/(1024*1024))
	}
}
