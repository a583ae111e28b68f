package system

import (
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// ResourceUsage is a snapshot of the running service's resource usage.
type ResourceUsage struct {
	Uptime         time.Duration `json:"uptime"`
	GoroutineCount int           `json:"goroutine_count"`
	HeapAlloc      uint64        `json:"heap_alloc"`
	HeapSys        uint64        `json:"heap_sys"`
	NumGC          uint32        `json:"num_gc"`
	GCPauseTime    time.Duration `json:"gc_pause_time"`
	GCFrequency    float64       `json:"gc_frequency"` // GCs per minute

	// Process figures from the operating system; zero when unavailable.
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float32 `json:"memory_percent"`
}

// SystemMonitor reports resource usage of the current process.
type SystemMonitor struct {
	startTime time.Time
	proc      *process.Process
	log       *slog.Logger
}

// NewSystemMonitor creates a new system monitor
func NewSystemMonitor(log *slog.Logger) *SystemMonitor {
	if log == nil {
		log = slog.Default()
	}
	sm := &SystemMonitor{startTime: time.Now(), log: log}
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Debug("Process metrics unavailable", "error", err)
	} else {
		sm.proc = p
	}
	return sm
}

// GetUptime returns the uptime since monitor creation
func (sm *SystemMonitor) GetUptime() time.Duration {
	return time.Since(sm.startTime)
}

// GetResourceUsage returns current resource usage
func (sm *SystemMonitor) GetResourceUsage() ResourceUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := sm.GetUptime()
	usage := ResourceUsage{
		Uptime:         uptime,
		GoroutineCount: runtime.NumGoroutine(),
		HeapAlloc:      m.HeapAlloc,
		HeapSys:        m.HeapSys,
		NumGC:          m.NumGC,
	}
	if m.NumGC > 0 {
		usage.GCPauseTime = time.Duration(m.PauseNs[(m.NumGC+255)%256])
	}
	if uptime > 0 {
		usage.GCFrequency = float64(m.NumGC) / uptime.Minutes()
	}

	if sm.proc != nil {
		if cpu, err := sm.proc.CPUPercent(); err == nil {
			usage.CPUPercent = cpu
		} else {
			sm.log.Debug("Error while finding process cpu usage", "error", err)
		}
		if ram, err := sm.proc.MemoryPercent(); err == nil {
			usage.MemoryPercent = ram
		} else {
			sm.log.Debug("Error while finding process ram usage", "error", err)
		}
	}
	return usage
}

// IsResourceConstrained reports whether the service should shed load:
// too many goroutines, long GC pauses or frequent collections.
func (sm *SystemMonitor) IsResourceConstrained() bool {
	usage := sm.GetResourceUsage()
	return usage.MemoryPercent > 80.0 ||
		usage.GoroutineCount > 1000 ||
		usage.GCPauseTime > 10*time.Millisecond ||
		usage.GCFrequency > 10.0
}
