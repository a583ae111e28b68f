package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystemMonitor_GetResourceUsage(t *testing.T) {
	sm := NewSystemMonitor(nil)
	time.Sleep(5 * time.Millisecond)

	usage := sm.GetResourceUsage()
	assert.Greater(t, usage.GoroutineCount, 0)
	assert.Greater(t, usage.HeapSys, uint64(0))
	assert.GreaterOrEqual(t, usage.Uptime, 5*time.Millisecond)
	assert.GreaterOrEqual(t, usage.CPUPercent, 0.0)
}

func TestSystemMonitor_Uptime(t *testing.T) {
	sm := &SystemMonitor{startTime: time.Now().Add(-time.Minute)}
	assert.GreaterOrEqual(t, sm.GetUptime(), time.Minute)
}
