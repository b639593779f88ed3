// Package stats provides search progress reporting: process memory
// accounting, the status side channel, and Prometheus metrics.
package stats

import (
	"runtime"
	"sync"
)

var (
	memMu   sync.Mutex
	maxSeen float64
)

// Usage returns the heap in use in MB and updates the high-water mark.
func Usage() float64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	mb := float64(ms.HeapAlloc) / (1024 * 1024)

	memMu.Lock()
	if mb > maxSeen {
		maxSeen = mb
	}
	memMu.Unlock()
	return mb
}

// MaxUsage returns the largest heap size observed by Usage.
func MaxUsage() float64 {
	memMu.Lock()
	defer memMu.Unlock()
	return maxSeen
}
