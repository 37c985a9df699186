package concurrent

import (
	"sync"
	"sync/atomic"
	"time"
)

// AuditWriteStats summarizes the async audit trail writer since startup.
// Submitted counts entries accepted into the queue; Written and Failed
// count persistence outcomes; Rejected counts entries dropped because
// the queue was full or the pool was not running.
type AuditWriteStats struct {
	Submitted    int64
	Written      int64
	Failed       int64
	Rejected     int64
	AvgWriteTime time.Duration
}

type statsCollector struct {
	submitted int64
	written   int64
	failed    int64
	rejected  int64

	mu             sync.Mutex
	totalWriteTime time.Duration
	writeCount     int64
}

func (sc *statsCollector) markSubmitted() {
	atomic.AddInt64(&sc.submitted, 1)
}

func (sc *statsCollector) markRejected() {
	atomic.AddInt64(&sc.rejected, 1)
}

func (sc *statsCollector) markFailed() {
	atomic.AddInt64(&sc.failed, 1)
}

// markWritten counts a persisted entry and folds its write duration into
// the running average.
func (sc *statsCollector) markWritten(d time.Duration) {
	atomic.AddInt64(&sc.written, 1)

	sc.mu.Lock()
	sc.totalWriteTime += d
	sc.writeCount++
	sc.mu.Unlock()
}

func (sc *statsCollector) snapshot() AuditWriteStats {
	stats := AuditWriteStats{
		Submitted: atomic.LoadInt64(&sc.submitted),
		Written:   atomic.LoadInt64(&sc.written),
		Failed:    atomic.LoadInt64(&sc.failed),
		Rejected:  atomic.LoadInt64(&sc.rejected),
	}

	sc.mu.Lock()
	if sc.writeCount > 0 {
		stats.AvgWriteTime = sc.totalWriteTime / time.Duration(sc.writeCount)
	}
	sc.mu.Unlock()

	return stats
}
