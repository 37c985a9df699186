package concurrent

import (
	"sync"
	"time"

	"lendflow/internal/domain"
	"lendflow/pkg/logger"
)

type AuditLogProcessor = func(log *domain.AuditLog) error

// WorkerPool drains audit entries off the request path so that writing
// the audit trail never delays a lending operation.
type WorkerPool struct {
	numWorkers int
	jobQueue   chan *domain.AuditLog
	processor  AuditLogProcessor
	wg         sync.WaitGroup
	logger     logger.Logger
	stats      statsCollector

	// mu guards started and orders Submit against Stop: a submitter
	// holds the read lock across its send, so Stop cannot close the
	// queue while a send is in flight.
	mu      sync.RWMutex
	started bool
}

func NewWorkerPool(numWorkers int, queueSize int, processor AuditLogProcessor, logger logger.Logger) *WorkerPool {
	return &WorkerPool{
		numWorkers: numWorkers,
		jobQueue:   make(chan *domain.AuditLog, queueSize),
		processor:  processor,
		logger:     logger,
	}
}

func (wp *WorkerPool) Start() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.started {
		return
	}

	wp.logger.Info("İşçi havuzu başlatılıyor", map[string]interface{}{
		"num_workers": wp.numWorkers,
		"queue_size":  cap(wp.jobQueue),
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		workerID := i
		go func() {
			defer wp.wg.Done()
			wp.worker(workerID)
		}()
	}

	wp.started = true
}

// Stop closes the queue and waits until the workers have drained it.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if !wp.started {
		wp.mu.Unlock()
		return
	}
	wp.started = false
	wp.mu.Unlock()

	wp.logger.Info("İşçi havuzu durduruluyor", map[string]interface{}{})
	close(wp.jobQueue)
	wp.wg.Wait()
}

func (wp *WorkerPool) Submit(log *domain.AuditLog) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if !wp.started {
		return false
	}

	// Non-blocking send
	select {
	case wp.jobQueue <- log:
		wp.stats.markSubmitted()
		return true
	default:
		wp.stats.markRejected()
		wp.logger.Warn("Denetim kuyruğu dolu, kayıt reddedildi", map[string]interface{}{
			"entity_type": log.EntityType,
			"entity_id":   log.EntityID,
			"action":      log.Action,
		})
		return false
	}
}

func (wp *WorkerPool) worker(id int) {
	wp.logger.Debug("İşçi başlatıldı", map[string]interface{}{"worker_id": id})

	for log := range wp.jobQueue {
		startTime := time.Now()
		err := wp.processor(log)
		writeTime := time.Since(startTime)

		if err != nil {
			wp.stats.markFailed()
			wp.logger.Error("Denetim kaydı işlenemedi", map[string]interface{}{
				"worker_id":   id,
				"entity_type": log.EntityType,
				"entity_id":   log.EntityID,
				"action":      log.Action,
				"error":       err.Error(),
				"write_time":  writeTime.String(),
			})
		} else {
			wp.stats.markWritten(writeTime)
		}
	}

	wp.logger.Debug("İş kuyruğu kapatıldı, işçi durduruluyor", map[string]interface{}{"worker_id": id})
}

func (wp *WorkerPool) GetStats() AuditWriteStats {
	return wp.stats.snapshot()
}

func (wp *WorkerPool) QueueLength() int {
	return len(wp.jobQueue)
}

func (wp *WorkerPool) QueueCapacity() int {
	return cap(wp.jobQueue)
}
