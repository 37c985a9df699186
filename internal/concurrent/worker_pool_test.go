package concurrent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendflow/internal/domain"
	"lendflow/pkg/logger"
)

type testLogger struct{}

func newTestLogger() logger.Logger { return testLogger{} }

func (testLogger) Debug(msg string, fields map[string]interface{})                        {}
func (testLogger) Info(msg string, fields map[string]interface{})                         {}
func (testLogger) Warn(msg string, fields map[string]interface{})                         {}
func (testLogger) Error(msg string, fields map[string]interface{})                        {}
func (testLogger) Fatal(msg string, fields map[string]interface{})                        {}
func (l testLogger) WithContext(ctx context.Context) logger.Logger                        { return l }
func (l testLogger) WithFields(fields map[string]interface{}) logger.Logger               { return l }
func (testLogger) InfoContext(ctx context.Context, msg string, f map[string]interface{})  {}
func (testLogger) ErrorContext(ctx context.Context, msg string, f map[string]interface{}) {}

func testEntry() *domain.AuditLog {
	return &domain.AuditLog{
		EntityType: domain.EntityTypeBook,
		EntityID:   1,
		Action:     domain.ActionTypeBorrow,
		CreatedAt:  time.Now(),
	}
}

func TestWorkerPoolProcessesSubmitted(t *testing.T) {
	var mu sync.Mutex
	processed := 0

	pool := NewWorkerPool(2, 16, func(log *domain.AuditLog) error {
		mu.Lock()
		processed++
		mu.Unlock()
		return nil
	}, newTestLogger())

	pool.Start()

	for i := 0; i < 10; i++ {
		require.True(t, pool.Submit(testEntry()))
	}

	pool.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, processed)

	stats := pool.GetStats()
	assert.EqualValues(t, 10, stats.Submitted)
	assert.EqualValues(t, 10, stats.Written)
	assert.EqualValues(t, 0, stats.Failed)
}

func TestWorkerPoolCountsFailures(t *testing.T) {
	pool := NewWorkerPool(1, 16, func(log *domain.AuditLog) error {
		return errors.New("yazma hatası")
	}, newTestLogger())

	pool.Start()
	require.True(t, pool.Submit(testEntry()))
	pool.Stop()

	stats := pool.GetStats()
	assert.EqualValues(t, 1, stats.Failed)
	assert.EqualValues(t, 0, stats.Written)
}

func TestWorkerPoolRejectsWhenStopped(t *testing.T) {
	pool := NewWorkerPool(1, 16, func(log *domain.AuditLog) error { return nil }, newTestLogger())

	assert.False(t, pool.Submit(testEntry()))

	pool.Start()
	pool.Stop()

	assert.False(t, pool.Submit(testEntry()))
}

func TestWorkerPoolRejectsWhenQueueFull(t *testing.T) {
	block := make(chan struct{})

	pool := NewWorkerPool(1, 1, func(log *domain.AuditLog) error {
		<-block
		return nil
	}, newTestLogger())

	pool.Start()

	// first entry occupies the worker, second fills the queue
	require.True(t, pool.Submit(testEntry()))

	rejected := false
	for i := 0; i < 10; i++ {
		if !pool.Submit(testEntry()) {
			rejected = true
			break
		}
	}
	assert.True(t, rejected)

	close(block)
	pool.Stop()

	stats := pool.GetStats()
	assert.Positive(t, stats.Rejected)
}

func TestWorkerPoolDrainsQueueOnStop(t *testing.T) {
	var mu sync.Mutex
	processed := 0

	pool := NewWorkerPool(1, 64, func(log *domain.AuditLog) error {
		mu.Lock()
		processed++
		mu.Unlock()
		return nil
	}, newTestLogger())

	pool.Start()
	for i := 0; i < 50; i++ {
		require.True(t, pool.Submit(testEntry()))
	}
	pool.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 50, processed)
}

func TestWorkerPoolSubmitDuringStop(t *testing.T) {
	for i := 0; i < 100; i++ {
		pool := NewWorkerPool(1, 4, func(log *domain.AuditLog) error { return nil }, newTestLogger())
		pool.Start()

		var wg sync.WaitGroup
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for k := 0; k < 25; k++ {
					pool.Submit(testEntry())
				}
			}()
		}

		// Stop races the submitters; a send into the closed queue would panic
		pool.Stop()
		wg.Wait()

		stats := pool.GetStats()
		assert.EqualValues(t, stats.Submitted, stats.Written)
	}
}
