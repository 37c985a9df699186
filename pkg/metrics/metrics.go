package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendflow_http_requests_total",
			Help: "Toplam HTTP istek sayısı",
		},
		[]string{"method", "endpoint", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lendflow_http_request_duration_seconds",
			Help:    "HTTP istek süresi (saniye)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	DatabaseOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendflow_database_operations_total",
			Help: "Toplam veritabanı operasyonu sayısı",
		},
		[]string{"operation", "entity"},
	)

	DatabaseOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lendflow_database_operation_duration_seconds",
			Help:    "Veritabanı operasyon süresi (saniye)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "entity"},
	)

	BorrowingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendflow_borrowings_total",
			Help: "Ödünç alma isteklerinin sonuçlara göre sayısı",
		},
		[]string{"result"},
	)

	ReturnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendflow_returns_total",
			Help: "İade isteklerinin sonuçlara göre sayısı",
		},
		[]string{"result"},
	)

	RatingsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lendflow_ratings_submitted_total",
			Help: "Kaydedilen toplam puan sayısı",
		},
	)

	AuditQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lendflow_audit_queue_size",
			Help: "Denetim kaydı kuyruğundaki iş sayısı",
		},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lendflow_cache_hits_total",
			Help: "Önbellek isabet sayısı",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lendflow_cache_misses_total",
			Help: "Önbellek isabet etmeme sayısı",
		},
	)
)

func RecordHttpRequest(method, endpoint, status string, duration time.Duration) {
	HttpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HttpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func RecordDatabaseOperation(operation, entity string, duration time.Duration) {
	DatabaseOperationsTotal.WithLabelValues(operation, entity).Inc()
	DatabaseOperationDuration.WithLabelValues(operation, entity).Observe(duration.Seconds())
}

func RecordBorrow(result string) {
	BorrowingsTotal.WithLabelValues(result).Inc()
}

func RecordReturn(result string) {
	ReturnsTotal.WithLabelValues(result).Inc()
}

func RecordRating() {
	RatingsSubmitted.Inc()
}

func UpdateAuditQueueSize(size int) {
	AuditQueueSize.Set(float64(size))
}

func RecordCacheHit() {
	CacheHits.Inc()
}

func RecordCacheMiss() {
	CacheMisses.Inc()
}
