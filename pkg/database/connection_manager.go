package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"lendflow/internal/config"
	"lendflow/pkg/circuitbreaker"
	"lendflow/pkg/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// ConnectionManager owns the database handle: DSN construction per driver,
// pool limits and a periodic health probe behind a circuit breaker.
type ConnectionManager struct {
	db             *sql.DB
	driver         string
	logger         logger.Logger
	circuitBreaker *circuitbreaker.CircuitBreaker

	mutex     sync.RWMutex
	isHealthy bool
	stopCh    chan struct{}
	stopOnce  sync.Once
}

func NewConnectionManager(cfg config.DatabaseConfig, log logger.Logger) (*ConnectionManager, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("veritabanı bağlantısı kurulamadı: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("veritabanı bağlantısı test edilemedi: %w", err)
	}

	cm := &ConnectionManager{
		db:        db,
		driver:    cfg.Driver,
		logger:    log,
		isHealthy: true,
		stopCh:    make(chan struct{}),
	}

	cm.circuitBreaker = circuitbreaker.New(circuitbreaker.Settings{
		Name:             "database",
		FailureThreshold: 3,
		OpenTimeout:      30 * time.Second,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			log.Warn("Devre kesici durumu değişti", map[string]interface{}{
				"name": name,
				"from": from.String(),
				"to":   to.String(),
			})
		},
	})

	go cm.healthCheckLoop()

	log.Info("Veritabanı bağlantısı kuruldu", map[string]interface{}{
		"driver":         cfg.Driver,
		"max_open_conns": cfg.MaxOpenConns,
	})

	return cm, nil
}

func buildDSN(cfg config.DatabaseConfig) (string, error) {
	switch cfg.Driver {
	case DriverPostgres:
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode), nil
	case DriverSQLite:
		// _txlock=immediate: yazma kilidini transaction başında al,
		// eşzamanlı ödünç isteklerini veritabanı seviyesinde sıralar
		return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on&_txlock=immediate", cfg.Path), nil
	default:
		return "", fmt.Errorf("desteklenmeyen veritabanı sürücüsü: %s", cfg.Driver)
	}
}

func (cm *ConnectionManager) DB() *sql.DB {
	return cm.db
}

func (cm *ConnectionManager) Driver() string {
	return cm.driver
}

func (cm *ConnectionManager) Ping(ctx context.Context) error {
	return cm.circuitBreaker.Execute(func() error {
		return cm.db.PingContext(ctx)
	})
}

func (cm *ConnectionManager) IsHealthy() bool {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return cm.isHealthy
}

func (cm *ConnectionManager) healthCheckLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-cm.stopCh:
			return
		case <-ticker.C:
			err := cm.Ping(context.Background())

			cm.mutex.Lock()
			wasHealthy := cm.isHealthy
			cm.isHealthy = err == nil
			cm.mutex.Unlock()

			if err != nil && wasHealthy {
				cm.logger.Error("Veritabanı sağlık kontrolü başarısız", map[string]interface{}{
					"error": err.Error(),
				})
			}
			if err == nil && !wasHealthy {
				cm.logger.Info("Veritabanı bağlantısı yeniden sağlıklı", map[string]interface{}{})
			}
		}
	}
}

func (cm *ConnectionManager) GetStats() map[string]interface{} {
	stats := cm.db.Stats()

	return map[string]interface{}{
		"driver":           cm.driver,
		"healthy":          cm.IsHealthy(),
		"circuit_state":    cm.circuitBreaker.State().String(),
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
		"wait_duration":    stats.WaitDuration.String(),
	}
}

func (cm *ConnectionManager) Close() error {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
	return cm.db.Close()
}
