package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lendflow/internal/api"
	"lendflow/internal/api/middleware"
	"lendflow/internal/database"
	"lendflow/pkg/factory"
	"lendflow/pkg/tracing"
)

func main() {
	appFactory, err := factory.NewFactory()
	if err != nil {
		fmt.Printf("Factory oluşturulamadı: %v\n", err)
		os.Exit(1)
	}
	defer appFactory.Close()

	log := appFactory.GetLogger()
	cfg := appFactory.GetConfig()
	db := appFactory.GetDB()
	cm := appFactory.GetConnectionManager()

	log.Info("Uygulama başlatılıyor", map[string]interface{}{"env": cfg.AppEnv, "driver": cm.Driver()})

	if cfg.Tracing.Enabled {
		shutdownTracer, err := tracing.InitTracer(context.Background(), "lendflow", cfg.Tracing.Endpoint)
		if err != nil {
			log.Fatal("Tracer başlatılamadı", map[string]interface{}{"error": err.Error()})
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracer(ctx); err != nil {
				log.Error("Tracer kapatılamadı", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	migrationService := database.NewMigrationService(db, cm.Driver(), log)
	if err := migrationService.RunMigrations(); err != nil {
		log.Fatal("Migrationlar uygulanamadı", map[string]interface{}{"error": err.Error()})
	}

	if cfg.AppEnv == "development" {
		seedService := database.NewSeedService(db, log)
		if err := seedService.Run(); err != nil {
			log.Fatal("Başlangıç verisi yüklenemedi", map[string]interface{}{"error": err.Error()})
		}
	}

	userHandler := api.NewUserHandler(appFactory.GetUserService(), log)
	bookHandler := api.NewBookHandler(appFactory.GetBookService(), log)
	lendingHandler := api.NewLendingHandler(appFactory.GetLendingService(), log)
	auditLogHandler := api.NewAuditLogHandler(appFactory.GetAuditLogService(), log)
	eventHandler := api.NewEventHandler(appFactory.GetEventStoreService(), log)
	healthHandler := api.NewHealthHandler(appFactory, log)

	mux := http.NewServeMux()

	userHandler.RegisterRoutes(mux)
	bookHandler.RegisterRoutes(mux)
	lendingHandler.RegisterRoutes(mux)
	auditLogHandler.RegisterRoutes(mux)
	eventHandler.RegisterRoutes(mux)
	healthHandler.RegisterRoutes(mux)

	if appFactory.GetCache() != nil {
		cacheHandler := api.NewCacheHandler(appFactory.GetCache(), appFactory.GetWarmUpManager(), log)
		cacheHandler.RegisterRoutes(mux)
	}

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("LendFlow API'ye Hoş Geldiniz!"))
	})

	var handler http.Handler = mux
	handler = middleware.MetricsMiddleware(handler)
	if cfg.Tracing.Enabled {
		handler = middleware.TracingMiddleware(handler)
	}
	handler = middleware.RequestLoggerMiddleware(log)(handler)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	if wm := appFactory.GetWarmUpManager(); wm != nil {
		warmCtx, stopWarmUp := context.WithCancel(context.Background())
		defer stopWarmUp()

		go func() {
			ctx, cancel := context.WithTimeout(warmCtx, 30*time.Second)
			defer cancel()
			if err := wm.WarmUpIfCold(ctx); err != nil {
				log.Error("Warm-up başarısız", map[string]interface{}{"error": err.Error()})
			}
		}()

		go wm.ScheduledWarmUp(warmCtx, 30*time.Minute)
	}

	go func() {
		log.Info("HTTP sunucusu başlatılıyor", map[string]interface{}{"port": cfg.Server.Port})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP sunucusu başlatılamadı", map[string]interface{}{"error": err.Error()})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Sunucu kapatılıyor...", map[string]interface{}{})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Sunucu kapatılırken hata oluştu", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Sunucu başarıyla kapatıldı", map[string]interface{}{})
}
