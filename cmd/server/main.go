package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/roadassist/roadassist-backend/internal/config"
	"github.com/roadassist/roadassist-backend/internal/db"
	"github.com/roadassist/roadassist-backend/internal/gateway"
	"github.com/roadassist/roadassist-backend/internal/goroutine"
	httpHandlers "github.com/roadassist/roadassist-backend/internal/http/handlers"
	httpRouter "github.com/roadassist/roadassist-backend/internal/http/router"
	"github.com/roadassist/roadassist-backend/internal/logger"
	"github.com/roadassist/roadassist-backend/internal/repository"
	"github.com/roadassist/roadassist-backend/internal/service"
	"github.com/roadassist/roadassist-backend/internal/storage"
	"github.com/roadassist/roadassist-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	photoStorage, err := storage.NewPhotoStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	gatewayClient := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayKeyID)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	requestRepo := repository.NewRequestRepository(dbConn)
	paymentRepo := repository.NewPaymentRepository(dbConn)
	mediaRepo := repository.NewMediaRepository(dbConn)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	requestService := service.NewRequestService(requestRepo, userRepo)
	paymentService := service.NewPaymentService(paymentRepo, requestRepo, gatewayClient, cfg.GatewaySecret)

	// Вотчер зависших платежей.
	watcher := service.NewSettlementWatcher(paymentRepo, cfg.PaymentPendingTTL, cfg.WatcherSchedule)
	if err := watcher.Start(); err != nil {
		log.Fatalf("main: не удалось запустить вотчер платежей: %v", err)
	}
	defer watcher.Stop()

	// Вебсокеты: живой трекинг заявок.
	hub := ws.NewHub()
	goroutine.SafeGo(hub.Run)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	requestHandler := httpHandlers.NewRequestHandler(requestService, hub)
	paymentHandler := httpHandlers.NewPaymentHandler(paymentService, hub)
	mediaHandler := httpHandlers.NewMediaHandler(mediaRepo, photoStorage)
	statsHandler := httpHandlers.NewStatsHandler(requestRepo, userRepo, paymentRepo)
	wsHandler := httpHandlers.NewWSHandler(hub, requestService, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, requestHandler, paymentHandler, mediaHandler, statsHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
