package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/mentorhub-backend/internal/broker/kafka"
	"github.com/ignatzorin/mentorhub-backend/internal/config"
	"github.com/ignatzorin/mentorhub-backend/internal/db"
	httpHandlers "github.com/ignatzorin/mentorhub-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/mentorhub-backend/internal/http/router"
	"github.com/ignatzorin/mentorhub-backend/internal/logger"
	"github.com/ignatzorin/mentorhub-backend/internal/repository"
	"github.com/ignatzorin/mentorhub-backend/internal/service"
	"github.com/ignatzorin/mentorhub-backend/internal/storage"
	"github.com/ignatzorin/mentorhub-backend/internal/ws"
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
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
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

	// Инициализируем вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	avatarStorage, err := storage.NewAvatarStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Очередь модерации опциональна: без брокера жалобы живут только в БД.
	var reportQueue service.QueuePublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			log.Fatalf("main: не удалось подключиться к kafka: %v", err)
		}
		defer producer.Close()
		reportQueue = producer
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	messageRepo := repository.NewMessageRepository(dbConn)
	reportRepo := repository.NewReportRepository(dbConn)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	chatService := service.NewChatService(messageRepo, userRepo)
	reportService := service.NewReportService(reportRepo, messageRepo, reportQueue, cfg.KafkaReportsTopic)
	presence := service.NewPresenceRegistry(cfg.TypingTTL)
	go presence.Run(ctx)

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run()
	gateway := ws.NewChatGateway(chatService, presence, hub)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	profileHandler := httpHandlers.NewProfileHandler(userRepo)
	conversationHandler := httpHandlers.NewConversationHandler(chatService)
	reportHandler := httpHandlers.NewReportHandler(reportService)
	mediaHandler := httpHandlers.NewMediaHandler(userRepo, avatarStorage)
	wsHandler := httpHandlers.NewWSHandler(hub, gateway, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, profileHandler, conversationHandler, reportHandler, mediaHandler, wsHandler, healthHandler, tokenManager)

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
