package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"agendavip/config"
	_ "agendavip/docs"
	"agendavip/internal/analytics"
	"agendavip/internal/cache"
	"agendavip/internal/mailer"
	"agendavip/internal/payment"
	"agendavip/internal/repository"
	"agendavip/internal/service"
	"agendavip/internal/storage"
	"agendavip/internal/transport/rest"
	"agendavip/internal/transport/websocket"
	"agendavip/pkg/database"
	"agendavip/pkg/logger"
	"agendavip/pkg/metrics"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title AgendaVip API
// @version 1.0
// @description API de agendamento de serviços com alocação de horários

// @BasePath /api/v1

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.ServiceName)
	}

	db, err := database.NewPostgresDB(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Не удалось подключиться к БД", zap.Error(err))
	}
	defer db.Close()

	log.Info("Запуск миграций базы данных")
	if err := database.RunMigrations(ctx, db, "./migrations", log); err != nil {
		log.Fatal("Ошибка при выполнении миграций", zap.Error(err))
	}
	log.Info("Миграции успешно выполнены")

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Не удалось подключиться к Redis", zap.Error(err))
	}
	defer redisClient.Close()

	var fileStorage storage.FileStorage = storage.DisabledStorage{}
	if cfg.S3.Endpoint != "" {
		s3Storage, err := storage.NewS3Storage(ctx, cfg.S3, log)
		if err != nil {
			log.Fatal("Не удалось инициализировать S3 хранилище", zap.Error(err))
		}
		fileStorage = s3Storage
		log.Info("S3 хранилище инициализировано", zap.String("endpoint", cfg.S3.Endpoint))
	} else {
		log.Warn("S3 хранилище не настроено, экспорт отчетов и QR-коды недоступны")
	}

	var analyticsStore analytics.Store = analytics.NopStore{}
	if cfg.Analytics.Enabled {
		dynamo, err := analytics.NewDynamoStore(ctx, cfg.Analytics, log)
		if err != nil {
			log.Fatal("Не удалось инициализировать DynamoDB", zap.Error(err))
		}
		analyticsStore = dynamo
	} else {
		log.Warn("Аналитика отключена, метрики заведений будут пустыми")
	}

	gateway, err := payment.NewGateway(cfg.MercadoPago, log)
	if err != nil {
		log.Fatal("Не удалось инициализировать платежный шлюз", zap.Error(err))
	}

	agenda := websocket.NewAgendaHub(log)
	go agenda.Run(ctx)

	services := service.NewServices(service.Deps{
		Repos:       repository.NewRepositories(db),
		Logger:      log,
		Config:      cfg,
		FileStorage: fileStorage,
		Tokens:      cache.NewTokenStore(redisClient),
		Mailer:      mailer.NewSender(cfg.Email, log),
		Analytics:   analyticsStore,
		Payments:    gateway,
		Metrics:     m,
		Events:      agenda,
	})

	if cfg.Reminder.Enabled {
		services.Reminder.Start(ctx)
		defer services.Reminder.Stop()
	}

	router := gin.New()
	router.Use(gin.Recovery())

	handler := rest.NewHandler(services, log, cfg, agenda, m)
	handler.InitRoutes(router)

	if m != nil {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/swagger", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	srv := &http.Server{
		Addr:           ":" + cfg.HTTP.Port,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderMB << 20,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Ошибка запуска сервера", zap.Error(err))
		}
	}()

	log.Info("Сервер запущен", zap.String("addr", srv.Addr), zap.String("timezone", cfg.Scheduling.Timezone))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Выключение сервера...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Ошибка при остановке сервера", zap.Error(err))
	}
	stop()

	log.Info("Сервер успешно остановлен")
}
