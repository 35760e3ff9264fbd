package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/athebyme/pricewatch-service/config"
	"github.com/athebyme/pricewatch-service/internal/adapters/cache"
	"github.com/athebyme/pricewatch-service/internal/adapters/crawler"
	"github.com/athebyme/pricewatch-service/internal/adapters/logger"
	"github.com/athebyme/pricewatch-service/internal/adapters/messaging"
	"github.com/athebyme/pricewatch-service/internal/adapters/notifier"
	"github.com/athebyme/pricewatch-service/internal/adapters/storage"
	"github.com/athebyme/pricewatch-service/internal/api"
	apimiddleware "github.com/athebyme/pricewatch-service/internal/api/middleware"
	"github.com/athebyme/pricewatch-service/internal/domain/services"
	"github.com/athebyme/pricewatch-service/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// метрики для Prometheus
var (
	httpDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_durations_seconds",
		Help:    "Длительность HTTP запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method", "status"})

	requestsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Общее количество HTTP запросов",
	}, []string{"path", "method", "status"})
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log, err := logger.NewZapLogger(cfg.LogLevel, cfg.ENV == "production")
	if err != nil {
		fmt.Printf("Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	log.Info("Инициализация сервиса",
		"app_name", cfg.AppName, "version", cfg.Version, "env", cfg.ENV)

	postgresCon, err := utils.GenerateConnectionString(
		cfg.Postgres.Host,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
		cfg.Postgres.Port,
		cfg.Postgres.PoolSize,
		cfg.Postgres.Timeout,
	)
	if err != nil {
		fmt.Printf("Ошибка инициализации строки подключения базы: %v\n", err)
		os.Exit(1)
	}

	db, err := postgres.NewStorage(ctx, postgresCon)
	if err != nil {
		log.Fatal("Ошибка инициализации хранилища", "error", err)
	}
	defer db.Close()
	log.Info("Хранилище инициализировано")

	cacheClient, err := cache.NewRedisCache(
		ctx,
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	if err != nil {
		log.Fatal("Ошибка инициализации кэша", "error", err)
	}
	defer cacheClient.Close()
	log.Info("Кэш инициализирован")

	messagingClient, err := messaging.NewKafkaMessaging(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	if err != nil {
		log.Fatal("Ошибка инициализации системы обмена сообщениями", "error", err)
	}
	defer messagingClient.Close()
	log.Info("Система обмена сообщениями инициализирована")

	crawlerClient := crawler.NewRemoteCrawler(cfg.Crawler.BaseURL, cfg.Crawler.RequestTimeout, log)
	notifierClient := notifier.NewKafkaNotifier(messagingClient, log)

	wishlistService := services.NewWishlistService(db, cacheClient, notifierClient, log)
	crawlService := services.NewCrawlService(db, crawlerClient, cacheClient, messagingClient, wishlistService, log, cfg.Crawler.Workers)
	detectionService := services.NewDetectionService(
		db, cacheClient, messagingClient, wishlistService, log,
		services.ScoringPolicy{
			MinRateGap:           cfg.Detection.MinRateGap,
			GapWeight:            cfg.Detection.GapWeight,
			ProximityWeight:      cfg.Detection.ProximityWeight,
			ProximityHorizonDays: cfg.Detection.ProximityHorizonDays,
		},
		nil,
		cfg.Detection.LookbackDays,
		cfg.Detection.LockTTL,
	)
	productService := services.NewProductService(db, cacheClient, log)
	holidayService := services.NewHolidayService(db, log)
	log.Info("Доменные сервисы инициализированы")

	router := api.SetupRouter(api.Services{
		Products:   productService,
		Holidays:   holidayService,
		Crawls:     crawlService,
		Wishlists:  wishlistService,
		Detections: detectionService,
	}, log, cfg.Security.CORSAllowOrigins)
	log.Info("Маршрутизатор настроен")

	handler := http.Handler(router)
	if cfg.Metrics.Enabled {
		handler = metricsMiddleware(handler)
		router.Handle(cfg.Metrics.Endpoint, promhttp.Handler())
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("Сервер запущен", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Ошибка запуска сервера", "error", err)
		}
	}()

	go func() {
		<-quit
		log.Info("Получен сигнал завершения, выполняется graceful shutdown...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Ошибка при graceful shutdown", "error", err)
		}
		log.Info("HTTP сервер остановлен")

		if err := messagingClient.Close(); err != nil {
			log.Error("Ошибка при закрытии Kafka", "error", err)
		}
		if err := cacheClient.Close(); err != nil {
			log.Error("Ошибка при закрытии Redis", "error", err)
		}
		if err := db.Close(); err != nil {
			log.Error("Ошибка при закрытии БД", "error", err)
		}

		close(done)
	}()

	<-done
	log.Info("Сервер корректно завершил работу")
}

// metricsMiddleware собирает метрики длительности и количества HTTP запросов
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := apimiddleware.NewResponseWriter(w)

		next.ServeHTTP(ww, r)

		status := strconv.Itoa(ww.Status())
		httpDurations.WithLabelValues(r.URL.Path, r.Method, status).Observe(time.Since(start).Seconds())
		requestsCounter.WithLabelValues(r.URL.Path, r.Method, status).Inc()
	})
}
