package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/athebyme/pricewatch-service/config"
	"github.com/athebyme/pricewatch-service/internal/adapters/cache"
	"github.com/athebyme/pricewatch-service/internal/adapters/crawler"
	"github.com/athebyme/pricewatch-service/internal/adapters/logger"
	"github.com/athebyme/pricewatch-service/internal/adapters/messaging"
	"github.com/athebyme/pricewatch-service/internal/adapters/notifier"
	"github.com/athebyme/pricewatch-service/internal/adapters/storage"
	"github.com/athebyme/pricewatch-service/internal/domain/models"
	"github.com/athebyme/pricewatch-service/internal/domain/services"
	"github.com/athebyme/pricewatch-service/internal/utils"
	"github.com/athebyme/pricewatch-service/pkg/interfaces"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Метрики для Prometheus
var (
	crawlJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_crawl_jobs_total",
		Help: "Общее количество выполненных обходов каталогов",
	}, []string{"shop", "status"})

	crawlDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "worker_crawl_duration_seconds",
		Help:    "Длительность полного обхода каталога",
		Buckets: []float64{10, 30, 60, 120, 300, 600, 1800},
	}, []string{"shop"})

	detectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worker_fake_discounts_detected_total",
		Help: "Общее количество зафиксированных фейковых скидок",
	})

	detectionRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "worker_detection_run_duration_seconds",
		Help:    "Длительность прохода детектора",
		Buckets: prometheus.DefBuckets,
	})
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
	log.Info("Инициализация воркера",
		"app_name", cfg.AppName+"-worker", "version", cfg.Version, "env", cfg.ENV)

	// HTTP сервер для метрик
	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle(cfg.Metrics.Endpoint, promhttp.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("OK"))
			})

			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			log.Info("Запуск HTTP сервера для метрик", "addr", addr)

			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Error("Ошибка запуска HTTP сервера для метрик", "error", err)
			}
		}()
	}

	connectionStr, err := utils.GenerateConnectionString(
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
		log.Fatal("Ошибка генерации строки подключения к PostgreSQL", "error", err)
	}

	repo, err := postgres.NewStorage(ctx, connectionStr)
	if err != nil {
		log.Fatal("Ошибка инициализации хранилища", "error", err)
	}
	defer repo.Close()
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

	wishlistService := services.NewWishlistService(repo, cacheClient, notifierClient, log)
	crawlService := services.NewCrawlService(repo, crawlerClient, cacheClient, messagingClient, wishlistService, log, cfg.Crawler.Workers)
	detectionService := services.NewDetectionService(
		repo, cacheClient, messagingClient, wishlistService, log,
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
	log.Info("Доменные сервисы инициализированы")

	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	runCatalogScans(ctx, cfg, crawlService, log, &wg)
	runPendingRequestLoop(ctx, cfg, crawlService, log, &wg)
	runDetectionLoop(ctx, cfg, detectionService, log, &wg)
	subscribeToCrawlEvents(ctx, messagingClient, detectionService, log, &wg)

	go func() {
		<-quit
		log.Info("Получен сигнал завершения, выполняется graceful shutdown...")
		cancel()
		wg.Wait()
		close(done)
	}()

	log.Info("Воркер запущен")
	<-done
	log.Info("Воркер корректно завершил работу")
}

// runCatalogScans запускает периодические полные обходы настроенных магазинов
func runCatalogScans(ctx context.Context, cfg *config.Config,
	crawlService *services.CrawlService, log interfaces.LoggerPort, wg *sync.WaitGroup) {

	scan := func() {
		for _, shop := range cfg.Crawler.Shops {
			if ctx.Err() != nil {
				return
			}
			shopType := models.ShopType(shop)
			start := time.Now()

			job, err := crawlService.RunCatalogScan(ctx, shopType)
			if err != nil {
				log.Error("обход каталога не удался", "shop_type", shop, "error", err)
				crawlJobsTotal.WithLabelValues(shop, "failed").Inc()
				continue
			}
			crawlDuration.WithLabelValues(shop).Observe(time.Since(start).Seconds())
			crawlJobsTotal.WithLabelValues(shop, string(job.CurrentStatus())).Inc()
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(cfg.Crawler.Interval)
		defer ticker.Stop()

		scan() // первый обход сразу после старта

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				scan()
			}
		}
	}()
}

// runPendingRequestLoop обрабатывает накопившиеся пользовательские запросы на обход
func runPendingRequestLoop(ctx context.Context, cfg *config.Config,
	crawlService *services.CrawlService, log interfaces.LoggerPort, wg *sync.WaitGroup) {

	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := crawlService.ProcessPendingRequests(ctx, cfg.Crawler.PendingLimit); err != nil {
					log.Error("обработка пользовательских запросов не удалась", "error", err)
				}
			}
		}
	}()
}

// runDetectionLoop запускает периодические проходы детектора фейковых скидок
func runDetectionLoop(ctx context.Context, cfg *config.Config,
	detectionService *services.DetectionService, log interfaces.LoggerPort, wg *sync.WaitGroup) {

	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(cfg.Detection.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				detected, err := detectionService.Run(ctx, time.Now().UTC())
				if err != nil {
					log.Error("проход детектора не удался", "error", err)
					continue
				}
				detectionRunDuration.Observe(time.Since(start).Seconds())
				detectionsTotal.Add(float64(detected))
				log.Info("проход детектора завершен", "detected", detected)
			}
		}
	}()
}

// subscribeToCrawlEvents запускает проход детектора сразу после завершения обхода,
// чтобы свежая история цен проверялась без ожидания следующего тика
func subscribeToCrawlEvents(ctx context.Context, messagingClient interfaces.MessagingPort,
	detectionService *services.DetectionService, log interfaces.LoggerPort, wg *sync.WaitGroup) {

	handler := func(ctx context.Context, msg *interfaces.Message) error {
		var event messaging.JobCompletedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.ErrorWithContext(ctx, "ошибка декодирования события обхода", "error", err)
			return err
		}
		if event.Type != messaging.EventJobCompleted || event.Status != string(models.JobStatusSuccess) {
			return nil
		}

		log.InfoWithContext(ctx, "обход завершен, запуск детектора",
			"job_id", event.JobID, "shop_type", event.ShopType)

		detected, err := detectionService.Run(ctx, time.Now().UTC())
		if err != nil {
			return err
		}
		detectionsTotal.Add(float64(detected))
		return nil
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		unsubscribe, err := messagingClient.Subscribe(ctx, messaging.TopicCrawlEvents, handler)
		if err != nil {
			log.Error("Ошибка подписки на события обходов", "error", err)
			return
		}
		defer unsubscribe()

		log.Info("Подписка на события обходов установлена")

		<-ctx.Done()
		log.Info("Отмена подписки на события обходов")
	}()
}
