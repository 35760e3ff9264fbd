package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config содержит все настройки сервиса
type Config struct {
	AppName  string
	Version  string
	LogLevel string
	ENV      string

	Server struct {
		Host            string
		Port            int
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
	}

	Postgres struct {
		Host     string
		Port     int
		User     string
		Password string
		DBName   string
		SSLMode  string
		Timeout  time.Duration
		PoolSize int // размер пула соединений
	}

	Redis struct {
		Host     string
		Port     int
		Password string
		DB       int
	}

	Kafka struct {
		Brokers string `mapstructure:"brokers"`
		GroupID string `mapstructure:"group_id"`
	}

	Metrics struct {
		Enabled  bool
		Endpoint string
		Port     int `mapstructure:"port"`
	}

	Security struct {
		CORSAllowOrigins []string
	}

	Crawler struct {
		BaseURL        string        // адрес сервиса-сборщика
		Workers        int           // число параллельных воркеров обхода
		Shops          []string      // магазины, обходимые по расписанию
		Interval       time.Duration // период между полными обходами
		RequestTimeout time.Duration // таймаут одного запроса к сборщику
		PendingLimit   int           // сколько пользовательских запросов брать за проход
	}

	Detection struct {
		Interval             time.Duration // период между проходами детектора
		LookbackDays         int           // запас истории до начала окна мониторинга
		MinRateGap           int           // минимальный разрыв ставок для фиксации
		GapWeight            float64       // вклад разрыва ставок в балл уверенности
		ProximityWeight      float64       // максимальный вклад близости к празднику
		ProximityHorizonDays int           // затухание вклада близости
		LockTTL              time.Duration // срок жизни блокировки анализа товара
	}
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	configFile := "config"
	if configPath != "" {
		configFile = configPath
	}

	var cfg Config

	viper.SetConfigName(configFile)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("../config")
	viper.AddConfigPath("../../config")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		}
		// Продолжаем, если файл не найден, будем использовать только переменные окружения
	}

	setDefaults()
	bindEnvVariables()

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка десериализации конфигурации: %w", err)
	}

	cfg.ENV = viper.GetString("env")
	if cfg.ENV == "" {
		cfg.ENV = "development"
		if envVar := os.Getenv("APP_ENV"); envVar != "" {
			cfg.ENV = envVar
		}
	}

	return &cfg, nil
}

// setDefaults устанавливает значения по умолчанию
func setDefaults() {
	// Основные настройки
	viper.SetDefault("appName", "pricewatch-service")
	viper.SetDefault("version", "1.0.0")
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("env", "development")

	// Настройки сервера
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", "10s")
	viper.SetDefault("server.writeTimeout", "10s")
	viper.SetDefault("server.shutdownTimeout", "5s")

	// Настройки Postgres
	viper.SetDefault("postgres.host", "localhost")
	viper.SetDefault("postgres.port", 5432)
	viper.SetDefault("postgres.user", "postgres")
	viper.SetDefault("postgres.password", "postgres")
	viper.SetDefault("postgres.dbname", "pricewatch")
	viper.SetDefault("postgres.sslmode", "disable")
	viper.SetDefault("postgres.timeout", "5s")
	viper.SetDefault("postgres.poolSize", 10)

	// Настройки Redis
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Настройки Kafka
	viper.SetDefault("kafka.brokers", "localhost:9092")
	viper.SetDefault("kafka.groupID", "pricewatch-service")

	// Настройки метрик
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.endpoint", "/metrics")
	viper.SetDefault("metrics.port", 9090)

	// Настройки безопасности
	viper.SetDefault("security.corsAllowOrigins", []string{"*"})

	// Настройки сборщика
	viper.SetDefault("crawler.baseURL", "http://localhost:8090")
	viper.SetDefault("crawler.workers", 8)
	viper.SetDefault("crawler.shops", []string{"MUSINSA", "WCONCEPT", "EQL"})
	viper.SetDefault("crawler.interval", "6h")
	viper.SetDefault("crawler.requestTimeout", "15s")
	viper.SetDefault("crawler.pendingLimit", 50)

	// Настройки детектора
	viper.SetDefault("detection.interval", "1h")
	viper.SetDefault("detection.lookbackDays", 30)
	viper.SetDefault("detection.minRateGap", 10)
	viper.SetDefault("detection.gapWeight", 0.8)
	viper.SetDefault("detection.proximityWeight", 30.0)
	viper.SetDefault("detection.proximityHorizonDays", 14)
	viper.SetDefault("detection.lockTTL", "5m")
}

// bindEnvVariables привязывает переменные окружения к конфигурации
func bindEnvVariables() {
	// Основные настройки
	viper.BindEnv("appName", "APP_NAME")
	viper.BindEnv("version", "APP_VERSION")
	viper.BindEnv("logLevel", "LOG_LEVEL")
	viper.BindEnv("env", "APP_ENV")

	// Настройки сервера
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.readTimeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.writeTimeout", "SERVER_WRITE_TIMEOUT")
	viper.BindEnv("server.shutdownTimeout", "SERVER_SHUTDOWN_TIMEOUT")

	// Настройки Postgres
	viper.BindEnv("postgres.host", "POSTGRES_HOST")
	viper.BindEnv("postgres.port", "POSTGRES_PORT")
	viper.BindEnv("postgres.user", "POSTGRES_USER")
	viper.BindEnv("postgres.password", "POSTGRES_PASSWORD")
	viper.BindEnv("postgres.dbname", "POSTGRES_DBNAME")
	viper.BindEnv("postgres.sslmode", "POSTGRES_SSLMODE")
	viper.BindEnv("postgres.timeout", "POSTGRES_TIMEOUT")
	viper.BindEnv("postgres.poolSize", "POSTGRES_POOL_SIZE")

	// Настройки Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	// Настройки Kafka
	viper.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	viper.BindEnv("kafka.groupID", "KAFKA_GROUP_ID")

	// Настройки метрик
	viper.BindEnv("metrics.enabled", "METRICS_ENABLED")
	viper.BindEnv("metrics.endpoint", "METRICS_ENDPOINT")
	viper.BindEnv("metrics.port", "METRICS_PORT")

	// Настройки безопасности
	viper.BindEnv("security.corsAllowOrigins", "CORS_ALLOW_ORIGINS")

	// Настройки сборщика
	viper.BindEnv("crawler.baseURL", "CRAWLER_BASE_URL")
	viper.BindEnv("crawler.workers", "CRAWLER_WORKERS")
	viper.BindEnv("crawler.shops", "CRAWLER_SHOPS")
	viper.BindEnv("crawler.interval", "CRAWLER_INTERVAL")
	viper.BindEnv("crawler.requestTimeout", "CRAWLER_REQUEST_TIMEOUT")
	viper.BindEnv("crawler.pendingLimit", "CRAWLER_PENDING_LIMIT")

	// Настройки детектора
	viper.BindEnv("detection.interval", "DETECTION_INTERVAL")
	viper.BindEnv("detection.lookbackDays", "DETECTION_LOOKBACK_DAYS")
	viper.BindEnv("detection.minRateGap", "DETECTION_MIN_RATE_GAP")
	viper.BindEnv("detection.gapWeight", "DETECTION_GAP_WEIGHT")
	viper.BindEnv("detection.proximityWeight", "DETECTION_PROXIMITY_WEIGHT")
	viper.BindEnv("detection.proximityHorizonDays", "DETECTION_PROXIMITY_HORIZON_DAYS")
	viper.BindEnv("detection.lockTTL", "DETECTION_LOCK_TTL")
}
