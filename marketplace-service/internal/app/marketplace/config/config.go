package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит все настройки Marketplace Service и процесса auditor
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	Kafka          KafkaConfig
	JWT            JWTConfig
	Recommendation RecommendationConfig
	Auditor        AuditorConfig
	Log            LogConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port            string        // Порт API
	HealthPort      string        // Порт health/metrics для auditor
	ShutdownTimeout time.Duration // Время на graceful shutdown
	AllowedOrigins  []string      // CORS origins
}

// DatabaseConfig - настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int // Верхняя граница пула, каждая покупка держит одно соединение на время транзакции
	MaxIdleConns int
}

// RedisConfig - настройки Redis (кеш рекомендаций и распределенная блокировка auditor)
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// KafkaConfig - настройки Kafka для событий маркетплейса
type KafkaConfig struct {
	Brokers  []string
	Topic    string // market_events
	GroupID  string // Группа потребителей auditor
	MinBytes int
	MaxBytes int
}

// JWTConfig - проверка уже выданных токенов
type JWTConfig struct {
	Secret string
}

// RecommendationConfig - параметры подбора рекомендаций
type RecommendationConfig struct {
	DefaultLimit int           // Размер подборки, если клиент не указал limit
	MaxLimit     int           // Потолок limit
	ExcludeSold  bool          // Строгий режим: только активные объявления
	ScoreTTL     time.Duration // TTL кеша очков по категориям
}

// AuditorConfig - настройки фоновой сверки производных полей
type AuditorConfig struct {
	Schedule      string        // Cron с секундами, например "0 */15 * * * *"
	LockTTL       time.Duration // TTL распределенной блокировки
	MongoURI      string        // Архив отмененных сделок
	MongoDatabase string
}

// LogConfig - уровень логирования и опциональный Logstash
type LogConfig struct {
	Level        string
	LogstashAddr string
}

// Load загружает конфигурацию из переменных окружения
// .env в рабочей директории подхватывается, если существует; переменные окружения важнее
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			HealthPort:      getEnv("HEALTH_PORT", "8090"),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			DBName:       getEnv("DB_NAME", "stilnovo"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:  getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:    getEnv("KAFKA_TOPIC", "market_events"),
			GroupID:  getEnv("KAFKA_GROUP_ID", "marketplace-auditor"),
			MinBytes: getEnvInt("KAFKA_MIN_BYTES", 1),
			MaxBytes: getEnvInt("KAFKA_MAX_BYTES", 10e6),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		Recommendation: RecommendationConfig{
			DefaultLimit: getEnvInt("RECOMMEND_DEFAULT_LIMIT", 8),
			MaxLimit:     getEnvInt("RECOMMEND_MAX_LIMIT", 50),
			ExcludeSold:  getEnvBool("RECOMMEND_EXCLUDE_SOLD", true),
			ScoreTTL:     getEnvDuration("RECOMMEND_SCORE_TTL", 10*time.Minute),
		},
		Auditor: AuditorConfig{
			Schedule:      getEnv("AUDIT_SCHEDULE", "0 */15 * * * *"),
			LockTTL:       getEnvDuration("AUDIT_LOCK_TTL", 5*time.Minute),
			MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDatabase: getEnv("MONGO_DATABASE", "stilnovo_audit"),
		},
		Log: LogConfig{
			Level:        getEnv("LOG_LEVEL", "info"),
			LogstashAddr: getEnv("LOGSTASH_ADDR", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет обязательные и взаимосвязанные значения
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Recommendation.DefaultLimit <= 0 {
		return fmt.Errorf("RECOMMEND_DEFAULT_LIMIT must be positive, got %d", c.Recommendation.DefaultLimit)
	}
	if c.Recommendation.MaxLimit < c.Recommendation.DefaultLimit {
		return fmt.Errorf("RECOMMEND_MAX_LIMIT (%d) must not be less than RECOMMEND_DEFAULT_LIMIT (%d)",
			c.Recommendation.MaxLimit, c.Recommendation.DefaultLimit)
	}
	return nil
}

// DSN возвращает строку подключения к PostgreSQL в формате libpq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Address возвращает адрес Redis в формате host:port
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration принимает формат time.ParseDuration ("30s", "10m")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList разбирает список через запятую
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
