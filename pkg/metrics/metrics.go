package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP Метрики (общие для всех сервисов)
// =============================================================================

// HttpRequestsTotal - счётчик всех HTTP запросов
// Labels: service, method, path, status
// Пример запроса PromQL: rate(http_requests_total{service="marketplace"}[5m])
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

// HttpRequestDuration - гистограмма времени ответа
// Labels: service, method, path
// Пример: histogram_quantile(0.95, rate(http_request_duration_seconds_bucket[5m]))
var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "http_request_duration_seconds",
		Help: "Duration of HTTP requests in seconds",
		// Бакеты для микросервисов: от 1ms до 10s
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"service", "method", "path"},
)

// HttpRequestsInFlight - текущее количество обрабатываемых запросов
var HttpRequestsInFlight = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
	[]string{"service"},
)

// =============================================================================
// Database Метрики
// =============================================================================

// DbConnectionsOpen - количество открытых соединений с БД
var DbConnectionsOpen = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "db_connections_open",
		Help: "Number of open database connections",
	},
	[]string{"service", "state"}, // state: idle, in_use
)

// DbErrors - счётчик ошибок базы данных
var DbErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_errors_total",
		Help: "Total number of database errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Redis Метрики
// =============================================================================

// RedisCacheHits - попадания в кеш
var RedisCacheHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_hits_total",
		Help: "Total number of Redis cache hits",
	},
	[]string{"service", "key_prefix"},
)

// RedisCacheMisses - промахи кеша
var RedisCacheMisses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_misses_total",
		Help: "Total number of Redis cache misses",
	},
	[]string{"service", "key_prefix"},
)

// RedisOperationDuration - время операций Redis
var RedisOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "redis_operation_duration_seconds",
		Help:    "Duration of Redis operations in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	},
	[]string{"service", "operation"}, // operation: get, set, del, etc.
)

// RedisErrors - ошибки Redis
var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Kafka Метрики
// =============================================================================

// KafkaMessagesProduced - отправленные сообщения
var KafkaMessagesProduced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_produced_total",
		Help: "Total number of Kafka messages produced",
	},
	[]string{"service", "topic"},
)

// KafkaMessagesConsumed - полученные сообщения
var KafkaMessagesConsumed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_consumed_total",
		Help: "Total number of Kafka messages consumed",
	},
	[]string{"service", "topic", "group"},
)

// KafkaProduceDuration - время отправки сообщения
var KafkaProduceDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_produce_duration_seconds",
		Help:    "Duration of Kafka produce operations",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	},
	[]string{"service", "topic"},
)

// KafkaConsumeDuration - время обработки сообщения
var KafkaConsumeDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_consume_duration_seconds",
		Help:    "Duration of Kafka message processing",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	},
	[]string{"service", "topic"},
)

// KafkaErrors - ошибки Kafka
var KafkaErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_errors_total",
		Help: "Total number of Kafka errors",
	},
	[]string{"service", "topic", "operation"}, // operation: produce, consume
)

// =============================================================================
// Business Метрики (маркетплейс Stilnovo)
// =============================================================================

// --- Purchases ---

// PurchasesCompleted - успешные покупки
var PurchasesCompleted = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "purchases_completed_total",
		Help: "Total number of completed purchases",
	},
)

// PurchaseConflicts - покупки, проигравшие гонку за объявление или отклоненные по статусу
var PurchaseConflicts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "purchase_conflicts_total",
		Help: "Total number of rejected purchase attempts",
	},
	[]string{"reason"}, // not_active, self_purchase
)

// PurchaseAmount - суммарный оборот по покупкам
var PurchaseAmount = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "purchase_amount_total",
		Help: "Total amount of completed purchases",
	},
)

// TransactionsReversed - сделки, отмененные администратором
var TransactionsReversed = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "transactions_reversed_total",
		Help: "Total number of transactions reversed by administrators",
	},
)

// --- Reputation ---

// RatingsSaved - операции с отзывами
var RatingsSaved = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ratings_saved_total",
		Help: "Total number of rating mutations",
	},
	[]string{"operation"}, // create, update, delete
)

// RatingStars - распределение оценок
var RatingStars = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "ratings_stars",
		Help:    "Distribution of rating stars",
		Buckets: []float64{1, 2, 3, 4, 5},
	},
)

// ReputationRecomputes - пересчеты репутации продавца
var ReputationRecomputes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reputation_recomputes_total",
		Help: "Total number of seller reputation recomputations",
	},
	[]string{"trigger"}, // rating, reversal, audit
)

// --- Recommendations ---

// RecommendationsServed - выданные подборки рекомендаций
var RecommendationsServed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "recommendations_served_total",
		Help: "Total number of recommendation lists served",
	},
	[]string{"source"}, // cache, db, anonymous
)

// --- Auditor ---

// LedgerAudits - проверки производных полей продавцов
var LedgerAudits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ledger_audits_total",
		Help: "Total number of seller audits",
	},
	[]string{"status"}, // success, failed
)

// LedgerDriftDetected - продавцы, у которых выручка не сходится со сделками
var LedgerDriftDetected = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "ledger_drift_detected_total",
		Help: "Total number of sellers whose lifetime revenue diverged from transactions",
	},
)

// AuditDuration - время полного прохода аудита
var AuditDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "ledger_audit_duration_seconds",
		Help:    "Duration of a full ledger audit run",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	},
)
