package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"stilnovo/marketplace-service/internal/app/marketplace/entity"
	"stilnovo/marketplace-service/internal/app/marketplace/infrastructure"
	"stilnovo/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// HealthCheck проверяет одну зависимость
type HealthCheck func(ctx context.Context) error

// HealthCheckHandler отдает health/readiness/liveness и /metrics процесса auditor
type HealthCheckHandler struct {
	checks    map[string]HealthCheck
	reversals infrastructure.ReversalArchive
}

// NewHealthCheckHandler собирает проверки; nil-зависимости пропускаются
func NewHealthCheckHandler(db *gorm.DB, redisClient *redis.Client, mongoClient *mongo.Client) *HealthCheckHandler {
	h := &HealthCheckHandler{checks: make(map[string]HealthCheck)}

	if db != nil {
		h.checks["database"] = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if redisClient != nil {
		h.checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	if mongoClient != nil {
		h.checks["mongodb"] = func(ctx context.Context) error {
			return mongoClient.Ping(ctx, nil)
		}
	}

	return h
}

// WithReversals включает чтение архива отмененных сделок: GET /reversals/{sellerID}
func (h *HealthCheckHandler) WithReversals(archive infrastructure.ReversalArchive) *HealthCheckHandler {
	h.reversals = archive
	return h
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

func (h *HealthCheckHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.checks))
	overallStatus := "healthy"

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			overallStatus = "unhealthy"
			continue
		}
		checks[name] = "healthy"
	}

	w.Header().Set("Content-Type", "application/json")
	if overallStatus != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	if err := json.NewEncoder(w).Encode(HealthResponse{
		Status:    overallStatus,
		Checks:    checks,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		logger.Warn().Err(err).Msg("Failed to write health response")
	}
}

func (h *HealthCheckHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			http.Error(w, name+" not ready", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

func (h *HealthCheckHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("alive"))
}

type ReversalsResponse struct {
	SellerID  string                  `json:"seller_id"`
	Reversals []entity.ReversalRecord `json:"reversals"`
	Total     int                     `json:"total"`
}

// SellerReversals отдает архивные записи об отменах сделок продавца
func (h *HealthCheckHandler) SellerReversals(w http.ResponseWriter, r *http.Request) {
	sellerID, err := uuid.Parse(chi.URLParam(r, "sellerID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid seller ID"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	records, err := h.reversals.FindBySeller(ctx, sellerID)
	if err != nil {
		logger.Error().Err(err).Str("seller_id", sellerID.String()).Msg("Failed to read reversal archive")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read reversal archive"})
		return
	}
	if records == nil {
		records = []entity.ReversalRecord{}
	}

	writeJSON(w, http.StatusOK, ReversalsResponse{
		SellerID:  sellerID.String(),
		Reversals: records,
		Total:     len(records),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn().Err(err).Msg("Failed to write response")
	}
}

// Routes возвращает chi роутер служебного HTTP сервера
func (h *HealthCheckHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(logger.HTTPLoggerMiddleware)

	r.Get("/health", h.HealthCheck)
	r.Get("/health/readiness", h.Readiness)
	r.Get("/health/liveness", h.Liveness)
	r.Handle("/metrics", promhttp.Handler())
	if h.reversals != nil {
		r.Get("/reversals/{sellerID}", h.SellerReversals)
	}

	return r
}
