package service

import (
	"bytes"
	"cmp"
	"context"
	"slices"

	"stilnovo/marketplace-service/internal/app/marketplace/config"
	"stilnovo/marketplace-service/internal/app/marketplace/entity"
	"stilnovo/marketplace-service/internal/app/marketplace/infrastructure"
	"stilnovo/marketplace-service/internal/app/marketplace/repository"
	"stilnovo/pkg/logger"
	"stilnovo/pkg/metrics"

	"github.com/google/uuid"
)

// RecommendationService ранжирует объявления по очкам категорий из истории взаимодействий
// Только чтение, безопасно для параллельных вызовов
type RecommendationService struct {
	repos      repository.Repositories
	scoreCache infrastructure.ScoreCache
	cfg        config.RecommendationConfig
}

// NewRecommendationService создает сервис рекомендаций
// scoreCache может быть nil, тогда очки каждый раз считаются в БД
func NewRecommendationService(repos repository.Repositories, scoreCache infrastructure.ScoreCache, cfg config.RecommendationConfig) *RecommendationService {
	return &RecommendationService{
		repos:      repos,
		scoreCache: scoreCache,
		cfg:        cfg,
	}
}

// Recommend возвращает до limit объявлений чужих продавцов
// Порядок: очки категории по убыванию, затем id по убыванию (новые первыми)
// Анонимному пользователю (uuid.Nil) возвращается пустой список
func (s *RecommendationService) Recommend(ctx context.Context, accountID uuid.UUID, limit int) ([]entity.Listing, error) {
	if accountID == uuid.Nil {
		metrics.RecommendationsServed.WithLabelValues("anonymous").Inc()
		return []entity.Listing{}, nil
	}
	limit = s.normalizeLimit(limit)

	scores, source, err := s.categoryScores(ctx, accountID)
	if err != nil {
		return nil, translateError(err, "aggregate interaction scores")
	}

	candidates, err := s.repos.Listings().FindCandidates(ctx, accountID, s.candidateStatuses())
	if err != nil {
		return nil, translateError(err, "find candidate listings")
	}

	ranked := rankListings(candidates, accountID, scores)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	metrics.RecommendationsServed.WithLabelValues(source).Inc()
	return ranked, nil
}

func (s *RecommendationService) normalizeLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		return s.cfg.MaxLimit
	}
	return limit
}

// candidateStatuses: в строгом режиме только active, иначе любой статус
func (s *RecommendationService) candidateStatuses() []entity.ListingStatus {
	if s.cfg.ExcludeSold {
		return []entity.ListingStatus{entity.ListingStatusActive}
	}
	return nil
}

// categoryScores берет очки из кеша или считает в БД и кладет в кеш
// Версия читается до запроса в БД: если взаимодействие инвалидировало кеш
// во время подсчета, устаревшие очки не записываются. Ошибки кеша не прерывают запрос
func (s *RecommendationService) categoryScores(ctx context.Context, accountID uuid.UUID) (map[string]int, string, error) {
	cacheable := false
	var version int64
	if s.scoreCache != nil {
		scores, found, err := s.scoreCache.Get(ctx, accountID)
		if err != nil {
			logger.Warn().Err(err).Str("account_id", accountID.String()).Msg("recommendation cache unavailable")
		} else if found {
			return scores, "cache", nil
		}

		version, err = s.scoreCache.Version(ctx, accountID)
		if err != nil {
			logger.Warn().Err(err).Str("account_id", accountID.String()).Msg("recommendation cache version unavailable")
		} else {
			cacheable = true
		}
	}

	scores, err := s.repos.Interactions().AggregateScoreByCategory(ctx, accountID, entity.InteractionWeights)
	if err != nil {
		return nil, "", err
	}

	if cacheable {
		stored, err := s.scoreCache.Set(ctx, accountID, version, scores)
		switch {
		case err != nil:
			logger.Warn().Err(err).Str("account_id", accountID.String()).Msg("failed to cache recommendation scores")
		case !stored:
			logger.Debug().Str("account_id", accountID.String()).Msg("scores changed during read, cache write skipped")
		}
	}

	return scores, "db", nil
}

type scoredListing struct {
	listing entity.Listing
	score   int
}

// rankListings отбрасывает объявления самого аккаунта и сортирует остальные
func rankListings(candidates []entity.Listing, accountID uuid.UUID, scores map[string]int) []entity.Listing {
	scored := make([]scoredListing, 0, len(candidates))
	for _, l := range candidates {
		if l.SellerID == accountID {
			continue
		}
		scored = append(scored, scoredListing{listing: l, score: scores[l.Category]})
	}

	slices.SortFunc(scored, func(a, b scoredListing) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return bytes.Compare(b.listing.ID[:], a.listing.ID[:])
	})

	out := make([]entity.Listing, len(scored))
	for i, sl := range scored {
		out[i] = sl.listing
	}
	return out
}
