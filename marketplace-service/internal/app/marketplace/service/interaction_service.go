package service

import (
	"context"
	"time"

	"stilnovo/marketplace-service/internal/app/marketplace/entity"
	"stilnovo/marketplace-service/internal/app/marketplace/infrastructure"
	"stilnovo/marketplace-service/internal/app/marketplace/repository"
	"stilnovo/pkg/logger"

	"github.com/google/uuid"
)

// InteractionService записывает сигналы интереса (просмотр, лайк, покупка)
type InteractionService struct {
	repos      repository.Repositories
	scoreCache infrastructure.ScoreCache
}

// NewInteractionService создает сервис взаимодействий
// scoreCache может быть nil, тогда инвалидация кеша рекомендаций не выполняется
func NewInteractionService(repos repository.Repositories, scoreCache infrastructure.ScoreCache) *InteractionService {
	return &InteractionService{
		repos:      repos,
		scoreCache: scoreCache,
	}
}

// RecordInteraction добавляет взаимодействие аккаунта с объявлением
// Дубликаты допустимы: повторные просмотры - нормальный сигнал
func (s *InteractionService) RecordInteraction(ctx context.Context, accountID, listingID uuid.UUID, kind entity.InteractionKind) (*entity.Interaction, error) {
	if !kind.Valid() {
		return nil, ErrInvalidInteractionKind
	}

	if _, err := s.repos.Accounts().GetByID(ctx, accountID); err != nil {
		return nil, translateError(err, "get account")
	}
	if _, err := s.repos.Listings().GetByID(ctx, listingID); err != nil {
		return nil, translateError(err, "get listing")
	}

	interaction, err := appendInteraction(ctx, s.repos, accountID, listingID, kind)
	if err != nil {
		return nil, translateError(err, "record interaction")
	}

	s.invalidateScores(ctx, accountID)
	return interaction, nil
}

// LikeListing - добавление в избранное
func (s *InteractionService) LikeListing(ctx context.Context, accountID, listingID uuid.UUID) (*entity.Interaction, error) {
	return s.RecordInteraction(ctx, accountID, listingID, entity.InteractionLike)
}

// appendInteraction пишет взаимодействие через переданные репозитории
// Используется и внутри unit of work покупки; существование сторон проверяет вызывающий
func appendInteraction(ctx context.Context, repos repository.Repositories, accountID, listingID uuid.UUID, kind entity.InteractionKind) (*entity.Interaction, error) {
	interaction := &entity.Interaction{
		ID:        newID(),
		AccountID: accountID,
		ListingID: listingID,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}

	if err := repos.Interactions().Append(ctx, interaction); err != nil {
		return nil, err
	}
	return interaction, nil
}

// invalidateScores сбрасывает кеш очков аккаунта, ошибки не критичны
func (s *InteractionService) invalidateScores(ctx context.Context, accountID uuid.UUID) {
	if s.scoreCache == nil {
		return
	}
	if err := s.scoreCache.Invalidate(ctx, accountID); err != nil {
		logger.Warn().Err(err).Str("account_id", accountID.String()).Msg("failed to invalidate recommendation scores")
	}
}
