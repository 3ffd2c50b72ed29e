package service

import (
	"context"
	"errors"
	"math"
	"time"

	"stilnovo/marketplace-service/internal/app/marketplace/entity"
	"stilnovo/marketplace-service/internal/app/marketplace/infrastructure"
	"stilnovo/marketplace-service/internal/app/marketplace/repository"
	"stilnovo/pkg/logger"
	"stilnovo/pkg/metrics"

	"github.com/google/uuid"
)

// ReputationService ведет отзывы и производную репутацию продавцов
// Репутация всегда пересчитывается полностью по текущему набору отзывов
type ReputationService struct {
	uow       repository.UnitOfWork
	publisher infrastructure.MessagePublisher
}

// NewReputationService создает сервис репутации
func NewReputationService(uow repository.UnitOfWork, publisher infrastructure.MessagePublisher) *ReputationService {
	return &ReputationService{
		uow:       uow,
		publisher: publisher,
	}
}

// SaveRating создает отзыв покупателя по сделке и пересчитывает репутацию продавца
// Второй отзыв по той же сделке возвращает ErrDuplicateRating, даже при гонке двух запросов
func (s *ReputationService) SaveRating(ctx context.Context, transactionID uuid.UUID, stars int, comment string, requesterID uuid.UUID) (*entity.Rating, error) {
	if !validStars(stars) {
		return nil, ErrInvalidStars
	}

	var rating *entity.Rating
	err := s.uow.Do(ctx, func(repos repository.Repositories) error {
		tx, err := repos.Transactions().GetByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if tx.BuyerID != requesterID {
			return ErrNotTransactionBuyer
		}

		exists, err := repos.Ratings().ExistsForTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateRating
		}

		now := time.Now().UTC()
		rating = &entity.Rating{
			ID:            newID(),
			TransactionID: tx.ID,
			Stars:         stars,
			Comment:       comment,
			SellerID:      tx.SellerID,
			BuyerID:       tx.BuyerID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := repos.Ratings().Create(ctx, rating); err != nil {
			return err
		}

		return recomputeReputation(ctx, repos, tx.SellerID)
	})
	if err != nil {
		return nil, translateError(err, "save rating")
	}

	metrics.RecordRating("create", rating.Stars)
	metrics.ReputationRecomputes.WithLabelValues("rating").Inc()
	logger.Info().
		Str("rating_id", rating.ID.String()).
		Str("transaction_id", transactionID.String()).
		Str("seller_id", rating.SellerID.String()).
		Int("stars", rating.Stars).
		Msg("Rating saved")

	s.publishRatingEvent(ctx, entity.EventRatingSaved, rating)
	return rating, nil
}

// EditRating меняет оценку и комментарий, доступно только автору отзыва
func (s *ReputationService) EditRating(ctx context.Context, ratingID uuid.UUID, stars int, comment string, requesterID uuid.UUID) (*entity.Rating, error) {
	if !validStars(stars) {
		return nil, ErrInvalidStars
	}

	var rating *entity.Rating
	err := s.uow.Do(ctx, func(repos repository.Repositories) error {
		var err error
		rating, err = repos.Ratings().GetByID(ctx, ratingID)
		if err != nil {
			return err
		}
		if rating.BuyerID != requesterID {
			return ErrNotRatingAuthor
		}

		rating.Stars = stars
		rating.Comment = comment
		rating.UpdatedAt = time.Now().UTC()
		if err := repos.Ratings().Update(ctx, rating); err != nil {
			return err
		}

		return recomputeReputation(ctx, repos, rating.SellerID)
	})
	if err != nil {
		return nil, translateError(err, "edit rating")
	}

	metrics.RecordRating("update", rating.Stars)
	metrics.ReputationRecomputes.WithLabelValues("rating").Inc()
	s.publishRatingEvent(ctx, entity.EventRatingUpdated, rating)
	return rating, nil
}

// DeleteRating удаляет отзыв, доступно только автору отзыва
func (s *ReputationService) DeleteRating(ctx context.Context, ratingID, requesterID uuid.UUID) error {
	var rating *entity.Rating
	err := s.uow.Do(ctx, func(repos repository.Repositories) error {
		var err error
		rating, err = repos.Ratings().GetByID(ctx, ratingID)
		if err != nil {
			return err
		}
		if rating.BuyerID != requesterID {
			return ErrNotRatingAuthor
		}

		if err := repos.Ratings().Delete(ctx, ratingID); err != nil {
			return err
		}

		return recomputeReputation(ctx, repos, rating.SellerID)
	})
	if err != nil {
		return translateError(err, "delete rating")
	}

	metrics.RecordRating("delete", 0)
	metrics.ReputationRecomputes.WithLabelValues("rating").Inc()
	s.publishRatingEvent(ctx, entity.EventRatingDeleted, rating)
	return nil
}

// DeleteTransaction - административная отмена сделки
// В одной транзакции БД:
// 1. Удаляет отзыв по сделке (без проверки авторства)
// 2. Возвращает объявление в active
// 3. Списывает цену сделки с баланса и выручки продавца
// 4. Удаляет сделку и пересчитывает репутацию продавца
// Снимок сделки и отзыва уходит событием TRANSACTION_REVERSED для архива
func (s *ReputationService) DeleteTransaction(ctx context.Context, transactionID uuid.UUID) error {
	var (
		tx     *entity.Transaction
		rating *entity.Rating
	)

	err := s.uow.Do(ctx, func(repos repository.Repositories) error {
		var err error
		tx, err = repos.Transactions().GetByID(ctx, transactionID)
		if err != nil {
			return err
		}

		rating, err = repos.Ratings().GetByTransactionID(ctx, transactionID)
		switch {
		case err == nil:
			if err := repos.Ratings().Delete(ctx, rating.ID); err != nil {
				return err
			}
		case errors.Is(err, repository.ErrRatingNotFound):
			rating = nil
		default:
			return err
		}

		// Объявление могло быть удалено, тогда откат идет без восстановления
		listing, err := repos.Listings().GetByID(ctx, tx.ListingID)
		switch {
		case err == nil:
			listing.Status = entity.ListingStatusActive
			if err := repos.Listings().Save(ctx, listing); err != nil {
				return err
			}
		case errors.Is(err, repository.ErrListingNotFound):
			logger.Warn().
				Str("transaction_id", tx.ID.String()).
				Str("listing_id", tx.ListingID.String()).
				Msg("Listing missing, skipping restore")
		default:
			return err
		}

		if err := repos.Accounts().Debit(ctx, tx.SellerID, tx.FinalPrice.Round(2)); err != nil {
			return err
		}

		if err := repos.Transactions().Delete(ctx, tx.ID); err != nil {
			return err
		}

		return recomputeReputation(ctx, repos, tx.SellerID)
	})
	if err != nil {
		return translateError(err, "delete transaction")
	}

	metrics.TransactionsReversed.Inc()
	metrics.ReputationRecomputes.WithLabelValues("reversal").Inc()
	logger.Warn().
		Str("transaction_id", tx.ID.String()).
		Str("listing_id", tx.ListingID.String()).
		Str("seller_id", tx.SellerID.String()).
		Str("final_price", tx.FinalPrice.StringFixed(2)).
		Bool("rating_removed", rating != nil).
		Msg("Transaction reversed by administrator")

	publishEvent(ctx, s.publisher, entity.MarketEvent{
		EventType:     entity.EventTransactionReversed,
		TransactionID: tx.ID,
		ListingID:     tx.ListingID,
		SellerID:      tx.SellerID,
		BuyerID:       tx.BuyerID,
		Amount:        tx.FinalPrice,
		Transaction:   tx,
		Rating:        rating,
		Timestamp:     time.Now().UTC(),
	})

	return nil
}

// RecomputeSellerReputation пересчитывает репутацию продавца вне связи с конкретным отзывом
// Используется auditor для исправления расхождений
func (s *ReputationService) RecomputeSellerReputation(ctx context.Context, sellerID uuid.UUID) (*entity.Account, error) {
	var account *entity.Account
	err := s.uow.Do(ctx, func(repos repository.Repositories) error {
		if err := recomputeReputation(ctx, repos, sellerID); err != nil {
			return err
		}

		var err error
		account, err = repos.Accounts().GetByID(ctx, sellerID)
		return err
	})
	if err != nil {
		return nil, translateError(err, "recompute reputation")
	}

	metrics.ReputationRecomputes.WithLabelValues("audit").Inc()
	return account, nil
}

// GetSellerRatings возвращает отзывы о продавце
func (s *ReputationService) GetSellerRatings(ctx context.Context, sellerID uuid.UUID) ([]entity.Rating, error) {
	ratings, err := s.uow.Ratings().FindBySeller(ctx, sellerID)
	if err != nil {
		return nil, translateError(err, "get seller ratings")
	}
	return ratings, nil
}

// GetBuyerRatings возвращает отзывы, оставленные покупателем
func (s *ReputationService) GetBuyerRatings(ctx context.Context, buyerID uuid.UUID) ([]entity.Rating, error) {
	ratings, err := s.uow.Ratings().FindByBuyer(ctx, buyerID)
	if err != nil {
		return nil, translateError(err, "get buyer ratings")
	}
	return ratings, nil
}

func (s *ReputationService) publishRatingEvent(ctx context.Context, eventType string, rating *entity.Rating) {
	ratingID := rating.ID
	publishEvent(ctx, s.publisher, entity.MarketEvent{
		EventType:     eventType,
		TransactionID: rating.TransactionID,
		SellerID:      rating.SellerID,
		BuyerID:       rating.BuyerID,
		RatingID:      &ratingID,
		Stars:         rating.Stars,
		Timestamp:     time.Now().UTC(),
	})
}

// recomputeReputation читает все отзывы продавца и записывает среднее и количество
// Строка продавца блокируется до чтения отзывов: параллельный пересчет ждет коммита
// и видит уже закоммиченные отзывы
func recomputeReputation(ctx context.Context, repos repository.Repositories, sellerID uuid.UUID) error {
	if _, err := repos.Accounts().LockForUpdate(ctx, sellerID); err != nil {
		return err
	}

	ratings, err := repos.Ratings().FindBySeller(ctx, sellerID)
	if err != nil {
		return err
	}

	score := reputationScore(ratings)
	return repos.Accounts().SetReputation(ctx, sellerID, score, len(ratings))
}

// reputationScore - среднее звезд с округлением до одного знака, 0 без отзывов
func reputationScore(ratings []entity.Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}

	total := 0
	for _, r := range ratings {
		total += r.Stars
	}

	mean := float64(total) / float64(len(ratings))
	return math.Round(mean*10) / 10
}

func validStars(stars int) bool {
	return stars >= 1 && stars <= 5
}
