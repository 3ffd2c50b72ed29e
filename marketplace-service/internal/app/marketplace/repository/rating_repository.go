package repository

import (
	"context"
	"errors"

	"stilnovo/marketplace-service/internal/app/marketplace/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ratingRepository struct {
	db *gorm.DB
}

// NewRatingRepository создает новый репозиторий отзывов
func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

// Create сохраняет отзыв
// Второй отзыв на ту же сделку отсекается уникальным индексом и возвращает ErrDuplicateRating
func (r *ratingRepository) Create(ctx context.Context, rating *entity.Rating) error {
	result := r.db.WithContext(ctx).Create(rating)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrDuplicateRating
		}
		return result.Error
	}
	return nil
}

// GetByID получает отзыв по ID
func (r *ratingRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Rating, error) {
	var rating entity.Rating
	result := r.db.WithContext(ctx).First(&rating, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRatingNotFound
		}
		return nil, result.Error
	}

	return &rating, nil
}

// GetByTransactionID получает отзыв по сделке
func (r *ratingRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*entity.Rating, error) {
	var rating entity.Rating
	result := r.db.WithContext(ctx).First(&rating, "transaction_id = ?", transactionID)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRatingNotFound
		}
		return nil, result.Error
	}

	return &rating, nil
}

// Update меняет оценку и комментарий
func (r *ratingRepository) Update(ctx context.Context, rating *entity.Rating) error {
	result := r.db.WithContext(ctx).Model(&entity.Rating{}).
		Where("id = ?", rating.ID).
		Updates(map[string]interface{}{
			"stars":   rating.Stars,
			"comment": rating.Comment,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrRatingNotFound
	}

	return nil
}

// Delete удаляет отзыв
func (r *ratingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&entity.Rating{}, "id = ?", id)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrRatingNotFound
	}

	return nil
}

// ExistsForTransaction проверяет, есть ли уже отзыв по сделке
func (r *ratingRepository) ExistsForTransaction(ctx context.Context, transactionID uuid.UUID) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&entity.Rating{}).
		Where("transaction_id = ?", transactionID).
		Count(&count)

	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

// FindBySeller возвращает отзывы о продавце, новые первыми
func (r *ratingRepository) FindBySeller(ctx context.Context, sellerID uuid.UUID) ([]entity.Rating, error) {
	var ratings []entity.Rating
	result := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&ratings)

	if result.Error != nil {
		return nil, result.Error
	}

	return ratings, nil
}

// FindByBuyer возвращает отзывы, оставленные покупателем
func (r *ratingRepository) FindByBuyer(ctx context.Context, buyerID uuid.UUID) ([]entity.Rating, error) {
	var ratings []entity.Rating
	result := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&ratings)

	if result.Error != nil {
		return nil, result.Error
	}

	return ratings, nil
}
