package repository

import (
	"context"
	"errors"

	"stilnovo/marketplace-service/internal/app/marketplace/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository создает новый репозиторий объявлений
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

// Create создает новое объявление
func (r *listingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

// GetByID получает объявление по ID
func (r *listingRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	var listing entity.Listing
	result := r.db.WithContext(ctx).First(&listing, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, result.Error
	}

	return &listing, nil
}

// Save обновляет объявление целиком
func (r *listingRepository) Save(ctx context.Context, listing *entity.Listing) error {
	result := r.db.WithContext(ctx).Model(&entity.Listing{}).
		Where("id = ?", listing.ID).
		Updates(map[string]interface{}{
			"name":        listing.Name,
			"category":    listing.Category,
			"description": listing.Description,
			"price":       listing.Price,
			"location":    listing.Location,
			"status":      listing.Status,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrListingNotFound
	}

	return nil
}

// CompareAndSetStatus меняет статус только если текущий равен expected
// false без ошибки означает, что статус уже изменил кто-то другой
func (r *listingRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, expected, next entity.ListingStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entity.Listing{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", next)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// FindCandidates возвращает объявления чужих продавцов для рекомендаций
// Пустой statuses означает "любой статус"
func (r *listingRepository) FindCandidates(ctx context.Context, excludeOwner uuid.UUID, statuses []entity.ListingStatus) ([]entity.Listing, error) {
	var listings []entity.Listing
	query := r.db.WithContext(ctx).Where("seller_id <> ?", excludeOwner)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	result := query.Order("id DESC").Find(&listings)
	if result.Error != nil {
		return nil, result.Error
	}

	return listings, nil
}
