package repository

import (
	"context"
	"errors"

	"stilnovo/marketplace-service/internal/app/marketplace/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository создает новый репозиторий сделок
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// Create сохраняет завершенную сделку
func (r *transactionRepository) Create(ctx context.Context, tx *entity.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// GetByID получает сделку по ID
func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	var tx entity.Transaction
	result := r.db.WithContext(ctx).First(&tx, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, result.Error
	}

	return &tx, nil
}

// Delete удаляет сделку
// Отзыв по сделке должен быть удален раньше, этим занимается PurchaseService
func (r *transactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&entity.Transaction{}, "id = ?", id)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}

	return nil
}

// FindBySeller возвращает продажи продавца, новые первыми
func (r *transactionRepository) FindBySeller(ctx context.Context, sellerID uuid.UUID) ([]entity.Transaction, error) {
	var txs []entity.Transaction
	result := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&txs)

	if result.Error != nil {
		return nil, result.Error
	}

	return txs, nil
}

// FindByBuyer возвращает покупки аккаунта, новые первыми
func (r *transactionRepository) FindByBuyer(ctx context.Context, buyerID uuid.UUID) ([]entity.Transaction, error) {
	var txs []entity.Transaction
	result := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&txs)

	if result.Error != nil {
		return nil, result.Error
	}

	return txs, nil
}

// FindUnratedByBuyer возвращает покупки, по которым покупатель еще не оставил отзыв
func (r *transactionRepository) FindUnratedByBuyer(ctx context.Context, buyerID uuid.UUID) ([]entity.Transaction, error) {
	var txs []entity.Transaction
	result := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Where("NOT EXISTS (SELECT 1 FROM ratings WHERE ratings.transaction_id = transactions.id)").
		Order("created_at DESC").
		Find(&txs)

	if result.Error != nil {
		return nil, result.Error
	}

	return txs, nil
}

// SellerTotals считает количество и сумму существующих продаж продавца
func (r *transactionRepository) SellerTotals(ctx context.Context, sellerID uuid.UUID) (*entity.SellerLedgerTotals, error) {
	totals := entity.SellerLedgerTotals{SellerID: sellerID}
	result := r.db.WithContext(ctx).Model(&entity.Transaction{}).
		Select("COUNT(*) AS transaction_count, COALESCE(SUM(final_price), 0) AS total_final_price").
		Where("seller_id = ?", sellerID).
		Scan(&totals)

	if result.Error != nil {
		return nil, result.Error
	}

	totals.SellerID = sellerID
	totals.TotalFinalPrice = totals.TotalFinalPrice.Round(2)
	return &totals, nil
}

// Stats считает количество сделок и оборот платформы
func (r *transactionRepository) Stats(ctx context.Context) (*entity.PlatformStats, error) {
	var stats entity.PlatformStats
	result := r.db.WithContext(ctx).Model(&entity.Transaction{}).
		Select("COUNT(*) AS transaction_count, COALESCE(SUM(final_price), 0) AS total_revenue").
		Scan(&stats)

	if result.Error != nil {
		return nil, result.Error
	}

	stats.TotalRevenue = stats.TotalRevenue.Round(2)
	return &stats, nil
}
