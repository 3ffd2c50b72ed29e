package service

import (
	"context"
	"errors"
	"time"

	"stilnovo/marketplace-service/internal/app/marketplace/entity"
	"stilnovo/marketplace-service/internal/app/marketplace/infrastructure"
	"stilnovo/marketplace-service/internal/app/marketplace/repository"
	"stilnovo/pkg/logger"
	"stilnovo/pkg/metrics"

	"github.com/google/uuid"
)

// PurchaseService проводит продажи и отдает историю сделок
type PurchaseService struct {
	uow          repository.UnitOfWork
	interactions *InteractionService
	publisher    infrastructure.MessagePublisher
}

// NewPurchaseService создает сервис покупок
func NewPurchaseService(
	uow repository.UnitOfWork,
	interactions *InteractionService,
	publisher infrastructure.MessagePublisher,
) *PurchaseService {
	return &PurchaseService{
		uow:          uow,
		interactions: interactions,
		publisher:    publisher,
	}
}

// GetListing возвращает объявление (вызывающему нужно для проверки покупки у самого себя)
func (s *PurchaseService) GetListing(ctx context.Context, listingID uuid.UUID) (*entity.Listing, error) {
	listing, err := s.uow.Listings().GetByID(ctx, listingID)
	if err != nil {
		return nil, translateError(err, "get listing")
	}
	return listing, nil
}

// ExecutePurchase продает объявление покупателю
// В одной транзакции БД:
// 1. Проверяет покупателя и объявление
// 2. Переводит объявление active -> sold условным UPDATE (проигравший параллельный покупатель получает ErrListingNotActive)
// 3. Создает сделку с ценой на момент продажи
// 4. Атомарно зачисляет цену на баланс и в выручку продавца
// 5. Записывает взаимодействие purchase
// Проверка buyer != seller - обязанность вызывающего
func (s *PurchaseService) ExecutePurchase(ctx context.Context, listingID, buyerID uuid.UUID) (*entity.Transaction, error) {
	var tx *entity.Transaction

	err := s.uow.Do(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Accounts().GetByID(ctx, buyerID); err != nil {
			return err
		}

		listing, err := repos.Listings().GetByID(ctx, listingID)
		if err != nil {
			return err
		}
		if !listing.IsActive() {
			return ErrListingNotActive
		}

		swapped, err := repos.Listings().CompareAndSetStatus(ctx, listingID, entity.ListingStatusActive, entity.ListingStatusSold)
		if err != nil {
			return err
		}
		if !swapped {
			return ErrListingNotActive
		}

		tx = &entity.Transaction{
			ID:         newID(),
			SellerID:   listing.SellerID,
			BuyerID:    buyerID,
			ListingID:  listingID,
			FinalPrice: listing.Price.Round(2),
			Status:     entity.TransactionStatusCompleted,
			CreatedAt:  time.Now().UTC(),
		}
		if err := repos.Transactions().Create(ctx, tx); err != nil {
			return err
		}

		if err := repos.Accounts().Credit(ctx, listing.SellerID, tx.FinalPrice); err != nil {
			return err
		}

		_, err = appendInteraction(ctx, repos, buyerID, listingID, entity.InteractionPurchase)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrListingNotActive) {
			metrics.RecordPurchaseConflict("not_active")
		}
		return nil, translateError(err, "execute purchase")
	}

	metrics.RecordPurchase(tx.FinalPrice.InexactFloat64())
	logger.Info().
		Str("transaction_id", tx.ID.String()).
		Str("listing_id", listingID.String()).
		Str("buyer_id", buyerID.String()).
		Str("seller_id", tx.SellerID.String()).
		Str("final_price", tx.FinalPrice.StringFixed(2)).
		Msg("Purchase completed")

	s.interactions.invalidateScores(ctx, buyerID)
	publishEvent(ctx, s.publisher, entity.MarketEvent{
		EventType:     entity.EventPurchaseCompleted,
		TransactionID: tx.ID,
		ListingID:     tx.ListingID,
		SellerID:      tx.SellerID,
		BuyerID:       tx.BuyerID,
		Amount:        tx.FinalPrice,
		Timestamp:     tx.CreatedAt,
	})

	return tx, nil
}

// GetTransactionForParticipant возвращает сделку покупателю или продавцу
func (s *PurchaseService) GetTransactionForParticipant(ctx context.Context, transactionID, accountID uuid.UUID) (*entity.Transaction, error) {
	tx, err := s.uow.Transactions().GetByID(ctx, transactionID)
	if err != nil {
		return nil, translateError(err, "get transaction")
	}

	if tx.BuyerID != accountID && tx.SellerID != accountID {
		return nil, ErrNotTransactionParticipant
	}

	return tx, nil
}

// GetSellerTransactions возвращает продажи продавца
func (s *PurchaseService) GetSellerTransactions(ctx context.Context, sellerID uuid.UUID) ([]entity.Transaction, error) {
	txs, err := s.uow.Transactions().FindBySeller(ctx, sellerID)
	if err != nil {
		return nil, translateError(err, "get seller transactions")
	}
	return txs, nil
}

// GetBuyerTransactions возвращает покупки аккаунта
func (s *PurchaseService) GetBuyerTransactions(ctx context.Context, buyerID uuid.UUID) ([]entity.Transaction, error) {
	txs, err := s.uow.Transactions().FindByBuyer(ctx, buyerID)
	if err != nil {
		return nil, translateError(err, "get buyer transactions")
	}
	return txs, nil
}

// GetPendingRatings возвращает покупки, которые покупатель еще не оценил
func (s *PurchaseService) GetPendingRatings(ctx context.Context, buyerID uuid.UUID) ([]entity.Transaction, error) {
	txs, err := s.uow.Transactions().FindUnratedByBuyer(ctx, buyerID)
	if err != nil {
		return nil, translateError(err, "get pending ratings")
	}
	return txs, nil
}

// GetPlatformStats возвращает число сделок и оборот платформы
func (s *PurchaseService) GetPlatformStats(ctx context.Context) (*entity.PlatformStats, error) {
	stats, err := s.uow.Transactions().Stats(ctx)
	if err != nil {
		return nil, translateError(err, "get platform stats")
	}
	return stats, nil
}
