package repository

import (
	"context"
	"errors"

	"stilnovo/marketplace-service/internal/app/marketplace/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrAccountNotFound     = errors.New("account not found")
	ErrListingNotFound     = errors.New("listing not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrRatingNotFound      = errors.New("rating not found")
	ErrDuplicateRating     = errors.New("rating for this transaction already exists")
)

type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)
	LockForUpdate(ctx context.Context, id uuid.UUID) (*entity.Account, error)
	GetByName(ctx context.Context, name string) (*entity.Account, error)
	Save(ctx context.Context, account *entity.Account) error
	Credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	SetReputation(ctx context.Context, id uuid.UUID, score float64, count int) error
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error)
	Save(ctx context.Context, listing *entity.Listing) error
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, expected, next entity.ListingStatus) (bool, error)
	FindCandidates(ctx context.Context, excludeOwner uuid.UUID, statuses []entity.ListingStatus) ([]entity.Listing, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *entity.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindBySeller(ctx context.Context, sellerID uuid.UUID) ([]entity.Transaction, error)
	FindByBuyer(ctx context.Context, buyerID uuid.UUID) ([]entity.Transaction, error)
	FindUnratedByBuyer(ctx context.Context, buyerID uuid.UUID) ([]entity.Transaction, error)
	SellerTotals(ctx context.Context, sellerID uuid.UUID) (*entity.SellerLedgerTotals, error)
	Stats(ctx context.Context) (*entity.PlatformStats, error)
}

type RatingRepository interface {
	Create(ctx context.Context, rating *entity.Rating) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Rating, error)
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*entity.Rating, error)
	Update(ctx context.Context, rating *entity.Rating) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsForTransaction(ctx context.Context, transactionID uuid.UUID) (bool, error)
	FindBySeller(ctx context.Context, sellerID uuid.UUID) ([]entity.Rating, error)
	FindByBuyer(ctx context.Context, buyerID uuid.UUID) ([]entity.Rating, error)
}

type InteractionRepository interface {
	Append(ctx context.Context, interaction *entity.Interaction) error
	AggregateScoreByCategory(ctx context.Context, accountID uuid.UUID, weights map[entity.InteractionKind]int) (map[string]int, error)
}

// Repositories - набор репозиториев, привязанных к одному соединению или транзакции
type Repositories interface {
	Accounts() AccountRepository
	Listings() ListingRepository
	Transactions() TransactionRepository
	Ratings() RatingRepository
	Interactions() InteractionRepository
}

// UnitOfWork выполняет fn в одной транзакции БД
// Все репозитории, полученные из tx, пишут в эту транзакцию
// Ошибка из fn откатывает все изменения
type UnitOfWork interface {
	Repositories
	Do(ctx context.Context, fn func(tx Repositories) error) error
}
