package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Store реализует UnitOfWork поверх GORM
type Store struct {
	db *gorm.DB
}

// NewStore создает хранилище поверх подключения к PostgreSQL
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Accounts() AccountRepository         { return NewAccountRepository(s.db) }
func (s *Store) Listings() ListingRepository         { return NewListingRepository(s.db) }
func (s *Store) Transactions() TransactionRepository { return NewTransactionRepository(s.db) }
func (s *Store) Ratings() RatingRepository           { return NewRatingRepository(s.db) }
func (s *Store) Interactions() InteractionRepository { return NewInteractionRepository(s.db) }

// Do открывает транзакцию и передает в fn репозитории, привязанные к ней
// Изоляция по умолчанию (read committed): гонки на статусе объявления
// закрываются условным UPDATE, а не уровнем изоляции
func (s *Store) Do(ctx context.Context, fn func(tx Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// AutoMigrate создает таблицы и индексы
// Уникальный индекс ux_ratings_transaction_id держит инвариант "один отзыв на сделку"
func (s *Store) AutoMigrate(models ...interface{}) error {
	return s.db.AutoMigrate(models...)
}

// isUniqueViolation распознает нарушение уникального индекса
// gorm.ErrDuplicatedKey приходит при TranslateError, PgError - без него
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" // unique_violation
}
