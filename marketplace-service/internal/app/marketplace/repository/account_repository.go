package repository

import (
	"context"
	"errors"

	"stilnovo/marketplace-service/internal/app/marketplace/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountRepository struct {
	db *gorm.DB // GORM DB или открытая транзакция
}

// NewAccountRepository создает новый репозиторий аккаунтов
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Create создает новый аккаунт
func (r *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// GetByID получает аккаунт по ID
func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	var account entity.Account
	result := r.db.WithContext(ctx).First(&account, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, result.Error
	}

	return &account, nil
}

// LockForUpdate читает аккаунт с блокировкой строки до конца транзакции
// Вне транзакции блокировка снимается сразу после запроса
func (r *accountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	var account entity.Account
	result := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&account, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, result.Error
	}

	return &account, nil
}

// GetByName получает аккаунт по уникальному имени
func (r *accountRepository) GetByName(ctx context.Context, name string) (*entity.Account, error) {
	var account entity.Account
	result := r.db.WithContext(ctx).First(&account, "name = ?", name)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, result.Error
	}

	return &account, nil
}

// Save обновляет профильные поля аккаунта
// Денежные и репутационные поля здесь не пишутся, для них есть Credit/Debit/SetReputation
func (r *accountRepository) Save(ctx context.Context, account *entity.Account) error {
	result := r.db.WithContext(ctx).Model(&entity.Account{}).
		Where("id = ?", account.ID).
		Updates(map[string]interface{}{
			"name":   account.Name,
			"email":  account.Email,
			"roles":  account.Roles,
			"banned": account.Banned,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// Credit атомарно увеличивает баланс и суммарную выручку продавца
// Инкремент выполняется в SQL, поэтому параллельные продажи не теряют обновления
func (r *accountRepository) Credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return r.shiftLedger(ctx, id, amount.Round(2))
}

// Debit атомарно уменьшает баланс и суммарную выручку продавца
func (r *accountRepository) Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return r.shiftLedger(ctx, id, amount.Round(2).Neg())
}

func (r *accountRepository) shiftLedger(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&entity.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"ledger_balance":   gorm.Expr("ledger_balance + ?", delta),
			"lifetime_revenue": gorm.Expr("lifetime_revenue + ?", delta),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// SetReputation записывает пересчитанную репутацию продавца
func (r *accountRepository) SetReputation(ctx context.Context, id uuid.UUID, score float64, count int) error {
	result := r.db.WithContext(ctx).Model(&entity.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"reputation_score": score,
			"rating_count":     count,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// ListIDs возвращает ID всех аккаунтов (для сверки в auditor)
func (r *accountRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	result := r.db.WithContext(ctx).Model(&entity.Account{}).
		Order("id").
		Pluck("id", &ids)

	if result.Error != nil {
		return nil, result.Error
	}

	return ids, nil
}
