package mocks

import (
	"context"
	"sync/atomic"

	"stilnovo/marketplace-service/internal/app/marketplace/entity"
	"stilnovo/marketplace-service/internal/app/marketplace/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository мок для AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *entity.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Account), args.Error(1)
}

func (m *MockAccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByName(ctx context.Context, name string) (*entity.Account, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Account), args.Error(1)
}

func (m *MockAccountRepository) Save(ctx context.Context, account *entity.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) Credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) SetReputation(ctx context.Context, id uuid.UUID, score float64, count int) error {
	args := m.Called(ctx, id, score, count)
	return args.Error(0)
}

func (m *MockAccountRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockListingRepository мок для ListingRepository
type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Listing), args.Error(1)
}

func (m *MockListingRepository) Save(ctx context.Context, listing *entity.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockListingRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, expected, next entity.ListingStatus) (bool, error) {
	args := m.Called(ctx, id, expected, next)
	return args.Bool(0), args.Error(1)
}

func (m *MockListingRepository) FindCandidates(ctx context.Context, excludeOwner uuid.UUID, statuses []entity.ListingStatus) ([]entity.Listing, error) {
	args := m.Called(ctx, excludeOwner, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Listing), args.Error(1)
}

// MockTransactionRepository мок для TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *entity.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindBySeller(ctx context.Context, sellerID uuid.UUID) ([]entity.Transaction, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByBuyer(ctx context.Context, buyerID uuid.UUID) ([]entity.Transaction, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindUnratedByBuyer(ctx context.Context, buyerID uuid.UUID) ([]entity.Transaction, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) SellerTotals(ctx context.Context, sellerID uuid.UUID) (*entity.SellerLedgerTotals, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SellerLedgerTotals), args.Error(1)
}

func (m *MockTransactionRepository) Stats(ctx context.Context) (*entity.PlatformStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PlatformStats), args.Error(1)
}

// MockRatingRepository мок для RatingRepository
type MockRatingRepository struct {
	mock.Mock
}

func (m *MockRatingRepository) Create(ctx context.Context, rating *entity.Rating) error {
	args := m.Called(ctx, rating)
	return args.Error(0)
}

func (m *MockRatingRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Rating, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Rating), args.Error(1)
}

func (m *MockRatingRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*entity.Rating, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Rating), args.Error(1)
}

func (m *MockRatingRepository) Update(ctx context.Context, rating *entity.Rating) error {
	args := m.Called(ctx, rating)
	return args.Error(0)
}

func (m *MockRatingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRatingRepository) ExistsForTransaction(ctx context.Context, transactionID uuid.UUID) (bool, error) {
	args := m.Called(ctx, transactionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRatingRepository) FindBySeller(ctx context.Context, sellerID uuid.UUID) ([]entity.Rating, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Rating), args.Error(1)
}

func (m *MockRatingRepository) FindByBuyer(ctx context.Context, buyerID uuid.UUID) ([]entity.Rating, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Rating), args.Error(1)
}

// MockInteractionRepository мок для InteractionRepository
type MockInteractionRepository struct {
	mock.Mock
}

func (m *MockInteractionRepository) Append(ctx context.Context, interaction *entity.Interaction) error {
	args := m.Called(ctx, interaction)
	return args.Error(0)
}

func (m *MockInteractionRepository) AggregateScoreByCategory(ctx context.Context, accountID uuid.UUID, weights map[entity.InteractionKind]int) (map[string]int, error) {
	args := m.Called(ctx, accountID, weights)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

// MockUnitOfWork выполняет fn сразу с мок-репозиториями, без транзакции
type MockUnitOfWork struct {
	AccountRepo     *MockAccountRepository
	ListingRepo     *MockListingRepository
	TransactionRepo *MockTransactionRepository
	RatingRepo      *MockRatingRepository
	InteractionRepo *MockInteractionRepository

	doCalls atomic.Int32
}

// NewMockUnitOfWork создает UnitOfWork с пустыми моками
func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		AccountRepo:     new(MockAccountRepository),
		ListingRepo:     new(MockListingRepository),
		TransactionRepo: new(MockTransactionRepository),
		RatingRepo:      new(MockRatingRepository),
		InteractionRepo: new(MockInteractionRepository),
	}
}

func (u *MockUnitOfWork) Accounts() repository.AccountRepository         { return u.AccountRepo }
func (u *MockUnitOfWork) Listings() repository.ListingRepository         { return u.ListingRepo }
func (u *MockUnitOfWork) Transactions() repository.TransactionRepository { return u.TransactionRepo }
func (u *MockUnitOfWork) Ratings() repository.RatingRepository           { return u.RatingRepo }
func (u *MockUnitOfWork) Interactions() repository.InteractionRepository { return u.InteractionRepo }

func (u *MockUnitOfWork) Do(ctx context.Context, fn func(tx repository.Repositories) error) error {
	u.doCalls.Add(1)
	return fn(u)
}

// DoCalls возвращает число открытых unit of work
func (u *MockUnitOfWork) DoCalls() int {
	return int(u.doCalls.Load())
}

// AssertExpectations проверяет ожидания всех репозиториев
func (u *MockUnitOfWork) AssertExpectations(t mock.TestingT) {
	u.AccountRepo.AssertExpectations(t)
	u.ListingRepo.AssertExpectations(t)
	u.TransactionRepo.AssertExpectations(t)
	u.RatingRepo.AssertExpectations(t)
	u.InteractionRepo.AssertExpectations(t)
}

// MockMessagePublisher мок для MessagePublisher (Kafka)
type MockMessagePublisher struct {
	mock.Mock
	Messages [][]byte
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	m.Messages = append(m.Messages, value)
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockScoreCache мок для ScoreCache (Redis)
type MockScoreCache struct {
	mock.Mock
}

func (m *MockScoreCache) Get(ctx context.Context, accountID uuid.UUID) (map[string]int, bool, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(map[string]int), args.Bool(1), args.Error(2)
}

func (m *MockScoreCache) Version(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockScoreCache) Set(ctx context.Context, accountID uuid.UUID, version int64, scores map[string]int) (bool, error) {
	args := m.Called(ctx, accountID, version, scores)
	return args.Bool(0), args.Error(1)
}

func (m *MockScoreCache) Invalidate(ctx context.Context, accountID uuid.UUID) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

// MockReversalArchive мок для ReversalArchive (MongoDB)
type MockReversalArchive struct {
	mock.Mock
}

func (m *MockReversalArchive) Archive(ctx context.Context, record *entity.ReversalRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockReversalArchive) FindBySeller(ctx context.Context, sellerID uuid.UUID) ([]entity.ReversalRecord, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ReversalRecord), args.Error(1)
}
