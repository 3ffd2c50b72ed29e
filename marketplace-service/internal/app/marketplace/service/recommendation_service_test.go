package service

import (
	"context"
	"errors"
	"testing"

	"stilnovo/marketplace-service/internal/app/marketplace/config"
	"stilnovo/marketplace-service/internal/app/marketplace/entity"
	"stilnovo/marketplace-service/internal/app/marketplace/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testRecommendationConfig = config.RecommendationConfig{
	DefaultLimit: 8,
	MaxLimit:     50,
	ExcludeSold:  true,
}

// orderedID возвращает UUIDv7-подобный id, сортируемый по n
func orderedID(n byte) uuid.UUID {
	id := uuid.MustParse("01900000-0000-7000-8000-000000000000")
	id[15] = n
	return id
}

func listingIDs(listings []entity.Listing) []uuid.UUID {
	ids := make([]uuid.UUID, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
	}
	return ids
}

// ===================== Recommend Tests =====================

func TestRecommend_Anonymous(t *testing.T) {
	uow := mocks.NewMockUnitOfWork()
	svc := NewRecommendationService(uow, nil, testRecommendationConfig)

	listings, err := svc.Recommend(context.Background(), uuid.Nil, 10)

	require.NoError(t, err)
	assert.NotNil(t, listings)
	assert.Empty(t, listings)
	uow.InteractionRepo.AssertNotCalled(t, "AggregateScoreByCategory", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecommend_RanksByCategoryScore(t *testing.T) {
	// Arrange: два лайка tech (6) + покупка tech (5) + 4 просмотра tech = 15, один просмотр home = 1
	uow := mocks.NewMockUnitOfWork()
	svc := NewRecommendationService(uow, nil, testRecommendationConfig)
	ctx := context.Background()
	accountID := uuid.New()
	otherSeller := uuid.New()

	homeOld := entity.Listing{ID: orderedID(1), Category: "home", SellerID: otherSeller, Status: entity.ListingStatusActive}
	techOld := entity.Listing{ID: orderedID(2), Category: "tech", SellerID: otherSeller, Status: entity.ListingStatusActive}
	books := entity.Listing{ID: orderedID(3), Category: "books", SellerID: otherSeller, Status: entity.ListingStatusActive}
	techNew := entity.Listing{ID: orderedID(4), Category: "tech", SellerID: otherSeller, Status: entity.ListingStatusActive}
	own := entity.Listing{ID: orderedID(5), Category: "tech", SellerID: accountID, Status: entity.ListingStatusActive}

	uow.InteractionRepo.On("AggregateScoreByCategory", ctx, accountID, entity.InteractionWeights).
		Return(map[string]int{"tech": 15, "home": 1}, nil)
	uow.ListingRepo.On("FindCandidates", ctx, accountID, []entity.ListingStatus{entity.ListingStatusActive}).
		Return([]entity.Listing{own, techNew, books, techOld, homeOld}, nil)

	// Act
	listings, err := svc.Recommend(ctx, accountID, 10)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{techNew.ID, techOld.ID, homeOld.ID, books.ID}, listingIDs(listings))
}

func TestRecommend_NoHistoryOrdersByNewest(t *testing.T) {
	uow := mocks.NewMockUnitOfWork()
	svc := NewRecommendationService(uow, nil, testRecommendationConfig)
	ctx := context.Background()
	accountID := uuid.New()
	seller := uuid.New()

	candidates := []entity.Listing{
		{ID: orderedID(1), Category: "a", SellerID: seller},
		{ID: orderedID(3), Category: "b", SellerID: seller},
		{ID: orderedID(2), Category: "c", SellerID: seller},
	}
	uow.InteractionRepo.On("AggregateScoreByCategory", ctx, accountID, mock.Anything).Return(map[string]int{}, nil)
	uow.ListingRepo.On("FindCandidates", ctx, accountID, mock.Anything).Return(candidates, nil)

	listings, err := svc.Recommend(ctx, accountID, 0)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{orderedID(3), orderedID(2), orderedID(1)}, listingIDs(listings))
}

func TestRecommend_LimitDefaultsAndCap(t *testing.T) {
	uow := mocks.NewMockUnitOfWork()
	svc := NewRecommendationService(uow, nil, testRecommendationConfig)
	ctx := context.Background()
	accountID := uuid.New()
	seller := uuid.New()

	candidates := make([]entity.Listing, 60)
	for i := range candidates {
		candidates[i] = entity.Listing{ID: orderedID(byte(i)), Category: "tech", SellerID: seller}
	}
	uow.InteractionRepo.On("AggregateScoreByCategory", ctx, accountID, mock.Anything).Return(map[string]int{"tech": 1}, nil)
	uow.ListingRepo.On("FindCandidates", ctx, accountID, mock.Anything).Return(candidates, nil)

	tests := []struct {
		limit int
		want  int
	}{
		{limit: 0, want: 8},
		{limit: -3, want: 8},
		{limit: 3, want: 3},
		{limit: 1000, want: 50},
	}

	for _, tt := range tests {
		listings, err := svc.Recommend(ctx, accountID, tt.limit)
		require.NoError(t, err)
		assert.Len(t, listings, tt.want, "limit %d", tt.limit)
	}
}

func TestRecommend_AnyStatusWhenNotStrict(t *testing.T) {
	uow := mocks.NewMockUnitOfWork()
	cfg := testRecommendationConfig
	cfg.ExcludeSold = false
	svc := NewRecommendationService(uow, nil, cfg)
	ctx := context.Background()
	accountID := uuid.New()

	uow.InteractionRepo.On("AggregateScoreByCategory", ctx, accountID, mock.Anything).Return(map[string]int{}, nil)
	uow.ListingRepo.On("FindCandidates", ctx, accountID, []entity.ListingStatus(nil)).Return([]entity.Listing{}, nil)

	_, err := svc.Recommend(ctx, accountID, 5)

	require.NoError(t, err)
	uow.ListingRepo.AssertExpectations(t)
}

func TestRecommend_CacheHit(t *testing.T) {
	uow := mocks.NewMockUnitOfWork()
	cache := new(mocks.MockScoreCache)
	svc := NewRecommendationService(uow, cache, testRecommendationConfig)
	ctx := context.Background()
	accountID := uuid.New()

	cache.On("Get", ctx, accountID).Return(map[string]int{"tech": 3}, true, nil)
	uow.ListingRepo.On("FindCandidates", ctx, accountID, mock.Anything).Return([]entity.Listing{}, nil)

	_, err := svc.Recommend(ctx, accountID, 5)

	require.NoError(t, err)
	uow.InteractionRepo.AssertNotCalled(t, "AggregateScoreByCategory", mock.Anything, mock.Anything, mock.Anything)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecommend_CacheMissStoresScores(t *testing.T) {
	uow := mocks.NewMockUnitOfWork()
	cache := new(mocks.MockScoreCache)
	svc := NewRecommendationService(uow, cache, testRecommendationConfig)
	ctx := context.Background()
	accountID := uuid.New()
	scores := map[string]int{"tech": 5}

	cache.On("Get", ctx, accountID).Return(nil, false, nil)
	cache.On("Version", ctx, accountID).Return(int64(3), nil)
	uow.InteractionRepo.On("AggregateScoreByCategory", ctx, accountID, mock.Anything).Return(scores, nil)
	cache.On("Set", ctx, accountID, int64(3), scores).Return(true, nil)
	uow.ListingRepo.On("FindCandidates", ctx, accountID, mock.Anything).Return([]entity.Listing{}, nil)

	_, err := svc.Recommend(ctx, accountID, 5)

	require.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestRecommend_ScoresChangedDuringReadNotCached(t *testing.T) {
	uow := mocks.NewMockUnitOfWork()
	cache := new(mocks.MockScoreCache)
	svc := NewRecommendationService(uow, cache, testRecommendationConfig)
	ctx := context.Background()
	accountID := uuid.New()
	seller := uuid.New()

	cache.On("Get", ctx, accountID).Return(nil, false, nil)
	cache.On("Version", ctx, accountID).Return(int64(1), nil)
	uow.InteractionRepo.On("AggregateScoreByCategory", ctx, accountID, mock.Anything).Return(map[string]int{"tech": 2}, nil)
	cache.On("Set", ctx, accountID, int64(1), mock.Anything).Return(false, nil)
	uow.ListingRepo.On("FindCandidates", ctx, accountID, mock.Anything).
		Return([]entity.Listing{{ID: orderedID(1), Category: "tech", SellerID: seller}}, nil)

	listings, err := svc.Recommend(ctx, accountID, 5)

	require.NoError(t, err)
	assert.Len(t, listings, 1)
	cache.AssertExpectations(t)
}

func TestRecommend_VersionErrorSkipsCacheWrite(t *testing.T) {
	uow := mocks.NewMockUnitOfWork()
	cache := new(mocks.MockScoreCache)
	svc := NewRecommendationService(uow, cache, testRecommendationConfig)
	ctx := context.Background()
	accountID := uuid.New()

	cache.On("Get", ctx, accountID).Return(nil, false, nil)
	cache.On("Version", ctx, accountID).Return(int64(0), errors.New("redis: i/o timeout"))
	uow.InteractionRepo.On("AggregateScoreByCategory", ctx, accountID, mock.Anything).Return(map[string]int{}, nil)
	uow.ListingRepo.On("FindCandidates", ctx, accountID, mock.Anything).Return([]entity.Listing{}, nil)

	_, err := svc.Recommend(ctx, accountID, 5)

	require.NoError(t, err)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecommend_CacheErrorFallsBackToDB(t *testing.T) {
	uow := mocks.NewMockUnitOfWork()
	cache := new(mocks.MockScoreCache)
	svc := NewRecommendationService(uow, cache, testRecommendationConfig)
	ctx := context.Background()
	accountID := uuid.New()
	seller := uuid.New()

	cache.On("Get", ctx, accountID).Return(nil, false, errors.New("redis: i/o timeout"))
	cache.On("Version", ctx, accountID).Return(int64(0), nil)
	uow.InteractionRepo.On("AggregateScoreByCategory", ctx, accountID, mock.Anything).Return(map[string]int{"tech": 1}, nil)
	cache.On("Set", ctx, accountID, int64(0), mock.Anything).Return(false, errors.New("redis: i/o timeout"))
	uow.ListingRepo.On("FindCandidates", ctx, accountID, mock.Anything).
		Return([]entity.Listing{{ID: orderedID(1), Category: "tech", SellerID: seller}}, nil)

	listings, err := svc.Recommend(ctx, accountID, 5)

	require.NoError(t, err)
	assert.Len(t, listings, 1)
}

func TestRecommend_AggregateError(t *testing.T) {
	uow := mocks.NewMockUnitOfWork()
	svc := NewRecommendationService(uow, nil, testRecommendationConfig)
	ctx := context.Background()
	accountID := uuid.New()

	uow.InteractionRepo.On("AggregateScoreByCategory", ctx, accountID, mock.Anything).Return(nil, errors.New("timeout"))

	_, err := svc.Recommend(ctx, accountID, 5)

	assert.EqualError(t, err, "failed to aggregate interaction scores: timeout")
}

// ===================== rankListings Tests =====================

func TestRankListings_ExcludesOwnListings(t *testing.T) {
	me := uuid.New()
	candidates := []entity.Listing{
		{ID: orderedID(1), SellerID: me, Category: "tech"},
		{ID: orderedID(2), SellerID: uuid.New(), Category: "tech"},
	}

	ranked := rankListings(candidates, me, map[string]int{"tech": 10})

	require.Len(t, ranked, 1)
	assert.Equal(t, orderedID(2), ranked[0].ID)
}
