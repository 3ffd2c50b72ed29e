package service

import (
	"context"

	"stilnovo/marketplace-service/internal/app/marketplace/entity"

	"github.com/google/uuid"
)

type InteractionServiceInterface interface {
	RecordInteraction(ctx context.Context, accountID, listingID uuid.UUID, kind entity.InteractionKind) (*entity.Interaction, error)
	LikeListing(ctx context.Context, accountID, listingID uuid.UUID) (*entity.Interaction, error)
}

type RecommendationServiceInterface interface {
	Recommend(ctx context.Context, accountID uuid.UUID, limit int) ([]entity.Listing, error)
}

type PurchaseServiceInterface interface {
	GetListing(ctx context.Context, listingID uuid.UUID) (*entity.Listing, error)
	ExecutePurchase(ctx context.Context, listingID, buyerID uuid.UUID) (*entity.Transaction, error)
	GetTransactionForParticipant(ctx context.Context, transactionID, accountID uuid.UUID) (*entity.Transaction, error)
	GetSellerTransactions(ctx context.Context, sellerID uuid.UUID) ([]entity.Transaction, error)
	GetBuyerTransactions(ctx context.Context, buyerID uuid.UUID) ([]entity.Transaction, error)
	GetPendingRatings(ctx context.Context, buyerID uuid.UUID) ([]entity.Transaction, error)
	GetPlatformStats(ctx context.Context) (*entity.PlatformStats, error)
}

type ReputationServiceInterface interface {
	SaveRating(ctx context.Context, transactionID uuid.UUID, stars int, comment string, requesterID uuid.UUID) (*entity.Rating, error)
	EditRating(ctx context.Context, ratingID uuid.UUID, stars int, comment string, requesterID uuid.UUID) (*entity.Rating, error)
	DeleteRating(ctx context.Context, ratingID, requesterID uuid.UUID) error
	DeleteTransaction(ctx context.Context, transactionID uuid.UUID) error
	RecomputeSellerReputation(ctx context.Context, sellerID uuid.UUID) (*entity.Account, error)
	GetSellerRatings(ctx context.Context, sellerID uuid.UUID) ([]entity.Rating, error)
	GetBuyerRatings(ctx context.Context, buyerID uuid.UUID) ([]entity.Rating, error)
}

// SellerReputationRecomputer - часть ReputationService, нужная auditor
type SellerReputationRecomputer interface {
	RecomputeSellerReputation(ctx context.Context, sellerID uuid.UUID) (*entity.Account, error)
}

type AuditServiceInterface interface {
	AuditSeller(ctx context.Context, sellerID uuid.UUID) (*entity.AuditReport, error)
	AuditAll(ctx context.Context) ([]entity.AuditReport, error)
	HandleEvent(ctx context.Context, event entity.MarketEvent) error
}
