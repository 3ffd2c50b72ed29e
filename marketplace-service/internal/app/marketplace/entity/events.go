package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Типы событий маркетплейса для Kafka
const (
	EventPurchaseCompleted   = "PURCHASE_COMPLETED"
	EventRatingSaved         = "RATING_SAVED"
	EventRatingUpdated       = "RATING_UPDATED"
	EventRatingDeleted       = "RATING_DELETED"
	EventTransactionReversed = "TRANSACTION_REVERSED"
)

// MarketEvent - событие о сделке или отзыве
// Для TRANSACTION_REVERSED заполняются Transaction и Rating (снимок до удаления)
type MarketEvent struct {
	EventType     string          `json:"event_type"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	ListingID     uuid.UUID       `json:"listing_id"`
	SellerID      uuid.UUID       `json:"seller_id"`
	BuyerID       uuid.UUID       `json:"buyer_id"`
	Amount        decimal.Decimal `json:"amount"`
	RatingID      *uuid.UUID      `json:"rating_id,omitempty"`
	Stars         int             `json:"stars,omitempty"`
	Transaction   *Transaction    `json:"transaction,omitempty"`
	Rating        *Rating         `json:"rating,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// ReversalRecord - архивная копия удаленной администратором сделки (MongoDB)
type ReversalRecord struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TransactionID string             `json:"transaction_id" bson:"transaction_id"`
	ListingID     string             `json:"listing_id" bson:"listing_id"`
	SellerID      string             `json:"seller_id" bson:"seller_id"`
	BuyerID       string             `json:"buyer_id" bson:"buyer_id"`
	FinalPrice    string             `json:"final_price" bson:"final_price"` // decimal строкой, без потери точности
	SoldAt        time.Time          `json:"sold_at" bson:"sold_at"`
	RatingStars   int                `json:"rating_stars,omitempty" bson:"rating_stars,omitempty"`
	RatingComment string             `json:"rating_comment,omitempty" bson:"rating_comment,omitempty"`
	ReversedAt    time.Time          `json:"reversed_at" bson:"reversed_at"`
	ArchivedAt    time.Time          `json:"archived_at" bson:"archived_at"`
}

// NewReversalRecord строит архивную запись из события TRANSACTION_REVERSED
func NewReversalRecord(event MarketEvent) ReversalRecord {
	record := ReversalRecord{
		TransactionID: event.TransactionID.String(),
		ListingID:     event.ListingID.String(),
		SellerID:      event.SellerID.String(),
		BuyerID:       event.BuyerID.String(),
		FinalPrice:    event.Amount.StringFixed(2),
		ReversedAt:    event.Timestamp,
		ArchivedAt:    time.Now().UTC(),
	}
	if event.Transaction != nil {
		record.SoldAt = event.Transaction.CreatedAt
	}
	if event.Rating != nil {
		record.RatingStars = event.Rating.Stars
		record.RatingComment = event.Rating.Comment
	}
	return record
}

// AuditReport - результат сверки производных полей продавца
type AuditReport struct {
	SellerID           uuid.UUID       `json:"seller_id"`
	ReputationBefore   float64         `json:"reputation_before"`
	ReputationAfter    float64         `json:"reputation_after"`
	RatingCount        int             `json:"rating_count"`
	LedgerBalance      decimal.Decimal `json:"ledger_balance"`
	LifetimeRevenue    decimal.Decimal `json:"lifetime_revenue"`
	ExpectedRevenue    decimal.Decimal `json:"expected_revenue"`
	ReputationRepaired bool            `json:"reputation_repaired"`
	LedgerDrift        bool            `json:"ledger_drift"`
}
