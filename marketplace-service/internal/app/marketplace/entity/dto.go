package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RecordInteractionRequest struct {
	Kind InteractionKind `json:"kind" validate:"required,oneof=view like purchase"`
}

type SaveRatingRequest struct {
	Stars   int    `json:"stars" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type EditRatingRequest struct {
	Stars   int    `json:"stars" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type RecommendationQuery struct {
	Limit int `form:"limit" validate:"gte=0,lte=50"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type TransactionResponse struct {
	ID         uuid.UUID         `json:"id"`
	SellerID   uuid.UUID         `json:"seller_id"`
	BuyerID    uuid.UUID         `json:"buyer_id"`
	ListingID  uuid.UUID         `json:"listing_id"`
	FinalPrice decimal.Decimal   `json:"final_price"`
	Status     TransactionStatus `json:"status"`
	CreatedAt  string            `json:"created_at"`
}

type RatingResponse struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Stars         int       `json:"stars"`
	Comment       string    `json:"comment"`
	SellerID      uuid.UUID `json:"seller_id"`
	BuyerID       uuid.UUID `json:"buyer_id"`
	CreatedAt     string    `json:"created_at"`
}

type ListingResponse struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Location string          `json:"location"`
	Status   ListingStatus   `json:"status"`
	SellerID uuid.UUID       `json:"seller_id"`
}
