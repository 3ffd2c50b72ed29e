package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListingStatus представляет статусы объявления
type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"   // Доступно для покупки
	ListingStatusInactive ListingStatus = "inactive" // Скрыто продавцом или администратором
	ListingStatusSold     ListingStatus = "sold"     // Продано, ровно одна транзакция
)

// Listing представляет объявление продавца
type Listing struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string          `json:"name" gorm:"type:varchar(255);not null"`
	Category    string          `json:"category" gorm:"type:varchar(100);not null;index"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Location    string          `json:"location" gorm:"type:varchar(255)"`
	Status      ListingStatus   `json:"status" gorm:"type:varchar(20);not null;default:'active';index"`
	SellerID    uuid.UUID       `json:"seller_id" gorm:"type:uuid;not null;index"` // Владелец объявления
	CreatedAt   time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName указывает имя таблицы для GORM
func (Listing) TableName() string {
	return "listings"
}

// IsActive сообщает, можно ли купить объявление
func (l *Listing) IsActive() bool {
	return l.Status == ListingStatusActive
}

// Account представляет участника маркетплейса (покупатель и/или продавец)
// ReputationScore и RatingCount - производные поля, их пишет только ReputationService
// LedgerBalance и LifetimeRevenue пишут только PurchaseService и ReputationService
type Account struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Name            string          `json:"name" gorm:"type:varchar(100);not null;uniqueIndex"`
	Email           string          `json:"email" gorm:"type:varchar(255)"`
	Roles           RoleSet         `json:"roles" gorm:"type:text;not null"`
	LedgerBalance   decimal.Decimal `json:"ledger_balance" gorm:"type:decimal(12,2);not null;default:0"`
	LifetimeRevenue decimal.Decimal `json:"lifetime_revenue" gorm:"type:decimal(12,2);not null;default:0"`
	ReputationScore float64         `json:"reputation_score" gorm:"not null;default:0"` // 0.0 - 5.0, один знак после запятой
	RatingCount     int             `json:"rating_count" gorm:"not null;default:0"`
	Banned          bool            `json:"banned" gorm:"not null;default:false"`
	CreatedAt       time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

// TableName указывает имя таблицы для GORM
func (Account) TableName() string {
	return "accounts"
}

// TransactionStatus представляет статус сделки
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
)

// Transaction - неизменяемая запись о завершенной продаже
type Transaction struct {
	ID         uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	SellerID   uuid.UUID         `json:"seller_id" gorm:"type:uuid;not null;index"`
	BuyerID    uuid.UUID         `json:"buyer_id" gorm:"type:uuid;not null;index"`
	ListingID  uuid.UUID         `json:"listing_id" gorm:"type:uuid;not null;index"`
	FinalPrice decimal.Decimal   `json:"final_price" gorm:"type:decimal(12,2);not null"` // Цена на момент продажи
	Status     TransactionStatus `json:"status" gorm:"type:varchar(20);not null;default:'completed'"`
	CreatedAt  time.Time         `json:"created_at"`
}

// TableName указывает имя таблицы для GORM
func (Transaction) TableName() string {
	return "transactions"
}

// Rating - отзыв покупателя о продавце, не больше одного на сделку
// SellerID и BuyerID копируются из сделки при создании
type Rating struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TransactionID uuid.UUID `json:"transaction_id" gorm:"type:uuid;not null;uniqueIndex:ux_ratings_transaction_id"`
	Stars         int       `json:"stars" gorm:"not null;check:stars >= 1 AND stars <= 5"`
	Comment       string    `json:"comment" gorm:"type:text"`
	SellerID      uuid.UUID `json:"seller_id" gorm:"type:uuid;not null;index"`
	BuyerID       uuid.UUID `json:"buyer_id" gorm:"type:uuid;not null;index"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName указывает имя таблицы для GORM
func (Rating) TableName() string {
	return "ratings"
}

// Interaction - сигнал интереса аккаунта к объявлению, только добавление
type Interaction struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	AccountID uuid.UUID       `json:"account_id" gorm:"type:uuid;not null;index"`
	ListingID uuid.UUID       `json:"listing_id" gorm:"type:uuid;not null;index"`
	Kind      InteractionKind `json:"kind" gorm:"type:varchar(20);not null"`
	CreatedAt time.Time       `json:"created_at"`
}

// TableName указывает имя таблицы для GORM
func (Interaction) TableName() string {
	return "interactions"
}

// PlatformStats - сводка по всем сделкам для админки
type PlatformStats struct {
	TransactionCount int64           `json:"transaction_count"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
}

// SellerLedgerTotals - суммы по существующим сделкам продавца
type SellerLedgerTotals struct {
	SellerID         uuid.UUID       `json:"seller_id"`
	TransactionCount int64           `json:"transaction_count"`
	TotalFinalPrice  decimal.Decimal `json:"total_final_price"`
}

// AllModels возвращает модели для AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&Account{},
		&Listing{},
		&Transaction{},
		&Rating{},
		&Interaction{},
	}
}
