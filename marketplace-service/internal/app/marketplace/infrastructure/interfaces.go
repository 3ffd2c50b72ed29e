package infrastructure

import (
	"context"

	"stilnovo/marketplace-service/internal/app/marketplace/entity"

	"github.com/google/uuid"
)

type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}

// ScoreCache хранит очки аккаунта по категориям для рекомендаций
// found=false означает промах, пустая map при found=true - валидный результат
// Set пишет только при неизменной версии: Invalidate между Version и Set отменяет запись
type ScoreCache interface {
	Get(ctx context.Context, accountID uuid.UUID) (scores map[string]int, found bool, err error)
	Version(ctx context.Context, accountID uuid.UUID) (int64, error)
	Set(ctx context.Context, accountID uuid.UUID, version int64, scores map[string]int) (stored bool, err error)
	Invalidate(ctx context.Context, accountID uuid.UUID) error
}

// ReversalArchive - журнал отмененных администратором сделок
type ReversalArchive interface {
	Archive(ctx context.Context, record *entity.ReversalRecord) error
	FindBySeller(ctx context.Context, sellerID uuid.UUID) ([]entity.ReversalRecord, error)
}
