package service

import (
	"context"
	"encoding/json"

	"stilnovo/marketplace-service/internal/app/marketplace/entity"
	"stilnovo/marketplace-service/internal/app/marketplace/infrastructure"
	"stilnovo/pkg/logger"

	"github.com/google/uuid"
)

// newID генерирует UUIDv7: байтовый порядок совпадает с порядком создания
func newID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// publishEvent отправляет событие в Kafka после коммита
// Ошибка публикации только логируется: данные уже сохранены
func publishEvent(ctx context.Context, publisher infrastructure.MessagePublisher, event entity.MarketEvent) {
	if publisher == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Str("event_type", event.EventType).Msg("failed to marshal market event")
		return
	}

	if err := publisher.PublishMessage(ctx, event.TransactionID.String(), data); err != nil {
		logger.Warn().
			Err(err).
			Str("event_type", event.EventType).
			Str("transaction_id", event.TransactionID.String()).
			Msg("failed to publish market event")
	}
}
