package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stilnovo/marketplace-service/internal/app/marketplace/entity"
	"stilnovo/marketplace-service/internal/app/marketplace/service"
	"stilnovo/pkg/logger"
	"stilnovo/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

const consumerService = "marketplace-auditor"

// KafkaConsumer читает события маркетплейса и передает их в AuditService
type KafkaConsumer struct {
	reader   *kafka.Reader
	audit    service.AuditServiceInterface
	topic    string
	groupID  string
	stopChan chan struct{}
	doneChan chan struct{}

	maxAttempts  int
	retryBackoff time.Duration
}

// NewKafkaConsumer создает новый Kafka consumer
func NewKafkaConsumer(
	brokers []string,
	topic string,
	groupID string,
	minBytes int,
	maxBytes int,
	audit service.AuditServiceInterface,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       minBytes,
		MaxBytes:       maxBytes,
		StartOffset:    kafka.FirstOffset, // отмены нельзя терять: новая группа читает с начала
		CommitInterval: 0,                 // синхронный коммит после обработки
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: time.Second,
	})

	return &KafkaConsumer{
		reader:   reader,
		audit:    audit,
		topic:    topic,
		groupID:  groupID,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),

		maxAttempts:  3,
		retryBackoff: 500 * time.Millisecond,
	}
}

// Start запускает consumer в отдельной горутине
func (c *KafkaConsumer) Start(ctx context.Context) {
	logger.Info().Str("topic", c.topic).Str("group_id", c.groupID).Msg("Starting Kafka consumer")
	go c.consume(ctx)
}

// Stop останавливает consumer
func (c *KafkaConsumer) Stop() {
	logger.Info().Msg("Stopping Kafka consumer")
	close(c.stopChan)
	<-c.doneChan
	if err := c.reader.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close Kafka reader")
	}
	logger.Info().Msg("Kafka consumer stopped")
}

func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		message, err := c.reader.FetchMessage(readCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if readCtx.Err() == context.DeadlineExceeded {
				continue
			}
			metrics.RecordKafkaError(consumerService, c.topic, "fetch")
			logger.Error().Err(err).Msg("Error fetching message")
			time.Sleep(time.Second)
			continue
		}

		start := time.Now()
		if err := c.processWithRetry(ctx, message); err != nil {
			// После исчерпания попыток событие пропускается, продавца проверит плановая сверка
			metrics.RecordKafkaError(consumerService, c.topic, "process")
			logger.Error().
				Err(err).
				Int64("offset", message.Offset).
				Int("partition", message.Partition).
				Msg("Giving up on market event")
		} else {
			metrics.RecordKafkaMessageConsumed(consumerService, c.topic, c.groupID, time.Since(start))
		}

		if err := c.reader.CommitMessages(ctx, message); err != nil {
			metrics.RecordKafkaError(consumerService, c.topic, "commit")
			logger.Error().Err(err).Msg("Error committing message")
		}
	}
}

// processWithRetry повторяет обработку при временных ошибках (БД, MongoDB)
func (c *KafkaConsumer) processWithRetry(ctx context.Context, message kafka.Message) error {
	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err = c.processMessage(ctx, message); err == nil {
			return nil
		}
		if attempt == c.maxAttempts {
			break
		}

		logger.Warn().Err(err).Int("attempt", attempt).Msg("Retrying market event")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * c.retryBackoff):
		}
	}
	return err
}

// processMessage разбирает событие и передает в AuditService
// Битые события и события без продавца пропускаются: повтор их не исправит
func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.MarketEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		logger.Error().
			Err(err).
			Int64("offset", message.Offset).
			Int("partition", message.Partition).
			Msg("Skipping malformed market event")
		return nil
	}

	logger.Debug().
		Str("event_type", event.EventType).
		Str("transaction_id", event.TransactionID.String()).
		Int64("offset", message.Offset).
		Msg("Received market event")

	err := c.audit.HandleEvent(ctx, event)
	if errors.Is(err, service.ErrInvalidInput) || errors.Is(err, service.ErrNotFound) {
		logger.Warn().Err(err).Str("event_type", event.EventType).Msg("Skipping unprocessable market event")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to handle %s event: %w", event.EventType, err)
	}
	return nil
}

// GetStats возвращает статистику consumer
func (c *KafkaConsumer) GetStats() kafka.ReaderStats {
	return c.reader.Stats()
}
