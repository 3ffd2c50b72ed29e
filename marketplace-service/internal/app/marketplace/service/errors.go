package service

import (
	"errors"
	"fmt"

	"stilnovo/marketplace-service/internal/app/marketplace/repository"
	"stilnovo/pkg/metrics"
)

const metricsService = "marketplace-service"

var (
	// Базовые категории ошибок, handler маппит их на HTTP статусы
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrInvalidInput = errors.New("invalid input")
)

var (
	// Ошибки бизнес-логики, errors.Is работает и с базовой категорией
	ErrAccountNotFound     = fmt.Errorf("account %w", ErrNotFound)
	ErrListingNotFound     = fmt.Errorf("listing %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrRatingNotFound      = fmt.Errorf("rating %w", ErrNotFound)

	ErrNotTransactionBuyer       = fmt.Errorf("%w: only the buyer can rate this transaction", ErrForbidden)
	ErrNotTransactionParticipant = fmt.Errorf("%w: account is not a party to this transaction", ErrForbidden)
	ErrNotRatingAuthor           = fmt.Errorf("%w: only the rating author can change it", ErrForbidden)
	ErrSelfPurchase              = fmt.Errorf("%w: sellers cannot purchase their own listings", ErrForbidden)

	ErrListingNotActive = fmt.Errorf("%w: listing is not available for purchase", ErrInvalidState)
	ErrDuplicateRating  = fmt.Errorf("%w: transaction has already been rated", ErrInvalidState)

	ErrInvalidStars           = fmt.Errorf("%w: stars must be between 1 and 5", ErrInvalidInput)
	ErrInvalidInteractionKind = fmt.Errorf("%w: unknown interaction kind", ErrInvalidInput)
)

// translateError переводит ошибки репозитория в ошибки сервиса
// Ошибки сервиса, вернувшиеся из unit of work, проходят без изменений
func translateError(err error, op string) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden),
		errors.Is(err, ErrInvalidState), errors.Is(err, ErrInvalidInput):
		return err
	case errors.Is(err, repository.ErrAccountNotFound):
		return ErrAccountNotFound
	case errors.Is(err, repository.ErrListingNotFound):
		return ErrListingNotFound
	case errors.Is(err, repository.ErrTransactionNotFound):
		return ErrTransactionNotFound
	case errors.Is(err, repository.ErrRatingNotFound):
		return ErrRatingNotFound
	case errors.Is(err, repository.ErrDuplicateRating):
		return ErrDuplicateRating
	}
	metrics.RecordDbError(metricsService, op)
	return fmt.Errorf("failed to %s: %w", op, err)
}
