package service

import (
	"context"
	"fmt"

	"stilnovo/marketplace-service/internal/app/marketplace/entity"
	"stilnovo/marketplace-service/internal/app/marketplace/infrastructure"
	"stilnovo/marketplace-service/internal/app/marketplace/repository"
	"stilnovo/pkg/logger"
	"stilnovo/pkg/metrics"

	"github.com/google/uuid"
)

// AuditService сверяет производные поля продавцов с исходными данными
// Репутацию чинит через ReputationService, расхождение выручки только сообщает
type AuditService struct {
	uow        repository.UnitOfWork
	reputation SellerReputationRecomputer
	archive    infrastructure.ReversalArchive
}

// NewAuditService создает сервис аудита для процесса auditor
func NewAuditService(uow repository.UnitOfWork, reputation SellerReputationRecomputer, archive infrastructure.ReversalArchive) *AuditService {
	return &AuditService{
		uow:        uow,
		reputation: reputation,
		archive:    archive,
	}
}

// AuditSeller проверяет одного продавца
// Баланс и сумма сделок читаются в одной транзакции под блокировкой строки продавца,
// поэтому параллельная покупка попадает либо в оба значения, либо ни в одно
func (s *AuditService) AuditSeller(ctx context.Context, sellerID uuid.UUID) (*entity.AuditReport, error) {
	var (
		before *entity.Account
		totals *entity.SellerLedgerTotals
	)

	err := s.uow.Do(ctx, func(repos repository.Repositories) error {
		var err error
		before, err = repos.Accounts().LockForUpdate(ctx, sellerID)
		if err != nil {
			return err
		}

		totals, err = repos.Transactions().SellerTotals(ctx, sellerID)
		return err
	})
	if err != nil {
		metrics.LedgerAudits.WithLabelValues("failed").Inc()
		return nil, translateError(err, "read seller ledger")
	}

	after, err := s.reputation.RecomputeSellerReputation(ctx, sellerID)
	if err != nil {
		metrics.LedgerAudits.WithLabelValues("failed").Inc()
		return nil, err
	}

	report := &entity.AuditReport{
		SellerID:           sellerID,
		ReputationBefore:   before.ReputationScore,
		ReputationAfter:    after.ReputationScore,
		RatingCount:        after.RatingCount,
		LedgerBalance:      before.LedgerBalance,
		LifetimeRevenue:    before.LifetimeRevenue,
		ExpectedRevenue:    totals.TotalFinalPrice,
		ReputationRepaired: before.ReputationScore != after.ReputationScore || before.RatingCount != after.RatingCount,
		LedgerDrift: !before.LifetimeRevenue.Equal(totals.TotalFinalPrice) ||
			!before.LedgerBalance.Equal(totals.TotalFinalPrice),
	}

	if report.ReputationRepaired {
		logger.Warn().
			Str("seller_id", sellerID.String()).
			Float64("reputation_before", report.ReputationBefore).
			Float64("reputation_after", report.ReputationAfter).
			Msg("Seller reputation repaired")
	}

	if report.LedgerDrift {
		metrics.LedgerDriftDetected.Inc()
		logger.Error().
			Str("seller_id", sellerID.String()).
			Str("ledger_balance", report.LedgerBalance.StringFixed(2)).
			Str("lifetime_revenue", report.LifetimeRevenue.StringFixed(2)).
			Str("expected_revenue", report.ExpectedRevenue.StringFixed(2)).
			Int64("transactions", totals.TransactionCount).
			Msg("Seller ledger does not match transactions")
	}

	metrics.LedgerAudits.WithLabelValues("success").Inc()
	return report, nil
}

// AuditAll проверяет всех продавцов; ошибка по одному продавцу не останавливает проход
func (s *AuditService) AuditAll(ctx context.Context) ([]entity.AuditReport, error) {
	timer := metrics.NewTimer()
	defer func() { metrics.AuditDuration.Observe(timer.Seconds()) }()

	ids, err := s.uow.Accounts().ListIDs(ctx)
	if err != nil {
		return nil, translateError(err, "list accounts")
	}

	reports := make([]entity.AuditReport, 0, len(ids))
	failed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return reports, ctx.Err()
		}

		report, err := s.AuditSeller(ctx, id)
		if err != nil {
			failed++
			logger.Error().Err(err).Str("seller_id", id.String()).Msg("Seller audit failed")
			continue
		}
		reports = append(reports, *report)
	}

	logger.Info().
		Int("audited", len(reports)).
		Int("failed", failed).
		Dur("duration", timer.Duration()).
		Msg("Ledger audit finished")

	return reports, nil
}

// HandleEvent реагирует на событие маркетплейса
// TRANSACTION_REVERSED сначала архивируется, затем продавец проверяется
func (s *AuditService) HandleEvent(ctx context.Context, event entity.MarketEvent) error {
	switch event.EventType {
	case entity.EventTransactionReversed:
		if err := s.ArchiveReversal(ctx, event); err != nil {
			return err
		}
	case entity.EventPurchaseCompleted, entity.EventRatingSaved,
		entity.EventRatingUpdated, entity.EventRatingDeleted:
	default:
		logger.Debug().Str("event_type", event.EventType).Msg("Ignoring unknown market event")
		return nil
	}

	if event.SellerID == uuid.Nil {
		return fmt.Errorf("%w: event %s has no seller", ErrInvalidInput, event.EventType)
	}

	_, err := s.AuditSeller(ctx, event.SellerID)
	return err
}

// ArchiveReversal сохраняет снимок отмененной сделки
func (s *AuditService) ArchiveReversal(ctx context.Context, event entity.MarketEvent) error {
	record := entity.NewReversalRecord(event)
	if err := s.archive.Archive(ctx, &record); err != nil {
		return fmt.Errorf("failed to archive reversal %s: %w", event.TransactionID, err)
	}

	logger.Info().
		Str("transaction_id", record.TransactionID).
		Str("seller_id", record.SellerID).
		Msg("Reversal archived")
	return nil
}
