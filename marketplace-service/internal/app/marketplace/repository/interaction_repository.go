package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"stilnovo/marketplace-service/internal/app/marketplace/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type interactionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository создает новый репозиторий взаимодействий
func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{db: db}
}

// Append добавляет запись о взаимодействии
func (r *interactionRepository) Append(ctx context.Context, interaction *entity.Interaction) error {
	return r.db.WithContext(ctx).Create(interaction).Error
}

type categoryScore struct {
	Category string
	Score    int64
}

// AggregateScoreByCategory суммирует веса взаимодействий аккаунта по категориям объявлений
// Учитываются объявления в любом статусе, включая проданные
func (r *interactionRepository) AggregateScoreByCategory(ctx context.Context, accountID uuid.UUID, weights map[entity.InteractionKind]int) (map[string]int, error) {
	scores := make(map[string]int)
	if len(weights) == 0 {
		return scores, nil
	}

	caseExpr, args := weightCase(weights)
	query := "SELECT l.category AS category, SUM(" + caseExpr + ") AS score " +
		"FROM interactions i JOIN listings l ON l.id = i.listing_id " +
		"WHERE i.account_id = ? GROUP BY l.category"
	args = append(args, accountID)

	var rows []categoryScore
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		scores[row.Category] = int(row.Score)
	}
	return scores, nil
}

// weightCase строит CASE по типу взаимодействия в стабильном порядке
// Веса подставляются литералами: параметр в THEN postgres типизирует как text
func weightCase(weights map[entity.InteractionKind]int) (string, []interface{}) {
	kinds := make([]string, 0, len(weights))
	for kind := range weights {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)

	var b strings.Builder
	args := make([]interface{}, 0, len(kinds))
	b.WriteString("CASE i.kind")
	for _, kind := range kinds {
		fmt.Fprintf(&b, " WHEN ? THEN %d", weights[entity.InteractionKind(kind)])
		args = append(args, kind)
	}
	b.WriteString(" ELSE 0 END")
	return b.String(), args
}
