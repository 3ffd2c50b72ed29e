package archive

import (
	"context"
	"fmt"
	"time"

	"stilnovo/marketplace-service/internal/app/marketplace/entity"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "transaction_reversals"

// MongoArchive хранит снимки отмененных сделок
// Запись идемпотентна по transaction_id: повторная доставка события не создает дубликат
type MongoArchive struct {
	collection *mongo.Collection
}

func NewMongoArchive(db *mongo.Database) *MongoArchive {
	return &MongoArchive{collection: db.Collection(collectionName)}
}

// EnsureIndexes создает уникальный индекс по сделке и индекс по продавцу
func (a *MongoArchive) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := a.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "transaction_id", Value: 1}},
			Options: options.Index().SetName("transaction_id_uq").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "seller_id", Value: 1}, {Key: "reversed_at", Value: -1}},
			Options: options.Index().SetName("seller_reversed_idx"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create reversal indexes: %w", err)
	}
	return nil
}

// Archive сохраняет снимок, перезаписывая ранее сохраненный для той же сделки
func (a *MongoArchive) Archive(ctx context.Context, record *entity.ReversalRecord) error {
	filter := bson.M{"transaction_id": record.TransactionID}
	opts := options.Replace().SetUpsert(true)

	if _, err := a.collection.ReplaceOne(ctx, filter, record, opts); err != nil {
		return fmt.Errorf("failed to archive reversal: %w", err)
	}
	return nil
}

// FindBySeller возвращает отмены по продавцу, свежие первыми
func (a *MongoArchive) FindBySeller(ctx context.Context, sellerID uuid.UUID) ([]entity.ReversalRecord, error) {
	filter := bson.M{"seller_id": sellerID.String()}
	opts := options.Find().SetSort(bson.D{{Key: "reversed_at", Value: -1}})

	cursor, err := a.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reversals: %w", err)
	}
	defer cursor.Close(ctx)

	var records []entity.ReversalRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode reversals: %w", err)
	}

	return records, nil
}
