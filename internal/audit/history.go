package audit

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fjod/storefront/internal/domain"
)

const historyCollection = "order_history"

// HistoryStore keeps one document per order event, keyed by event id, so a
// redelivered message overwrites its own document instead of duplicating it.
type HistoryStore struct {
	collection *mongo.Collection
}

func NewHistoryStore(db *mongo.Database) *HistoryStore {
	return &HistoryStore{collection: db.Collection(historyCollection)}
}

func (s *HistoryStore) CreateIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "occurred_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (s *HistoryStore) Record(ctx context.Context, event *domain.OrderEvent) error {
	filter := bson.M{"_id": event.ID}
	opts := options.Replace().SetUpsert(true)

	if _, err := s.collection.ReplaceOne(ctx, filter, event, opts); err != nil {
		return fmt.Errorf("failed to record order event: %w", err)
	}
	return nil
}

// History returns the recorded events of one order, oldest first. An order
// with no events yields an empty slice.
func (s *HistoryStore) History(ctx context.Context, orderID int64) ([]domain.OrderEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.collection.Find(ctx, bson.M{"order_id": orderID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query order history: %w", err)
	}
	defer cursor.Close(ctx)

	events := []domain.OrderEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode order history: %w", err)
	}
	return events, nil
}
