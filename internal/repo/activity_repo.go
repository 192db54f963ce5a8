// Activity feed persistence. Append-only: entries are inserted and read back
// newest-first, never updated or deleted.
package repo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civitracker/go-complaints-backend/internal/domain"
)

// ActivityStore persists the activity feed.
type ActivityStore struct {
	col *mongo.Collection
}

// NewActivityStore binds a store to the activity collection of db.
func NewActivityStore(db *mongo.Database) *ActivityStore {
	return &ActivityStore{col: db.Collection(ActivityCollection)}
}

// Append inserts one feed entry.
func (s *ActivityStore) Append(ctx context.Context, entry domain.ActivityEntry) error {
	_, err := s.col.InsertOne(ctx, entry)
	return err
}

// Recent returns the n newest entries in descending creation-time order.
func (s *ActivityStore) Recent(ctx context.Context, n int) ([]domain.ActivityEntry, error) {
	cur, err := s.col.Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(n)))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	entries := make([]domain.ActivityEntry, 0, n)
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
