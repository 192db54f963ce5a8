// Idempotency persistence used to implement safe-retry semantics for
// complaint submissions. Records expire via the TTL index on expires_at;
// lookups additionally filter on the expiry to cover the reaper's lag.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/civitracker/go-complaints-backend/internal/domain"
)

// IdempotencyStore persists idempotency records.
type IdempotencyStore struct {
	col *mongo.Collection
}

// NewIdempotencyStore binds a store to the idempotency collection of db.
func NewIdempotencyStore(db *mongo.Database) *IdempotencyStore {
	return &IdempotencyStore{col: db.Collection(IdempotencyCollection)}
}

// Get returns a non-expired record for (userID, scope, key), or ErrNotFound.
func (s *IdempotencyStore) Get(ctx context.Context, userID, scope, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := s.col.FindOne(ctx, bson.M{
		"user_id":    userID,
		"scope":      scope,
		"key":        key,
		"expires_at": bson.M{"$gt": now},
	}).Decode(&rec)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create inserts a record and returns ErrDuplicate when the unique
// (user_id, scope, key) index rejects it.
func (s *IdempotencyStore) Create(ctx context.Context, userID, scope, key, complaintID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:          uuid.NewString(),
		UserID:      userID,
		Scope:       scope,
		Key:         key,
		ComplaintID: complaintID,
		Status:      status,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	if _, err := s.col.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}
