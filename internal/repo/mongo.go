// Package repo implements the data persistence layer for domain entities,
// backed by the MongoDB document store. This file contains client
// bootstrapping and index management.
//
// Error semantics:
//   - When a document is not found, functions return ErrNotFound.
//   - On store errors (connectivity, write failures), the raw driver error
//     is propagated; callers log it and surface a generic failure.
package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names within the complaints database.
const (
	ComplaintsCollection  = "complaints"
	ActivityCollection    = "activity"
	IdempotencyCollection = "idempotency"
)

// ErrNotFound is returned when a requested document does not exist. It aliases
// mongo.ErrNoDocuments for consistency across the service layer and handlers.
var ErrNotFound = mongo.ErrNoDocuments

// ErrDuplicateVote is returned when an identified voter has already voted on
// the targeted complaint.
var ErrDuplicateVote = errors.New("already voted")

// ErrDuplicate indicates that an idempotency record already exists for the
// given (user_id, scope, key) tuple.
var ErrDuplicate = errors.New("duplicate")

// Connect opens a MongoDB client, verifies connectivity with a bounded ping,
// and returns the named database handle.
func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}
	return client, client.Database(dbName), nil
}

// EnsureIndexes creates the indexes the stores rely on:
//   - a text index over complaint bodies for free-text search
//   - compound status/category indexes for the common admin filters
//   - a TTL index reaping expired idempotency records
//   - a unique (user_id, scope, key) index backing safe-retry semantics
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(ComplaintsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "complaint", Value: "text"}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "timestamp", Value: -1}}},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(ActivityCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "timestamp", Value: -1}},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(IdempotencyCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "scope", Value: 1},
				{Key: "key", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	})
	return err
}
