// Package domain defines the core persistence models for the application.
package domain

import "time"

// Idempotency records a previously processed unsafe request, keyed by
// (user_id, scope, key) where scope is the route being retried. It enables
// safe retries for complaint submissions by letting the transport layer detect
// a replay without re-executing side effects. Expired records are reaped by a
// TTL index on expires_at.
type Idempotency struct {
	ID          string    `bson:"_id"          json:"id"`
	UserID      string    `bson:"user_id"      json:"user_id"`
	Scope       string    `bson:"scope"        json:"scope"`
	Key         string    `bson:"key"          json:"key"`
	ComplaintID string    `bson:"complaint_id" json:"complaint_id"`
	Status      int       `bson:"status"       json:"status"`
	CreatedAt   time.Time `bson:"created_at"   json:"created_at"`
	ExpiresAt   time.Time `bson:"expires_at"   json:"expires_at"`
}
