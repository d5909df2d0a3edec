package model

import "time"

// BookingLock is an advisory lock document. The _id is the lock key, so a second
// insert for the same key fails with a duplicate key error while the lock is held.
// Owner lets a holder release only its own lock; ExpiresAt backs a TTL index that
// clears locks left behind by crashed instances.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
