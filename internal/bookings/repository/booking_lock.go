package repository

import (
	"context"
	"time"
	"tourdesk/pkg/config"
	"tourdesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LockCollectionName = "Booking_locks"

type BookingLockRepository interface {
	// Create fails with a duplicate key error while the key is held.
	Create(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error)
	// Delete removes the lock only if owner still holds it.
	Delete(ctx context.Context, key, owner string) error
	// DeleteExpired removes the lock if it expired before now.
	DeleteExpired(ctx context.Context, key string, now time.Time) (int64, error)
}

type mongoBookingLockRepository struct {
	collection *mongo.Collection
}

func NewBookingLockRepository(cfg *config.Config) BookingLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingLockRepository{
		collection: db.Collection(LockCollectionName),
	}
}

func (r *mongoBookingLockRepository) Create(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
	lock.CreatedAt = time.Now().UTC()

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		return nil, err
	}

	return lock, nil
}

func (r *mongoBookingLockRepository) Delete(ctx context.Context, key, owner string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": key, "owner": owner})
	return err
}

func (r *mongoBookingLockRepository) DeleteExpired(ctx context.Context, key string, now time.Time) (int64, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": key, "expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
