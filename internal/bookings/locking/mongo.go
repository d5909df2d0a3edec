package locking

import (
	"context"
	"fmt"
	"sync"
	"time"
	bookingserrors "tourdesk/internal/bookings/errors"
	"tourdesk/internal/bookings/repository"
	"tourdesk/pkg/logger"
	"tourdesk/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoLocker holds advisory lock documents so several scheduler instances
// share one lock space. A document whose holder crashed expires after ttl.
type MongoLocker struct {
	repo          repository.BookingLockRepository
	ttl           time.Duration
	retryInterval time.Duration
	log           *logger.Logger
}

func NewMongoLocker(repo repository.BookingLockRepository, ttl, retryInterval time.Duration, log *logger.Logger) *MongoLocker {
	return &MongoLocker{
		repo:          repo,
		ttl:           ttl,
		retryInterval: retryInterval,
		log:           log,
	}
}

func (l *MongoLocker) Acquire(ctx context.Context, keys []string) (ReleaseFunc, error) {
	keys = normalize(keys)
	owner := uuid.NewString()
	held := make([]string, 0, len(keys))

	for _, key := range keys {
		if err := l.lock(ctx, key, owner); err != nil {
			l.unlockAll(ctx, held, owner)
			return nil, fmt.Errorf("%w: %s: %v", bookingserrors.ErrLockTimeout, key, err)
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.unlockAll(ctx, held, owner) })
	}, nil
}

func (l *MongoLocker) lock(ctx context.Context, key, owner string) error {
	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		now := time.Now().UTC()
		_, err := l.repo.Create(ctx, &model.BookingLock{
			ID:        key,
			Owner:     owner,
			ExpiresAt: now.Add(l.ttl),
		})
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return err
		}

		// The TTL monitor only runs once a minute, so expired holders are
		// cleared here as well.
		if _, err := l.repo.DeleteExpired(ctx, key, now); err != nil {
			l.log.Warn("Failed to clear expired booking lock", "key", key, "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *MongoLocker) unlockAll(ctx context.Context, keys []string, owner string) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.ttl)
	defer cancel()

	for i := len(keys) - 1; i >= 0; i-- {
		if err := l.repo.Delete(releaseCtx, keys[i], owner); err != nil {
			l.log.Warn("Failed to release booking lock", "key", keys[i], "owner", owner, "error", err)
		}
	}
}
