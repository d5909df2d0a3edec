package repository

import (
	"context"
	"fmt"
	"sort"
	"time"
	"tourdesk/pkg/config"
	"tourdesk/pkg/db/memory"
	mongotx "tourdesk/pkg/db/mongo"
	"tourdesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Notifications"

// NotificationRepository is the inbox. Notifications are never changed once stored.
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	// ListByRecipient returns the newest notifications addressed to recipient first.
	ListByRecipient(ctx context.Context, recipient string, limit int) ([]*model.Notification, error)
}

type memoryNotificationRepository struct {
	table *memory.Table[*model.Notification]
}

func NewMemoryNotificationRepository(store *memory.Store) NotificationRepository {
	return &memoryNotificationRepository{
		table: memory.NewTable[*model.Notification](store),
	}
}

func (r *memoryNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	stored := *n
	stored.Recipients = append([]string(nil), n.Recipients...)
	return r.table.Insert(ctx, n.ID, &stored)
}

func (r *memoryNotificationRepository) ListByRecipient(ctx context.Context, recipient string, limit int) ([]*model.Notification, error) {
	out := make([]*model.Notification, 0)
	r.table.Scan(func(_ string, n *model.Notification) bool {
		for _, rcpt := range n.Recipients {
			if rcpt == recipient {
				c := *n
				out = append(out, &c)
				break
			}
		}
		return true
	})

	sortNewestFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortNewestFirst(ns []*model.Notification) {
	sort.Slice(ns, func(i, j int) bool {
		if !ns[i].CreatedAt.Equal(ns[j].CreatedAt) {
			return ns[i].CreatedAt.After(ns[j].CreatedAt)
		}
		return ns[i].ID > ns[j].ID
	})
}

type mongoNotificationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoNotificationRepository(cfg *config.Config) NotificationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoNotificationRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if _, err := r.collection.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	return nil
}

func (r *mongoNotificationRepository) ListByRecipient(ctx context.Context, recipient string, limit int) ([]*model.Notification, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"recipients": recipient}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := make([]*model.Notification, 0)
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}
