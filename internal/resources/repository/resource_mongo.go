package repository

import (
	"context"
	"errors"
	"fmt"
	"time"
	resourceserrors "tourdesk/internal/resources/errors"
	"tourdesk/pkg/config"
	mongotx "tourdesk/pkg/db/mongo"
	"tourdesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoResourceRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoResourceRepository(cfg *config.Config) ResourceRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoResourceRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoResourceRepository) Create(ctx context.Context, resource *model.Resource) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	resource.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := r.collection.InsertOne(ctx, resource); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", resourceserrors.ErrDuplicateID, resource.ID)
		}
		return fmt.Errorf("failed to create resource: %w", err)
	}
	return nil
}

func (r *mongoResourceRepository) Upsert(ctx context.Context, resource *model.Resource) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"name":     resource.Name,
			"kind":     resource.Kind,
			"capacity": resource.Capacity,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	if _, err := r.collection.UpdateByID(ctx, resource.ID, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to upsert resource: %w", err)
	}
	return nil
}

func (r *mongoResourceRepository) FindByID(ctx context.Context, id string) (*model.Resource, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var resource model.Resource
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&resource); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, resourceserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find resource: %w", err)
	}
	return &resource, nil
}

func (r *mongoResourceRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Resource, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find resources: %w", err)
	}
	defer cursor.Close(ctx)

	resources := make([]*model.Resource, 0)
	if err = cursor.All(ctx, &resources); err != nil {
		return nil, fmt.Errorf("failed to decode resources: %w", err)
	}
	return resources, nil
}

func (r *mongoResourceRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{})
}

type mongoCalendarRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoCalendarRepository(cfg *config.Config) CalendarRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCalendarRepository{
		cfg:        cfg,
		collection: db.Collection(CalendarCollectionName),
	}
}

func (r *mongoCalendarRepository) FindDay(ctx context.Context, resourceID, date string) (*model.CalendarDay, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var day model.CalendarDay
	err := r.collection.FindOne(ctx, bson.M{"_id": model.CalendarDayID(resourceID, date)}).Decode(&day)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find calendar day: %w", err)
	}
	return &day, nil
}

func (r *mongoCalendarRepository) Put(ctx context.Context, day *model.CalendarDay) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	day.ID = model.CalendarDayID(day.ResourceID, day.Date)
	if len(day.Entries) == 0 {
		if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": day.ID}); err != nil {
			return fmt.Errorf("failed to clear calendar day: %w", err)
		}
		return nil
	}

	day.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": day.ID}, day, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to store calendar day: %w", err)
	}
	return nil
}
